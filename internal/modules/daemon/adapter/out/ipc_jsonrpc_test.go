package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	out "worksmart/internal/modules/daemon/adapter/out"
	"worksmart/internal/modules/daemon/domain"
	sessiondto "worksmart/internal/modules/session/dto"
	trackerdto "worksmart/internal/modules/tracker/dto"
	apperrors "worksmart/internal/platform/errors"
)

type fakeIPCHandler struct {
	mu       sync.Mutex
	running  bool
	lastMode string
	stopped  bool
}

func (h *fakeIPCHandler) StartSession(context.Context) (sessiondto.SessionOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = true
	return sessiondto.SessionOutput{ID: "session-1", StartedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), Running: true}, nil
}

func (h *fakeIPCHandler) StopSession(_ context.Context, mode string) (sessiondto.SessionOutput, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return sessiondto.SessionOutput{}, apperrors.ErrNoActiveSession
	}
	h.lastMode = mode
	return sessiondto.SessionOutput{ID: "session-1", Running: true}, nil
}

func (h *fakeIPCHandler) Session(context.Context) (sessiondto.SessionOutput, error) {
	return sessiondto.SessionOutput{ID: "session-1", Running: true}, nil
}

func (h *fakeIPCHandler) Today(context.Context) (trackerdto.TodayOutput, error) {
	return trackerdto.TodayOutput{Day: "2026-3-2", Seconds: 240}, nil
}

func (h *fakeIPCHandler) Status(context.Context) (domain.Status, error) {
	return domain.Status{PID: 42, Provider: "synthetic", SessionID: "session-1", SessionRunning: true, Day: "2026-3-2", TodaySeconds: 240}, nil
}

func (h *fakeIPCHandler) Stop(context.Context) error {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
	return nil
}

func TestJSONRPCServerClientContract(t *testing.T) {
	t.Parallel()
	h := &fakeIPCHandler{}
	server := out.NewJSONRPCServer()
	client := out.NewJSONRPCClient()
	socketPath := filepath.Join(t.TempDir(), "daemon.sock")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ctx, socketPath, h)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := client.Status(context.Background(), socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if _, err := client.StopSession(context.Background(), socketPath, "immediate"); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected no active session across the socket, got %v", err)
	}

	started, err := client.StartSession(context.Background(), socketPath)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if started.ID != "session-1" || !started.Running || !started.StartedAt.Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start output: %+v", started)
	}

	if _, err := client.StopSession(context.Background(), socketPath, "after_current"); err != nil {
		t.Fatalf("stop session: %v", err)
	}
	h.mu.Lock()
	mode := h.lastMode
	h.mu.Unlock()
	if mode != "after_current" {
		t.Fatalf("stop mode not forwarded, got %q", mode)
	}

	today, err := client.Today(context.Background(), socketPath)
	if err != nil || today.Seconds != 240 || today.Day != "2026-3-2" {
		t.Fatalf("unexpected today: %+v, %v", today, err)
	}

	status, err := client.Status(context.Background(), socketPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.PID != 42 || status.Provider != "synthetic" || !status.SessionRunning {
		t.Fatalf("unexpected status: %+v", status)
	}

	if err := client.Stop(context.Background(), socketPath); err != nil {
		t.Fatalf("stop: %v", err)
	}
	h.mu.Lock()
	stopped := h.stopped
	h.mu.Unlock()
	if !stopped {
		t.Fatalf("expected handler stop to be called")
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not exit after cancel")
	}
}

func TestJSONRPCClientWithoutDaemon(t *testing.T) {
	t.Parallel()
	client := out.NewJSONRPCClient()
	_, err := client.Session(context.Background(), filepath.Join(t.TempDir(), "missing.sock"))
	if !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		t.Fatalf("expected daemon not running, got %v", err)
	}
}

func TestFileDaemonStoreRoundTrip(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "daemon")
	store := out.NewFileDaemonStore(dir)
	ctx := context.Background()

	if _, err := store.ReadRecord(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist on missing record, got %v", err)
	}
	if err := store.WriteRecord(ctx, domain.ProcessRecord{PID: 0}); err == nil {
		t.Fatalf("expected invalid pid to be rejected")
	}
	want := domain.ProcessRecord{PID: 4242, Provider: "plugin:/opt/capture", Home: "/home/ada/.local/share/worksmart", StartedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	if err := store.WriteRecord(ctx, want); err != nil {
		t.Fatalf("write record: %v", err)
	}
	got, err := store.ReadRecord(ctx)
	if err != nil || got.PID != want.PID || got.Provider != want.Provider || got.Home != want.Home || !got.StartedAt.Equal(want.StartedAt) {
		t.Fatalf("read record: %+v, %v", got, err)
	}
	if err := store.ClearRecord(ctx); err != nil {
		t.Fatalf("clear record: %v", err)
	}
	if err := store.ClearRecord(ctx); err != nil {
		t.Fatalf("clear record twice: %v", err)
	}
	if store.SocketPath() != filepath.Join(dir, "daemon.sock") || store.LogPath() != filepath.Join(dir, "daemon.log") {
		t.Fatalf("unexpected paths: %s %s", store.SocketPath(), store.LogPath())
	}
}
