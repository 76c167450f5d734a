package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	capturein "worksmart/internal/modules/capture/port/in"
	"worksmart/internal/modules/daemon/domain"
	daemonout "worksmart/internal/modules/daemon/port/out"
	prefsin "worksmart/internal/modules/preferences/port/in"
	sessiondto "worksmart/internal/modules/session/dto"
	sessionin "worksmart/internal/modules/session/port/in"
	trackerdto "worksmart/internal/modules/tracker/dto"
	trackerin "worksmart/internal/modules/tracker/port/in"
	"worksmart/internal/platform/clock"
	apperrors "worksmart/internal/platform/errors"
	"worksmart/internal/platform/logging"
)

const (
	daemonStartTimeout = 5 * time.Second
	daemonStopTimeout  = 2 * time.Second
	shutdownTimeout    = 30 * time.Second
)

type Options struct {
	Clock clock.Clock
	// Provider names the capture provider in status reports.
	Provider string
	// ExecArgs are the arguments used to re-exec the current binary as a daemon.
	ExecArgs []string
	Logger   *slog.Logger
}

type DaemonService struct {
	homeDir   string
	store     daemonout.DaemonStore
	ipcServer daemonout.IPCServer
	ipcClient daemonout.IPCClient
	sessions  sessionin.Usecase
	tracker   trackerin.Usecase
	prefs     prefsin.Usecase
	pump      capturein.InputPump
	clock     clock.Clock
	provider  string
	execArgs  []string
	logger    *slog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	startedAt time.Time
}

func NewDaemonService(
	homeDir string,
	store daemonout.DaemonStore,
	ipcServer daemonout.IPCServer,
	ipcClient daemonout.IPCClient,
	sessions sessionin.Usecase,
	tracker trackerin.Usecase,
	prefs prefsin.Usecase,
	pump capturein.InputPump,
	opts Options,
) *DaemonService {
	if opts.Clock == nil {
		opts.Clock = clock.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if len(opts.ExecArgs) == 0 {
		opts.ExecArgs = []string{"daemon", "__run", "--home", homeDir}
	}
	return &DaemonService{
		homeDir:   homeDir,
		store:     store,
		ipcServer: ipcServer,
		ipcClient: ipcClient,
		sessions:  sessions,
		tracker:   tracker,
		prefs:     prefs,
		pump:      pump,
		clock:     opts.Clock,
		provider:  opts.Provider,
		execArgs:  opts.ExecArgs,
		logger:    opts.Logger,
	}
}

// RunDaemon serves IPC and pumps input until ctx ends or Stop is called.
// A running session is stopped and its pending capsules flushed before it returns.
func (s *DaemonService) RunDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	if s.ipcServer == nil {
		return fmt.Errorf("ipc server is not configured")
	}

	cleaned, err := s.tracker.CleanUp(ctx)
	if err != nil {
		s.logger.Warn("tracker clean up failed", "error", err)
	} else if cleaned.Removed > 0 {
		s.logger.Info("tracker history cleaned", "today", cleaned.Today, "removed", cleaned.Removed)
	}

	startedAt := s.clock.Now()
	if err := s.store.WriteRecord(ctx, s.record(os.Getpid(), startedAt)); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.startedAt = startedAt
	s.mu.Unlock()
	defer s.cleanupRuntime(context.Background())

	s.logger.Info("daemon started", "pid", os.Getpid(), "socket", s.store.SocketPath(), "provider", s.provider)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		err := s.ipcServer.Serve(gctx, s.store.SocketPath(), &handler{s: s})
		if err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("ipc server: %w", err)
		}
		return nil
	})
	if s.pump != nil {
		g.Go(func() error {
			if err := s.pump.Run(gctx); err != nil && gctx.Err() == nil {
				s.logger.Warn("input pump stopped", "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := s.sessions.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("session shutdown incomplete", "error", err)
		}
		return nil
	})

	s.autoStart(gctx)

	err = g.Wait()
	s.logger.Info("daemon stopped")
	return err
}

func (s *DaemonService) autoStart(ctx context.Context) {
	settings, err := s.prefs.Get(ctx)
	if err != nil {
		s.logger.Warn("read preferences for auto start", "error", err)
		return
	}
	if !settings.TrackOnSignin || ctx.Err() != nil {
		return
	}
	out, err := s.sessions.Start(ctx)
	if err != nil {
		s.logger.Warn("auto start session failed", "error", err)
		return
	}
	s.logger.Info("session auto started", "session_id", out.ID)
}

func (s *DaemonService) StartDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	status, err := s.DaemonStatus(ctx)
	if err == nil && status.Running {
		if socketReachable(s.store.SocketPath()) {
			return nil
		}
		return fmt.Errorf("%w: daemon process is alive but socket is unavailable", apperrors.ErrDaemonStartFailed)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.store.LogPath()), 0o755); err != nil {
		return fmt.Errorf("create daemon log dir: %w", err)
	}
	if err := os.Remove(s.store.SocketPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale daemon socket: %w", err)
	}

	logFile, err := os.OpenFile(s.store.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(execPath, s.execArgs...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if err := s.store.WriteRecord(ctx, s.record(cmd.Process.Pid, s.clock.Now())); err != nil {
		return err
	}
	_ = cmd.Process.Release()

	if err := waitForSocket(s.store.SocketPath(), daemonStartTimeout); err != nil {
		_ = s.store.ClearRecord(ctx)
		return fmt.Errorf("%w: %v", apperrors.ErrDaemonStartFailed, err)
	}
	return nil
}

// StopDaemon asks the daemon to exit over IPC and falls back to signals.
func (s *DaemonService) StopDaemon(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		return nil
	}

	if s.ipcClient != nil {
		_ = s.ipcClient.Stop(ctx, s.store.SocketPath())
	}

	record, err := s.store.ReadRecord(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_ = os.Remove(s.store.SocketPath())
			return nil
		}
		return err
	}
	pid := record.PID
	if !processAlive(pid) {
		_ = s.store.ClearRecord(ctx)
		_ = os.Remove(s.store.SocketPath())
		return nil
	}
	if !waitForExit(pid, shutdownTimeout) {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
		}
		if !waitForExit(pid, daemonStopTimeout) {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
	}
	if err := s.store.ClearRecord(ctx); err != nil {
		return err
	}
	_ = os.Remove(s.store.SocketPath())
	return nil
}

func (s *DaemonService) DaemonStatus(ctx context.Context) (domain.RuntimeStatus, error) {
	out := domain.RuntimeStatus{SocketPath: s.store.SocketPath(), LogPath: s.store.LogPath()}
	record, err := s.store.ReadRecord(ctx)
	if err == nil {
		out.PID = record.PID
		out.Provider = record.Provider
		out.StartedAt = record.StartedAt
		out.Running = processAlive(record.PID)
	}
	if out.Running && s.ipcClient != nil {
		status, statusErr := s.ipcClient.Status(ctx, s.store.SocketPath())
		if statusErr == nil {
			out.Status = status
			out.Reachable = true
		}
	}
	return out, nil
}

// EnsureStopped fails with ErrDaemonRunning while another live process owns
// the home directory. Commands that write the tracker or record sessions on
// their own must not run beside it.
func (s *DaemonService) EnsureStopped(ctx context.Context) error {
	status, err := s.DaemonStatus(ctx)
	if err != nil {
		return err
	}
	if status.Running && status.PID != os.Getpid() {
		return fmt.Errorf("%w: pid %d", apperrors.ErrDaemonRunning, status.PID)
	}
	return nil
}

func (s *DaemonService) StartSession(ctx context.Context) (sessiondto.SessionOutput, error) {
	return s.ipcClient.StartSession(ctx, s.store.SocketPath())
}

func (s *DaemonService) StopSession(ctx context.Context, mode string) (sessiondto.SessionOutput, error) {
	return s.ipcClient.StopSession(ctx, s.store.SocketPath(), mode)
}

func (s *DaemonService) Session(ctx context.Context) (sessiondto.SessionOutput, error) {
	return s.ipcClient.Session(ctx, s.store.SocketPath())
}

func (s *DaemonService) Today(ctx context.Context) (trackerdto.TodayOutput, error) {
	return s.ipcClient.Today(ctx, s.store.SocketPath())
}

func (s *DaemonService) status(ctx context.Context) (domain.Status, error) {
	s.mu.Lock()
	out := domain.Status{PID: os.Getpid(), StartedAt: s.startedAt, Provider: s.provider}
	s.mu.Unlock()

	sess, err := s.sessions.Get(ctx)
	switch {
	case err == nil:
		out.SessionID = sess.ID
		out.SessionRunning = sess.Running
		out.SessionStartedAt = sess.StartedAt
	case !errors.Is(err, apperrors.ErrNoActiveSession):
		return domain.Status{}, err
	}

	today, err := s.tracker.GetToday(ctx)
	if err != nil {
		return domain.Status{}, err
	}
	out.Day = today.Day
	out.TodaySeconds = today.Seconds
	return out, nil
}

func (s *DaemonService) requestStop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *DaemonService) cleanupRuntime(ctx context.Context) {
	s.mu.Lock()
	s.cancel = nil
	s.mu.Unlock()
	_ = s.store.ClearRecord(ctx)
	_ = os.Remove(s.store.SocketPath())
}

func (s *DaemonService) cleanupStaleArtifacts(ctx context.Context) error {
	record, err := s.store.ReadRecord(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else if !processAlive(record.PID) {
		_ = s.store.ClearRecord(ctx)
		_ = os.Remove(s.store.SocketPath())
	}

	if _, statErr := os.Stat(s.store.SocketPath()); statErr == nil && !socketReachable(s.store.SocketPath()) {
		if removeErr := os.Remove(s.store.SocketPath()); removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("remove stale daemon socket: %w", removeErr)
		}
	}
	return nil
}

func (s *DaemonService) record(pid int, startedAt time.Time) domain.ProcessRecord {
	return domain.ProcessRecord{PID: pid, Provider: s.provider, Home: s.homeDir, StartedAt: startedAt}
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if socketReachable(path) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon socket not ready: %s", path)
}

func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return !processAlive(pid)
}

func socketReachable(path string) bool {
	conn, err := net.DialTimeout("unix", path, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
