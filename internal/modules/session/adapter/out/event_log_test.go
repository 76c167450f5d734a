package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	sessionout "worksmart/internal/modules/session/adapter/out"
	"worksmart/internal/modules/session/domain"
	apperrors "worksmart/internal/platform/errors"
)

func TestEventLogTailKeepsNewestInOrder(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	log := sessionout.NewFileEventLog(home)
	at := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)
	for i, kind := range []domain.EventKind{domain.EventSessionStarted, domain.EventCapsuleStarted, domain.EventCapsuleEnded, domain.EventSessionEnded} {
		if err := log.Append(context.Background(), domain.Event{Kind: kind, SessionID: "s1", OccurredAt: at.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	f, err := os.OpenFile(filepath.Join(home, "session-events.jsonl"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	_, _ = f.WriteString("not json\n")
	_ = f.Close()

	events, err := log.Tail(context.Background(), 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(events) != 2 || events[0].Kind != domain.EventCapsuleEnded || events[1].Kind != domain.EventSessionEnded {
		t.Fatalf("unexpected tail %+v", events)
	}
}

func TestEventLogTailOnMissingFile(t *testing.T) {
	t.Parallel()
	events, err := sessionout.NewFileEventLog(t.TempDir()).Tail(context.Background(), 10)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty tail, got %v %v", events, err)
	}
}

func TestActiveSessionStoreLifecycle(t *testing.T) {
	t.Parallel()
	store := sessionout.NewFileActiveSessionStore(t.TempDir())
	ctx := context.Background()
	if _, err := store.LoadActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
	active := domain.ActiveSession{SessionID: "s1", StartedAt: time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC), PID: 42}
	if err := store.SaveActive(ctx, active); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadActive(ctx)
	if err != nil || got.SessionID != "s1" || got.PID != 42 {
		t.Fatalf("load: %+v %v", got, err)
	}
	if err := store.ClearActive(ctx, "s0"); err != nil {
		t.Fatalf("clear for another session: %v", err)
	}
	if got, err := store.LoadActive(ctx); err != nil || got.SessionID != "s1" {
		t.Fatalf("marker of s1 must survive a clear for s0, got %+v %v", got, err)
	}
	if err := store.ClearActive(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.LoadActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected marker removed, got %v", err)
	}
	if err := store.ClearActive(ctx, "s1"); err != nil {
		t.Fatalf("clearing twice must succeed: %v", err)
	}
	if err := store.SaveActive(ctx, domain.ActiveSession{}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty id, got %v", err)
	}
}
