package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"worksmart/internal/modules/session/domain"
	sessiondto "worksmart/internal/modules/session/dto"
	sessionin "worksmart/internal/modules/session/port/in"
	sessionout "worksmart/internal/modules/session/port/out"
	"worksmart/internal/modules/session/service"
	"worksmart/internal/platform/clock"
	apperrors "worksmart/internal/platform/errors"
	"worksmart/internal/platform/id"
)

// Interactor is the session controller: at most one session runs at a time.
type Interactor struct {
	svc         *service.SessionService
	clock       clock.Clock
	idGen       id.Generator
	activeStore sessionout.ActiveSessionStore
	logger      *slog.Logger

	mu      sync.Mutex
	current *domain.Session
	exited  chan struct{}
}

func NewInteractor(svc *service.SessionService, clock clock.Clock, idGen id.Generator, activeStore sessionout.ActiveSessionStore, logger *slog.Logger) sessionin.Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interactor{svc: svc, clock: clock, idGen: idGen, activeStore: activeStore, logger: logger}
}

func (i *Interactor) Start(ctx context.Context) (sessiondto.SessionOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.current != nil && i.current.Running() {
		return toOutput(i.current.Snapshot()), nil
	}

	sess := domain.NewSession(i.idGen.New(), i.clock.Now())
	if i.activeStore != nil {
		if err := i.activeStore.SaveActive(ctx, domain.ActiveSession{SessionID: sess.ID, StartedAt: sess.StartedAt, PID: os.Getpid()}); err != nil {
			return sessiondto.SessionOutput{}, err
		}
	}
	exited := make(chan struct{})
	i.current = sess
	i.exited = exited

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer close(exited)
		i.svc.Run(runCtx, sess)
		if i.activeStore != nil {
			if err := i.activeStore.ClearActive(runCtx, sess.ID); err != nil {
				i.logger.Warn("clear active session", "session_id", sess.ID, "error", err)
			}
		}
	}()
	return toOutput(sess.Snapshot()), nil
}

func (i *Interactor) Stop(_ context.Context, input sessiondto.StopInput) (sessiondto.SessionOutput, error) {
	mode, err := domain.ParseStopMode(input.Mode)
	if err != nil {
		return sessiondto.SessionOutput{}, errors.Join(apperrors.ErrInvalidInput, err)
	}
	i.mu.Lock()
	sess := i.current
	i.mu.Unlock()
	if sess == nil || !sess.Running() {
		return sessiondto.SessionOutput{}, apperrors.ErrNoActiveSession
	}
	sess.Stop(mode)
	return toOutput(sess.Snapshot()), nil
}

// Get reports the current session, or the last one if it has ended.
func (i *Interactor) Get(_ context.Context) (sessiondto.SessionOutput, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.current == nil {
		return sessiondto.SessionOutput{}, apperrors.ErrNoActiveSession
	}
	return toOutput(i.current.Snapshot()), nil
}

func (i *Interactor) Wait(ctx context.Context) (sessiondto.SessionOutput, error) {
	i.mu.Lock()
	sess, exited := i.current, i.exited
	i.mu.Unlock()
	if sess == nil {
		return sessiondto.SessionOutput{}, apperrors.ErrNoActiveSession
	}
	select {
	case <-exited:
		return toOutput(sess.Snapshot()), nil
	case <-ctx.Done():
		return sessiondto.SessionOutput{}, ctx.Err()
	}
}

func (i *Interactor) Events(ctx context.Context, limit int) ([]sessiondto.EventOutput, error) {
	events, err := i.svc.Events(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.EventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, sessiondto.EventOutput{
			Kind:           string(e.Kind),
			SessionID:      e.SessionID,
			CapsuleID:      e.CapsuleID,
			Reason:         e.Reason,
			ElapsedSeconds: e.ElapsedSeconds,
			Error:          e.Error,
			OccurredAt:     e.OccurredAt,
		})
	}
	return out, nil
}

func (i *Interactor) Shutdown(ctx context.Context) error {
	i.mu.Lock()
	sess, exited := i.current, i.exited
	i.mu.Unlock()
	if sess != nil {
		sess.Stop(domain.StopImmediate)
		select {
		case <-exited:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return i.svc.Drain(ctx)
}

func toOutput(s domain.Snapshot) sessiondto.SessionOutput {
	return sessiondto.SessionOutput{ID: s.ID, StartedAt: s.StartedAt, EndedAt: s.EndedAt, Running: s.Running}
}
