package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	capsuledomain "worksmart/internal/modules/capsule/domain"
	capsuledto "worksmart/internal/modules/capsule/dto"
	capsulein "worksmart/internal/modules/capsule/port/in"
	prefsin "worksmart/internal/modules/preferences/port/in"
	"worksmart/internal/modules/session/domain"
	sessionout "worksmart/internal/modules/session/port/out"
	trackerin "worksmart/internal/modules/tracker/port/in"
	"worksmart/internal/platform/clock"
)

// FailedAttemptBackoff is the pause after a capsule attempt that could not start.
const FailedAttemptBackoff = 5 * time.Second

type Options struct {
	Clock   clock.Clock
	Sleeper clock.Sleeper
	Backoff time.Duration
	Logger  *slog.Logger
}

// SessionService runs the capsule loop of a session and settles every capsule
// in the background once it has exited.
type SessionService struct {
	capsules capsulein.Recorder
	tracker  trackerin.Usecase
	prefs    prefsin.Usecase
	events   sessionout.EventLog
	homeDir  string

	clock   clock.Clock
	sleep   clock.Sleeper
	backoff time.Duration
	logger  *slog.Logger

	// settlements in flight; idle is closed whenever inFlight drops to zero.
	settleMu sync.Mutex
	inFlight int
	idle     chan struct{}
}

func NewSessionService(capsules capsulein.Recorder, tracker trackerin.Usecase, prefs prefsin.Usecase, events sessionout.EventLog, homeDir string, opts Options) *SessionService {
	s := &SessionService{
		capsules: capsules,
		tracker:  tracker,
		prefs:    prefs,
		events:   events,
		homeDir:  homeDir,
		clock:    opts.Clock,
		sleep:    opts.Sleeper,
		backoff:  opts.Backoff,
		logger:   opts.Logger,
	}
	if s.clock == nil {
		s.clock = clock.SystemClock{}
	}
	if s.sleep == nil {
		s.sleep = clock.Sleep
	}
	if s.backoff <= 0 {
		s.backoff = FailedAttemptBackoff
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run records capsules back to back until the session is stopped. Capsule
// N+1 is opened only after capsule N has exited. Shutdown ends the session at
// once; a soft stop is honoured when a capsule ends on its own.
func (s *SessionService) Run(ctx context.Context, sess *domain.Session) {
	logger := s.logger.With("session_id", sess.ID)
	shutdown := sess.ShutdownToken()
	softStop := sess.SoftStopToken()

	s.emit(ctx, domain.Event{Kind: domain.EventSessionStarted, SessionID: sess.ID})
	logger.Info("session started")
	defer func() {
		sess.Finish(s.clock.Now())
		s.emit(context.WithoutCancel(ctx), domain.Event{Kind: domain.EventSessionEnded, SessionID: sess.ID})
		logger.Info("session ended")
	}()

	for {
		if shutdown.IsCancelled() || softStop.IsCancelled() || ctx.Err() != nil {
			return
		}
		ended, err := s.runCapsule(ctx, sess, logger)
		if err != nil {
			logger.Error("capsule attempt failed", "error", err)
			s.emit(ctx, domain.Event{Kind: domain.EventCapsuleFailed, SessionID: sess.ID, Error: err.Error()})
			s.pause(ctx, sess)
			continue
		}
		if ended {
			return
		}
	}
}

func (s *SessionService) runCapsule(ctx context.Context, sess *domain.Session, logger *slog.Logger) (bool, error) {
	settings, err := s.prefs.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("read preferences: %w", err)
	}
	capsule, err := s.capsules.Open(ctx, capsuledto.OpenRequest{
		SessionID:   sess.ID,
		StorageRoot: filepath.Join(s.homeDir, settings.CapsuleStorageDir),
		MediaRoot:   filepath.Join(s.homeDir, settings.MediaStorageDir),
	})
	if err != nil {
		return false, err
	}
	s.emit(ctx, domain.Event{Kind: domain.EventCapsuleStarted, SessionID: sess.ID, CapsuleID: capsule.ID})

	shutdown, err := s.capsules.Record(ctx, capsule, capsuledto.RecordOptions{
		Duration:     settings.CapsuleDuration(),
		EnableCamera: settings.EnableCamera,
		DeviceID:     settings.SelectedDevice,
		WebcamDelay:  settings.WebcamDelay(),
	}, sess.ShutdownToken())
	if err != nil {
		return false, fmt.Errorf("record capsule %s: %w", capsule.ID, err)
	}
	s.emit(ctx, domain.Event{
		Kind:           domain.EventCapsuleEnded,
		SessionID:      sess.ID,
		CapsuleID:      capsule.ID,
		Reason:         string(capsule.Reason()),
		ElapsedSeconds: int64(capsule.Elapsed() / time.Second),
	})
	s.settle(context.WithoutCancel(ctx), sess.ID, capsule, logger)
	return shutdown, nil
}

// settle persists the capsule and adds its wall-clock span to today's total.
// A capsule that fails to persist is dropped; its time still counts.
func (s *SessionService) settle(ctx context.Context, sessionID string, capsule *capsuledomain.TimeCapsule, logger *slog.Logger) {
	s.beginSettle()
	go func() {
		defer s.endSettle()
		logger := logger.With("capsule_id", capsule.ID)
		if err := s.capsules.Persist(ctx, capsule); err != nil {
			logger.Error("capsule dropped", "error", err)
			s.emit(ctx, domain.Event{Kind: domain.EventCapsuleDropped, SessionID: sessionID, CapsuleID: capsule.ID, Error: err.Error()})
		} else {
			s.emit(ctx, domain.Event{Kind: domain.EventCapsulePersisted, SessionID: sessionID, CapsuleID: capsule.ID})
		}

		if _, err := s.tracker.IncrementToday(ctx, capsule.Elapsed()); err != nil {
			logger.Error("tracker update failed", "error", err)
			return
		}
		if err := s.tracker.Save(ctx); err != nil {
			logger.Error("tracker save failed", "error", err)
		}
	}()
}

// pause waits out the failed-attempt backoff unless the session is stopped first.
func (s *SessionService) pause(ctx context.Context, sess *domain.Session) {
	shutdownCtx, stopShutdown := sess.ShutdownToken().Context(ctx)
	defer stopShutdown()
	waitCtx, stopWait := sess.SoftStopToken().Context(shutdownCtx)
	defer stopWait()
	_ = s.sleep(waitCtx, s.backoff)
}

// Drain waits until no capsule settlement is in flight. It is safe to call
// while a session is still recording; settlements that start before the count
// reaches zero extend the wait.
func (s *SessionService) Drain(ctx context.Context) error {
	s.settleMu.Lock()
	if s.inFlight == 0 {
		s.settleMu.Unlock()
		return nil
	}
	idle := s.idle
	s.settleMu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionService) beginSettle() {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()
	if s.inFlight == 0 {
		s.idle = make(chan struct{})
	}
	s.inFlight++
}

func (s *SessionService) endSettle() {
	s.settleMu.Lock()
	defer s.settleMu.Unlock()
	s.inFlight--
	if s.inFlight == 0 {
		close(s.idle)
	}
}

func (s *SessionService) Events(ctx context.Context, limit int) ([]domain.Event, error) {
	if s.events == nil {
		return []domain.Event{}, nil
	}
	return s.events.Tail(ctx, limit)
}

func (s *SessionService) emit(ctx context.Context, event domain.Event) {
	if s.events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}
	if err := s.events.Append(ctx, event); err != nil {
		s.logger.Warn("session event not recorded", "kind", event.Kind, "error", err)
	}
}
