package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"worksmart/internal/modules/capsule/domain"
	"worksmart/internal/modules/capsule/dto"
	capsuleout "worksmart/internal/modules/capsule/port/out"
	capturedto "worksmart/internal/modules/capture/dto"
	capturein "worksmart/internal/modules/capture/port/in"
	"worksmart/internal/platform/broadcast"
	"worksmart/internal/platform/cancel"
	"worksmart/internal/platform/clock"
	"worksmart/internal/platform/id"
	"worksmart/internal/platform/race"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	tracerName = "worksmart/capsule"

	// maxInitialWindowDelay caps the wait before the first focused-window sample.
	maxInitialWindowDelay = 10 * time.Second
	lagLogInterval        = 10 * time.Second
)

type RecorderOptions struct {
	Clock   clock.Clock
	Sleeper clock.Sleeper
	IDs     id.Generator
	Tracer  trace.Tracer
	Logger  *slog.Logger
}

// RecorderService owns the capsule state machine. The input feeds live for the
// whole process; every capsule takes its own subscriptions.
type RecorderService struct {
	mouse    capsuleout.InputFeed
	keyboard capsuleout.InputFeed
	windows  capturein.WindowProbe
	capture  capturein.Scheduler
	store    capsuleout.CapsuleStore
	index    capsuleout.CapsuleIndex

	clock  clock.Clock
	sleep  clock.Sleeper
	ids    id.Generator
	tracer trace.Tracer
	logger *slog.Logger
	lagLog *rate.Sometimes
}

func NewRecorderService(
	mouse, keyboard capsuleout.InputFeed,
	windows capturein.WindowProbe,
	capture capturein.Scheduler,
	store capsuleout.CapsuleStore,
	index capsuleout.CapsuleIndex,
	opts RecorderOptions,
) *RecorderService {
	s := &RecorderService{
		mouse:    mouse,
		keyboard: keyboard,
		windows:  windows,
		capture:  capture,
		store:    store,
		index:    index,
		clock:    opts.Clock,
		sleep:    opts.Sleeper,
		ids:      opts.IDs,
		tracer:   opts.Tracer,
		logger:   opts.Logger,
		lagLog:   &rate.Sometimes{First: 1, Interval: lagLogInterval},
	}
	if s.clock == nil {
		s.clock = clock.SystemClock{}
	}
	if s.sleep == nil {
		s.sleep = clock.Sleep
	}
	if s.ids == nil {
		s.ids = &id.FolderDatetime{Now: s.clock.Now}
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Open mints a capsule id and creates its storage directory. A failure here
// aborts only this capsule attempt.
func (s *RecorderService) Open(ctx context.Context, req dto.OpenRequest) (*domain.TimeCapsule, error) {
	if req.StorageRoot == "" {
		return nil, fmt.Errorf("%w: storage root is required", domain.ErrInvalid)
	}
	capsuleID := s.ids.New()
	storage := filepath.Join(req.StorageRoot, capsuleID)
	media := ""
	if req.MediaRoot != "" {
		media = filepath.Join(req.MediaRoot, capsuleID)
	}
	if err := s.store.CreateCapsuleDir(ctx, storage); err != nil {
		return nil, fmt.Errorf("create capsule dir: %w", err)
	}
	return domain.New(capsuleID, req.SessionID, storage, media, s.clock.Now())
}

// Record runs the capsule until its duration elapses or shutdown fires,
// whichever comes first; shutdown wins a tie. Subtasks are stopped through a
// capsule-local token derived from shutdown, and their failures stay local.
// Record does not wait for the subtasks to finish or for persistence.
func (s *RecorderService) Record(ctx context.Context, c *domain.TimeCapsule, opts dto.RecordOptions, shutdown *cancel.Token) (bool, error) {
	if c.State() != domain.StateRecording {
		return false, fmt.Errorf("%w: %s", domain.ErrNotRecording, c.ID)
	}
	if opts.Duration <= 0 {
		return false, fmt.Errorf("%w: capsule duration %s", domain.ErrInvalid, opts.Duration)
	}
	if shutdown == nil {
		shutdown = cancel.Never()
	}

	ctx, span := s.tracer.Start(ctx, "capsule.record", trace.WithAttributes(
		attribute.String("capsule.id", c.ID),
		attribute.String("session.id", c.SessionID),
		attribute.Int64("capsule.duration_seconds", int64(opts.Duration/time.Second)),
	))
	defer span.End()
	logger := s.logger.With("capsule_id", c.ID, "session_id", c.SessionID)

	local := cancel.NewChild(shutdown)
	defer local.Fire()
	localToken := local.Token()
	taskCtx, stopTasks := localToken.Context(context.WithoutCancel(ctx))
	defer stopTasks()

	onErr := func(name string, err error) {
		logger.Warn("capsule subtask failed", "task", name, "error", err)
	}
	if s.mouse != nil {
		sub := s.mouse.Subscribe()
		race.Go(taskCtx, "mouse", func(ctx context.Context) error {
			return s.listen(ctx, localToken, sub, c.RecordClick, logger.With("input", "mouse"))
		}, onErr)
	}
	if s.keyboard != nil {
		sub := s.keyboard.Subscribe()
		race.Go(taskCtx, "keyboard", func(ctx context.Context) error {
			return s.listen(ctx, localToken, sub, c.RecordKeystroke, logger.With("input", "keyboard"))
		}, onErr)
	}
	race.Go(taskCtx, "windows", func(ctx context.Context) error {
		return s.pollWindows(ctx, localToken, c, opts.Duration, logger)
	}, onErr)
	race.Go(taskCtx, "capture", func(ctx context.Context) error {
		return s.runCapture(ctx, c, opts, logger)
	}, onErr)

	reason := s.waitForEnd(ctx, opts.Duration, shutdown)
	if err := c.Exit(s.clock.Now(), reason); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return reason == domain.EndShutdown, err
	}
	local.Fire()

	span.SetAttributes(attribute.String("capsule.end_reason", string(reason)))
	logger.Info("capsule exited", "reason", reason, "elapsed", c.Elapsed(),
		"clicks", len(c.Clicks()), "keystrokes", len(c.Keystrokes()), "windows", len(c.Windows()))
	return reason == domain.EndShutdown, nil
}

func (s *RecorderService) waitForEnd(ctx context.Context, duration time.Duration, shutdown *cancel.Token) domain.EndReason {
	res, err := race.First(ctx,
		func(ctx context.Context) (domain.EndReason, error) {
			if err := s.sleep(ctx, duration); err != nil {
				return "", err
			}
			return domain.EndTimeout, nil
		},
		func(ctx context.Context) (domain.EndReason, error) {
			if err := shutdown.Recv(ctx); err != nil {
				return "", err
			}
			return domain.EndShutdown, nil
		},
	)
	// A cancelled caller ends the capsule like a shutdown.
	if err != nil || res.Err != nil {
		return domain.EndShutdown
	}
	if res.Value == domain.EndTimeout && shutdown.IsCancelled() {
		return domain.EndShutdown
	}
	return res.Value
}

func (s *RecorderService) listen(ctx context.Context, local *cancel.Token, sub capsuleout.InputSubscription, record func(time.Time) bool, logger *slog.Logger) error {
	defer sub.Close()
	for !local.IsCancelled() {
		at, err := sub.Recv(ctx)
		switch {
		case err == nil:
			record(at)
		case errors.Is(err, broadcast.ErrLagged):
			s.lagLog.Do(func() {
				logger.Warn("input listener lagged, events dropped", "error", err)
			})
		case errors.Is(err, broadcast.ErrClosed), ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}
	return nil
}

// pollWindows samples the focused window every tenth of the capsule and keeps
// an entry only when the focused application changes.
func (s *RecorderService) pollWindows(ctx context.Context, local *cancel.Token, c *domain.TimeCapsule, duration time.Duration, logger *slog.Logger) error {
	if s.windows == nil {
		return nil
	}
	interval := duration / 10
	if interval <= 0 {
		return nil
	}
	wait := min(maxInitialWindowDelay, interval)
	for {
		if err := s.sleep(ctx, wait); err != nil {
			return nil
		}
		if local.IsCancelled() {
			return nil
		}
		wait = interval

		win, ok, err := s.windows.FocusedWindow(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Debug("focused window lookup failed", "error", err)
			continue
		}
		if !ok {
			continue
		}
		if last, seen := c.LastWindow(); seen && last.AppName == win.AppName {
			continue
		}
		c.RecordWindow(domain.WindowEvent{AppName: win.AppName, Title: win.Title, At: s.clock.Now()})
	}
}

func (s *RecorderService) runCapture(ctx context.Context, c *domain.TimeCapsule, opts dto.RecordOptions, logger *slog.Logger) error {
	if s.capture == nil {
		return nil
	}
	report := s.capture.Run(ctx, capturedto.CaptureRequest{
		CapsuleID:    c.ID,
		MediaDir:     c.MediaPath,
		Duration:     opts.Duration,
		EnableCamera: opts.EnableCamera,
		DeviceID:     opts.DeviceID,
		WebcamDelay:  opts.WebcamDelay,
	})
	for _, artifact := range report.Artifacts {
		if !c.AddMedia(domain.Media{Kind: artifact.Kind, Path: artifact.Path, CapturedAt: artifact.CapturedAt}) {
			logger.Debug("capture finished after capsule exit", "path", artifact.Path)
		}
	}
	return nil
}

// Persist writes the capsule metadata and indexes it. The caller decides what
// to do with a failure; the capsule is not retried.
func (s *RecorderService) Persist(ctx context.Context, c *domain.TimeCapsule) error {
	ctx, span := s.tracer.Start(ctx, "capsule.persist", trace.WithAttributes(
		attribute.String("capsule.id", c.ID),
		attribute.String("session.id", c.SessionID),
	))
	defer span.End()

	err := s.persist(ctx, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *RecorderService) persist(ctx context.Context, c *domain.TimeCapsule) error {
	stored, err := c.Storage()
	if err != nil {
		return err
	}
	if err := s.store.CreateCapsuleDir(ctx, c.StoragePath); err != nil {
		return fmt.Errorf("create capsule dir: %w", err)
	}
	if err := s.store.WriteCapsuleMetadata(ctx, stored, c.StoragePath); err != nil {
		return fmt.Errorf("write capsule metadata: %w", err)
	}
	if s.index != nil {
		if err := s.index.Upsert(ctx, stored.Summary(c.StoragePath)); err != nil {
			return fmt.Errorf("index capsule: %w", err)
		}
	}
	return c.MarkPersisted()
}

// ListDay returns the indexed capsules that started on the UTC day of day.
func (s *RecorderService) ListDay(ctx context.Context, day time.Time) ([]domain.Summary, error) {
	if s.index == nil {
		return nil, nil
	}
	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return s.index.ListBetween(ctx, from, from.AddDate(0, 0, 1))
}
