package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"worksmart/internal/modules/capture/domain"
	"worksmart/internal/modules/capture/dto"
	captureout "worksmart/internal/modules/capture/port/out"
	"worksmart/internal/platform/clock"
)

// Scheduler places one screenshot and webcam capture at a random point of a
// capsule, so the moment of capture cannot be predicted.
type Scheduler struct {
	screens captureout.ScreenCapturer
	webcam  captureout.WebcamCapturer
	media   captureout.MediaStore
	clock   clock.Clock
	sleep   clock.Sleeper
	intn    func(n int) int
	logger  *slog.Logger
}

type SchedulerOptions struct {
	Clock   clock.Clock
	Sleeper clock.Sleeper
	// Intn picks in [0, n); defaults to math/rand/v2.
	Intn   func(n int) int
	Logger *slog.Logger
}

func NewScheduler(screens captureout.ScreenCapturer, webcam captureout.WebcamCapturer, media captureout.MediaStore, opts SchedulerOptions) *Scheduler {
	s := &Scheduler{
		screens: screens,
		webcam:  webcam,
		media:   media,
		clock:   opts.Clock,
		sleep:   opts.Sleeper,
		intn:    opts.Intn,
		logger:  opts.Logger,
	}
	if s.clock == nil {
		s.clock = clock.SystemClock{}
	}
	if s.sleep == nil {
		s.sleep = clock.Sleep
	}
	if s.intn == nil {
		s.intn = rand.IntN
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Run sleeps a random delay inside the capsule budget and then attempts one
// capture. When ctx ends first nothing is captured. Once started, capture I/O
// is not interrupted. Failures are logged and reported, never returned.
func (s *Scheduler) Run(ctx context.Context, req dto.CaptureRequest) dto.CaptureReport {
	report := dto.CaptureReport{CapsuleID: req.CapsuleID}
	logger := s.logger.With("capsule_id", req.CapsuleID)

	delay, err := domain.PickDelay(domain.Budget{Duration: req.Duration, Lag: domain.MediaCaptureLag}, s.intn)
	if err != nil {
		logger.Warn("capture skipped", "error", err)
		report.Skipped = true
		report.Failures = append(report.Failures, err.Error())
		return report
	}
	report.Delay = delay
	logger.Debug("capture scheduled", "delay", delay)

	if err := s.sleep(ctx, delay); err != nil || ctx.Err() != nil {
		logger.Debug("capsule ended before capture")
		report.Skipped = true
		return report
	}

	ioCtx := context.WithoutCancel(ctx)
	s.captureScreens(ioCtx, logger, req, &report)
	if req.EnableCamera {
		s.captureWebcam(ioCtx, logger, req, &report)
	}
	return report
}

func (s *Scheduler) captureScreens(ctx context.Context, logger *slog.Logger, req dto.CaptureRequest, report *dto.CaptureReport) {
	if s.screens == nil {
		return
	}
	shots, err := s.screens.CaptureAllMonitors(ctx)
	if err != nil {
		s.fail(logger, report, "screenshot", err)
		return
	}
	for _, shot := range shots {
		if shot.Err != "" {
			s.fail(logger, report, "screenshot", fmt.Errorf("monitor %d: %s", shot.Monitor, shot.Err))
			continue
		}
		if len(shot.PNG) == 0 {
			s.fail(logger, report, "screenshot", fmt.Errorf("monitor %d: empty image", shot.Monitor))
			continue
		}
		path, err := s.media.WriteImage(ctx, req.MediaDir, fmt.Sprintf("screen-%d.png", shot.Monitor), shot.PNG)
		if err != nil {
			s.fail(logger, report, "screenshot", err)
			continue
		}
		report.Artifacts = append(report.Artifacts, dto.Artifact{
			Kind:       string(domain.ArtifactScreenshot),
			Path:       path,
			CapturedAt: s.clock.Now(),
		})
	}
}

func (s *Scheduler) captureWebcam(ctx context.Context, logger *slog.Logger, req dto.CaptureRequest, report *dto.CaptureReport) {
	if s.webcam == nil {
		return
	}
	frame, err := s.webcam.Snapshot(ctx, req.DeviceID, req.WebcamDelay)
	if err != nil {
		s.fail(logger, report, "webcam", err)
		return
	}
	path, err := s.media.WriteImage(ctx, req.MediaDir, domain.PortraitFile, frame)
	if err != nil {
		s.fail(logger, report, "webcam", err)
		return
	}
	report.Artifacts = append(report.Artifacts, dto.Artifact{
		Kind:       string(domain.ArtifactWebcam),
		Path:       path,
		CapturedAt: s.clock.Now(),
	})
}

func (s *Scheduler) fail(logger *slog.Logger, report *dto.CaptureReport, what string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, domain.ErrPermissionDenied) {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, what+" capture failed", "error", err)
	report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", what, err))
}
