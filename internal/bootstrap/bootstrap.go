package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	capsuleinadapter "worksmart/internal/modules/capsule/adapter/in"
	capsuleoutadapter "worksmart/internal/modules/capsule/adapter/out"
	capsuleservice "worksmart/internal/modules/capsule/service"
	capsuleusecase "worksmart/internal/modules/capsule/usecase"
	captureinadapter "worksmart/internal/modules/capture/adapter/in"
	captureoutadapter "worksmart/internal/modules/capture/adapter/out"
	capturein "worksmart/internal/modules/capture/port/in"
	captureout "worksmart/internal/modules/capture/port/out"
	captureservice "worksmart/internal/modules/capture/service"
	captureusecase "worksmart/internal/modules/capture/usecase"
	daemoninadapter "worksmart/internal/modules/daemon/adapter/in"
	daemonoutadapter "worksmart/internal/modules/daemon/adapter/out"
	daemonservice "worksmart/internal/modules/daemon/service"
	daemonusecase "worksmart/internal/modules/daemon/usecase"
	prefsinadapter "worksmart/internal/modules/preferences/adapter/in"
	prefsoutadapter "worksmart/internal/modules/preferences/adapter/out"
	prefsusecase "worksmart/internal/modules/preferences/usecase"
	sessioninadapter "worksmart/internal/modules/session/adapter/in"
	sessionoutadapter "worksmart/internal/modules/session/adapter/out"
	sessionservice "worksmart/internal/modules/session/service"
	sessionusecase "worksmart/internal/modules/session/usecase"
	trackerinadapter "worksmart/internal/modules/tracker/adapter/in"
	trackeroutadapter "worksmart/internal/modules/tracker/adapter/out"
	trackerservice "worksmart/internal/modules/tracker/service"
	trackerusecase "worksmart/internal/modules/tracker/usecase"
	"worksmart/internal/platform/broadcast"
	"worksmart/internal/platform/clock"
	"worksmart/internal/platform/config"
	"worksmart/internal/platform/id"
	"worksmart/internal/platform/logging"
	"worksmart/internal/platform/telemetry"
	uiapp "worksmart/internal/ui/app"
)

const serviceName = "worksmart"

// inputCapacity bounds each capsule listener's queue; slow listeners lag instead of blocking input.
const inputCapacity = 16

type App struct {
	Config config.Config
	Logger *slog.Logger

	SessionCLI sessioninadapter.CLIHandler
	TrackerCLI trackerinadapter.CLIHandler
	CapsuleCLI capsuleinadapter.CLIHandler
	PrefsCLI   prefsinadapter.CLIHandler
	CameraCLI  captureinadapter.CLIHandler
	DaemonCLI  daemoninadapter.CLIHandler

	// Input feeds the capsule listeners; the daemon runs it, and so must any
	// other process that records sessions itself.
	Input capturein.InputPump

	closers []func(context.Context) error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: serviceName,
		Endpoint:    cfg.TelemetryURL,
		Enabled:     cfg.TelemetryEnabled,
	})
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
	}
	app.closers = append(app.closers, shutdownTracing)

	clk := clock.SystemClock{}

	prefsUC := prefsusecase.NewInteractor(prefsoutadapter.NewYAMLSettingsStore(cfg.ConfigPath))
	trackerUC := trackerusecase.NewInteractor(trackerservice.NewTrackerService(clk, trackeroutadapter.NewFileHistoryStore(cfg.HomeDir)))

	provider, providerName := newProvider(cfg, logger)
	app.closers = append(app.closers, func(context.Context) error { return provider.Close() })

	mouse := broadcast.New[time.Time](inputCapacity)
	keyboard := broadcast.New[time.Time](inputCapacity)

	scheduler := captureservice.NewScheduler(provider, provider, captureoutadapter.NewFileMediaStore(), captureservice.SchedulerOptions{
		Clock:  clk,
		Logger: logger.With("component", "capture"),
	})
	captureUC := captureusecase.NewInteractor(scheduler, captureservice.NewWindowProbe(provider, 0), provider)
	pump := captureservice.NewInputPump(provider, mouse, keyboard, clock.Sleep, logger.With("component", "input"))

	index, err := capsuleoutadapter.NewSQLiteCapsuleIndex(cfg.DBPath)
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("new capsule index: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return index.Close() })

	capsuleUC := capsuleusecase.NewInteractor(capsuleservice.NewRecorderService(
		capsuleoutadapter.NewBroadcastFeed(mouse),
		capsuleoutadapter.NewBroadcastFeed(keyboard),
		captureUC,
		captureUC,
		capsuleoutadapter.NewFileCapsuleStore(),
		index,
		capsuleservice.RecorderOptions{
			Clock:  clk,
			IDs:    &id.FolderDatetime{Now: clk.Now},
			Logger: logger.With("component", "capsule"),
		},
	))

	sessionLogger := logger.With("component", "session")
	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(capsuleUC, trackerUC, prefsUC, sessionoutadapter.NewFileEventLog(cfg.HomeDir), cfg.HomeDir, sessionservice.Options{
			Clock:  clk,
			Logger: sessionLogger,
		}),
		clk,
		id.UUID{},
		sessionoutadapter.NewFileActiveSessionStore(cfg.HomeDir),
		sessionLogger,
	)

	daemonUC := daemonusecase.NewInteractor(daemonservice.NewDaemonService(
		cfg.HomeDir,
		daemonoutadapter.NewFileDaemonStore(cfg.DaemonDir),
		daemonoutadapter.NewJSONRPCServer(),
		daemonoutadapter.NewJSONRPCClient(),
		sessionUC,
		trackerUC,
		prefsUC,
		pump,
		daemonservice.Options{
			Clock:    clk,
			Provider: providerName,
			Logger:   logger.With("component", "daemon"),
		},
	))

	app.Input = pump
	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.TrackerCLI = trackerinadapter.NewCLIHandler(trackerUC)
	app.CapsuleCLI = capsuleinadapter.NewCLIHandler(capsuleUC)
	app.PrefsCLI = prefsinadapter.NewCLIHandler(prefsUC)
	app.CameraCLI = captureinadapter.NewCLIHandler(captureUC, prefsUC)
	app.DaemonCLI = daemoninadapter.NewCLIHandler(daemonUC, daemonUC)
	return app, nil
}

// newProvider starts the configured capture plugin lazily, or falls back to
// the in-process synthetic provider.
func newProvider(cfg config.Config, logger *slog.Logger) (captureout.Provider, string) {
	if cfg.ProviderPlugin == "" {
		return captureoutadapter.NewSyntheticProvider(), "synthetic"
	}
	pluginLogger := hclog.New(&hclog.LoggerOptions{
		Name:   "capture-plugin",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: os.Stderr,
	})
	logger.Debug("using capture plugin", "binary", cfg.ProviderPlugin)
	return captureoutadapter.NewPluginProvider(cfg.ProviderPlugin, pluginLogger), "plugin:" + cfg.ProviderPlugin
}

// Close releases what New acquired, last first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(ctx context.Context, app *App) error {
	model := uiapp.NewModel(app.Config.HomeDir, app.DaemonCLI, app.TrackerCLI, app.CapsuleCLI)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}
