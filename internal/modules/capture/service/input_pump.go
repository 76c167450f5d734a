package service

import (
	"context"
	"log/slog"
	"time"

	"worksmart/internal/modules/capture/domain"
	captureout "worksmart/internal/modules/capture/port/out"
	"worksmart/internal/platform/clock"
)

const defaultInputReconnect = 3 * time.Second

// Publisher is the publishing side of an input broadcaster.
type Publisher interface {
	Publish(at time.Time) int
}

// InputPump copies raw input from the provider into the mouse and keyboard
// broadcasters. A broken stream is reopened after a pause.
type InputPump struct {
	source    captureout.InputSource
	mouse     Publisher
	keyboard  Publisher
	sleep     clock.Sleeper
	reconnect time.Duration
	logger    *slog.Logger
}

func NewInputPump(source captureout.InputSource, mouse, keyboard Publisher, sleep clock.Sleeper, logger *slog.Logger) *InputPump {
	if sleep == nil {
		sleep = clock.Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InputPump{
		source:    source,
		mouse:     mouse,
		keyboard:  keyboard,
		sleep:     sleep,
		reconnect: defaultInputReconnect,
		logger:    logger,
	}
}

func (p *InputPump) Run(ctx context.Context) error {
	if p.source == nil {
		<-ctx.Done()
		return nil
	}
	for {
		err := p.source.Stream(ctx, p.dispatch)
		if ctx.Err() != nil {
			return nil
		}
		p.logger.Warn("input stream ended, reconnecting", "error", err, "after", p.reconnect)
		if err := p.sleep(ctx, p.reconnect); err != nil {
			return nil
		}
	}
}

func (p *InputPump) dispatch(ev domain.InputEvent) {
	switch ev.Kind {
	case domain.InputMouse:
		p.mouse.Publish(ev.At)
	case domain.InputKeyboard:
		p.keyboard.Publish(ev.At)
	default:
		p.logger.Debug("ignoring input event", "kind", ev.Kind)
	}
}
