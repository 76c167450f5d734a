package service

import (
	"context"
	"time"

	"worksmart/internal/modules/capture/domain"
	captureout "worksmart/internal/modules/capture/port/out"
)

const defaultWindowCallTimeout = 2 * time.Second

// WindowProbe bounds every focused-window lookup by a call timeout.
type WindowProbe struct {
	provider captureout.FocusedWindowProvider
	timeout  time.Duration
}

func NewWindowProbe(provider captureout.FocusedWindowProvider, timeout time.Duration) *WindowProbe {
	if timeout <= 0 {
		timeout = defaultWindowCallTimeout
	}
	return &WindowProbe{provider: provider, timeout: timeout}
}

func (p *WindowProbe) FocusedWindow(ctx context.Context) (domain.Window, bool, error) {
	if p.provider == nil {
		return domain.Window{}, false, nil
	}
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.provider.FocusedWindow(callCtx)
}
