package out

import (
	"context"
	"time"

	"worksmart/internal/modules/capture/domain"
)

// ScreenCapturer reports per-monitor failures inside the returned images.
// The error is reserved for failing to enumerate monitors at all.
type ScreenCapturer interface {
	CaptureAllMonitors(ctx context.Context) ([]domain.ScreenImage, error)
}

// WebcamCapturer fails with domain.ErrPermissionDenied or domain.ErrDeviceNotFound.
type WebcamCapturer interface {
	Snapshot(ctx context.Context, deviceID string, delay time.Duration) ([]byte, error)
	ListDevices(ctx context.Context) ([]domain.Device, error)
}

type FocusedWindowProvider interface {
	FocusedWindow(ctx context.Context) (domain.Window, bool, error)
}

// InputSource calls emit for every raw input event until ctx ends or the stream breaks.
type InputSource interface {
	Stream(ctx context.Context, emit func(domain.InputEvent)) error
}

type Provider interface {
	ScreenCapturer
	WebcamCapturer
	FocusedWindowProvider
	InputSource
	Close() error
}

type MediaStore interface {
	WriteImage(ctx context.Context, dir, name string, data []byte) (string, error)
}
