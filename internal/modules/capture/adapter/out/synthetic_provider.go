package out

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"worksmart/internal/modules/capture/domain"
	captureout "worksmart/internal/modules/capture/port/out"
)

// SyntheticProvider stands in for native capture on machines without a
// provider plugin. It draws gradient frames, cycles through a fixed set of
// focused applications and emits evenly spaced input events.
type SyntheticProvider struct {
	Monitors      int
	Width, Height int
	InputInterval time.Duration
	Now           func() time.Time

	mu      sync.Mutex
	windowN int
	frameN  int
}

var syntheticWindows = []domain.Window{
	{AppName: "Terminal", Title: "worksmart: zsh"},
	{AppName: "Editor", Title: "main.go"},
	{AppName: "Browser", Title: "Go documentation"},
}

const syntheticDevice = "0"

func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{Monitors: 1, Width: 320, Height: 200, InputInterval: time.Second}
}

var _ captureout.Provider = (*SyntheticProvider)(nil)

func (p *SyntheticProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func (p *SyntheticProvider) CaptureAllMonitors(ctx context.Context) ([]domain.ScreenImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	monitors := p.Monitors
	if monitors <= 0 {
		monitors = 1
	}
	out := make([]domain.ScreenImage, 0, monitors)
	for i := 0; i < monitors; i++ {
		frame, err := p.frame(uint8(40 * (i + 1)))
		if err != nil {
			out = append(out, domain.ScreenImage{Monitor: i, Err: err.Error()})
			continue
		}
		out = append(out, domain.ScreenImage{Monitor: i, PNG: frame})
	}
	return out, nil
}

func (p *SyntheticProvider) Snapshot(ctx context.Context, deviceID string, delay time.Duration) ([]byte, error) {
	if deviceID != "" && deviceID != syntheticDevice {
		return nil, fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, deviceID)
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.frame(200)
}

func (p *SyntheticProvider) ListDevices(context.Context) ([]domain.Device, error) {
	return []domain.Device{{ID: syntheticDevice, Name: "Synthetic Camera"}}, nil
}

// FocusedWindow moves to the next application on every call.
func (p *SyntheticProvider) FocusedWindow(ctx context.Context) (domain.Window, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Window{}, false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	win := syntheticWindows[p.windowN%len(syntheticWindows)]
	p.windowN++
	return win, true, nil
}

// Stream alternates mouse and keyboard events until ctx ends.
func (p *SyntheticProvider) Stream(ctx context.Context, emit func(domain.InputEvent)) error {
	interval := p.InputInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	kinds := []domain.InputKind{domain.InputMouse, domain.InputKeyboard}
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			emit(domain.InputEvent{Kind: kinds[n%len(kinds)], At: p.now()})
		}
	}
}

func (p *SyntheticProvider) Close() error {
	return nil
}

func (p *SyntheticProvider) frame(base uint8) ([]byte, error) {
	p.mu.Lock()
	p.frameN++
	shift := uint8(p.frameN)
	p.mu.Unlock()

	width, height := p.Width, p.Height
	if width <= 0 || height <= 0 {
		width, height = 320, 200
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: base, G: uint8(x%255) + shift, B: uint8(y % 255), A: 255})
		}
	}
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
