package out_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	captureout "worksmart/internal/modules/capture/adapter/out"
	"worksmart/internal/modules/capture/domain"
)

func TestSyntheticProviderProducesDecodableFrames(t *testing.T) {
	t.Parallel()
	p := &captureout.SyntheticProvider{Monitors: 2, Width: 8, Height: 4}
	shots, err := p.CaptureAllMonitors(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(shots) != 2 {
		t.Fatalf("expected 2 monitors, got %d", len(shots))
	}
	for _, shot := range shots {
		img, err := png.Decode(bytes.NewReader(shot.PNG))
		if err != nil {
			t.Fatalf("monitor %d: decode: %v", shot.Monitor, err)
		}
		if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
			t.Fatalf("unexpected bounds %v", img.Bounds())
		}
	}
}

func TestSyntheticProviderCyclesWindows(t *testing.T) {
	t.Parallel()
	p := captureout.NewSyntheticProvider()
	first, ok, err := p.FocusedWindow(context.Background())
	if err != nil || !ok {
		t.Fatalf("focused window: %v %v", ok, err)
	}
	second, _, _ := p.FocusedWindow(context.Background())
	if first.AppName == second.AppName {
		t.Fatalf("expected the focused application to change, got %q twice", first.AppName)
	}
}

func TestSyntheticProviderRejectsUnknownCamera(t *testing.T) {
	t.Parallel()
	p := captureout.NewSyntheticProvider()
	if _, err := p.Snapshot(context.Background(), "9", 0); !errors.Is(err, domain.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Snapshot(ctx, "0", time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected delay to honour ctx, got %v", err)
	}
}

func TestSyntheticProviderStreamsUntilCancelled(t *testing.T) {
	t.Parallel()
	p := &captureout.SyntheticProvider{InputInterval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	var kinds []domain.InputKind
	err := p.Stream(ctx, func(ev domain.InputEvent) {
		kinds = append(kinds, ev.Kind)
		if len(kinds) == 4 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if kinds[0] != domain.InputMouse || kinds[1] != domain.InputKeyboard {
		t.Fatalf("expected alternating kinds, got %v", kinds)
	}
}

func TestFileMediaStoreWritesInsideDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "media", "c1")
	path, err := captureout.NewFileMediaStore().WriteImage(context.Background(), dir, "../screen-0.png", []byte("png"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("image escaped media dir: %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil || string(raw) != "png" {
		t.Fatalf("read back: %q %v", raw, err)
	}
}
