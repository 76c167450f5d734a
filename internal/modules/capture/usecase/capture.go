package usecase

import (
	"context"

	"worksmart/internal/modules/capture/dto"
	captureout "worksmart/internal/modules/capture/port/out"
	"worksmart/internal/modules/capture/service"
)

// Interactor exposes the capture services through the module's inbound ports.
type Interactor struct {
	scheduler *service.Scheduler
	windows   *service.WindowProbe
	webcam    captureout.WebcamCapturer
}

func NewInteractor(scheduler *service.Scheduler, windows *service.WindowProbe, webcam captureout.WebcamCapturer) *Interactor {
	return &Interactor{scheduler: scheduler, windows: windows, webcam: webcam}
}

func (i *Interactor) Run(ctx context.Context, req dto.CaptureRequest) dto.CaptureReport {
	return i.scheduler.Run(ctx, req)
}

func (i *Interactor) FocusedWindow(ctx context.Context) (dto.Window, bool, error) {
	win, ok, err := i.windows.FocusedWindow(ctx)
	if err != nil || !ok {
		return dto.Window{}, false, err
	}
	return dto.Window{AppName: win.AppName, Title: win.Title}, true, nil
}

func (i *Interactor) ListDevices(ctx context.Context) ([]dto.Device, error) {
	if i.webcam == nil {
		return nil, nil
	}
	devices, err := i.webcam.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, dto.Device{ID: d.ID, Name: d.Name})
	}
	return out, nil
}
