package in

import (
	"context"

	"worksmart/internal/modules/capture/dto"
)

// Scheduler performs at most one jittered capture attempt per call.
type Scheduler interface {
	Run(ctx context.Context, req dto.CaptureRequest) dto.CaptureReport
}

type WindowProbe interface {
	FocusedWindow(ctx context.Context) (dto.Window, bool, error)
}

type Devices interface {
	ListDevices(ctx context.Context) ([]dto.Device, error)
}

// InputPump forwards raw input into the process-wide broadcasters until ctx ends.
type InputPump interface {
	Run(ctx context.Context) error
}
