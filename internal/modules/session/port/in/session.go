package in

import (
	"context"

	"worksmart/internal/modules/session/dto"
)

type Usecase interface {
	// Start begins a session, or returns the running one unchanged.
	Start(ctx context.Context) (dto.SessionOutput, error)
	Stop(ctx context.Context, input dto.StopInput) (dto.SessionOutput, error)
	Get(ctx context.Context) (dto.SessionOutput, error)
	// Wait blocks until the current session has ended.
	Wait(ctx context.Context) (dto.SessionOutput, error)
	Events(ctx context.Context, limit int) ([]dto.EventOutput, error)
	// Shutdown stops any running session and flushes pending capsule writes.
	Shutdown(ctx context.Context) error
}
