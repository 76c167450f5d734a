package in

import (
	"context"

	sessiondto "worksmart/internal/modules/session/dto"
	sessionin "worksmart/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Run starts a session in this process and blocks until it ends. Cancelling
// ctx stops the session at once and flushes pending capsule writes.
func (h CLIHandler) Run(ctx context.Context) (sessiondto.SessionOutput, error) {
	if _, err := h.usecase.Start(ctx); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	out, err := h.usecase.Wait(ctx)
	if err == nil {
		return out, h.usecase.Shutdown(context.WithoutCancel(ctx))
	}
	if shutdownErr := h.usecase.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
		return sessiondto.SessionOutput{}, shutdownErr
	}
	return h.usecase.Get(context.WithoutCancel(ctx))
}

func (h CLIHandler) Events(ctx context.Context, limit int) ([]sessiondto.EventOutput, error) {
	return h.usecase.Events(ctx, limit)
}
