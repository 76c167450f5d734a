package in

import (
	"context"

	daemonin "worksmart/internal/modules/daemon/port/in"
	sessiondto "worksmart/internal/modules/session/dto"
	trackerdto "worksmart/internal/modules/tracker/dto"
)

type CLIHandler struct {
	usecase daemonin.Usecase
	remote  daemonin.Remote
}

func NewCLIHandler(usecase daemonin.Usecase, remote daemonin.Remote) CLIHandler {
	return CLIHandler{usecase: usecase, remote: remote}
}

func (h CLIHandler) Run(ctx context.Context) error {
	return h.usecase.Run(ctx)
}

func (h CLIHandler) Start(ctx context.Context) error {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (daemonin.RuntimeStatus, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) EnsureStopped(ctx context.Context) error {
	return h.usecase.EnsureStopped(ctx)
}

func (h CLIHandler) StartSession(ctx context.Context) (sessiondto.SessionOutput, error) {
	return h.remote.StartSession(ctx)
}

func (h CLIHandler) StopSession(ctx context.Context, mode string) (sessiondto.SessionOutput, error) {
	return h.remote.StopSession(ctx, mode)
}

func (h CLIHandler) Session(ctx context.Context) (sessiondto.SessionOutput, error) {
	return h.remote.Session(ctx)
}

func (h CLIHandler) Today(ctx context.Context) (trackerdto.TodayOutput, error) {
	return h.remote.Today(ctx)
}
