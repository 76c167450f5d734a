package usecase

import (
	"context"

	daemonin "worksmart/internal/modules/daemon/port/in"
	"worksmart/internal/modules/daemon/service"
	sessiondto "worksmart/internal/modules/session/dto"
	trackerdto "worksmart/internal/modules/tracker/dto"
)

type Interactor struct {
	svc *service.DaemonService
}

func NewInteractor(svc *service.DaemonService) *Interactor {
	return &Interactor{svc: svc}
}

var (
	_ daemonin.Usecase = (*Interactor)(nil)
	_ daemonin.Remote  = (*Interactor)(nil)
)

func (i *Interactor) Run(ctx context.Context) error {
	return i.svc.RunDaemon(ctx)
}

func (i *Interactor) Start(ctx context.Context) error {
	return i.svc.StartDaemon(ctx)
}

func (i *Interactor) Stop(ctx context.Context) error {
	return i.svc.StopDaemon(ctx)
}

func (i *Interactor) Status(ctx context.Context) (daemonin.RuntimeStatus, error) {
	return i.svc.DaemonStatus(ctx)
}

func (i *Interactor) EnsureStopped(ctx context.Context) error {
	return i.svc.EnsureStopped(ctx)
}

func (i *Interactor) StartSession(ctx context.Context) (sessiondto.SessionOutput, error) {
	return i.svc.StartSession(ctx)
}

func (i *Interactor) StopSession(ctx context.Context, mode string) (sessiondto.SessionOutput, error) {
	return i.svc.StopSession(ctx, mode)
}

func (i *Interactor) Session(ctx context.Context) (sessiondto.SessionOutput, error) {
	return i.svc.Session(ctx)
}

func (i *Interactor) Today(ctx context.Context) (trackerdto.TodayOutput, error) {
	return i.svc.Today(ctx)
}
