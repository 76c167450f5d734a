package in

import (
	"context"

	"worksmart/internal/modules/daemon/domain"
	sessiondto "worksmart/internal/modules/session/dto"
	trackerdto "worksmart/internal/modules/tracker/dto"
)

type RuntimeStatus = domain.RuntimeStatus

type Usecase interface {
	// Run serves the daemon in the calling process until ctx ends or Stop is requested.
	Run(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) (RuntimeStatus, error)
	// EnsureStopped fails with apperrors.ErrDaemonRunning while a daemon owns the home directory.
	EnsureStopped(ctx context.Context) error
}

// Remote drives the session of a running daemon.
type Remote interface {
	StartSession(ctx context.Context) (sessiondto.SessionOutput, error)
	StopSession(ctx context.Context, mode string) (sessiondto.SessionOutput, error)
	Session(ctx context.Context) (sessiondto.SessionOutput, error)
	Today(ctx context.Context) (trackerdto.TodayOutput, error)
}
