package out

import (
	"context"

	"worksmart/internal/modules/daemon/domain"
	sessiondto "worksmart/internal/modules/session/dto"
	trackerdto "worksmart/internal/modules/tracker/dto"
)

// DaemonStore owns the files of the daemon runtime directory. ReadRecord
// reports os.ErrNotExist when no daemon left a record.
type DaemonStore interface {
	WriteRecord(ctx context.Context, record domain.ProcessRecord) error
	ReadRecord(ctx context.Context) (domain.ProcessRecord, error)
	ClearRecord(ctx context.Context) error
	SocketPath() string
	LogPath() string
}

// IPCServer serves the daemon API on a local socket until ctx ends.
type IPCServer interface {
	Serve(ctx context.Context, socketPath string, handler IPCHandler) error
}

type IPCClient interface {
	StartSession(ctx context.Context, socketPath string) (sessiondto.SessionOutput, error)
	StopSession(ctx context.Context, socketPath string, mode string) (sessiondto.SessionOutput, error)
	Session(ctx context.Context, socketPath string) (sessiondto.SessionOutput, error)
	Today(ctx context.Context, socketPath string) (trackerdto.TodayOutput, error)
	Status(ctx context.Context, socketPath string) (domain.Status, error)
	Stop(ctx context.Context, socketPath string) error
}

type IPCHandler interface {
	StartSession(ctx context.Context) (sessiondto.SessionOutput, error)
	StopSession(ctx context.Context, mode string) (sessiondto.SessionOutput, error)
	Session(ctx context.Context) (sessiondto.SessionOutput, error)
	Today(ctx context.Context) (trackerdto.TodayOutput, error)
	Status(ctx context.Context) (domain.Status, error)
	Stop(ctx context.Context) error
}
