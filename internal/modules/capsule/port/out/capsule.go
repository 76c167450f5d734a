package out

import (
	"context"
	"time"

	"worksmart/internal/modules/capsule/domain"
)

// CapsuleStore is the storage collaborator. CreateCapsuleDir succeeds when the
// directory already exists.
type CapsuleStore interface {
	CreateCapsuleDir(ctx context.Context, path string) error
	WriteCapsuleMetadata(ctx context.Context, capsule domain.StorageCapsule, path string) error
}

type CapsuleIndex interface {
	Upsert(ctx context.Context, summary domain.Summary) error
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Summary, error)
}

// InputSubscription yields input timestamps. Recv may report a lag, after
// which it keeps delivering.
type InputSubscription interface {
	Recv(ctx context.Context) (time.Time, error)
	Close()
}

type InputFeed interface {
	Subscribe() InputSubscription
}
