package in

import (
	"context"
	"time"

	"worksmart/internal/modules/capsule/domain"
	"worksmart/internal/modules/capsule/dto"
	"worksmart/internal/platform/cancel"
)

// Recorder drives one capsule through Recording, Exiting and Persisted.
type Recorder interface {
	Open(ctx context.Context, req dto.OpenRequest) (*domain.TimeCapsule, error)
	// Record returns true when the capsule ended because shutdown fired.
	Record(ctx context.Context, capsule *domain.TimeCapsule, opts dto.RecordOptions, shutdown *cancel.Token) (bool, error)
	Persist(ctx context.Context, capsule *domain.TimeCapsule) error
}

type Catalog interface {
	ListDay(ctx context.Context, day time.Time) ([]dto.CapsuleSummary, error)
}
