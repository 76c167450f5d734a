package usecase

import (
	"context"
	"time"

	"worksmart/internal/modules/capsule/domain"
	"worksmart/internal/modules/capsule/dto"
	"worksmart/internal/modules/capsule/service"
	"worksmart/internal/platform/cancel"
)

type Interactor struct {
	svc *service.RecorderService
}

func NewInteractor(svc *service.RecorderService) *Interactor {
	return &Interactor{svc: svc}
}

func (i *Interactor) Open(ctx context.Context, req dto.OpenRequest) (*domain.TimeCapsule, error) {
	return i.svc.Open(ctx, req)
}

func (i *Interactor) Record(ctx context.Context, capsule *domain.TimeCapsule, opts dto.RecordOptions, shutdown *cancel.Token) (bool, error) {
	return i.svc.Record(ctx, capsule, opts, shutdown)
}

func (i *Interactor) Persist(ctx context.Context, capsule *domain.TimeCapsule) error {
	return i.svc.Persist(ctx, capsule)
}

func (i *Interactor) ListDay(ctx context.Context, day time.Time) ([]dto.CapsuleSummary, error) {
	summaries, err := i.svc.ListDay(ctx, day)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CapsuleSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, dto.CapsuleSummary{
			ID:          s.ID,
			SessionID:   s.SessionID,
			StartedAt:   s.StartedAt,
			EndedAt:     s.EndedAt,
			EndReason:   string(s.EndReason),
			StoragePath: s.StoragePath,
			Clicks:      s.Clicks,
			Keystrokes:  s.Keystrokes,
			Windows:     s.Windows,
			Media:       s.Media,
		})
	}
	return out, nil
}
