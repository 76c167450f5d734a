package usecase

import (
	"context"
	"time"

	"worksmart/internal/modules/tracker/dto"
	trackerin "worksmart/internal/modules/tracker/port/in"
	"worksmart/internal/modules/tracker/service"
)

type Interactor struct {
	svc *service.TrackerService
}

func NewInteractor(svc *service.TrackerService) trackerin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) GetToday(ctx context.Context) (dto.TodayOutput, error) {
	day, seconds, err := i.svc.GetToday(ctx)
	if err != nil {
		return dto.TodayOutput{}, err
	}
	return dto.TodayOutput{Day: day, Seconds: seconds}, nil
}

func (i *Interactor) IncrementToday(ctx context.Context, delta time.Duration) (dto.TodayOutput, error) {
	day, seconds, err := i.svc.IncrementToday(ctx, delta)
	if err != nil {
		return dto.TodayOutput{}, err
	}
	return dto.TodayOutput{Day: day, Seconds: seconds}, nil
}

func (i *Interactor) Save(ctx context.Context) error {
	return i.svc.Save(ctx)
}

func (i *Interactor) CleanUp(ctx context.Context) (dto.CleanUpOutput, error) {
	day, removed, err := i.svc.CleanUp(ctx)
	if err != nil {
		return dto.CleanUpOutput{}, err
	}
	return dto.CleanUpOutput{Today: day, Removed: removed}, nil
}

func (i *Interactor) History(ctx context.Context) ([]dto.DayTotal, error) {
	history, err := i.svc.History(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DayTotal, 0, len(history.History))
	for _, day := range history.Days() {
		out = append(out, dto.DayTotal{Day: day, Seconds: history.ForDay(day)})
	}
	return out, nil
}
