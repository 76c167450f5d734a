package in

import (
	"context"
	"time"

	"worksmart/internal/modules/tracker/dto"
)

type Usecase interface {
	GetToday(ctx context.Context) (dto.TodayOutput, error)
	IncrementToday(ctx context.Context, delta time.Duration) (dto.TodayOutput, error)
	Save(ctx context.Context) error
	CleanUp(ctx context.Context) (dto.CleanUpOutput, error)
	History(ctx context.Context) ([]dto.DayTotal, error)
}
