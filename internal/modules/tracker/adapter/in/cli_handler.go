package in

import (
	"context"

	"worksmart/internal/modules/tracker/dto"
	trackerin "worksmart/internal/modules/tracker/port/in"
)

type CLIHandler struct {
	usecase trackerin.Usecase
}

func NewCLIHandler(usecase trackerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Today(ctx context.Context) (dto.TodayOutput, error) {
	return h.usecase.GetToday(ctx)
}

func (h CLIHandler) History(ctx context.Context) ([]dto.DayTotal, error) {
	return h.usecase.History(ctx)
}

func (h CLIHandler) CleanUp(ctx context.Context) (dto.CleanUpOutput, error) {
	return h.usecase.CleanUp(ctx)
}
