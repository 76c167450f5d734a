package in

import (
	"context"

	prefsin "worksmart/internal/modules/preferences/port/in"
)

type CLIHandler struct {
	usecase prefsin.Usecase
}

func NewCLIHandler(usecase prefsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Show(ctx context.Context) (prefsin.Settings, error) {
	return h.usecase.Get(ctx)
}

func (h CLIHandler) Set(ctx context.Context, key, value string) (prefsin.Settings, error) {
	return h.usecase.Set(ctx, key, value)
}
