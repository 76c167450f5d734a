package in

import (
	"context"
	"time"

	"worksmart/internal/modules/capsule/dto"
	capsulein "worksmart/internal/modules/capsule/port/in"
)

type CLIHandler struct {
	catalog capsulein.Catalog
}

func NewCLIHandler(catalog capsulein.Catalog) CLIHandler {
	return CLIHandler{catalog: catalog}
}

func (h CLIHandler) List(ctx context.Context, day time.Time) ([]dto.CapsuleSummary, error) {
	return h.catalog.ListDay(ctx, day)
}
