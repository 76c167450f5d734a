package in

import (
	"context"

	"worksmart/internal/modules/preferences/domain"
)

// Settings is re-exported so inbound adapters need not reach into the domain.
type Settings = domain.Settings

type Usecase interface {
	Get(ctx context.Context) (Settings, error)
	// Set changes one dotted key, validates the result and saves it.
	Set(ctx context.Context, key, value string) (Settings, error)
}
