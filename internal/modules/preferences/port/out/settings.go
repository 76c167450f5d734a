package out

import (
	"context"

	"worksmart/internal/modules/preferences/domain"
)

// SettingsStore returns defaults when nothing was saved yet.
type SettingsStore interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}
