package out

import (
	"context"

	"worksmart/internal/modules/tracker/domain"
)

// HistoryStore persists the whole history at once. Reading a store that was
// never written returns an empty history.
type HistoryStore interface {
	ReadTracker(ctx context.Context) (domain.TrackHistory, error)
	WriteTracker(ctx context.Context, history domain.TrackHistory) error
}
