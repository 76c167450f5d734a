package out

import (
	"context"

	"worksmart/internal/modules/session/domain"
)

type ActiveSessionStore interface {
	SaveActive(ctx context.Context, session domain.ActiveSession) error
	LoadActive(ctx context.Context) (domain.ActiveSession, error)
	// ClearActive removes the marker if it still belongs to sessionID.
	ClearActive(ctx context.Context, sessionID string) error
}

// EventLog is an append-only record of session activity.
type EventLog interface {
	Append(ctx context.Context, event domain.Event) error
	Tail(ctx context.Context, limit int) ([]domain.Event, error)
}
