package out

import (
	"time"

	capsuleout "worksmart/internal/modules/capsule/port/out"
	"worksmart/internal/platform/broadcast"
)

// BroadcastFeed hands out subscriptions to a process-long input broadcaster.
type BroadcastFeed struct {
	source *broadcast.Broadcaster[time.Time]
}

func NewBroadcastFeed(source *broadcast.Broadcaster[time.Time]) BroadcastFeed {
	return BroadcastFeed{source: source}
}

func (f BroadcastFeed) Subscribe() capsuleout.InputSubscription {
	return f.source.Subscribe()
}
