package realtime

import (
	"context"

	"github.com/acrofts/digitduel/internal/model"
)

// LobbyTopic is the single well-known channel for presence and invitations
const LobbyTopic = "lobby"

// MatchTopic derives the channel topic for a match
func MatchTopic(id model.MatchID) string {
	return "match:" + string(id)
}

// Transport opens named publish/subscribe channels. Delivery is
// best-effort and at-most-once: messages may be lost or reordered, so
// nothing received over a channel is treated as authoritative state.
type Transport interface {
	// Channel opens a new subscription to the given topic. Each call
	// returns an independent channel instance; sharing one instance
	// between consumers is the Registry's job.
	Channel(topic string) (Channel, error)
}

// Channel is one subscription to a topic.
//
// Bind and OnPresenceSync must be called before messages of interest
// arrive; handlers stay attached for the channel's lifetime and are
// invoked from the channel's receive goroutine.
type Channel interface {
	// Publish sends a named notification to every subscriber of the
	// topic, including this one.
	Publish(ctx context.Context, event model.EventType, payload any) error

	// Bind registers a handler for a named notification.
	Bind(event model.EventType, handler func(payload []byte))

	// Track announces the caller's presence on this topic and keeps it
	// alive until Close.
	Track(ctx context.Context, record model.PresenceRecord) error

	// PresenceState returns the full set of currently tracked records.
	PresenceState(ctx context.Context) ([]model.PresenceRecord, error)

	// OnPresenceSync registers a callback invoked whenever the presence
	// set may have changed. Callbacks recompute from PresenceState;
	// the signal itself carries no data.
	OnPresenceSync(fn func())

	// Close unsubscribes, withdraws any tracked presence and releases
	// the channel's resources.
	Close() error
}
