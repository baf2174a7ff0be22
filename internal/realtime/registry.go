package realtime

import (
	"log/slog"
	"sync"
)

// Registry shares channel instances between consumers. Multiple views of
// the same match (and the lobby alongside them) acquire the same topic;
// the underlying channel is created on first acquire and destroyed when
// the last reference is released. All bookkeeping happens under a single
// mutex with no blocking calls inside, so a check-then-act interleaving
// can never produce two live channels for one topic.
type Registry struct {
	transport Transport
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	channel  Channel
	refCount int
	wired    bool
}

// NewRegistry creates a registry backed by the given transport
func NewRegistry(transport Transport, logger *slog.Logger) *Registry {
	return &Registry{
		transport: transport,
		logger:    logger.With(slog.String("component", "channel_registry")),
		entries:   make(map[string]*entry),
	}
}

// Acquire returns the shared channel for a topic, creating it if no live
// instance exists, and increments its reference count.
func (r *Registry) Acquire(topic string) (Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[topic]
	if !ok {
		ch, err := r.transport.Channel(topic)
		if err != nil {
			return nil, err
		}
		e = &entry{channel: ch}
		r.entries[topic] = e
		r.logger.Debug("channel created", slog.String("topic", topic))
	}

	e.refCount++
	return e.channel, nil
}

// WireOnce runs wire against the topic's channel the first time it is
// called for the current channel instance. Later calls for the same
// instance are no-ops, so handlers are never bound twice; a channel
// recreated after destruction is wired afresh.
func (r *Registry) WireOnce(topic string, wire func(Channel)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[topic]
	if !ok || e.wired {
		return
	}
	e.wired = true
	wire(e.channel)
}

// Release decrements a topic's reference count, destroying the channel
// when it reaches zero. Releasing an unknown topic or releasing more
// times than acquired is a no-op; the count never goes negative.
func (r *Registry) Release(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[topic]
	if !ok {
		return
	}

	e.refCount--
	if e.refCount > 0 {
		return
	}

	delete(r.entries, topic)
	if err := e.channel.Close(); err != nil {
		r.logger.Warn("channel close failed",
			slog.String("topic", topic),
			slog.String("error", err.Error()))
	}
	r.logger.Debug("channel destroyed", slog.String("topic", topic))
}

// ForceDestroy tears down a topic's channel regardless of how many
// references are outstanding. Used when the session it served is gone
// for good, such as after abandoning a match.
func (r *Registry) ForceDestroy(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[topic]
	if !ok {
		return
	}

	delete(r.entries, topic)
	if err := e.channel.Close(); err != nil {
		r.logger.Warn("channel close failed",
			slog.String("topic", topic),
			slog.String("error", err.Error()))
	}
	r.logger.Debug("channel force destroyed", slog.String("topic", topic))
}

// RefCount reports the current reference count for a topic
func (r *Registry) RefCount(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[topic]
	if !ok {
		return 0
	}
	return e.refCount
}
