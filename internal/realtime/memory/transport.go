package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/realtime"
)

// Broker is an in-process transport. Every channel opened for a topic
// receives every message published to it, including its own. It backs
// single-process deployments and tests; cross-process fan-out is the
// Redis transport's job.
type Broker struct {
	mu     sync.Mutex
	topics map[string]*topicState
}

type topicState struct {
	subscribers map[*channel]struct{}
	presence    map[model.PlayerID]model.PresenceRecord
}

// NewBroker creates an empty in-process broker
func NewBroker() *Broker {
	return &Broker{
		topics: make(map[string]*topicState),
	}
}

// Ensure Broker implements the transport interface
var _ realtime.Transport = (*Broker)(nil)

// Channel opens a new subscription to a topic
func (b *Broker) Channel(topic string) (realtime.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.topics[topic]
	if !ok {
		state = &topicState{
			subscribers: make(map[*channel]struct{}),
			presence:    make(map[model.PlayerID]model.PresenceRecord),
		}
		b.topics[topic] = state
	}

	ch := &channel{
		broker:   b,
		topic:    topic,
		handlers: make(map[model.EventType][]func([]byte)),
	}
	state.subscribers[ch] = struct{}{}
	return ch, nil
}

// subscribers returns a snapshot of a topic's live channels
func (b *Broker) subscribers(topic string) []*channel {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.topics[topic]
	if !ok {
		return nil
	}

	subs := make([]*channel, 0, len(state.subscribers))
	for ch := range state.subscribers {
		subs = append(subs, ch)
	}
	return subs
}

type channel struct {
	broker *Broker
	topic  string

	mu       sync.Mutex
	handlers map[model.EventType][]func([]byte)
	syncFns  []func()
	tracked  model.PlayerID
	closed   bool
}

func (c *channel) Publish(_ context.Context, event model.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Dispatch outside the broker lock so handlers may publish in turn
	for _, sub := range c.broker.subscribers(c.topic) {
		sub.dispatch(event, data)
	}
	return nil
}

func (c *channel) Bind(event model.EventType, handler func(payload []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

func (c *channel) Track(_ context.Context, record model.PresenceRecord) error {
	b := c.broker
	b.mu.Lock()
	state, ok := b.topics[c.topic]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	state.presence[record.PlayerID] = record
	b.mu.Unlock()

	c.mu.Lock()
	c.tracked = record.PlayerID
	c.mu.Unlock()

	c.notifyPresenceSync()
	return nil
}

func (c *channel) PresenceState(_ context.Context) ([]model.PresenceRecord, error) {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.topics[c.topic]
	if !ok {
		return nil, nil
	}

	records := make([]model.PresenceRecord, 0, len(state.presence))
	for _, rec := range state.presence {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].PlayerID < records[j].PlayerID
	})
	return records, nil
}

func (c *channel) OnPresenceSync(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncFns = append(c.syncFns, fn)
}

func (c *channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	tracked := c.tracked
	c.mu.Unlock()

	b := c.broker
	b.mu.Lock()
	state, ok := b.topics[c.topic]
	if ok {
		delete(state.subscribers, c)
		if tracked != "" {
			delete(state.presence, tracked)
		}
		if len(state.subscribers) == 0 && len(state.presence) == 0 {
			delete(b.topics, c.topic)
		}
	}
	b.mu.Unlock()

	if tracked != "" {
		c.notifyPresenceSync()
	}
	return nil
}

// dispatch invokes the channel's handlers for one received message
func (c *channel) dispatch(event model.EventType, data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	handlers := make([]func([]byte), len(c.handlers[event]))
	copy(handlers, c.handlers[event])
	c.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
}

// notifyPresenceSync signals every remaining subscriber of the topic
func (c *channel) notifyPresenceSync() {
	for _, sub := range c.broker.subscribers(c.topic) {
		sub.mu.Lock()
		fns := make([]func(), len(sub.syncFns))
		copy(fns, sub.syncFns)
		sub.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	}
}
