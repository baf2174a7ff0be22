package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acrofts/digitduel/internal/dependencies/clock"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/realtime"
)

const (
	topicPrefix    = "digitduel:rt:"
	presencePrefix = "digitduel:presence:"

	// presenceSignal is an internal message telling subscribers to
	// recompute from the presence keys. It never reaches Bind handlers.
	presenceSignal model.EventType = "__presence"
)

// Config holds configuration for the Redis transport
type Config struct {
	URL          string
	PoolSize     int
	MinIdleConns int

	// PresenceTTL bounds how long a crashed peer stays visible.
	// Heartbeats refresh the key well inside the TTL.
	PresenceTTL       time.Duration
	HeartbeatInterval time.Duration
}

// DefaultConfig returns default transport configuration
func DefaultConfig() Config {
	return Config{
		URL:               "redis://localhost:6379/0",
		PoolSize:          10,
		MinIdleConns:      2,
		PresenceTTL:       30 * time.Second,
		HeartbeatInterval: 10 * time.Second,
	}
}

// Transport is a Redis pub/sub implementation of the realtime transport.
// Delivery is at-most-once: a subscriber that is down when a message is
// published never sees it, which is why consumers refetch state instead
// of applying message contents.
type Transport struct {
	client *redis.Client
	cfg    Config
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a Redis transport, verifying the connection
func New(cfg Config, clk clock.Clock, logger *slog.Logger) (*Transport, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg, clk, logger), nil
}

// NewWithClient creates a Redis transport with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock, logger *slog.Logger) *Transport {
	if cfg.PresenceTTL == 0 {
		cfg.PresenceTTL = DefaultConfig().PresenceTTL
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultConfig().HeartbeatInterval
	}
	return &Transport{
		client: client,
		cfg:    cfg,
		clock:  clk,
		logger: logger.With(slog.String("component", "redis_transport")),
	}
}

// Close closes the underlying Redis connection
func (t *Transport) Close() error {
	return t.client.Close()
}

// Ensure Transport implements the transport interface
var _ realtime.Transport = (*Transport)(nil)

// Channel opens a new subscription to a topic
func (t *Transport) Channel(topic string) (realtime.Channel, error) {
	pubsub := t.client.Subscribe(context.Background(), topicPrefix+topic)

	// Confirm the subscription is active before handing the channel out
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	ch := &channel{
		transport: t,
		topic:     topic,
		pubsub:    pubsub,
		handlers:  make(map[model.EventType][]func([]byte)),
	}
	go ch.receiveLoop()
	return ch, nil
}

type envelope struct {
	Event   model.EventType `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type channel struct {
	transport *Transport
	topic     string
	pubsub    *redis.PubSub

	mu            sync.Mutex
	handlers      map[model.EventType][]func([]byte)
	syncFns       []func()
	tracked       model.PlayerID
	heartbeatStop chan struct{}
	closed        bool
}

func (c *channel) Publish(ctx context.Context, event model.EventType, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}

	data, err := json.Marshal(envelope{Event: event, Payload: raw})
	if err != nil {
		return err
	}
	return c.transport.client.Publish(ctx, topicPrefix+c.topic, data).Err()
}

func (c *channel) Bind(event model.EventType, handler func(payload []byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], handler)
}

func (c *channel) Track(ctx context.Context, record model.PresenceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	t := c.transport
	key := c.presenceKey(record.PlayerID)
	if err := t.client.Set(ctx, key, data, t.cfg.PresenceTTL).Err(); err != nil {
		return err
	}

	c.mu.Lock()
	c.tracked = record.PlayerID
	if c.heartbeatStop == nil {
		c.heartbeatStop = make(chan struct{})
		go c.heartbeatLoop(key, data, c.heartbeatStop)
	}
	c.mu.Unlock()

	return c.Publish(ctx, presenceSignal, nil)
}

func (c *channel) PresenceState(ctx context.Context) ([]model.PresenceRecord, error) {
	t := c.transport
	pattern := presencePrefix + c.topic + ":*"

	var records []model.PresenceRecord
	iter := t.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		data, err := t.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			// Key expired between scan and read
			continue
		}
		var rec model.PresenceRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := iter.Err(); err != nil {
		return nil, err
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
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if tracked != "" {
		_ = c.transport.client.Del(ctx, c.presenceKey(tracked)).Err()
		_ = c.Publish(ctx, presenceSignal, nil)
	}
	return c.pubsub.Close()
}

// receiveLoop dispatches incoming messages until the subscription closes
func (c *channel) receiveLoop() {
	for msg := range c.pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			c.transport.logger.Warn("dropping malformed message",
				slog.String("topic", c.topic),
				slog.String("error", err.Error()))
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		var handlers []func([]byte)
		var syncFns []func()
		if env.Event == presenceSignal {
			syncFns = make([]func(), len(c.syncFns))
			copy(syncFns, c.syncFns)
		} else {
			handlers = make([]func([]byte), len(c.handlers[env.Event]))
			copy(handlers, c.handlers[env.Event])
		}
		c.mu.Unlock()

		for _, fn := range syncFns {
			fn()
		}
		for _, h := range handlers {
			h(env.Payload)
		}
	}
}

// heartbeatLoop keeps the presence key alive and nudges peers to resync
func (c *channel) heartbeatLoop(key string, data []byte, stop <-chan struct{}) {
	t := c.transport
	ticker := t.clock.NewTicker(t.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := t.client.Set(ctx, key, data, t.cfg.PresenceTTL).Err(); err != nil {
				t.logger.Warn("presence heartbeat failed",
					slog.String("topic", c.topic),
					slog.String("error", err.Error()))
			}
			_ = c.Publish(ctx, presenceSignal, nil)
			cancel()
		}
	}
}

func (c *channel) presenceKey(playerID model.PlayerID) string {
	return presencePrefix + c.topic + ":" + string(playerID)
}
