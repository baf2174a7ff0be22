package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acrofts/digitduel/internal/client"
	"github.com/acrofts/digitduel/internal/dependencies/clock"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/realtime"
)

// DefaultPollInterval is the fallback poll cadence while a match is playing
const DefaultPollInterval = 5 * time.Second

// Backend is the slice of the remote API the engine needs
type Backend interface {
	FetchMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	FetchParticipants(ctx context.Context, id model.MatchID) ([]*model.Participant, error)
	FetchGuesses(ctx context.Context, id model.MatchID) ([]*model.Guess, error)
	SetSecret(ctx context.Context, id model.MatchID, secret string) error
	SetReady(ctx context.Context, id model.MatchID) error
	StartMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
	SubmitGuess(ctx context.Context, id model.MatchID, value string) (*client.GuessResult, error)
	AbandonMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
}

// Snapshot is one consistent projection of a match. It is replaced
// wholesale on every refresh, never patched in place.
type Snapshot struct {
	Match        *model.Match
	Participants []*model.Participant
	Guesses      []*model.Guess
}

// Status returns the match status, or empty when no match is open
func (s Snapshot) Status() model.MatchStatus {
	if s.Match == nil {
		return ""
	}
	return s.Match.Status
}

// IsTurn reports whether the given player holds the current turn
func (s Snapshot) IsTurn(playerID model.PlayerID) bool {
	return s.Match != nil &&
		s.Match.Status == model.MatchStatusPlaying &&
		s.Match.CurrentTurn == playerID
}

// Config holds engine tuning knobs
type Config struct {
	PollInterval time.Duration
}

// Engine keeps a client's view of one match converged with the backend.
// Every change signal, whether a realtime notification, a poll tick or
// the completion of the client's own action, funnels into Refresh, which
// refetches the full projection and swaps it in atomically. Received
// payloads are never applied to state, so a lost or duplicated message
// costs at most latency, never correctness.
type Engine struct {
	self     model.PresenceRecord
	backend  Backend
	registry *realtime.Registry
	clock    clock.Clock
	logger   *slog.Logger

	pollInterval time.Duration

	mu       sync.Mutex
	matchID  model.MatchID
	topic    string
	channel  realtime.Channel
	snap     Snapshot
	gen      int
	pollStop chan struct{}
	onChange func(Snapshot)
}

// NewEngine creates an engine for the given player
func NewEngine(backend Backend, registry *realtime.Registry, clk clock.Clock, self model.PresenceRecord, cfg Config, logger *slog.Logger) *Engine {
	interval := cfg.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	return &Engine{
		self:         self,
		backend:      backend,
		registry:     registry,
		clock:        clk,
		logger:       logger.With(slog.String("component", "session_engine")),
		pollInterval: interval,
	}
}

// OnChange registers a callback invoked with each new snapshot.
// Must be set before Open.
func (e *Engine) OnChange(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// Self returns the player this engine acts for
func (e *Engine) Self() model.PlayerID {
	return e.self.PlayerID
}

// Snapshot returns the current projection
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Open attaches the engine to a match: it acquires the shared channel,
// wires refresh triggers exactly once per channel instance, announces
// presence, starts the poll fallback and performs an initial refresh.
// Opening the already-open match just refreshes; opening a different
// match releases the previous one first.
func (e *Engine) Open(ctx context.Context, matchID model.MatchID) error {
	e.mu.Lock()
	if e.matchID == matchID && e.channel != nil {
		e.mu.Unlock()
		return e.Refresh(ctx)
	}
	oldTopic := e.topic
	e.detachLocked()

	topic := realtime.MatchTopic(matchID)
	ch, err := e.registry.Acquire(topic)
	if err != nil {
		e.mu.Unlock()
		if oldTopic != "" {
			e.registry.Release(oldTopic)
		}
		return err
	}

	e.matchID = matchID
	e.topic = topic
	e.channel = ch
	gen := e.gen
	stop := make(chan struct{})
	e.pollStop = stop
	e.mu.Unlock()

	// Moving between matches drops the reference held on the old one
	if oldTopic != "" {
		e.registry.Release(oldTopic)
	}

	e.registry.WireOnce(topic, func(c realtime.Channel) {
		for _, event := range model.MatchEvents {
			c.Bind(event, func(payload []byte) {
				e.handleNotification(payload)
			})
		}
	})

	if err := ch.Track(ctx, e.self); err != nil {
		e.logger.Warn("presence track failed",
			slog.String("match_id", string(matchID)),
			slog.String("error", err.Error()))
	}

	go e.pollLoop(gen, stop, e.clock.NewTicker(e.pollInterval))

	return e.Refresh(ctx)
}

// Close detaches from the current match, releasing one reference to the
// shared channel. Other views of the same match keep it alive.
func (e *Engine) Close() {
	e.mu.Lock()
	topic := e.topic
	e.detachLocked()
	e.mu.Unlock()

	if topic != "" {
		e.registry.Release(topic)
	}
}

// Reset detaches and tears the channel down outright, regardless of other
// references. Used when the match is gone for good.
func (e *Engine) Reset() {
	e.mu.Lock()
	topic := e.topic
	e.detachLocked()
	e.mu.Unlock()

	if topic != "" {
		e.registry.ForceDestroy(topic)
	}
}

// detachLocked clears all per-match state. Bumping gen makes any
// in-flight refresh discard its result instead of resurrecting the view.
func (e *Engine) detachLocked() {
	e.gen++
	if e.pollStop != nil {
		close(e.pollStop)
		e.pollStop = nil
	}
	e.matchID = ""
	e.topic = ""
	e.channel = nil
	e.snap = Snapshot{}
}

// Refresh refetches the whole projection and swaps it in atomically.
// If any of the three reads fails the current snapshot stays untouched;
// a later signal will try again.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	id := e.matchID
	gen := e.gen
	e.mu.Unlock()

	if id == "" {
		return nil
	}

	var (
		m            *model.Match
		participants []*model.Participant
		guesses      []*model.Guess
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m, err = e.backend.FetchMatch(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		participants, err = e.backend.FetchParticipants(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		guesses, err = e.backend.FetchGuesses(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		e.logger.Warn("refresh failed",
			slog.String("match_id", string(id)),
			slog.String("error", err.Error()))
		return err
	}

	e.mu.Lock()
	if e.matchID != id || e.gen != gen {
		// The view moved on while we were fetching
		e.mu.Unlock()
		return nil
	}
	e.snap = Snapshot{Match: m, Participants: participants, Guesses: guesses}
	snap := e.snap
	cb := e.onChange
	e.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
	return nil
}

// handleNotification reacts to a realtime message: filter by match,
// then refetch. The payload itself is never applied.
func (e *Engine) handleNotification(payload []byte) {
	var n model.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return
	}

	e.mu.Lock()
	relevant := e.matchID != "" && n.MatchID == e.matchID
	e.mu.Unlock()
	if !relevant {
		return
	}

	_ = e.Refresh(context.Background())
}

// pollLoop is the fallback for lost notifications: while the match is
// playing, refresh on a fixed cadence
func (e *Engine) pollLoop(gen int, stop <-chan struct{}, ticker clock.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			e.mu.Lock()
			playing := e.gen == gen && e.snap.Status() == model.MatchStatusPlaying
			e.mu.Unlock()

			if playing {
				_ = e.Refresh(context.Background())
			}
		}
	}
}

// Notify publishes a change signal to the match channel. Failures are
// logged and swallowed: peers converge through polling regardless.
func (e *Engine) Notify(ctx context.Context, event model.EventType, n model.Notification) {
	e.mu.Lock()
	ch := e.channel
	e.mu.Unlock()
	if ch == nil {
		return
	}

	if err := ch.Publish(ctx, event, n); err != nil {
		e.logger.Warn("notify failed",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
	}
}

// SetSecret validates and locks in the player's secret
func (e *Engine) SetSecret(ctx context.Context, secret string) error {
	if err := model.ValidateDigits(secret); err != nil {
		return err
	}

	e.mu.Lock()
	id := e.matchID
	e.mu.Unlock()
	if id == "" {
		return model.ErrMatchNotFound
	}

	if err := e.backend.SetSecret(ctx, id, secret); err != nil {
		return err
	}
	return e.Refresh(ctx)
}

// SetReady marks the player ready and tells the opponent
func (e *Engine) SetReady(ctx context.Context) error {
	e.mu.Lock()
	id := e.matchID
	e.mu.Unlock()
	if id == "" {
		return model.ErrMatchNotFound
	}

	if err := e.backend.SetReady(ctx, id); err != nil {
		return err
	}
	e.Notify(ctx, model.EventPlayerReady, model.Notification{MatchID: id})
	return e.Refresh(ctx)
}

// Start begins play. Only the creator issues the call; losing the race
// to the backend's one-winner transition is not an error, it just means
// someone else already started it.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	id := e.matchID
	snap := e.snap
	e.mu.Unlock()
	if id == "" {
		return model.ErrMatchNotFound
	}
	if snap.Match != nil && snap.Match.CreatedBy != e.self.PlayerID {
		return model.ErrNotCreator
	}

	_, err := e.backend.StartMatch(ctx, id)
	switch {
	case err == nil:
		e.Notify(ctx, model.EventGameStarted, model.Notification{MatchID: id})
	case errors.Is(err, model.ErrAlreadyStarted):
		e.logger.Debug("match already started elsewhere", slog.String("match_id", string(id)))
	default:
		return err
	}

	return e.Refresh(ctx)
}

// SubmitGuess submits a guess after local gating: the match must be
// playing and it must be this player's turn. Gating failures never reach
// the backend.
func (e *Engine) SubmitGuess(ctx context.Context, value string) (*client.GuessResult, error) {
	if err := model.ValidateDigits(value); err != nil {
		return nil, err
	}

	e.mu.Lock()
	id := e.matchID
	snap := e.snap
	e.mu.Unlock()
	if id == "" || snap.Match == nil {
		return nil, model.ErrMatchNotFound
	}
	if snap.Match.Status != model.MatchStatusPlaying {
		return nil, model.ErrNotPlaying
	}
	if snap.Match.CurrentTurn != e.self.PlayerID {
		return nil, model.ErrNotPlayerTurn
	}

	result, err := e.backend.SubmitGuess(ctx, id, value)
	if err != nil {
		return nil, err
	}

	if result.Status == model.MatchStatusFinished {
		e.Notify(ctx, model.EventGameFinished, model.Notification{MatchID: id, Winner: result.Winner})
	} else {
		e.Notify(ctx, model.EventGuessMade, model.Notification{MatchID: id})
		e.Notify(ctx, model.EventTurnChanged, model.Notification{MatchID: id, Turn: result.CurrentTurn})
	}

	if err := e.Refresh(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// Abandon ends the match on this player's behalf and tears the channel
// down for good
func (e *Engine) Abandon(ctx context.Context) error {
	e.mu.Lock()
	id := e.matchID
	e.mu.Unlock()
	if id == "" {
		return model.ErrMatchNotFound
	}

	m, err := e.backend.AbandonMatch(ctx, id)
	if err != nil {
		return err
	}

	e.Notify(ctx, model.EventGameFinished, model.Notification{MatchID: id, Winner: m.Winner})
	e.Reset()
	return nil
}
