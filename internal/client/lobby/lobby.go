package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/realtime"
)

// ErrNoPendingInvite is returned when accepting or declining with no
// invite waiting
var ErrNoPendingInvite = errors.New("no pending invite")

// Backend is the slice of the remote API the lobby client needs
type Backend interface {
	CreateMatch(ctx context.Context, invited model.PlayerID) (*model.Match, *model.Participant, error)
	JoinMatch(ctx context.Context, id model.MatchID) (*model.Participant, error)
	FetchMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
}

// Client maintains a player's view of the lobby: who is online, and the
// invitation handshake. The online list is always recomputed from the
// channel's full presence state; individual join/leave signals are only
// triggers. At most one received invite is held at a time, and a newer
// one replaces an older unacknowledged one.
type Client struct {
	self     model.PresenceRecord
	backend  Backend
	registry *realtime.Registry
	logger   *slog.Logger

	mu         sync.Mutex
	channel    realtime.Channel
	online     []model.PresenceRecord
	pending    *model.Invite
	sentInvite model.MatchID

	onOnline   func([]model.PresenceRecord)
	onInvite   func(model.Invite)
	onAccepted func(model.MatchID)
	onDeclined func(model.MatchID)
}

// NewClient creates a lobby client for the given player
func NewClient(backend Backend, registry *realtime.Registry, self model.PresenceRecord, logger *slog.Logger) *Client {
	return &Client{
		self:     self,
		backend:  backend,
		registry: registry,
		logger:   logger.With(slog.String("component", "lobby_client")),
	}
}

// OnOnline registers a callback for changes to the online list.
// Must be set before Join.
func (c *Client) OnOnline(fn func([]model.PresenceRecord)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOnline = fn
}

// OnInvite registers a callback for received invitations
func (c *Client) OnInvite(fn func(model.Invite)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInvite = fn
}

// OnInviteAccepted registers a callback fired when an invite this client
// sent is accepted
func (c *Client) OnInviteAccepted(fn func(model.MatchID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAccepted = fn
}

// OnInviteDeclined registers a callback fired when an invite this client
// sent is declined
func (c *Client) OnInviteDeclined(fn func(model.MatchID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDeclined = fn
}

// Join enters the lobby: acquire the shared channel, wire handlers once,
// announce presence and compute the initial online list
func (c *Client) Join(ctx context.Context) error {
	c.mu.Lock()
	if c.channel != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	ch, err := c.registry.Acquire(realtime.LobbyTopic)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.channel = ch
	c.mu.Unlock()

	c.registry.WireOnce(realtime.LobbyTopic, func(wired realtime.Channel) {
		wired.Bind(model.EventGameInvite, c.handleInvite)
		wired.Bind(model.EventInviteAccepted, c.handleAccepted)
		wired.Bind(model.EventInviteDeclined, c.handleDeclined)
		wired.OnPresenceSync(c.recomputeOnline)
	})

	if err := ch.Track(ctx, c.self); err != nil {
		c.logger.Warn("presence track failed", slog.String("error", err.Error()))
	}

	c.recomputeOnline()
	return nil
}

// Leave exits the lobby and releases the shared channel
func (c *Client) Leave() {
	c.mu.Lock()
	if c.channel == nil {
		c.mu.Unlock()
		return
	}
	c.channel = nil
	c.online = nil
	c.pending = nil
	c.sentInvite = ""
	c.mu.Unlock()

	c.registry.Release(realtime.LobbyTopic)
}

// Online returns the current list of other players in the lobby
func (c *Client) Online() []model.PresenceRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.PresenceRecord, len(c.online))
	copy(out, c.online)
	return out
}

// PendingInvite returns the invite awaiting a response, if any
func (c *Client) PendingInvite() *model.Invite {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	invite := *c.pending
	return &invite
}

// SendInvite creates a match targeting a player and announces it in the
// lobby. The created match is also discoverable through the pending
// invites query if the target misses the broadcast.
func (c *Client) SendInvite(ctx context.Context, to model.PlayerID) (*model.Match, error) {
	m, _, err := c.backend.CreateMatch(ctx, to)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sentInvite = m.ID
	ch := c.channel
	c.mu.Unlock()

	if ch != nil {
		err := ch.Publish(ctx, model.EventGameInvite, model.Invite{
			FromPlayerID:    c.self.PlayerID,
			FromDisplayName: c.self.DisplayName,
			MatchID:         m.ID,
			MatchCode:       m.Code,
		})
		if err != nil {
			c.logger.Warn("invite broadcast failed", slog.String("error", err.Error()))
		}
	}

	return m, nil
}

// AcceptInvite joins the pending invite's match and tells the inviter
func (c *Client) AcceptInvite(ctx context.Context) (*model.Match, error) {
	c.mu.Lock()
	pending := c.pending
	ch := c.channel
	c.mu.Unlock()
	if pending == nil {
		return nil, ErrNoPendingInvite
	}

	if _, err := c.backend.JoinMatch(ctx, pending.MatchID); err != nil {
		// A dead invite (expired or abandoned match) is cleared so it
		// cannot wedge the single slot
		c.clearPending(pending.MatchID)
		return nil, err
	}

	c.clearPending(pending.MatchID)

	if ch != nil {
		err := ch.Publish(ctx, model.EventInviteAccepted, model.InviteDecision{
			MatchID:  pending.MatchID,
			PlayerID: c.self.PlayerID,
		})
		if err != nil {
			c.logger.Warn("accept broadcast failed", slog.String("error", err.Error()))
		}
	}

	return c.backend.FetchMatch(ctx, pending.MatchID)
}

// DeclineInvite rejects the pending invite and tells the inviter
func (c *Client) DeclineInvite(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	ch := c.channel
	c.mu.Unlock()
	if pending == nil {
		return ErrNoPendingInvite
	}

	c.clearPending(pending.MatchID)

	if ch != nil {
		err := ch.Publish(ctx, model.EventInviteDeclined, model.InviteDecision{
			MatchID:  pending.MatchID,
			PlayerID: c.self.PlayerID,
		})
		if err != nil {
			c.logger.Warn("decline broadcast failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (c *Client) clearPending(matchID model.MatchID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil && c.pending.MatchID == matchID {
		c.pending = nil
	}
}

// handleInvite stores a received invitation in the single pending slot
func (c *Client) handleInvite(payload []byte) {
	var invite model.Invite
	if err := json.Unmarshal(payload, &invite); err != nil {
		return
	}
	// The lobby channel echoes our own broadcast back to us
	if invite.FromPlayerID == c.self.PlayerID {
		return
	}

	c.mu.Lock()
	c.pending = &invite
	cb := c.onInvite
	c.mu.Unlock()

	c.logger.Info("invite received",
		slog.String("from", string(invite.FromPlayerID)),
		slog.String("match_id", string(invite.MatchID)))

	if cb != nil {
		cb(invite)
	}
}

// handleAccepted resolves an invite this client sent
func (c *Client) handleAccepted(payload []byte) {
	var decision model.InviteDecision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return
	}

	c.mu.Lock()
	if c.sentInvite == "" || c.sentInvite != decision.MatchID {
		c.mu.Unlock()
		return
	}
	c.sentInvite = ""
	cb := c.onAccepted
	c.mu.Unlock()

	if cb != nil {
		cb(decision.MatchID)
	}
}

// handleDeclined resolves an invite this client sent
func (c *Client) handleDeclined(payload []byte) {
	var decision model.InviteDecision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return
	}

	c.mu.Lock()
	if c.sentInvite == "" || c.sentInvite != decision.MatchID {
		c.mu.Unlock()
		return
	}
	c.sentInvite = ""
	cb := c.onDeclined
	c.mu.Unlock()

	if cb != nil {
		cb(decision.MatchID)
	}
}

// recomputeOnline rebuilds the online list from the channel's full
// presence state, excluding this client
func (c *Client) recomputeOnline() {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return
	}

	state, err := ch.PresenceState(context.Background())
	if err != nil {
		c.logger.Warn("presence read failed", slog.String("error", err.Error()))
		return
	}

	others := make([]model.PresenceRecord, 0, len(state))
	for _, rec := range state {
		if rec.PlayerID != c.self.PlayerID {
			others = append(others, rec)
		}
	}

	c.mu.Lock()
	c.online = others
	cb := c.onOnline
	snapshot := make([]model.PresenceRecord, len(others))
	copy(snapshot, others)
	c.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}
