package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/acrofts/digitduel/internal/client"
	"github.com/acrofts/digitduel/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *model.Player:
		o.printPlayer(v)
	case *client.Identity:
		o.printIdentity(v)
	case *model.Match:
		o.printMatch(v)
	case []*model.Participant:
		o.printParticipants(v)
	case []*model.Guess:
		o.printGuesses(v)
	case *client.GuessResult:
		o.printGuessResult(v)
	case []*model.MatchResult:
		o.printHistory(v)
	case []*model.Match:
		o.printInvites(v)
	case []model.PresenceRecord:
		o.printPresence(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayer(p *model.Player) {
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	if p.AvatarURL != "" {
		fmt.Printf("Avatar: %s\n", p.AvatarURL)
	}
}

func (o *Output) printIdentity(id *client.Identity) {
	o.printPlayer(&id.Player)
	fmt.Printf("Token: %s\n", id.Token)
}

func (o *Output) printMatch(m *model.Match) {
	fmt.Printf("Match: %s\n", m.ID)
	fmt.Printf("Code: %s\n", m.Code)
	fmt.Printf("Status: %s\n", m.Status)
	if m.InvitedID != "" {
		fmt.Printf("Invited: %s\n", m.InvitedID)
	}
	if m.CurrentTurn != "" {
		fmt.Printf("Turn: %s\n", m.CurrentTurn)
	}
	if m.Winner != "" {
		fmt.Printf("Winner: %s\n", m.Winner)
	}
}

func (o *Output) printParticipants(ps []*model.Participant) {
	fmt.Printf("Participants (%d):\n", len(ps))
	for _, p := range ps {
		readyStr := ""
		if p.Ready {
			readyStr = " [ready]"
		}
		fmt.Printf("  seat %d: %s%s\n", p.Seat, p.PlayerID, readyStr)
	}
}

func (o *Output) printGuesses(gs []*model.Guess) {
	fmt.Printf("Guesses (%d):\n", len(gs))
	for i, g := range gs {
		fmt.Printf("  %2d. %s  %s  exact=%d partial=%d\n", i+1, g.GuesserID, g.Value, g.Exact, g.Partial)
	}
}

func (o *Output) printGuessResult(r *client.GuessResult) {
	fmt.Printf("Guess: %s  exact=%d partial=%d\n", r.Guess.Value, r.Guess.Exact, r.Guess.Partial)
	if r.Status.IsTerminal() {
		fmt.Printf("Match over: %s\n", r.Status)
		if r.Winner != "" {
			fmt.Printf("Winner: %s\n", r.Winner)
		}
		return
	}
	if r.CurrentTurn != "" {
		fmt.Printf("Next turn: %s\n", r.CurrentTurn)
	}
}

func (o *Output) printHistory(results []*model.MatchResult) {
	fmt.Printf("History (%d):\n", len(results))
	for _, r := range results {
		winner := r.WinnerID
		if winner == "" {
			winner = "-"
		}
		fmt.Printf("  %s  %s  winner=%s  turns=%d  duration=%s\n",
			r.CreatedAt.Format(time.RFC3339), r.Status, winner, r.Turns, r.Duration)
	}
}

func (o *Output) printInvites(matches []*model.Match) {
	fmt.Printf("Pending invites (%d):\n", len(matches))
	for _, m := range matches {
		fmt.Printf("  %s  code=%s  from=%s\n", m.ID, m.Code, m.CreatedBy)
	}
}

func (o *Output) printPresence(records []model.PresenceRecord) {
	fmt.Printf("Online (%d):\n", len(records))
	for _, r := range records {
		fmt.Printf("  %s (%s)\n", r.DisplayName, r.PlayerID)
	}
}
