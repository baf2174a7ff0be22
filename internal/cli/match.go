package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/acrofts/digitduel/internal/client/session"
	"github.com/acrofts/digitduel/internal/dependencies/clock"
	"github.com/acrofts/digitduel/internal/model"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match commands",
	}

	cmd.AddCommand(newMatchCreateCmd())
	cmd.AddCommand(newMatchJoinCmd())
	cmd.AddCommand(newMatchShowCmd())
	cmd.AddCommand(newMatchSecretCmd())
	cmd.AddCommand(newMatchReadyCmd())
	cmd.AddCommand(newMatchStartCmd())
	cmd.AddCommand(newMatchGuessCmd())
	cmd.AddCommand(newMatchAbandonCmd())
	cmd.AddCommand(newMatchHistoryCmd())
	cmd.AddCommand(newMatchInvitesCmd())
	cmd.AddCommand(newMatchWatchCmd())

	return cmd
}

func newMatchCreateCmd() *cobra.Command {
	var invite string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a match and take seat 1",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := facade.CreateMatch(cmd.Context(), model.PlayerID(invite))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(m)
			return nil
		},
	}

	cmd.Flags().StringVar(&invite, "invite", "", "Player ID to invite (optional)")

	return cmd
}

func newMatchJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a match by its share code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := facade.JoinMatchByCode(cmd.Context(), model.MatchCode(args[0]))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(m)
			return nil
		},
	}
}

func newMatchShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <match-id>",
		Short: "Show match state, participants and guesses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.MatchID(args[0])

			m, err := facade.FetchMatch(cmd.Context(), id)
			if err != nil {
				return err
			}
			participants, err := facade.FetchParticipants(cmd.Context(), id)
			if err != nil {
				return err
			}
			guesses, err := facade.FetchGuesses(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if cfg.Output == "json" {
				out.Print(map[string]any{
					"match":        m,
					"participants": participants,
					"guesses":      guesses,
				})
				return nil
			}
			out.Print(m)
			out.Print(participants)
			out.Print(guesses)
			return nil
		},
	}
}

func newMatchSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret <match-id> <digits>",
		Short: "Lock in your secret digits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.ValidateDigits(args[1]); err != nil {
				return err
			}
			if err := facade.SetSecret(cmd.Context(), model.MatchID(args[0]), args[1]); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("secret locked")
			return nil
		},
	}
}

func newMatchReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready <match-id>",
		Short: "Declare yourself ready to start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := facade.SetReady(cmd.Context(), model.MatchID(args[0])); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("ready")
			return nil
		},
	}
}

func newMatchStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <match-id>",
		Short: "Start the match (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := facade.StartMatch(cmd.Context(), model.MatchID(args[0]))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(m)
			return nil
		},
	}
}

func newMatchGuessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guess <match-id> <digits>",
		Short: "Submit a guess on your turn",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := model.ValidateDigits(args[1]); err != nil {
				return err
			}
			result, err := facade.SubmitGuess(cmd.Context(), model.MatchID(args[0]), args[1])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <match-id>",
		Short: "Leave the match, conceding to your opponent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := facade.AbandonMatch(cmd.Context(), model.MatchID(args[0]))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(m)
			return nil
		},
	}
}

func newMatchHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your concluded matches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := facade.FetchHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(results)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (0 for server default)")

	return cmd
}

func newMatchInvitesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invites",
		Short: "Show matches you have been invited to",
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := facade.FetchPendingInvites(cmd.Context())
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(matches)
			return nil
		},
	}
}

func newMatchWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <match-id>",
		Short: "Follow a match live over Redis pub/sub until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, self, err := connectRealtime(ctx)
			if err != nil {
				return err
			}

			engine := session.NewEngine(facade, registry, clock.New(), self, session.Config{}, cliLogger())
			engine.OnChange(printSnapshot)

			if err := engine.Open(ctx, model.MatchID(args[0])); err != nil {
				return err
			}
			defer engine.Close()

			fmt.Println("watching... press Ctrl-C to stop")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-ctx.Done():
			}
			return nil
		},
	}
}

func printSnapshot(snap session.Snapshot) {
	if snap.Match == nil {
		return
	}

	fmt.Printf("[%s] status=%s", snap.Match.ID, snap.Match.Status)
	if snap.Match.CurrentTurn != "" {
		fmt.Printf(" turn=%s", snap.Match.CurrentTurn)
	}
	if snap.Match.Winner != "" {
		fmt.Printf(" winner=%s", snap.Match.Winner)
	}
	fmt.Println()

	if len(snap.Guesses) > 0 {
		last := snap.Guesses[len(snap.Guesses)-1]
		fmt.Printf("  last guess: %s by %s  exact=%d partial=%d\n",
			last.Value, last.GuesserID, last.Exact, last.Partial)
	}
}
