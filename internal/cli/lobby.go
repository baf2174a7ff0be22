package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/acrofts/digitduel/internal/client/lobby"
	"github.com/acrofts/digitduel/internal/model"
)

func newLobbyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lobby",
		Short: "Lobby presence and invite commands",
	}

	cmd.AddCommand(newLobbyWhoCmd())
	cmd.AddCommand(newLobbyInviteCmd())
	cmd.AddCommand(newLobbyWatchCmd())

	return cmd
}

func newLobbyWhoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "who",
		Short: "List players currently in the lobby",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, self, err := connectRealtime(ctx)
			if err != nil {
				return err
			}

			client := lobby.NewClient(facade, registry, self, cliLogger())
			if err := client.Join(ctx); err != nil {
				return err
			}
			defer client.Leave()

			out := NewOutput(cfg.Output)
			out.Print(client.Online())
			return nil
		},
	}
}

func newLobbyInviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <player-id>",
		Short: "Create a match and invite a player to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, self, err := connectRealtime(ctx)
			if err != nil {
				return err
			}

			client := lobby.NewClient(facade, registry, self, cliLogger())
			if err := client.Join(ctx); err != nil {
				return err
			}
			defer client.Leave()

			m, err := client.SendInvite(ctx, model.PlayerID(args[0]))
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(m)
			return nil
		},
	}
}

func newLobbyWatchCmd() *cobra.Command {
	var autoAccept bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay in the lobby and report presence and invites until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, self, err := connectRealtime(ctx)
			if err != nil {
				return err
			}

			client := lobby.NewClient(facade, registry, self, cliLogger())

			client.OnOnline(func(online []model.PresenceRecord) {
				fmt.Printf("online: %d player(s)\n", len(online))
				for _, r := range online {
					fmt.Printf("  %s (%s)\n", r.DisplayName, r.PlayerID)
				}
			})

			accepted := make(chan model.MatchID, 1)
			client.OnInvite(func(invite model.Invite) {
				fmt.Printf("invite from %s (%s): match %s code %s\n",
					invite.FromDisplayName, invite.FromPlayerID, invite.MatchID, invite.MatchCode)
				if autoAccept {
					m, err := client.AcceptInvite(ctx)
					if err != nil {
						fmt.Fprintf(os.Stderr, "accept failed: %s\n", err)
						return
					}
					fmt.Printf("accepted, match %s is %s\n", m.ID, m.Status)
					select {
					case accepted <- m.ID:
					default:
					}
				}
			})
			client.OnInviteAccepted(func(id model.MatchID) {
				fmt.Printf("your invite for match %s was accepted\n", id)
			})
			client.OnInviteDeclined(func(id model.MatchID) {
				fmt.Printf("your invite for match %s was declined\n", id)
			})

			if err := client.Join(ctx); err != nil {
				return err
			}
			defer client.Leave()

			fmt.Println("in lobby... press Ctrl-C to leave")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
			case id := <-accepted:
				fmt.Printf("leaving lobby for match %s\n", id)
			case <-ctx.Done():
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoAccept, "accept", false, "Automatically accept the first invite and exit")

	return cmd
}
