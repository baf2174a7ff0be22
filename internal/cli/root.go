package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/acrofts/digitduel/internal/client"
)

var (
	cfg    *Config
	facade *client.HTTPFacade
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "digitduel",
		Short: "CLI tool for the digitduel API",
		Long: `digitduel is a CLI tool for playing the digit deduction game.

It supports all API operations including player management, match
actions, lobby presence and live match watching over Redis pub/sub.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			facade = client.NewHTTPFacade(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: DIGITDUEL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for realtime commands (env: DIGITDUEL_REDIS)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: DIGITDUEL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: DIGITDUEL_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newLobbyCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
