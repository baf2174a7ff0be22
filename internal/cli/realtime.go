package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/acrofts/digitduel/internal/dependencies/clock"
	"github.com/acrofts/digitduel/internal/model"
	"github.com/acrofts/digitduel/internal/realtime"
	rtredis "github.com/acrofts/digitduel/internal/realtime/redis"
)

// connectRealtime builds a channel registry over the configured Redis
// transport, plus the presence record identifying this client. Live
// commands (lobby, match watch) need both; plain API commands never
// touch Redis.
func connectRealtime(ctx context.Context) (*realtime.Registry, model.PresenceRecord, error) {
	logger := cliLogger()

	player, err := facade.Me(ctx)
	if err != nil {
		return nil, model.PresenceRecord{}, err
	}

	clk := clock.New()
	rtCfg := rtredis.DefaultConfig()
	rtCfg.URL = cfg.RedisURL
	transport, err := rtredis.New(rtCfg, clk, logger)
	if err != nil {
		return nil, model.PresenceRecord{}, err
	}

	self := model.PresenceRecord{
		PlayerID:    player.ID,
		DisplayName: player.DisplayName,
		AvatarURL:   player.AvatarURL,
		At:          clk.Now(),
	}

	return realtime.NewRegistry(transport, logger), self, nil
}

// cliLogger logs human-readable lines to stderr so stdout stays parseable
func cliLogger() *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
