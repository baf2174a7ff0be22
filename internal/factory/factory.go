package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/acrofts/digitduel/internal/dependencies/clock"
	"github.com/acrofts/digitduel/internal/dependencies/random"
	"github.com/acrofts/digitduel/internal/realtime"
	rtmemory "github.com/acrofts/digitduel/internal/realtime/memory"
	rtredis "github.com/acrofts/digitduel/internal/realtime/redis"
	"github.com/acrofts/digitduel/internal/services/auth"
	"github.com/acrofts/digitduel/internal/services/match"
	"github.com/acrofts/digitduel/internal/storage"
	"github.com/acrofts/digitduel/internal/storage/memory"
	redisstorage "github.com/acrofts/digitduel/internal/storage/redis"
)

// Backend type constants, shared by storage and realtime selection
const (
	BackendTypeMemory = "memory"
	BackendTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Realtime transport backing client registries
	Transport realtime.Transport

	// Services
	AuthService     *auth.Service
	MatchController *match.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// RealtimeType selects the realtime transport ("memory" or "redis")
	// If empty, defaults to "memory". The memory transport only reaches
	// clients in the same process; a multi-process deployment needs redis.
	RealtimeType string
	// RealtimeRedisConfig holds Redis pub/sub settings (required if
	// RealtimeType is "redis")
	RealtimeRedisConfig *rtredis.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = BackendTypeMemory
	}

	switch storageType {
	case BackendTypeMemory:
		store = memory.New()
	case BackendTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create realtime transport based on type
	var transport realtime.Transport
	realtimeType := cfg.RealtimeType
	if realtimeType == "" {
		realtimeType = BackendTypeMemory
	}

	switch realtimeType {
	case BackendTypeMemory:
		transport = rtmemory.NewBroker()
	case BackendTypeRedis:
		if cfg.RealtimeRedisConfig == nil {
			return nil, errors.New("RealtimeRedisConfig required when RealtimeType is redis")
		}
		redisTransport, err := rtredis.New(*cfg.RealtimeRedisConfig, clk, logger)
		if err != nil {
			return nil, err
		}
		transport = redisTransport
	default:
		return nil, errors.New("invalid RealtimeType: must be 'memory' or 'redis'")
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, transport, clk, rnd, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	transport realtime.Transport,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(store, clk, rnd, authCfg, logger)
	matchController := match.NewController(store, clk, rnd, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		Transport:       transport,
		AuthService:     authService,
		MatchController: matchController,
	}
}
