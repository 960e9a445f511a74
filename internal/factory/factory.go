package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/buzzer/internal/api"
	"github.com/mcoot/buzzer/internal/dependencies/clock"
	"github.com/mcoot/buzzer/internal/dependencies/identity"
	"github.com/mcoot/buzzer/internal/dependencies/random"
	"github.com/mcoot/buzzer/internal/engine"
	"github.com/mcoot/buzzer/internal/services/broadcast"
	"github.com/mcoot/buzzer/internal/services/history"
	"github.com/mcoot/buzzer/internal/services/ledger"
	"github.com/mcoot/buzzer/internal/services/registry"
	"github.com/mcoot/buzzer/internal/services/round"
	"github.com/mcoot/buzzer/internal/services/session"
	"github.com/mcoot/buzzer/internal/storage"
	"github.com/mcoot/buzzer/internal/storage/memory"
	redisstorage "github.com/mcoot/buzzer/internal/storage/redis"
	"github.com/mcoot/buzzer/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.RoundStore

	// External dependencies
	Clock    clock.Clock
	Random   random.Random
	Identity identity.Source

	// Services
	Registry    *registry.Registry
	Sessions    *session.Manager
	Ledger      *ledger.Ledger
	Rounds      *round.Controller
	Broadcaster *broadcast.Coordinator
	Archiver    *history.Archiver
	Engine      *engine.Engine

	// Transport
	Hub    *ws.Hub
	Router http.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the round archive backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// HistoryLimit caps archived rounds per room for memory storage
	HistoryLimit int
	// GracePeriod delays deletion of empty rooms
	GracePeriod time.Duration
	// PublicURL is the base of join links; derived from requests when empty
	PublicURL string
	// AllowedOrigins restricts websocket origins; empty allows any
	AllowedOrigins []string
	// Version is reported by the health endpoint and the welcome signal
	Version string
}

// New creates a new application with all dependencies wired and the
// dispatcher running. Call Close to stop it.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.RoundStore
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New(cfg.HistoryLimit)
	case StorageTypeRedis:
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

	return newWithDependencies(store, clock.New(), random.New(), identity.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.RoundStore,
	clk clock.Clock,
	rnd random.Random,
	ids identity.Source,
	cfg Config,
	logger *slog.Logger,
) *App {
	reg := registry.New(clk, rnd, logger)
	sessions := session.NewManager(reg, clk, logger)
	ledgerService := ledger.New(reg, clk, logger)
	rounds := round.NewController(reg, clk, logger)
	hub := ws.NewHub(logger)
	broadcaster := broadcast.NewCoordinator(reg, hub, logger)
	archiver := history.NewArchiver(store, logger)

	eng := engine.New(reg, sessions, ledgerService, rounds, broadcaster, archiver, clk,
		engine.Config{GracePeriod: cfg.GracePeriod}, logger)
	go eng.Run()

	wsHandler := ws.NewHandler(hub, eng, ids, ws.HandlerConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Version:        cfg.Version,
	}, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:    logger,
		Rooms:     eng,
		History:   archiver,
		WebSocket: wsHandler,
		PublicURL: cfg.PublicURL,
		Version:   cfg.Version,
	})

	return &App{
		Store:       store,
		Clock:       clk,
		Random:      rnd,
		Identity:    ids,
		Registry:    reg,
		Sessions:    sessions,
		Ledger:      ledgerService,
		Rounds:      rounds,
		Broadcaster: broadcaster,
		Archiver:    archiver,
		Engine:      eng,
		Hub:         hub,
		Router:      router,
	}
}

// Close disconnects clients, stops the dispatcher, drains the archive queue
// and closes storage, in that order
func (a *App) Close() error {
	a.Hub.Close()
	a.Engine.Close()
	a.Archiver.Close()
	return a.Store.Close()
}
