package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookkeep/internal/adapters"
	"bookkeep/internal/cache"
	"bookkeep/internal/ports"
	"bookkeep/internal/storage"
	"bookkeep/internal/storage/firestore"
	"bookkeep/internal/storage/memory"
)

const (
	localMarkerCapacity = 10000
	defaultMarkerTTL    = 30 * 24 * time.Hour
	markerSweepInterval = 10 * time.Minute
	redisPingTimeout    = 5 * time.Second
)

// Result holds the wired store and import markers. Cleanup releases both.
type Result struct {
	Store   ports.Store
	Markers cache.Markers
	Cleanup func() error
}

type opener func(ctx context.Context, cfg Config) (ports.Store, error)

var openers = map[BackendType]opener{
	MemoryBackend: func(_ context.Context, cfg Config) (ports.Store, error) {
		return memory.NewFromFile(cfg.SeedFile)
	},
	SQLiteBackend: func(_ context.Context, cfg Config) (ports.Store, error) {
		return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	},
	FirestoreBackend: func(ctx context.Context, cfg Config) (ports.Store, error) {
		return firestore.New(ctx, cfg.FirestoreProjectID, cfg.GoogleCredentialsFile)
	},
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateBackend opens the configured store, wraps it with retries and
// attaches import markers.
func (f *Factory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := openers[cfg.Type](ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Type, err)
	}
	f.logger.Info("Ledger backend ready",
		"backend", cfg.Type.String(),
		"seed_file", cfg.SeedFile,
		"db_path", cfg.SQLiteDBPath,
		"project_id", cfg.FirestoreProjectID)

	markers, err := f.createMarkers(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	// In-process markers only expire on lookup; sweep them periodically.
	sweeper := cache.NewManager()
	if local, ok := markers.(*cache.LocalMarkers); ok {
		sweeper.Register(local.Cleaner())
		sweeper.Start(context.WithoutCancel(ctx), markerSweepInterval)
	}

	return &Result{
		Store:   adapters.NewRetryingStore(store, cfg.Retry, f.logger),
		Markers: markers,
		Cleanup: func() error {
			sweeper.Stop()
			return errors.Join(store.Close(), markers.Close())
		},
	}, nil
}

func (f *Factory) createMarkers(ctx context.Context, config Config) (cache.Markers, error) {
	ttl := config.MarkerTTL
	if ttl <= 0 {
		ttl = defaultMarkerTTL
	}
	if config.RedisAddr == "" {
		return cache.NewLocalMarkers(localMarkerCapacity, ttl), nil
	}

	markers := cache.NewRedisMarkers(config.RedisAddr, config.RedisPassword, config.RedisDB, ttl)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := markers.Ping(pingCtx); err != nil {
		markers.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", config.RedisAddr, err)
	}
	f.logger.Info("Initialized Redis import markers", "addr", config.RedisAddr, "db", config.RedisDB)
	return markers, nil
}
