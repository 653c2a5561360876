// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-harvester/internal/config"
	"github.com/JakeFAU/contact-harvester/internal/crawler"
	"github.com/JakeFAU/contact-harvester/internal/index"
	"github.com/JakeFAU/contact-harvester/internal/match"
	pubsubpublisher "github.com/JakeFAU/contact-harvester/internal/publisher/pubsub"
	"github.com/JakeFAU/contact-harvester/internal/storage"
	"github.com/JakeFAU/contact-harvester/internal/storage/gcs"
	"github.com/JakeFAU/contact-harvester/internal/storage/local"
	"github.com/JakeFAU/contact-harvester/internal/storage/memory"
	"github.com/JakeFAU/contact-harvester/internal/storage/postgres"
)

// ProfileStore is a document store that can both be loaded and searched.
type ProfileStore interface {
	index.Writer
	match.Searcher
}

type pinger interface {
	Ping(ctx context.Context) error
}

// App holds all the shared, long-lived services for the application.
// It is initialized once per command and closed by a Cobra hook.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	storage   storage.BlobStore
	profiles  ProfileStore
	publisher crawler.Publisher
	closers   []func() error
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetStorage exposes the configured blob store for crawl artifacts.
func (a *App) GetStorage() storage.BlobStore {
	return a.storage
}

// GetProfiles returns the profile document store.
func (a *App) GetProfiles() ProfileStore {
	return a.profiles
}

// GetPublisher returns the run-event publisher, or nil when publishing is disabled.
func (a *App) GetPublisher() crawler.Publisher {
	return a.publisher
}

// Ready reports whether the profile store is reachable.
func (a *App) Ready(ctx context.Context) error {
	if p, ok := a.profiles.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// New creates and initializes an App from cfg. It fails fast if any backend cannot be
// initialized, releasing whatever was already opened.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	logger.Info("initializing application services")

	if err := a.initStorage(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initProfiles(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initPublisher(ctx); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("application services initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("index", cfg.Index.Backend),
		zap.Bool("pubsub", cfg.PubSub.Enabled),
	)
	return a, nil
}

func (a *App) initStorage(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case config.BackendLocal:
		store, err := local.New(local.Config{BaseDir: a.cfg.Storage.LocalDir})
		if err != nil {
			return fmt.Errorf("init local storage: %w", err)
		}
		a.storage = store
	case config.BackendGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("init gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("init gcs storage: %w", err)
		}
		a.storage = store
		a.closers = append(a.closers, store.Close)
	case config.BackendMemory:
		a.logger.Warn("using in-memory blob store; artifacts are discarded on exit")
		a.storage = memory.NewBlobStore()
	default:
		return fmt.Errorf("unknown storage backend: %s", a.cfg.Storage.Backend)
	}
	return nil
}

func (a *App) initProfiles(ctx context.Context) error {
	switch a.cfg.Index.Backend {
	case config.BackendPostgres:
		store, err := postgres.NewProfileStore(ctx, postgres.ProfileStoreConfig{
			DSN:      a.cfg.Index.DSN,
			Table:    a.cfg.Index.Collection,
			MaxConns: a.cfg.Index.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("init profile store: %w", err)
		}
		a.profiles = store
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
	case config.BackendMemory:
		a.profiles = memory.NewProfileStore()
	default:
		return fmt.Errorf("unknown index backend: %s", a.cfg.Index.Backend)
	}
	return nil
}

func (a *App) initPublisher(ctx context.Context) error {
	if !a.cfg.PubSub.Enabled {
		return nil
	}
	if a.cfg.PubSub.ProjectID == "" {
		return errors.New("pubsub is enabled but pubsub.project_id is not set")
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("init pubsub client: %w", err)
	}
	pub := pubsubpublisher.New(client)
	a.publisher = pub
	a.closers = append(a.closers, pub.Close)
	a.logger.Info("publishing run summaries", zap.String("topic", a.cfg.PubSub.TopicName))
	return nil
}

// Close releases backends in reverse order of creation and flushes the logger.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error closing service", zap.Error(err))
		}
	}
	a.closers = nil
	// Sync fails harmlessly on terminals.
	_ = a.logger.Sync()
}
