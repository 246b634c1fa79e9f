package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"ecoregistry/internal/collection/github"
	"ecoregistry/internal/collection/metrics"
	"ecoregistry/internal/collection/orchestrator"
	"ecoregistry/internal/platform/config"
	"ecoregistry/internal/platform/logger"
	"ecoregistry/internal/platform/redis"
	"ecoregistry/internal/registry/models"
	"ecoregistry/internal/registry/store"
	"ecoregistry/internal/registry/validator"
	"ecoregistry/pkg/platform/sentinel"
)

// runtime lazily builds the shared dependencies of a command invocation.
type runtime struct {
	configPath *string
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type datasetStore interface {
	Load(ctx context.Context) ([]models.Record, error)
	Get(ctx context.Context, projectID string) (*models.Record, error)
	Save(ctx context.Context, records []models.Record) error
}

func (rt *runtime) loadConfig() (config.Config, error) {
	if rt.cfg != nil {
		return *rt.cfg, nil
	}
	path := ""
	if rt.configPath != nil {
		path = *rt.configPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	rt.cfg = &cfg
	return cfg, nil
}

func (rt *runtime) log() *slog.Logger {
	if rt.logger == nil {
		cfg, _ := rt.loadConfig()
		rt.logger = logger.New(cfg.Log.Level, cfg.Log.Format)
	}
	return rt.logger
}

// collectionMetrics registers the collection metrics once per process.
func (rt *runtime) collectionMetrics() *metrics.Metrics {
	if rt.metrics == nil {
		rt.metrics = metrics.New()
	}
	return rt.metrics
}

// openStore selects Postgres when a DSN is configured and the dataset file
// otherwise. The returned func releases any held connections.
func (rt *runtime) openStore(ctx context.Context, datasetPath string) (datasetStore, func(), error) {
	cfg, err := rt.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Postgres.DSN == "" {
		if datasetPath == "" {
			datasetPath = cfg.Dataset.Path
		}
		return store.NewFileStore(datasetPath), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w: %w", sentinel.ErrUnavailable, err)
	}
	pg := store.NewPostgresStore(db)
	if err := pg.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return pg, func() { _ = db.Close() }, nil
}

// newClient builds the GitHub client with the configured cache. With a
// Redis URL and a positive TTL responses are shared across runs; a positive
// TTL alone keeps them in process.
func (rt *runtime) newClient(ctx context.Context) (*github.Client, func(), error) {
	cfg, err := rt.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := rt.log()
	opts := []github.Option{
		github.WithBaseURL(cfg.GitHub.BaseURL),
		github.WithHTTPClient(&http.Client{Timeout: cfg.GitHub.Timeout}),
		github.WithRetryPolicy(cfg.GitHub.MaxRetries, cfg.GitHub.InitialBackoff),
		github.WithRateLimitPacing(cfg.GitHub.RateLimitThreshold, cfg.GitHub.MaxRateLimitWait),
		github.WithLogger(log),
		github.WithMetrics(rt.collectionMetrics()),
	}
	closer := func() {}

	if cfg.Cache.TTL > 0 {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if rc != nil {
			opts = append(opts, github.WithCache(github.NewRedisCache(rc.Client, cfg.Cache.TTL)))
			closer = func() { _ = rc.Close() }
			log.Info("using redis response cache", "ttl", cfg.Cache.TTL)
		} else {
			opts = append(opts, github.WithCache(github.NewMemoryCache(cfg.Cache.TTL)))
		}
	}
	if cfg.GitHub.Token == "" {
		log.Warn("GITHUB_TOKEN not set; unauthenticated requests have a low rate limit")
	}
	return github.New(cfg.GitHub.Token, opts...), closer, nil
}

func (rt *runtime) newOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, func(), error) {
	client, closer, err := rt.newClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	orch, err := orchestrator.New(client,
		orchestrator.WithLogger(rt.log()),
		orchestrator.WithMetrics(rt.collectionMetrics()),
	)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return orch, closer, nil
}

// validateStored validates the stored dataset. The file store is validated
// from its raw bytes so unknown keys and type mismatches are reported too.
func validateStored(ctx context.Context, st datasetStore) (validator.Result, []models.Record, error) {
	if fs, ok := st.(*store.FileStore); ok {
		raw, err := fs.Raw(ctx)
		if err != nil {
			return validator.Result{}, nil, err
		}
		res := validator.ValidateJSON(raw)
		if !res.Valid {
			return res, nil, nil
		}
		records, err := fs.Load(ctx)
		return res, records, err
	}
	records, err := st.Load(ctx)
	if err != nil {
		return validator.Result{}, nil, err
	}
	return validator.Validate(records), records, nil
}
