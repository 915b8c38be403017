package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DaBoB6868/dorm-ra-bot/db"
	"github.com/DaBoB6868/dorm-ra-bot/internal/assemble"
	"github.com/DaBoB6868/dorm-ra-bot/internal/chat"
	"github.com/DaBoB6868/dorm-ra-bot/internal/config"
	"github.com/DaBoB6868/dorm-ra-bot/internal/directions"
	"github.com/DaBoB6868/dorm-ra-bot/internal/geo"
	"github.com/DaBoB6868/dorm-ra-bot/internal/ingest"
	"github.com/DaBoB6868/dorm-ra-bot/internal/knowledge"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
	"github.com/DaBoB6868/dorm-ra-bot/internal/policy"
	"github.com/DaBoB6868/dorm-ra-bot/internal/retrieval"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = log.New(log.Config{})
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, dbCleanup, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	store, err := knowledge.NewStore(pool, embedder, logger.With("component", "knowledge"))
	if err != nil {
		return nil, err
	}
	a.Knowledge = store

	a.Populator = ingest.NewPopulator(cfg.DocumentDir, logger.With("component", "ingest"))

	retriever, err := retrieval.NewRetriever(store, a.Populator, logger.With("component", "retrieval"))
	if err != nil {
		return nil, err
	}
	a.Retriever = retriever

	policies, err := policy.NewStore(cfg.PolicyDir, logger.With("component", "policy"))
	if err != nil {
		return nil, err
	}
	a.Policies = policies
	a.Router = policy.NewRouter(policies)

	a.Campus = geo.Default()
	a.Directions = directions.NewResolver(a.Campus)

	assembler, err := assemble.New(a.Router, retriever, a.Directions, logger.With("component", "assemble"))
	if err != nil {
		return nil, err
	}
	a.Assembler = assembler

	orchestrator, err := chat.New(chat.Config{
		Genkit:    g,
		Assembler: assembler,
		Campus:    a.Campus,
		Logger:    logger.With("component", "chat"),
		ModelName: cfg.FullModelName(),
	})
	if err != nil {
		return nil, err
	}
	a.Orchestrator = orchestrator

	return a, nil
}

// provideGenkit initializes Genkit with the Google AI plugin.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai provider")
	}
	logger.Info("initialized Genkit", "model", cfg.ModelName, "embedder", cfg.EmbedderModel)
	return g, nil
}

// provideEmbedder looks up the embedder registered by the Google AI plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}

// provideDBPool creates a PostgreSQL connection pool and runs migrations.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	cleanup := func() {
		pool.Close()
	}

	return pool, cleanup, nil
}
