package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"queryquest/internal/auth"
	"queryquest/internal/config"
	"queryquest/internal/mission"
	"queryquest/internal/quest"
	"queryquest/internal/quest/memory"
	"queryquest/internal/quest/postgres"
	"queryquest/internal/sandbox"
)

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return pool, nil
}

// openSandbox builds the executor on its own pool, so player queries neither
// share connections with the store nor leave session state behind. It runs
// one query through the sandbox to catch a missing role at startup.
func openSandbox(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, *sandbox.Executor, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("database.url is required")
	}
	poolCfg, err := sandbox.NewPoolConfig(cfg.Database.URL, cfg.Sandbox.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sandbox pool: %w", err)
	}

	executor := sandbox.NewExecutor(pool, cfg.Sandbox.StatementTimeout, sandbox.WithRole(cfg.Sandbox.Role))
	if err := executor.Ping(ctx); err != nil {
		pool.Close()
		if cfg.Sandbox.Role != "" {
			return nil, nil, fmt.Errorf("sandbox check failed (run migrations or provision role %q): %w", cfg.Sandbox.Role, err)
		}
		return nil, nil, fmt.Errorf("sandbox check failed: %w", err)
	}
	return pool, executor, nil
}

// openPostgresStore shares pool and applies migrations when migrate is set.
func openPostgresStore(ctx context.Context, pool *pgxpool.Pool, migrate bool) (*postgres.Store, error) {
	store, err := postgres.OpenFromPool(ctx, pool)
	if err != nil {
		return nil, err
	}
	if !migrate {
		return store, nil
	}

	if err := postgres.Migrate(ctx, store.DB()); err != nil {
		_ = store.Close()
		return nil, err
	}
	version, err := postgres.MigrationVersion(ctx, store.DB())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	log.Info().Int64("version", version).Msg("Schema up to date")
	return store, nil
}

func openStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (quest.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		// Migrations also provision the sandbox role.
		if cfg.Database.Migrate {
			store, err := openPostgresStore(ctx, pool, true)
			if err != nil {
				return nil, nil, err
			}
			_ = store.Close()
		}
		log.Warn().Msg("Using in-memory store; progress is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	store, err := openPostgresStore(ctx, pool, cfg.Database.Migrate)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func loadCatalog(cfg *config.Config) (*mission.Catalog, error) {
	catalog, err := mission.LoadDir(cfg.Missions.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load missions: %w", err)
	}
	if errs := catalog.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid missions: %w", errors.Join(errs...))
	}
	return catalog, nil
}

// newTokens builds the token codec. Without a configured key a random one is
// generated, which invalidates every token on restart.
func newTokens(cfg *config.Config) (*auth.Tokens, error) {
	hashKey := []byte(cfg.Auth.Key)
	if len(hashKey) == 0 {
		log.Warn().Msg("auth.key is not set; generated a random key, tokens will not survive a restart")
		hashKey = auth.GenerateKey()
	}

	var blockKey []byte
	if cfg.Auth.BlockKey != "" {
		blockKey = []byte(cfg.Auth.BlockKey)
	}
	return auth.NewTokens(hashKey, blockKey, cfg.Auth.TokenTTL)
}
