package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"queryquest/internal/auth"
	"queryquest/internal/config"
	"queryquest/internal/httpapi"
	"queryquest/internal/quest"
	"queryquest/internal/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :3001)")
	cmd.Flags().Duration("statement-timeout", 0, "per-statement timeout inside the sandbox (default 5s)")
	cmd.Flags().Bool("migrate", true, "apply schema migrations on startup")
	cmd.Flags().String("sandbox-role", "", "Postgres role player SQL runs as (default "+config.DefaultSandboxRole+")")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	log.Info().Int("missions", catalog.Len()).Int("max_level", catalog.MaxLevel()).Msg("Missions loaded")

	tokens, err := newTokens(cfg)
	if err != nil {
		return err
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, closeStore, err := openStore(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer closeStore()

	sandboxPool, executor, err := openSandbox(ctx, cfg)
	if err != nil {
		return err
	}
	defer sandboxPool.Close()

	metrics := telemetry.NewMetrics()
	service := quest.NewService(
		catalog,
		store,
		executor,
		quest.WithRecorder(metrics),
		quest.WithRankingCache(cfg.Rankings.CacheTTL),
	)

	if cfg.Store == config.StoreMemory {
		if err := seedDemoPlayer(ctx, service, tokens); err != nil {
			return err
		}
	}

	handler := httpapi.NewRouter(service, tokens, httpapi.RouterOptions{
		QueryRateLimit: cfg.Server.QueryRateLimit,
		Metrics:        metrics.Handler(),
	})

	return runServer(ctx, cfg.Server, handler)
}

// seedDemoPlayer gives a memory-backed server one account to play with, since
// users added through the CLI live in a different process.
func seedDemoPlayer(ctx context.Context, service *quest.Service, tokens *auth.Tokens) error {
	user, err := service.CreateUser(ctx, "player", "")
	if err != nil {
		return fmt.Errorf("failed to create demo player: %w", err)
	}
	token, err := tokens.Issue(user.ID)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", user.ID).Str("token", token).Msg("Demo player ready")
	return nil
}

func runServer(ctx context.Context, cfg config.ServerConfig, handler http.Handler) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return egctx
		},
	}

	eg.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
