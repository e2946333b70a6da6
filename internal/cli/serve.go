package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"financecalc/internal/amqp"
	"financecalc/internal/backend"
	"financecalc/internal/cache"
	"financecalc/internal/config"
	"financecalc/internal/finance"
	apphttp "financecalc/internal/http"
	"financecalc/internal/log"
	"financecalc/internal/policy"
	"financecalc/internal/worker"
)

const cacheCleanupInterval = time.Minute

func (app *App) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the embedded web frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := app.setup(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctx, stop := ShutdownContext(cmd.Context())
			defer stop()
			return runServer(ctx, cfg, logger)
		},
	}
}

// runServer serves until ctx is cancelled, then drains in-flight requests
// within cfg.ShutdownTimeout.
func runServer(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	provider, closePolicies, err := loadPolicy(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePolicies()

	results, err := backend.NewFactory(logger).CreateCacheBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if results.Cleanup != nil {
			if err := results.Cleanup(); err != nil {
				logger.Warn("Failed to close result cache", log.FieldError, err.Error())
			}
		}
	}()

	memo := cache.NewMemo(results.Store, logger)
	provider.OnReload(func(p finance.TaxPolicy) {
		purgeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := memo.Purge(purgeCtx); err != nil {
			logger.Warn("Failed to purge cached results after policy change",
				log.FieldPolicy, p.Name, log.FieldError, err.Error())
		}
	})

	if results.Cleaner != nil {
		manager := cache.NewManager(logger)
		manager.Register(results.Cleaner)
		manager.StartCleanup(cacheCleanupInterval)
		defer manager.Stop()
	}

	srv, err := apphttp.NewServer(cfg, apphttp.Deps{
		Engine:   finance.NewEngine(provider),
		Policies: provider,
		Memo:     memo,
		Stats:    results.Stats,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	if cfg.PolicyRefreshSchedule != "" {
		scheduler, err := policy.NewScheduler(provider, cfg.PolicyRefreshSchedule, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting FinanceCalc server",
			log.FieldOperation, log.OpStartup,
			"addr", srv.Addr,
			"policy_backend", cfg.TaxPolicyBackend,
			"cache_backend", cfg.CacheBackend,
			log.FieldPolicy, provider.Current().Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			// reloads still arrive through the refresh schedule
			logger.Warn("AMQP unavailable, policy reload broadcasts disabled",
				log.FieldErrorType, log.ErrorTypeNetwork, log.FieldError, err.Error())
		} else {
			defer client.Close()
			reloads := worker.NewReloadWorker(provider, logger)
			g.Go(func() error {
				err := client.ConsumePolicyReloads(gctx, reloads.HandleReloadMessage)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down FinanceCalc server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}
