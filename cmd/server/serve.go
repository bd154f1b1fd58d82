package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"practicecoach/internal/app"
	"practicecoach/internal/repository"
	"practicecoach/internal/transport/rest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default command)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, cfg, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting "+appName, zap.String("version", version))
	log.Info("ai config",
		zap.Bool("enabled", cfg.AI.IsEnabled()),
		zap.String("coach_model", cfg.AI.Models.Coach),
		zap.String("summary_model", cfg.AI.Models.Summary),
		zap.Int("max_concurrency", cfg.AI.MaxConcurrency),
	)

	mongoClient, db, err := app.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())
	log.Info("connected to mongodb", zap.String("database", cfg.Mongo.Database))

	rdb, err := app.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	if err := repository.EnsureIndexes(ctx, db, log); err != nil {
		return err
	}

	coach, err := app.NewCoach(ctx, cfg.AI, log)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, db, rdb, coach, log)
	if err != nil {
		return err
	}

	items, err := app.DefaultBank()
	if err != nil {
		return err
	}
	seeded, err := app.SeedBank(ctx, a.Repos.Bank, items, true)
	if err != nil {
		return err
	}
	if seeded > 0 {
		log.Info("seeded question bank", zap.Int64("items", seeded))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: rest.NewRouter(a.Container()),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Warn("events not fully delivered", zap.Error(err))
	}

	log.Info("server exited")
	return nil
}
