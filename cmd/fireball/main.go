package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JingliCheng/Fireball/internal/config"
	"github.com/JingliCheng/Fireball/internal/events"
	"github.com/JingliCheng/Fireball/internal/scheduler"
	"github.com/JingliCheng/Fireball/internal/storage"
	"github.com/JingliCheng/Fireball/internal/telemetry"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return zap.NewProduction()
}

func newStore(cfg *config.Config, logger *zap.Logger) (*storage.Store, error) {
	return storage.New(cfg.StorageDir, logger)
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	return events.NewPublisher(logger, cfg)
}

func registerTelemetry(cfg *config.Config, lc fx.Lifecycle) {
	if cfg.OTELCollectorURL == "" {
		return
	}
	var shutdown func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sd, err := telemetry.InitTracer(ctx, "fireball", cfg.OTELCollectorURL)
			if err != nil {
				return err
			}
			shutdown = sd
			return nil
		},
		OnStop: func(context.Context) error {
			if shutdown != nil {
				shutdown()
			}
			return nil
		},
	})
}

func registerPublisher(publisher events.Publisher, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			publisher.Close()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newStore,
			newPublisher,
			scheduler.NewBackupScheduler,
		),
		fx.Invoke(
			registerTelemetry,
			registerPublisher,
			func(s *scheduler.BackupScheduler, lc fx.Lifecycle) error {
				return s.Register(lc)
			},
		),
	)

	startCtx := context.Background()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx := context.Background()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
