package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/JingliCheng/Fireball/internal/config"
	"github.com/JingliCheng/Fireball/internal/storage"
)

// BackupScheduler takes periodic snapshots of the store on a cron
// schedule, keeping at most MaxBackups of them.
type BackupScheduler struct {
	cron   *cron.Cron
	store  *storage.Store
	logger *zap.Logger
	config *config.Config
}

func NewBackupScheduler(store *storage.Store, logger *zap.Logger, cfg *config.Config) *BackupScheduler {
	return &BackupScheduler{
		cron:   cron.New(),
		store:  store,
		logger: logger,
		config: cfg,
	}
}

// Register hooks the scheduler into the application lifecycle. An empty
// schedule disables periodic backups.
func (s *BackupScheduler) Register(lc fx.Lifecycle) error {
	if s.config.BackupSchedule == "" {
		s.logger.Info("no backup schedule configured, periodic backups disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.BackupSchedule, s.runBackup); err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.cron.Start()
			s.logger.Info("backup scheduler started",
				zap.String("schedule", s.config.BackupSchedule),
				zap.Int("max_backups", s.config.MaxBackups))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := s.cron.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}

func (s *BackupScheduler) runBackup() {
	path, err := s.store.Backup(s.config.BackupDir, s.config.MaxBackups)
	if err != nil {
		s.logger.Error("scheduled backup failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled backup complete", zap.String("path", path))
}
