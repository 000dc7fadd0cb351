package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/platform/storage"
)

// Backuper writes a backup document into dir and returns its path.
type Backuper interface {
	WriteBackup(dir, backupType string) (string, error)
}

// BackupWorker writes an automatic backup on a fixed interval.
type BackupWorker struct {
	scheduler gocron.Scheduler
	backups   Backuper
	dir       string
	interval  time.Duration
	logger    zerolog.Logger

	runs     atomic.Int64
	failures atomic.Int64
	lastPath atomic.Value
}

func NewBackupWorker(backups Backuper, dir string, interval time.Duration, logger zerolog.Logger) (*BackupWorker, error) {
	if interval <= 0 {
		return nil, errors.New("worker.NewBackupWorker: interval must be positive")
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("worker.NewBackupWorker: %w", err)
	}
	return &BackupWorker{
		scheduler: s,
		backups:   backups,
		dir:       dir,
		interval:  interval,
		logger:    logger.With().Str("component", "backup-worker").Logger(),
	}, nil
}

// Start schedules the job. When immediate is set the first backup is taken
// right away instead of one interval from now.
func (w *BackupWorker) Start(immediate bool) error {
	opts := []gocron.JobOption{
		gocron.WithName("auto-backup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { _, _ = w.RunOnce() }),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("worker.BackupWorker.Start: %w", err)
	}
	w.scheduler.Start()
	w.logger.Info().Dur("interval", w.interval).Str("dir", w.dir).Msg("Backup worker started")
	return nil
}

// RunOnce writes one automatic backup.
func (w *BackupWorker) RunOnce() (string, error) {
	w.runs.Add(1)
	path, err := w.backups.WriteBackup(w.dir, storage.BackupAuto)
	if err != nil {
		w.failures.Add(1)
		w.logger.Error().Err(err).Msg("Automatic backup failed")
		return "", err
	}
	w.lastPath.Store(path)
	return path, nil
}

// Stop shuts the scheduler down and waits for a running backup to finish.
func (w *BackupWorker) Stop(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- w.scheduler.Shutdown() }()
	select {
	case err := <-done:
		w.logger.Info().Msg("Backup worker stopped")
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *BackupWorker) Runs() int64     { return w.runs.Load() }
func (w *BackupWorker) Failures() int64 { return w.failures.Load() }

// LastPath is the most recent successful backup, or "".
func (w *BackupWorker) LastPath() string {
	p, _ := w.lastPath.Load().(string)
	return p
}
