package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zyn-615/ACM-Transit-Template/internal/api"
	"github.com/zyn-615/ACM-Transit-Template/internal/app/hub"
	"github.com/zyn-615/ACM-Transit-Template/internal/app/worker"
	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/queue"
)

const shutdownTimeout = 15 * time.Second

// Router builds the HTTP handler over the app's services.
func (a *App) Router() http.Handler {
	return api.NewRouter(api.Services{
		Contests:    a.ContestSvc,
		Problems:    a.ProblemSvc,
		Solutions:   a.SolutionSvc,
		Scoreboards: a.Scoreboards,
		Dashboard:   a.Dashboard,
		Search:      a.Search,
		Generator:   a.Generator,
		Files:       a.Files,
		Data:        a.Data,
		Hub:         a.Hub,
	}, api.RouterConfig{
		CORSOrigins: a.Config.CORSOrigin,
		Metrics:     a.Metrics,
		Gatherer:    a.Registry,
		Logger:      a.Logger,
	})
}

// forwarded reports whether a change is worth telling other instances
// about. Reloads are a reaction to remote changes and are kept local.
func forwarded(m events.Message) bool {
	return m.Type != repository.EventReloaded && m.Type != repository.EventInitialized
}

// Serve runs the HTTP server and the configured workers until ctx ends,
// then shuts everything down.
func (a *App) Serve(ctx context.Context) error {
	log := a.Logger
	cfg := a.Config

	// 1. Event fan-out to websocket clients, the dashboard and other instances
	sinks := []hub.Sink{
		a.Hub.Broadcast,
		func(events.Message) {
			go func() {
				if _, err := a.Dashboard.Refresh(context.Background()); err != nil {
					log.Debug().Err(err).Msg("Dashboard refresh after change skipped")
				}
			}()
		},
	}
	if cfg.EventsChannel != "" {
		ps, err := queue.Connect(ctx, queue.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.EventsChannel,
		}, a.remoteChange(ctx), log)
		if err != nil {
			return err
		}
		defer ps.Close()
		if err := ps.Start(ctx); err != nil {
			return err
		}
		sinks = append(sinks, func(m events.Message) {
			if !forwarded(m) {
				return
			}
			if err := ps.Publish(context.Background(), m); err != nil {
				log.Warn().Err(err).Msg("Could not publish change")
			}
		})
		log.Info().Str("channel", cfg.EventsChannel).Msg("Redis event fan-out enabled")
	}
	stopFollow := hub.Follow(a.Contests, a.Problems, nil, sinks...)
	defer stopFollow()

	if _, err := a.Dashboard.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial dashboard load failed")
	}

	// 2. Workers
	if cfg.BackupInterval > 0 {
		bw, err := worker.NewBackupWorker(a.Data, cfg.BackupDir, cfg.BackupInterval, log)
		if err != nil {
			return err
		}
		if err := bw.Start(false); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := bw.Stop(stopCtx); err != nil {
				log.Warn().Err(err).Msg("Backup worker did not stop cleanly")
			}
		}()
	}
	if cfg.WatchDataDir {
		ww, err := worker.NewWatchWorker(cfg.DataDir, func(ctx context.Context, path string) error {
			_, err := a.ImportFile(ctx, path)
			return err
		}, worker.DefaultDebounce, log)
		if err != nil {
			return err
		}
		if err := ww.Start(ctx); err != nil {
			return err
		}
		defer ww.Stop()
	}

	// 3. HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      a.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.APIPort).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// 4. Graceful shutdown
	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("Server and workers stopped gracefully")
	return nil
}

// remoteChange reloads the library another instance changed and forwards
// the message to local websocket clients.
func (a *App) remoteChange(ctx context.Context) queue.Handler {
	return func(m events.Message) {
		var err error
		switch m.Source {
		case hub.SourceContests:
			err = a.Contests.Reload(ctx)
		case hub.SourceProblems:
			err = a.Problems.Reload(ctx)
		}
		if err != nil {
			a.Logger.Warn().Err(err).Str("source", m.Source).Msg("Reload after remote change failed")
		}
		a.Hub.Broadcast(m)
	}
}
