// Package bootstrap wires configuration into a running set of services,
// shared by the HTTP server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/hub"
	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/config"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/kv"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/probe"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/storage"
)

// App holds the wired core. Close releases the store.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Store    kv.Store
	Adapter  *storage.Adapter
	Contests repository.ContestRepository
	Problems repository.ProblemRepository

	Generator   *service.Generator
	ContestSvc  *service.ContestService
	ProblemSvc  *service.ProblemService
	SolutionSvc *service.SolutionService
	Scoreboards *service.ScoreboardService
	Dashboard   *service.DashboardService
	Search      *service.SearchIndex
	Files       *service.FileService
	Data        *service.DataService
	Hub         *hub.Hub

	stops []func()
}

// New opens the configured store, loads both libraries and builds every
// service. A library that fails to load starts empty; that is logged, not
// returned.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, err := kv.Open(ctx, kv.Options{
		Backend:       cfg.StoreBackend,
		Dir:           cfg.StoreDir,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
		PostgresDSN:   cfg.DBConnStr,
		SQLitePath:    cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap.New: opening %s store: %w", cfg.StoreBackend, err)
	}
	logger.Info().Str("backend", cfg.StoreBackend).Msg("Store opened")

	adapter := storage.NewAdapter(store, os.DirFS(cfg.DataDir), logger, storage.WithMetrics(m))
	repoOpts := []repository.Option{repository.WithLogger(logger), repository.WithMetrics(m)}
	contests := repository.NewContestRepository(adapter, repoOpts...)
	problems := repository.NewProblemRepository(adapter, repoOpts...)
	if err := contests.Initialize(ctx); err != nil {
		logger.Warn().Err(err).Msg("Contests unavailable, starting empty")
	}
	if err := problems.Initialize(ctx); err != nil {
		logger.Warn().Err(err).Msg("Problems unavailable, starting empty")
	}

	generator := service.NewGenerator()
	if cfg.GeneratorTemplates != "" {
		templates, err := service.LoadGeneratorTemplates(cfg.GeneratorTemplates)
		if err == nil {
			err = generator.SetTemplates(templates)
		}
		if err != nil {
			store.Close()
			return nil, err
		}
		logger.Info().Str("file", cfg.GeneratorTemplates).Int("platforms", len(templates)).Msg("Generator templates loaded")
	}

	prober, err := probe.New(probe.Options{
		Backend: cfg.ProbeBackend,
		BaseURL: cfg.ProbeBaseURL,
		Root:    cfg.FilesRoot,
		S3: probe.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		},
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	app := &App{
		Config:      cfg,
		Logger:      logger,
		Registry:    reg,
		Metrics:     m,
		Store:       store,
		Adapter:     adapter,
		Contests:    contests,
		Problems:    problems,
		Generator:   generator,
		ContestSvc:  service.NewContestService(contests, problems, generator, logger),
		ProblemSvc:  service.NewProblemService(problems, logger),
		SolutionSvc: service.NewSolutionService(contests, problems, logger),
		Scoreboards: service.NewScoreboardService(contests),
		Dashboard:   service.NewDashboardService(adapter, adapter, logger, m),
		Search:      service.NewSearchIndex(m),
		Files: service.NewFileService(prober, service.FileServiceConfig{
			BaseDir:  cfg.FilesRoot,
			CacheTTL: cfg.ProbeCacheTTL,
			Timeout:  cfg.ProbeTimeout,
		}, logger, m),
		Data: service.NewDataService(adapter, contests, problems, logger, m),
		Hub:  hub.New(logger, m),
	}
	app.stops = append(app.stops, app.Search.Watch(contests, problems))
	return app, nil
}

// ImportFile merges a JSON file into the libraries.
func (a *App) ImportFile(ctx context.Context, path string) (service.ImportReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return service.ImportReport{}, fmt.Errorf("bootstrap.ImportFile: %w", err)
	}
	report, err := a.Data.Import(ctx, raw)
	if err != nil {
		return report, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return report, nil
}

func (a *App) Close() error {
	for i := len(a.stops) - 1; i >= 0; i-- {
		a.stops[i]()
	}
	a.stops = nil
	a.Hub.Close()
	return a.Store.Close()
}
