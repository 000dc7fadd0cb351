package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/storage"
)

// DataStore is the part of the storage adapter that renders documents and
// manages the persisted cache.
type DataStore interface {
	ExportContests(contests []model.Contest) ([]byte, error)
	ExportProblems(problems []model.Problem) ([]byte, error)
	CreateBackup(contests []model.Contest, problems []model.Problem, backupType string) (string, []byte, error)
	ClearCache(ctx context.Context) error
	LoadSettings(ctx context.Context) model.Settings
	SaveSettings(ctx context.Context, settings model.Settings) error
	Now() time.Time
}

// ImportReport has one entry per collection the file contained.
type ImportReport struct {
	Contests *model.ImportResult `json:"contests,omitempty"`
	Problems *model.ImportResult `json:"problems,omitempty"`
}

// Document is a rendered file ready for download.
type Document struct {
	FileName string
	Body     []byte
}

type DataService struct {
	store    DataStore
	contests repository.ContestRepository
	problems repository.ProblemRepository
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewDataService(store DataStore, contests repository.ContestRepository, problems repository.ProblemRepository, logger zerolog.Logger, m *metrics.Metrics) *DataService {
	if m == nil {
		m = metrics.Nop()
	}
	return &DataService{
		store:    store,
		contests: contests,
		problems: problems,
		logger:   logger.With().Str("component", "data").Logger(),
		metrics:  m,
	}
}

// Import merges a user-supplied file into both libraries. Records whose id
// is already known are skipped. A storage failure on one collection does
// not stop the other; the errors are joined.
func (s *DataService) Import(ctx context.Context, raw []byte) (ImportReport, error) {
	env, err := storage.ParseImport(raw)
	if err != nil {
		return ImportReport{}, err
	}

	var (
		report ImportReport
		errs   []error
	)
	if env.Contests != nil {
		res, err := s.contests.Import(ctx, model.ContestCollection{Contests: env.Contests, Version: env.Version})
		if err != nil && !common.IsSavedInSessionOnly(err) {
			return report, err
		}
		errs = append(errs, err)
		report.Contests = &res
	}
	if env.Problems != nil {
		res, err := s.problems.Import(ctx, model.ProblemCollection{Problems: env.Problems, Version: env.Version})
		if err != nil && !common.IsSavedInSessionOnly(err) {
			return report, errors.Join(append(errs, err)...)
		}
		errs = append(errs, err)
		report.Problems = &res
	}
	s.logger.Info().Interface("report", report).Msg("Import finished")
	return report, errors.Join(errs...)
}

func (s *DataService) dated(prefix string) string {
	return fmt.Sprintf("%s-%s.json", prefix, s.store.Now().UTC().Format(model.DateLayout))
}

// Export renders one collection: "contests" or "problems".
func (s *DataService) Export(collection string) (Document, error) {
	var (
		body []byte
		err  error
	)
	switch collection {
	case "contests":
		body, err = s.store.ExportContests(s.contests.Export())
	case "problems":
		body, err = s.store.ExportProblems(s.problems.Export())
	default:
		return Document{}, fmt.Errorf("unknown collection %q: %w", collection, common.ErrBadRequest)
	}
	if err != nil {
		return Document{}, err
	}
	return Document{FileName: s.dated(collection), Body: body}, nil
}

func (s *DataService) Backup(backupType string) (Document, error) {
	name, body, err := s.store.CreateBackup(s.contests.Export(), s.problems.Export(), backupType)
	if err != nil {
		s.metrics.IncBackup(backupType, "error")
		return Document{}, err
	}
	return Document{FileName: name, Body: body}, nil
}

// WriteBackup renders a backup into dir and returns the written path.
func (s *DataService) WriteBackup(dir, backupType string) (string, error) {
	if backupType == "" {
		backupType = storage.BackupManual
	}
	doc, err := s.Backup(backupType)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.metrics.IncBackup(backupType, "error")
		return "", fmt.Errorf("service.WriteBackup: %w: %w", common.ErrStorage, err)
	}
	path := filepath.Join(dir, doc.FileName)
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		s.metrics.IncBackup(backupType, "error")
		return "", fmt.Errorf("service.WriteBackup: %w: %w", common.ErrStorage, err)
	}
	s.metrics.IncBackup(backupType, "ok")
	s.logger.Info().Str("path", path).Str("type", backupType).Msg("Backup written")
	return path, nil
}

// ClearCache drops the persisted collections and reloads both libraries
// from the bundled files.
func (s *DataService) ClearCache(ctx context.Context) error {
	if err := s.store.ClearCache(ctx); err != nil {
		return err
	}
	return errors.Join(s.contests.Reload(ctx), s.problems.Reload(ctx))
}

func (s *DataService) Settings(ctx context.Context) model.Settings {
	return s.store.LoadSettings(ctx)
}

// UpdateSettings merges the given keys over the current settings.
func (s *DataService) UpdateSettings(ctx context.Context, patch model.Settings) (model.Settings, error) {
	merged := patch.Merge(s.store.LoadSettings(ctx))
	if err := s.store.SaveSettings(ctx, merged); err != nil {
		return merged, err
	}
	return merged, nil
}
