// Package storage persists the contest, problem and settings collections
// into a kv.Store, falling back to bundled JSON files when the store has
// nothing yet.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/kv"
)

// Store keys.
const (
	ContestsKey = "acm-contests"
	ProblemsKey = "acm-problems"
	SettingsKey = "acm-settings"
)

// Bundled file names inside the data directory.
const (
	ContestsFile = "contests.json"
	ProblemsFile = "problems.json"
	SettingsFile = "settings.json"
)

type Adapter struct {
	store   kv.Store
	bundled fs.FS
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

type Option func(*Adapter)

// WithClock replaces time.Now; export timestamps come from it.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// NewAdapter wires a store and an optional bundled data directory.
func NewAdapter(store kv.Store, bundled fs.FS, logger zerolog.Logger, opts ...Option) *Adapter {
	a := &Adapter{
		store:   store,
		bundled: bundled,
		now:     time.Now,
		logger:  logger.With().Str("component", "storage").Logger(),
		metrics: metrics.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Now exposes the adapter clock to collaborators sharing it.
func (a *Adapter) Now() time.Time { return a.now() }

func (a *Adapter) LoadContests(ctx context.Context) ([]model.Contest, error) {
	var contests []model.Contest
	found, err := a.loadCached(ctx, ContestsKey, &contests)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadContests: %w", err)
	}
	if found {
		a.logger.Debug().Int("count", len(contests)).Msg("Loaded contests from store")
		return nonNil(contests), nil
	}

	raw, ok := a.readBundled(ContestsFile)
	if !ok {
		return []model.Contest{}, nil
	}
	if err := ValidateContestsData(raw); err != nil {
		a.logger.Warn().Err(err).Msg("Bundled contests are malformed, starting empty")
		return []model.Contest{}, nil
	}
	var coll model.ContestCollection
	if err := json.Unmarshal(raw, &coll); err != nil {
		a.logger.Warn().Err(err).Msg("Bundled contests could not be decoded, starting empty")
		return []model.Contest{}, nil
	}
	contests = nonNil(coll.Contests)
	a.cache(ctx, ContestsKey, contests)
	a.logger.Info().Int("count", len(contests)).Msg("Loaded contests from bundled file")
	return contests, nil
}

func (a *Adapter) LoadProblems(ctx context.Context) ([]model.Problem, error) {
	var problems []model.Problem
	found, err := a.loadCached(ctx, ProblemsKey, &problems)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadProblems: %w", err)
	}
	if found {
		a.logger.Debug().Int("count", len(problems)).Msg("Loaded problems from store")
		return nonNil(problems), nil
	}

	raw, ok := a.readBundled(ProblemsFile)
	if !ok {
		return []model.Problem{}, nil
	}
	if err := ValidateProblemsData(raw); err != nil {
		a.logger.Warn().Err(err).Msg("Bundled problems are malformed, starting empty")
		return []model.Problem{}, nil
	}
	var coll model.ProblemCollection
	if err := json.Unmarshal(raw, &coll); err != nil {
		a.logger.Warn().Err(err).Msg("Bundled problems could not be decoded, starting empty")
		return []model.Problem{}, nil
	}
	problems = nonNil(coll.Problems)
	a.cache(ctx, ProblemsKey, problems)
	a.logger.Info().Int("count", len(problems)).Msg("Loaded problems from bundled file")
	return problems, nil
}

// LoadSettings never fails: store, then bundled file, then defaults. Keys
// missing from a stored document are filled from the defaults.
func (a *Adapter) LoadSettings(ctx context.Context) model.Settings {
	var settings model.Settings
	found, err := a.loadCached(ctx, SettingsKey, &settings)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Stored settings unreadable, using defaults")
		return model.DefaultSettings()
	}
	if found && settings != nil {
		return settings.Merge(model.DefaultSettings())
	}

	if raw, ok := a.readBundled(SettingsFile); ok {
		if err := json.Unmarshal(raw, &settings); err == nil && settings != nil {
			a.cache(ctx, SettingsKey, settings)
			return settings.Merge(model.DefaultSettings())
		}
		a.logger.Warn().Msg("Bundled settings are malformed, using defaults")
	}
	return model.DefaultSettings()
}

func (a *Adapter) SaveContests(ctx context.Context, contests []model.Contest) error {
	if err := a.save(ctx, ContestsKey, nonNil(contests)); err != nil {
		return fmt.Errorf("storage.SaveContests: %w", err)
	}
	a.logger.Debug().Int("count", len(contests)).Msg("Contests saved")
	return nil
}

func (a *Adapter) SaveProblems(ctx context.Context, problems []model.Problem) error {
	if err := a.save(ctx, ProblemsKey, nonNil(problems)); err != nil {
		return fmt.Errorf("storage.SaveProblems: %w", err)
	}
	a.logger.Debug().Int("count", len(problems)).Msg("Problems saved")
	return nil
}

func (a *Adapter) SaveSettings(ctx context.Context, settings model.Settings) error {
	if settings == nil {
		settings = model.Settings{}
	}
	if _, ok := settings["version"]; !ok {
		settings = settings.Merge(model.Settings{"version": model.DataVersion})
	}
	if err := a.save(ctx, SettingsKey, settings); err != nil {
		return fmt.Errorf("storage.SaveSettings: %w", err)
	}
	return nil
}

// ClearCache removes all three collections from the store. The next load
// goes back to the bundled files.
func (a *Adapter) ClearCache(ctx context.Context) error {
	var errs []error
	for _, key := range []string{ContestsKey, ProblemsKey, SettingsKey} {
		if err := a.store.Delete(ctx, key); err != nil {
			a.metrics.IncStorageFailure(key, "delete")
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("storage.ClearCache: %w: %w", common.ErrStorage, err)
	}
	a.logger.Info().Msg("Store cache cleared")
	return nil
}

func (a *Adapter) loadCached(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := a.store.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		a.metrics.IncStorageFailure(key, "load")
		return false, fmt.Errorf("%w: reading %s: %w", common.ErrStorage, key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		a.metrics.IncStorageFailure(key, "decode")
		return false, fmt.Errorf("%w: decoding %s: %w", common.ErrStorage, key, err)
	}
	return true, nil
}

func (a *Adapter) readBundled(name string) ([]byte, bool) {
	if a.bundled == nil {
		return nil, false
	}
	raw, err := fs.ReadFile(a.bundled, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn().Err(err).Str("file", name).Msg("Bundled file unreadable")
		}
		return nil, false
	}
	return raw, true
}

// cache writes a freshly loaded bundled collection into the store. A failure
// only costs a re-read next time.
func (a *Adapter) cache(ctx context.Context, key string, v any) {
	if err := a.save(ctx, key, v); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Could not cache bundled data")
	}
}

func (a *Adapter) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", common.ErrStorage, key, err)
	}
	if err := a.store.Set(ctx, key, raw); err != nil {
		a.metrics.IncStorageFailure(key, "save")
		a.logger.Error().Err(err).Str("key", key).Msg("Persisting collection failed")
		return fmt.Errorf("%w: the store rejected %s (%v); the change is kept for this session only, free some space or export a backup", common.ErrStorage, key, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
