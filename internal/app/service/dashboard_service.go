package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
)

type ContestLoader interface {
	LoadContests(ctx context.Context) ([]model.Contest, error)
}

type ProblemLoader interface {
	LoadProblems(ctx context.Context) ([]model.Problem, error)
}

// Snapshot is one applied dashboard load.
type Snapshot struct {
	Generation uint64            `json:"generation"`
	Statistics Statistics        `json:"statistics"`
	Errors     map[string]string `json:"errors,omitempty"`
	LoadedAt   string            `json:"loadedAt"`
}

// DashboardService loads both collections concurrently and aggregates them
// once both have settled. Every Refresh takes a generation number; a load
// that finishes after a newer Refresh started is discarded.
type DashboardService struct {
	contests ContestLoader
	problems ProblemLoader
	now      func() time.Time
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	generation atomic.Uint64

	mu       sync.RWMutex
	snapshot Snapshot
}

func NewDashboardService(contests ContestLoader, problems ProblemLoader, logger zerolog.Logger, m *metrics.Metrics) *DashboardService {
	if m == nil {
		m = metrics.Nop()
	}
	return &DashboardService{
		contests: contests,
		problems: problems,
		now:      time.Now,
		logger:   logger.With().Str("component", "dashboard").Logger(),
		metrics:  m,
		snapshot: Snapshot{Statistics: Aggregate(nil, nil, time.Now())},
	}
}

// SetClock replaces the clock used for "this month" and load stamps.
func (s *DashboardService) SetClock(now func() time.Time) { s.now = now }

// Refresh reloads and re-aggregates. A failing source degrades to an empty
// collection and is reported in Snapshot.Errors. It returns ErrSuperseded
// when a newer Refresh began before this one finished.
func (s *DashboardService) Refresh(ctx context.Context) (Snapshot, error) {
	gen := s.generation.Add(1)
	s.metrics.DashboardRefreshes.Inc()

	var (
		contests []model.Contest
		problems []model.Problem
		errMu    sync.Mutex
		errs     = map[string]string{}
	)
	record := func(source string, err error) {
		errMu.Lock()
		errs[source] = err.Error()
		errMu.Unlock()
		s.logger.Warn().Err(err).Str("source", source).Uint64("generation", gen).Msg("Dashboard source failed, using empty collection")
	}

	// Neither goroutine returns an error so one failure cannot cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		c, err := s.contests.LoadContests(ctx)
		if err != nil {
			record("contests", err)
			c = []model.Contest{}
		}
		contests = c
		return nil
	})
	g.Go(func() error {
		p, err := s.problems.LoadProblems(ctx)
		if err != nil {
			record("problems", err)
			p = []model.Problem{}
		}
		problems = p
		return nil
	})
	_ = g.Wait()

	if s.generation.Load() != gen {
		return Snapshot{}, s.superseded(gen)
	}

	now := s.now()
	snap := Snapshot{
		Generation: gen,
		Statistics: Aggregate(contests, problems, now),
		LoadedAt:   model.FormatTimestamp(now),
	}
	if len(errs) > 0 {
		snap.Errors = errs
	}

	s.mu.Lock()
	if s.generation.Load() != gen {
		s.mu.Unlock()
		return Snapshot{}, s.superseded(gen)
	}
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Debug().Uint64("generation", gen).
		Int("contests", snap.Statistics.Contests.Total).
		Int("problems", snap.Statistics.Problems.Total).
		Msg("Dashboard refreshed")
	return snap, nil
}

func (s *DashboardService) superseded(gen uint64) error {
	s.metrics.DashboardSuperseded.Inc()
	s.logger.Debug().Uint64("generation", gen).Msg("Dashboard load superseded")
	return fmt.Errorf("DashboardService.Refresh: generation %d: %w", gen, common.ErrSuperseded)
}

// Snapshot returns the last applied load.
func (s *DashboardService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Generation is the number of the most recently started Refresh.
func (s *DashboardService) Generation() uint64 {
	return s.generation.Load()
}
