package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeStore keeps both collections in memory and can be told to fail.
type fakeStore struct {
	mu        sync.Mutex
	contests  []model.Contest
	problems  []model.Problem
	loadErr   error
	failSaves bool
	saves     int
}

func (s *fakeStore) LoadContests(context.Context) ([]model.Contest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return cloneContests(s.contests), nil
}

func (s *fakeStore) SaveContests(_ context.Context, contests []model.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return fmt.Errorf("quota exceeded: %w", common.ErrStorage)
	}
	s.saves++
	s.contests = contests
	return nil
}

func (s *fakeStore) LoadProblems(context.Context) ([]model.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return cloneProblems(s.problems), nil
}

func (s *fakeStore) SaveProblems(_ context.Context, problems []model.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return fmt.Errorf("quota exceeded: %w", common.ErrStorage)
	}
	s.saves++
	s.problems = problems
	return nil
}

func (s *fakeStore) setFailSaves(v bool) {
	s.mu.Lock()
	s.failSaves = v
	s.mu.Unlock()
}

func (s *fakeStore) savedContests() []model.Contest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneContests(s.contests)
}

func (s *fakeStore) savedProblems() []model.Problem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProblems(s.problems)
}

// clock advances one minute per call so consecutive mutations get distinct stamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newContestRepo(t *testing.T, store *fakeStore) ContestRepository {
	t.Helper()
	c := &clock{t: fixedNow}
	repo := NewContestRepository(store, WithClock(c.Now))
	if err := repo.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return repo
}

func newProblemRepo(t *testing.T, store *fakeStore) ProblemRepository {
	t.Helper()
	c := &clock{t: fixedNow}
	repo := NewProblemRepository(store, WithClock(c.Now))
	if err := repo.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return repo
}
