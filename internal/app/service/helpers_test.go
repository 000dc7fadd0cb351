package service

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/kv"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/storage"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var errQuota = errors.New("quota exceeded")

// fixture wires both repositories to a storage adapter over a memory store.
type fixture struct {
	store    *kv.MemoryStore
	adapter  *storage.Adapter
	contests repository.ContestRepository
	problems repository.ProblemRepository
}

func newFixture(t *testing.T, bundled fstest.MapFS) *fixture {
	t.Helper()
	if bundled == nil {
		bundled = fstest.MapFS{}
	}
	store := kv.NewMemoryStore()
	adapter := storage.NewAdapter(store, bundled, zerolog.Nop(), storage.WithClock(fixedClock))
	contests := repository.NewContestRepository(adapter, repository.WithClock(fixedClock))
	problems := repository.NewProblemRepository(adapter, repository.WithClock(fixedClock))
	ctx := context.Background()
	require.NoError(t, contests.Initialize(ctx))
	require.NoError(t, problems.Initialize(ctx))
	return &fixture{store: store, adapter: adapter, contests: contests, problems: problems}
}

func (f *fixture) addContest(t *testing.T, in repository.ContestInput) string {
	t.Helper()
	id, err := f.contests.Add(context.Background(), in)
	require.NoError(t, err)
	return id
}

func (f *fixture) addProblem(t *testing.T, in repository.ProblemInput) string {
	t.Helper()
	id, err := f.problems.Add(context.Background(), in)
	require.NoError(t, err)
	return id
}
