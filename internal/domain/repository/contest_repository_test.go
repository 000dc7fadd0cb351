package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

func addDiv2(t *testing.T, repo ContestRepository) string {
	t.Helper()
	id, err := repo.Add(context.Background(), ContestInput{
		Name:          "Codeforces Round 900 (Div. 2)",
		Platform:      "Codeforces",
		Date:          "2024-03-10",
		Rank:          "1234/20000",
		TotalProblems: 5,
	})
	require.NoError(t, err)
	return id
}

func TestContestAdd_GeneratesLetteredProblems(t *testing.T) {
	store := &fakeStore{}
	repo := newContestRepo(t, store)

	id := addDiv2(t, repo)
	assert.Regexp(t, `^contest_[0-9a-z]+_[0-9a-f]{6}$`, id)

	c, ok := repo.Find(id)
	require.True(t, ok)
	require.Len(t, c.Problems, 5)
	for i, p := range c.Problems {
		assert.Equal(t, model.Letter(i), p.Index)
		assert.Equal(t, model.SubProblemUnsolved, p.Status)
	}
	assert.Equal(t, 0, c.Solved)
	assert.NotEmpty(t, c.AddedTime)
	assert.Empty(t, c.ModifiedTime)
	assert.Len(t, store.savedContests(), 1)
}

func TestContestAdd_Validation(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()

	tests := []struct {
		name string
		in   ContestInput
	}{
		{"missing name", ContestInput{Date: "2024-01-01"}},
		{"missing date", ContestInput{Name: "X"}},
		{"bad date", ContestInput{Name: "X", Date: "yesterday"}},
		{"bad rank", ContestInput{Name: "X", Date: "2024-01-01", Rank: "first"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Add(ctx, tt.in)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
	assert.Empty(t, repo.All())
}

func TestContestAdd_DefaultsPlatform(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	id, err := repo.Add(context.Background(), ContestInput{Name: "Weekly", Date: "2024-01-01"})
	require.NoError(t, err)
	c, _ := repo.Find(id)
	assert.Equal(t, DefaultPlatform, c.Platform)
	assert.Empty(t, c.Problems)
}

func TestContestAdd_DuplicateNameIgnoresCase(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	addDiv2(t, repo)

	_, err := repo.Add(context.Background(), ContestInput{Name: "codeforces round 900 (div. 2) ", Date: "2024-03-11"})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Len(t, repo.All(), 1)
}

func TestContestUpdateProblem_ReconcilesSolved(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()
	id := addDiv2(t, repo)

	solved := model.SubProblemSolved
	require.NoError(t, repo.UpdateProblem(ctx, id, "B", ContestProblemPatch{Status: &solved}))
	c, _ := repo.Find(id)
	assert.Equal(t, 1, c.Solved)
	assert.Equal(t, model.SubProblemSolved, c.Problems[1].Status)

	// by position and lower-case letter
	require.NoError(t, repo.UpdateProblem(ctx, id, "0", ContestProblemPatch{Status: &solved}))
	require.NoError(t, repo.UpdateProblem(ctx, id, "e", ContestProblemPatch{Status: &solved}))
	c, _ = repo.Find(id)
	assert.Equal(t, 3, c.Solved)

	err := repo.UpdateProblem(ctx, id, "Z", ContestProblemPatch{Status: &solved})
	assert.ErrorIs(t, err, common.ErrNotFound)
	err = repo.UpdateProblem(ctx, id, "9", ContestProblemPatch{Status: &solved})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestContestUpdate_EmptyPatchOnlyTouchesModifiedTime(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	id := addDiv2(t, repo)
	before, _ := repo.Find(id)

	require.NoError(t, repo.Update(context.Background(), id, ContestPatch{}))
	after, _ := repo.Find(id)

	assert.NotEmpty(t, after.ModifiedTime)
	after.ModifiedTime = ""
	assert.Equal(t, before, after)
}

func TestContestUpdate_SolvedFollowsProblems(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()
	id := addDiv2(t, repo)

	solved := 4
	require.NoError(t, repo.Update(ctx, id, ContestPatch{Solved: &solved}))
	c, _ := repo.Find(id)
	assert.Equal(t, 0, c.Solved, "lettered problems win over the recorded tally")

	total := 7
	require.NoError(t, repo.Update(ctx, id, ContestPatch{TotalProblems: &total}))
	c, _ = repo.Find(id)
	assert.Len(t, c.Problems, 7)
	assert.Equal(t, "G", c.Problems[6].Index)

	zero := 0
	require.NoError(t, repo.Update(ctx, id, ContestPatch{TotalProblems: &zero, Solved: &solved}))
	c, _ = repo.Find(id)
	assert.Empty(t, c.Problems)
	assert.Equal(t, 4, c.Solved)
}

func TestContestUpdate_RejectsRenameOntoExisting(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()
	addDiv2(t, repo)
	other, err := repo.Add(ctx, ContestInput{Name: "ABC 300", Platform: "AtCoder", Date: "2024-02-01"})
	require.NoError(t, err)

	name := "CODEFORCES ROUND 900 (DIV. 2)"
	assert.ErrorIs(t, repo.Update(ctx, other, ContestPatch{Name: &name}), common.ErrConflict)
	assert.ErrorIs(t, repo.Update(ctx, "missing", ContestPatch{}), common.ErrNotFound)
}

func TestContestDelete(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()
	id := addDiv2(t, repo)

	var deleted *model.Contest
	repo.Events().On(EventDeleted, func(e ContestEvent) { deleted = e.Contest })

	require.NoError(t, repo.Delete(ctx, id))
	_, ok := repo.Find(id)
	assert.False(t, ok)
	require.NotNil(t, deleted)
	assert.Equal(t, id, deleted.ID)
	assert.ErrorIs(t, repo.Delete(ctx, id), common.ErrNotFound)
}

func TestContestFilterAndSort(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()
	for _, in := range []ContestInput{
		{Name: "Beta", Platform: "AtCoder", Date: "2024-02-01", Solved: 2},
		{Name: "alpha", Platform: "Codeforces", Date: "2024-01-01", Solved: 5},
		{Name: "Gamma", Platform: "Codeforces", Date: "2024-03-01", Notes: "upsolve later"},
	} {
		_, err := repo.Add(ctx, in)
		require.NoError(t, err)
	}

	names := func(cs []model.Contest) []string {
		out := make([]string, len(cs))
		for i, c := range cs {
			out[i] = c.Name
		}
		return out
	}

	assert.Equal(t, []string{"alpha", "Gamma"}, names(repo.Filter(ContestFilter{Platform: "Codeforces"})))
	assert.Equal(t, []string{"Beta"}, names(repo.Filter(ContestFilter{DateFrom: "2024-01-15", DateTo: "2024-02-15"})))
	assert.Equal(t, []string{"Gamma"}, names(repo.Filter(ContestFilter{Search: "UPSOLVE"})))
	minSolved := 2
	assert.Equal(t, []string{"Beta", "alpha"}, names(repo.Filter(ContestFilter{MinSolved: &minSolved})))

	assert.Equal(t, []string{"Gamma", "Beta", "alpha"}, names(repo.Sort("", "")))
	assert.Equal(t, []string{"alpha", "Beta", "Gamma"}, names(repo.Sort("name", OrderAsc)))
	assert.Equal(t, []string{"alpha", "Beta", "Gamma"}, names(repo.Sort("solved", "desc")))
}

func TestContestImport_SkipsKnownRecords(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()
	id := addDiv2(t, repo)

	coll := model.ContestCollection{Contests: []model.Contest{
		{ID: id, Name: "same id", Date: "2024-01-01"},
		{ID: "x1", Name: "Codeforces Round 900 (Div. 2)", Date: "2024-03-10"},
		{ID: "x2", Name: "Fresh", Date: "2024-04-01"},
	}}
	res, err := repo.Import(ctx, coll)
	require.NoError(t, err)
	assert.Equal(t, model.ImportResult{Success: true, AddedCount: 1, TotalCount: 3}, res)

	fresh, ok := repo.Find("x2")
	require.True(t, ok)
	assert.NotNil(t, fresh.Problems)

	_, err = repo.Import(ctx, model.ContestCollection{Contests: []model.Contest{{ID: "y", Name: "no date"}}})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = repo.Import(ctx, model.ContestCollection{})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestContestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newContestRepo(t, &fakeStore{})
	addDiv2(t, src)
	_, err := src.Add(ctx, ContestInput{Name: "ABC 300", Platform: "AtCoder", Date: "2024-02-01"})
	require.NoError(t, err)

	dst := newContestRepo(t, &fakeStore{})
	res, err := dst.Import(ctx, model.ContestCollection{Contests: src.Export()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.AddedCount)
	assert.Equal(t, src.Export(), dst.Export())
}

func TestContestStorageFailureKeepsChange(t *testing.T) {
	store := &fakeStore{}
	repo := newContestRepo(t, store)
	store.setFailSaves(true)

	saved := 0
	repo.Events().On(EventSaved, func(ContestEvent) { saved++ })

	id, err := repo.Add(context.Background(), ContestInput{Name: "Offline", Date: "2024-01-01"})
	require.Error(t, err)
	assert.True(t, common.IsSavedInSessionOnly(err))
	_, ok := repo.Find(id)
	assert.True(t, ok)
	assert.Zero(t, saved)
	assert.Empty(t, store.savedContests())
}

func TestContestInitializeFailureRefusesToPersist(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		contests: []model.Contest{{ID: "keep", Name: "Keep me", Date: "2024-01-01"}},
		loadErr:  errors.New("disk unreadable"),
	}
	repo := NewContestRepository(store)
	require.Error(t, repo.Initialize(ctx))
	assert.Empty(t, repo.All())

	_, err := repo.Add(ctx, ContestInput{Name: "New", Date: "2024-01-02"})
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.Len(t, store.savedContests(), 1, "a broken load must not overwrite stored data")

	store.loadErr = nil
	require.NoError(t, repo.Reload(ctx))
	_, ok := repo.Find("keep")
	assert.True(t, ok)
}

func TestContestSetContestRecord_RecomputesTotals(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	id := addDiv2(t, repo)

	rec := model.ContestRecord{
		ProblemResults: map[string]model.ProblemResult{
			"A": {Status: model.ResultAC, Attempts: 1, ACTime: model.IntPtr(10)},
			"B": {Status: model.ResultAC, Attempts: 2, ACTime: model.IntPtr(40), Penalty: 20},
			"C": {Status: model.ResultWA, Attempts: 3},
		},
		SolvedCount:  99,
		TotalPenalty: 99,
	}
	require.NoError(t, repo.SetContestRecord(context.Background(), id, rec))

	c, _ := repo.Find(id)
	require.NotNil(t, c.ContestRecord)
	assert.Equal(t, 2, c.ContestRecord.SolvedCount)
	assert.Equal(t, 70, c.ContestRecord.TotalPenalty)
	assert.Equal(t, 0, c.Solved)
}

func TestContestAppendNoteAndFiles(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()
	id, err := repo.Add(ctx, ContestInput{Name: "Notes", Date: "2024-01-01", Notes: "first"})
	require.NoError(t, err)

	require.NoError(t, repo.AppendNote(ctx, id, "second"))
	require.NoError(t, repo.AppendNote(ctx, id, "  "))
	c, _ := repo.Find(id)
	assert.Equal(t, "first\n\nsecond", c.Notes)

	stmt := &model.FileArtifact{Path: `.\files\contests\x\statement\contest.pdf`, Status: model.ArtifactPending}
	require.NoError(t, repo.SetFiles(ctx, id, model.ContestFiles{Statement: stmt}))
	assert.Equal(t, `.\files\contests\x\statement\contest.pdf`, stmt.Path, "caller's artifact is not modified")
	c, _ = repo.Find(id)
	require.NotNil(t, c.Files)
	assert.Equal(t, "./files/contests/x/statement/contest.pdf", c.Files.Statement.Path)
}

func TestContestFindReturnsCopies(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	id := addDiv2(t, repo)

	c, _ := repo.Find(id)
	c.Problems[0].Status = model.SubProblemSolved
	c.Name = "changed"

	again, _ := repo.Find(id)
	assert.Equal(t, model.SubProblemUnsolved, again.Problems[0].Status)
	assert.NotEqual(t, "changed", again.Name)
}

func TestContestImport_ReconcilesSolvedAndPaths(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()

	_, err := repo.Import(ctx, model.ContestCollection{Contests: []model.Contest{{
		ID:      "c1",
		Name:    "Imported Round",
		Date:    "2024-02-02",
		Solved:  4,
		PDFPath: `files\contests\c1\statement\contest.pdf`,
		Problems: []model.ContestProblem{
			{Index: "A", Status: model.SubProblemSolved, PDFPath: `files\contests\c1\a.pdf`},
			{Index: "B", Status: "weird"},
		},
	}}})
	require.NoError(t, err)

	c, ok := repo.Find("c1")
	require.True(t, ok)
	assert.Equal(t, c.SolvedFromProblems(), c.Solved)
	assert.Equal(t, 1, c.Solved)
	assert.Equal(t, model.SubProblemUnsolved, c.Problems[1].Status)
	assert.NotContains(t, c.PDFPath, `\`)
	assert.NotContains(t, c.Problems[0].PDFPath, `\`)
}

func TestContestTotalProblemsBound(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()

	_, err := repo.Add(ctx, ContestInput{Name: "Huge", Date: "2024-01-01", TotalProblems: 2000000000})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = repo.Add(ctx, ContestInput{Name: "Too many", Date: "2024-01-01", TotalProblems: MaxContestProblems + 1})
	assert.ErrorIs(t, err, common.ErrValidation)

	id, err := repo.Add(ctx, ContestInput{Name: "Full alphabet", Date: "2024-01-01", TotalProblems: MaxContestProblems})
	require.NoError(t, err)
	c, _ := repo.Find(id)
	assert.Len(t, c.Problems, MaxContestProblems)
	assert.Equal(t, "Z", c.Problems[MaxContestProblems-1].Index)

	over := MaxContestProblems + 1
	assert.ErrorIs(t, repo.Update(ctx, id, ContestPatch{TotalProblems: &over}), common.ErrValidation)
	c, _ = repo.Find(id)
	assert.Len(t, c.Problems, MaxContestProblems)
}

func TestContestUpdate_ReplacedProblemsSetTotal(t *testing.T) {
	repo := newContestRepo(t, &fakeStore{})
	ctx := context.Background()
	id := addDiv2(t, repo)

	list := []model.ContestProblem{
		{Index: "A", Status: model.SubProblemSolved},
		{Index: "B", Status: model.SubProblemUnsolved},
	}
	require.NoError(t, repo.Update(ctx, id, ContestPatch{Problems: &list}))
	c, _ := repo.Find(id)
	assert.Equal(t, 2, c.TotalProblems)
	assert.Len(t, c.Problems, 2)
	assert.Equal(t, 1, c.Solved)
}
