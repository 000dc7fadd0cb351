package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

func newContestService(f *fixture) *ContestService {
	return NewContestService(f.contests, f.problems, newTestGenerator(), zerolog.Nop())
}

func div2Input() repository.ContestInput {
	return repository.ContestInput{
		Name:          "Codeforces Round 900 (Div. 2)",
		Platform:      "Codeforces",
		Date:          "2024-03-10",
		TotalProblems: 6,
	}
}

func TestCreateContest_GeneratesProblems(t *testing.T) {
	f := newFixture(t, nil)
	svc := newContestService(f)

	res, err := svc.CreateContest(context.Background(), CreateContestRequest{ContestInput: div2Input(), GenerateProblems: 6})
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	require.Len(t, res.Generated, 6)
	assert.Equal(t, res.Generated, res.Contest.GeneratedProblems)

	p, ok := f.problems.Find(res.Generated[0])
	require.True(t, ok)
	assert.Equal(t, res.Contest.ID, p.ContestID)
	assert.Equal(t, "A", p.ProblemLetter)
	assert.Len(t, f.problems.All(), 6)
}

func TestCreateContest_GenerationFailureBecomesNote(t *testing.T) {
	f := newFixture(t, nil)
	svc := newContestService(f)

	in := div2Input()
	in.Notes = "rated"
	res, err := svc.CreateContest(context.Background(), CreateContestRequest{ContestInput: in, GenerateProblems: 40})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warning)
	assert.Empty(t, res.Generated)
	assert.Contains(t, res.Contest.Notes, "rated\n\nWarning: Problem generation failed")
	assert.Empty(t, f.problems.All())
}

func TestCreateContest_StorageFailureKeepsContest(t *testing.T) {
	f := newFixture(t, nil)
	svc := newContestService(f)
	f.store.SetFailWrites(errQuota)

	res, err := svc.CreateContest(context.Background(), CreateContestRequest{ContestInput: div2Input(), GenerateProblems: 5})
	require.Error(t, err)
	assert.True(t, common.IsSavedInSessionOnly(err))
	assert.NotEmpty(t, res.Contest.ID)
	assert.Len(t, res.Generated, 5)
	assert.Len(t, f.problems.All(), 5)
}

func TestCreateContest_Invalid(t *testing.T) {
	svc := newContestService(newFixture(t, nil))

	_, err := svc.CreateContest(context.Background(), CreateContestRequest{})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGenerateProblems_SecondRunAvoidsDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	svc := newContestService(f)
	ctx := context.Background()

	res, err := svc.CreateContest(ctx, CreateContestRequest{ContestInput: div2Input(), GenerateProblems: 5})
	require.NoError(t, err)

	ids, err := svc.GenerateProblems(ctx, res.Contest.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, "codeforces-round-900-div-2-a-1", ids[0])
	assert.Len(t, f.problems.All(), 10)

	_, err = svc.GenerateProblems(ctx, "missing", 5)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListContests_FilterThenSort(t *testing.T) {
	f := newFixture(t, nil)
	svc := newContestService(f)
	f.addContest(t, repository.ContestInput{Name: "B round", Platform: "Codeforces", Date: "2024-01-05"})
	f.addContest(t, repository.ContestInput{Name: "A round", Platform: "Codeforces", Date: "2024-02-05"})
	f.addContest(t, repository.ContestInput{Name: "ABC", Platform: "AtCoder", Date: "2024-03-05"})

	got := svc.ListContests(ListContestsRequest{
		ContestFilter: repository.ContestFilter{Platform: "Codeforces"},
		SortBy:        "name",
		SortOrder:     "asc",
	})
	require.Len(t, got, 2)
	assert.Equal(t, "A round", got[0].Name)
	assert.Equal(t, "B round", got[1].Name)
}

func TestUpdateContestProblem(t *testing.T) {
	f := newFixture(t, nil)
	svc := newContestService(f)
	id := f.addContest(t, div2Input())

	solved := model.SubProblemSolved
	c, err := svc.UpdateContestProblem(context.Background(), id, "B", repository.ContestProblemPatch{Status: &solved})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Solved)

	_, err = svc.GetContest("nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSummary(t *testing.T) {
	f := newFixture(t, nil)
	svc := newContestService(f)
	in := div2Input()
	in.Rank = "120/9000"
	id := f.addContest(t, in)

	md, err := svc.Summary(id)
	require.NoError(t, err)
	assert.Contains(t, md, "# Codeforces Round 900 (Div. 2) contest summary")
	assert.Contains(t, md, "- **Final rank**: 120/9000")
	assert.Contains(t, md, "### F - untitled")
	assert.Contains(t, md, "- **Contest link**: none")
	assert.Contains(t, md, "*Summary created 2024-03-15 12:00:00*")
}
