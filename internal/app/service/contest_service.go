package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

type ContestService struct {
	contests  repository.ContestRepository
	problems  repository.ProblemRepository
	generator *Generator
	logger    zerolog.Logger
}

func NewContestService(
	contests repository.ContestRepository,
	problems repository.ProblemRepository,
	generator *Generator,
	logger zerolog.Logger,
) *ContestService {
	return &ContestService{
		contests:  contests,
		problems:  problems,
		generator: generator,
		logger:    logger.With().Str("component", "contest-service").Logger(),
	}
}

type CreateContestRequest struct {
	repository.ContestInput
	GenerateProblems int `json:"generateProblems"`
}

type CreateContestResult struct {
	Contest   model.Contest `json:"contest"`
	Generated []string      `json:"generatedProblems"`
	Warning   string        `json:"warning,omitempty"`
}

// CreateContest adds the contest and, when asked, generates its lettered
// problems into the library. A generation failure never fails the call; it
// is appended to the contest notes instead. A storage failure is returned
// alongside the result since the contest still exists in memory.
func (s *ContestService) CreateContest(ctx context.Context, req CreateContestRequest) (CreateContestResult, error) {
	id, err := s.contests.Add(ctx, req.ContestInput)
	if err != nil && !common.IsSavedInSessionOnly(err) {
		return CreateContestResult{}, err
	}
	storageErr := err

	result := CreateContestResult{Generated: []string{}}
	if req.GenerateProblems > 0 {
		ids, genErr := s.generate(ctx, id, req.GenerateProblems)
		switch {
		case genErr != nil && common.IsSavedInSessionOnly(genErr):
			storageErr = errors.Join(storageErr, genErr)
			result.Generated = ids
		case genErr != nil:
			result.Warning = "Problem generation failed: " + genErr.Error()
			s.logger.Warn().Err(genErr).Str("contest", id).Msg("Problem generation failed")
			if noteErr := s.contests.AppendNote(ctx, id, "Warning: "+result.Warning); noteErr != nil && !common.IsSavedInSessionOnly(noteErr) {
				s.logger.Error().Err(noteErr).Str("contest", id).Msg("Could not record generation warning")
			}
		default:
			result.Generated = ids
		}
	}

	c, _ := s.contests.Find(id)
	result.Contest = c
	return result, storageErr
}

// generate persists the problems and links them to the contest. ids are
// returned even when only persistence failed.
func (s *ContestService) generate(ctx context.Context, contestID string, count int) ([]string, error) {
	c, ok := s.contests.Find(contestID)
	if !ok {
		return nil, fmt.Errorf("contest %s: %w", contestID, common.ErrNotFound)
	}
	problems, err := s.generator.Generate(c, count, s.problems.IDs())
	if err != nil {
		return nil, err
	}
	batchErr := s.problems.AddBatch(ctx, problems)
	if batchErr != nil && !common.IsSavedInSessionOnly(batchErr) {
		return nil, batchErr
	}
	ids := make([]string, len(problems))
	for i, p := range problems {
		ids[i] = p.ID
	}
	linkErr := s.contests.SetGeneratedProblems(ctx, contestID, ids)
	if linkErr != nil && !common.IsSavedInSessionOnly(linkErr) {
		return nil, linkErr
	}
	return ids, errors.Join(batchErr, linkErr)
}

// GenerateProblems generates problems for an existing contest.
func (s *ContestService) GenerateProblems(ctx context.Context, contestID string, count int) ([]string, error) {
	return s.generate(ctx, contestID, count)
}

type ListContestsRequest struct {
	repository.ContestFilter
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// ListContests filters then orders. With no sort key the repository order
// is kept.
func (s *ContestService) ListContests(req ListContestsRequest) []model.Contest {
	filtered := s.contests.Filter(req.ContestFilter)
	if req.SortBy == "" {
		return filtered
	}
	keep := make(map[string]struct{}, len(filtered))
	for _, c := range filtered {
		keep[c.ID] = struct{}{}
	}
	sorted := s.contests.Sort(req.SortBy, req.SortOrder)
	out := make([]model.Contest, 0, len(filtered))
	for _, c := range sorted {
		if _, ok := keep[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *ContestService) GetContest(id string) (model.Contest, error) {
	c, ok := s.contests.Find(id)
	if !ok {
		return model.Contest{}, fmt.Errorf("contest %s: %w", id, common.ErrNotFound)
	}
	return c, nil
}

// UpdateContest applies the patch and returns the stored result.
func (s *ContestService) UpdateContest(ctx context.Context, id string, patch repository.ContestPatch) (model.Contest, error) {
	err := s.contests.Update(ctx, id, patch)
	if err != nil && !common.IsSavedInSessionOnly(err) {
		return model.Contest{}, err
	}
	c, _ := s.contests.Find(id)
	return c, err
}

func (s *ContestService) UpdateContestProblem(ctx context.Context, id, index string, patch repository.ContestProblemPatch) (model.Contest, error) {
	err := s.contests.UpdateProblem(ctx, id, index, patch)
	if err != nil && !common.IsSavedInSessionOnly(err) {
		return model.Contest{}, err
	}
	c, _ := s.contests.Find(id)
	return c, err
}

// DeleteContest removes the contest only; generated problems stay in the
// library.
func (s *ContestService) DeleteContest(ctx context.Context, id string) error {
	return s.contests.Delete(ctx, id)
}

// Summary renders the review template of a contest.
func (s *ContestService) Summary(id string) (string, error) {
	c, err := s.GetContest(id)
	if err != nil {
		return "", err
	}
	return SummaryTemplate(c, s.generator.now()), nil
}
