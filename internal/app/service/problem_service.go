package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

type ProblemService struct {
	problems repository.ProblemRepository
	now      func() time.Time
	logger   zerolog.Logger
}

func NewProblemService(problems repository.ProblemRepository, logger zerolog.Logger) *ProblemService {
	return &ProblemService{
		problems: problems,
		now:      time.Now,
		logger:   logger.With().Str("component", "problem-service").Logger(),
	}
}

func (s *ProblemService) SetClock(now func() time.Time) { s.now = now }

// CreateProblem adds the problem and returns the stored record. A storage
// failure is returned with the record, which exists for this session.
func (s *ProblemService) CreateProblem(ctx context.Context, in repository.ProblemInput) (model.Problem, error) {
	id, err := s.problems.Add(ctx, in)
	if err != nil && !common.IsSavedInSessionOnly(err) {
		return model.Problem{}, err
	}
	p, _ := s.problems.Find(id)
	return p, err
}

func (s *ProblemService) GetProblem(id string) (model.Problem, error) {
	p, ok := s.problems.Find(id)
	if !ok {
		return model.Problem{}, fmt.Errorf("problem %s: %w", id, common.ErrNotFound)
	}
	return p, nil
}

type ListProblemsRequest struct {
	repository.ProblemFilter
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
}

type ProblemPage struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// ListProblems filters, orders, then slices out one page. A non-positive
// page size returns every match on page 1.
func (s *ProblemService) ListProblems(req ListProblemsRequest) ProblemPage {
	filtered := s.problems.Filter(req.ProblemFilter)
	if req.SortBy != "" {
		keep := make(map[string]struct{}, len(filtered))
		for _, p := range filtered {
			keep[p.ID] = struct{}{}
		}
		sorted := s.problems.Sort(req.SortBy, req.SortOrder)
		filtered = filtered[:0]
		for _, p := range sorted {
			if _, ok := keep[p.ID]; ok {
				filtered = append(filtered, p)
			}
		}
	}

	total := len(filtered)
	if req.PageSize <= 0 {
		return ProblemPage{Problems: filtered, Total: total, Page: 1, PageSize: total}
	}
	page := max(req.Page, 1)
	offset := min((page-1)*req.PageSize, total)
	end := min(offset+req.PageSize, total)
	return ProblemPage{
		Problems: filtered[offset:end],
		Total:    total,
		Page:     page,
		PageSize: req.PageSize,
	}
}

func (s *ProblemService) UpdateProblem(ctx context.Context, id string, patch repository.ProblemPatch) (model.Problem, error) {
	err := s.problems.Update(ctx, id, patch)
	if err != nil && !common.IsSavedInSessionOnly(err) {
		return model.Problem{}, err
	}
	p, _ := s.problems.Find(id)
	return p, err
}

func (s *ProblemService) DeleteProblem(ctx context.Context, id string) error {
	return s.problems.Delete(ctx, id)
}

func (s *ProblemService) Tags() []string {
	return s.problems.AllTags()
}

// SetStatement records where the statement PDF lives. An empty path means
// the default folder layout.
func (s *ProblemService) SetStatement(ctx context.Context, id, path string) (model.Problem, error) {
	if path == "" {
		path = common.ProblemFilesRoot + id + "/statement/problem.pdf"
	}
	err := s.problems.SetStatementFile(ctx, id, model.FileArtifact{
		Path:   common.NormalizeRelativePath(path),
		Status: model.ArtifactPending,
	})
	if err != nil && !common.IsSavedInSessionOnly(err) {
		return model.Problem{}, err
	}
	p, _ := s.problems.Find(id)
	return p, err
}

type AuthorSolutionRequest struct {
	Path     string `json:"path"`
	Uploaded bool   `json:"uploaded"`
}

// SetAuthorSolution registers an author's solution file under the author's
// folder key.
func (s *ProblemService) SetAuthorSolution(ctx context.Context, id, author string, req AuthorSolutionRequest) (model.Problem, error) {
	key := SanitizeAuthor(author)
	if key == "" {
		return model.Problem{}, fmt.Errorf("author %q has no usable folder name: %w", author, common.ErrValidation)
	}
	path := req.Path
	if path == "" {
		path = AuthorSolutionPath(id, author)
	}
	sol := model.AuthorSolution{
		Path:   common.NormalizeRelativePath(path),
		Author: author,
		Status: model.ArtifactPending,
	}
	if req.Uploaded {
		sol.Status = model.ArtifactUploaded
		sol.UploadTime = model.FormatTimestamp(s.now())
	}

	err := s.problems.SetSolutionFile(ctx, id, key, sol)
	if err != nil && !common.IsSavedInSessionOnly(err) {
		return model.Problem{}, err
	}
	p, _ := s.problems.Find(id)
	return p, err
}

func (s *ProblemService) RemoveAuthorSolution(ctx context.Context, id, author string) error {
	return s.problems.RemoveSolutionFile(ctx, id, SanitizeAuthor(author))
}
