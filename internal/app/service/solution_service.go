package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

// Solution owners.
const (
	OwnerContest = "contest"
	OwnerProblem = "problem"
)

var (
	SolutionTypes     = []string{"official", "personal", "alternative", "video", "summary", "analysis"}
	SolutionLanguages = []string{"cpp", "python", "java", "javascript", "go", "rust", "c", "csharp", "kotlin", "swift", "markdown", "multiple"}
)

type SolutionInput struct {
	Title       string   `json:"title"`
	Path        string   `json:"path"`
	Type        string   `json:"type"`
	Language    string   `json:"language"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type SolutionPatch struct {
	Title       *string   `json:"title,omitempty"`
	Path        *string   `json:"path,omitempty"`
	Type        *string   `json:"type,omitempty"`
	Language    *string   `json:"language,omitempty"`
	Author      *string   `json:"author,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// SolutionService keeps the write-up lists attached to contests and
// problems. Every change rewrites the owner's whole list.
type SolutionService struct {
	contests repository.ContestRepository
	problems repository.ProblemRepository
	now      func() time.Time
	logger   zerolog.Logger
}

func NewSolutionService(contests repository.ContestRepository, problems repository.ProblemRepository, logger zerolog.Logger) *SolutionService {
	return &SolutionService{
		contests: contests,
		problems: problems,
		now:      time.Now,
		logger:   logger.With().Str("component", "solutions").Logger(),
	}
}

func (s *SolutionService) SetClock(now func() time.Time) { s.now = now }

func (s *SolutionService) newSolutionID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	var suffix [9]byte
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return "sol-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + string(suffix[:])
}

func validSolutionType(t string) error {
	if !slices.Contains(SolutionTypes, t) {
		return fmt.Errorf("unknown solution type %q: %w", t, common.ErrValidation)
	}
	return nil
}

// load returns the owner's current list.
func (s *SolutionService) load(owner, parentID string) ([]model.Solution, error) {
	switch owner {
	case OwnerContest:
		c, ok := s.contests.Find(parentID)
		if !ok {
			return nil, fmt.Errorf("contest %s: %w", parentID, common.ErrNotFound)
		}
		return c.Solutions, nil
	case OwnerProblem:
		p, ok := s.problems.Find(parentID)
		if !ok {
			return nil, fmt.Errorf("problem %s: %w", parentID, common.ErrNotFound)
		}
		return p.Solutions, nil
	}
	return nil, fmt.Errorf("unknown solution owner %q: %w", owner, common.ErrBadRequest)
}

func (s *SolutionService) store(ctx context.Context, owner, parentID string, list []model.Solution) error {
	if owner == OwnerContest {
		return s.contests.SetSolutions(ctx, parentID, list)
	}
	return s.problems.SetSolutions(ctx, parentID, list)
}

// List returns the solutions of a contest or problem, never nil.
func (s *SolutionService) List(owner, parentID string) ([]model.Solution, error) {
	list, err := s.load(owner, parentID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Solution{}
	}
	return list, nil
}

// Add appends a solution. Blank fields take defaults: "Untitled solution",
// personal, cpp, anonymous.
func (s *SolutionService) Add(ctx context.Context, owner, parentID string, in SolutionInput) (model.Solution, error) {
	list, err := s.load(owner, parentID)
	if err != nil {
		return model.Solution{}, err
	}

	sol := model.Solution{
		ID:          s.newSolutionID(),
		Title:       orNone(in.Title, "Untitled solution"),
		Path:        common.NormalizeRelativePath(in.Path),
		Type:        orNone(in.Type, "personal"),
		Language:    orNone(in.Language, "cpp"),
		Author:      orNone(in.Author, "anonymous"),
		Description: in.Description,
		AddedTime:   model.FormatTimestamp(s.now()),
		Tags:        slices.Clone(in.Tags),
	}
	if sol.Tags == nil {
		sol.Tags = []string{}
	}
	if err := validSolutionType(sol.Type); err != nil {
		return model.Solution{}, err
	}

	list = append(slices.Clone(list), sol)
	if err := s.store(ctx, owner, parentID, list); err != nil {
		return sol, err
	}
	s.logger.Info().Str("owner", owner).Str("parent", parentID).Str("solution", sol.ID).Msg("Solution added")
	return sol, nil
}

func (s *SolutionService) Update(ctx context.Context, owner, parentID, solutionID string, patch SolutionPatch) (model.Solution, error) {
	list, err := s.load(owner, parentID)
	if err != nil {
		return model.Solution{}, err
	}
	i := slices.IndexFunc(list, func(sol model.Solution) bool { return sol.ID == solutionID })
	if i < 0 {
		return model.Solution{}, fmt.Errorf("solution %s: %w", solutionID, common.ErrNotFound)
	}

	list = slices.Clone(list)
	sol := list[i]
	if patch.Title != nil {
		sol.Title = *patch.Title
	}
	if patch.Path != nil {
		sol.Path = common.NormalizeRelativePath(*patch.Path)
	}
	if patch.Type != nil {
		if err := validSolutionType(*patch.Type); err != nil {
			return model.Solution{}, err
		}
		sol.Type = *patch.Type
	}
	if patch.Language != nil {
		sol.Language = *patch.Language
	}
	if patch.Author != nil {
		sol.Author = *patch.Author
	}
	if patch.Description != nil {
		sol.Description = *patch.Description
	}
	if patch.Tags != nil {
		sol.Tags = slices.Clone(*patch.Tags)
	}
	sol.ModifiedTime = model.FormatTimestamp(s.now())
	list[i] = sol

	if err := s.store(ctx, owner, parentID, list); err != nil {
		return sol, err
	}
	return sol, nil
}

func (s *SolutionService) Remove(ctx context.Context, owner, parentID, solutionID string) error {
	list, err := s.load(owner, parentID)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(list), func(sol model.Solution) bool { return sol.ID == solutionID })
	if len(kept) == len(list) {
		return fmt.Errorf("solution %s: %w", solutionID, common.ErrNotFound)
	}
	if err := s.store(ctx, owner, parentID, kept); err != nil {
		return err
	}
	s.logger.Info().Str("owner", owner).Str("parent", parentID).Str("solution", solutionID).Msg("Solution removed")
	return nil
}
