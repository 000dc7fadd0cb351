package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

// ICPCAttemptPenalty is the minutes added per rejected attempt by ICPCPenalty.
const ICPCAttemptPenalty = 20

// PenaltyStrategy gives the penalty minutes of one accepted problem.
//
// The single-contest scoreboard and the standings board disagree on the
// formula; both are kept as separate strategies until that is settled.
type PenaltyStrategy func(acTime, attempts, recorded int) int

// RecordedPenalty is acTime plus the penalty stored on the result.
func RecordedPenalty(acTime, _, recorded int) int {
	return acTime + recorded
}

// ICPCPenalty is acTime plus 20 minutes per attempt before the accepted one.
func ICPCPenalty(acTime, attempts, _ int) int {
	return acTime + ICPCAttemptPenalty*max(attempts-1, 0)
}

// CellView is the display form of one scoreboard letter.
type CellView struct {
	Letter   string             `json:"letter"`
	Status   model.ResultStatus `json:"status"`
	Attempts int                `json:"attempts"`
	ACTime   *int               `json:"acTime"`
	Penalty  int                `json:"penalty"`
	Score    *int               `json:"score,omitempty"`
	Title    string             `json:"title"`
	Bucket   string             `json:"bucket"`
	Primary  string             `json:"primary"`
	Extra    string             `json:"extra,omitempty"`
}

// Scoreboard is an immutable ICPC-style view of one contest record.
// UpdateCell returns a new value and leaves the receiver untouched.
type Scoreboard struct {
	ContestID     string              `json:"contestId"`
	ContestName   string              `json:"contestName"`
	Platform      string              `json:"platform"`
	Date          string              `json:"date"`
	Rank          string              `json:"rank"`
	SolvedCount   int                 `json:"solvedCount"`
	TotalProblems int                 `json:"totalProblems"`
	TotalPenalty  int                 `json:"totalPenalty"`
	Letters       []string            `json:"letters"`
	ProblemStatus map[string]CellView `json:"problemStatus"`

	penalty PenaltyStrategy
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func cellTitle(res model.ProblemResult) string {
	switch res.Status {
	case model.ResultAC:
		attempts := res.Attempts
		if attempts == 0 {
			attempts = 1
		}
		return fmt.Sprintf("Accepted (%d min, %d attempts)", intOr(res.ACTime, 0), attempts)
	case model.ResultWA:
		return fmt.Sprintf("Wrong answer (%d attempts)", res.Attempts)
	case model.ResultTLE:
		return fmt.Sprintf("Time limit (%d attempts)", res.Attempts)
	case model.ResultPartial:
		return fmt.Sprintf("Partial (%d points, %d attempts)", intOr(res.Score, 0), res.Attempts)
	default:
		return "Not attempted"
	}
}

func newCell(letter string, res model.ProblemResult) CellView {
	res.Status = model.ParseResultStatus(string(res.Status))
	cell := CellView{
		Letter:   letter,
		Status:   res.Status,
		Attempts: res.Attempts,
		ACTime:   res.ACTime,
		Penalty:  res.Penalty,
		Score:    res.Score,
		Title:    cellTitle(res),
		Bucket:   strings.ToLower(string(res.Status)),
	}
	switch res.Status {
	case model.ResultAC:
		cell.Primary = strconv.Itoa(intOr(res.ACTime, 0))
		if res.Attempts > 1 {
			cell.Extra = "-" + strconv.Itoa(res.Attempts-1)
		}
	case model.ResultWA, model.ResultTLE:
		cell.Extra = "-" + strconv.Itoa(res.Attempts)
	case model.ResultPartial:
		cell.Primary = strconv.Itoa(intOr(res.Score, 0))
		cell.Extra = "-" + strconv.Itoa(res.Attempts)
	default:
		cell.Primary = "-"
	}
	return cell
}

func (s Scoreboard) contribution(cell CellView) (solved, penalty int) {
	if cell.Status != model.ResultAC {
		return 0, 0
	}
	return 1, s.penalty(intOr(cell.ACTime, 0), cell.Attempts, cell.Penalty)
}

// scoreboardLetters lists the columns: the contest's lettered problems, or
// totalProblems letters, or failing both the letters present in the record.
func scoreboardLetters(c model.Contest) []string {
	if len(c.Problems) > 0 {
		out := make([]string, len(c.Problems))
		for i, p := range c.Problems {
			out[i] = p.Index
			if out[i] == "" {
				out[i] = model.Letter(i)
			}
		}
		return out
	}
	if c.TotalProblems > 0 {
		out := make([]string, c.TotalProblems)
		for i := range out {
			out[i] = model.Letter(i)
		}
		return out
	}
	if c.ContestRecord != nil {
		return slices.Sorted(maps.Keys(c.ContestRecord.ProblemResults))
	}
	return []string{}
}

// BuildScoreboard builds the grid for contest. A nil penalty means
// RecordedPenalty. Record entries for letters outside the grid are ignored.
func BuildScoreboard(c model.Contest, penalty PenaltyStrategy) Scoreboard {
	if penalty == nil {
		penalty = RecordedPenalty
	}
	sb := Scoreboard{
		ContestID:     c.ID,
		ContestName:   orNone(c.Name, "Unnamed contest"),
		Platform:      orNone(c.Platform, "Unknown platform"),
		Date:          c.Date,
		Rank:          orNone(c.Rank, NotAvailable),
		Letters:       scoreboardLetters(c),
		ProblemStatus: map[string]CellView{},
		penalty:       penalty,
	}
	sb.TotalProblems = len(sb.Letters)

	var results map[string]model.ProblemResult
	if c.ContestRecord != nil {
		results = c.ContestRecord.ProblemResults
	}
	for _, letter := range sb.Letters {
		res, ok := results[letter]
		if !ok {
			res = model.ProblemResult{Status: model.ResultUnattempted}
		}
		cell := newCell(letter, res.Clone())
		sb.ProblemStatus[letter] = cell
		solved, pen := sb.contribution(cell)
		sb.SolvedCount += solved
		sb.TotalPenalty += pen
	}
	return sb
}

// UpdateCell returns a copy with one letter replaced. Only that cell and
// the two totals are recomputed. An unknown letter is appended as a new
// column.
func (s Scoreboard) UpdateCell(letter string, res model.ProblemResult) Scoreboard {
	if s.penalty == nil {
		s.penalty = RecordedPenalty
	}
	next := s
	next.ProblemStatus = maps.Clone(s.ProblemStatus)
	if next.ProblemStatus == nil {
		next.ProblemStatus = map[string]CellView{}
	}

	if old, ok := s.ProblemStatus[letter]; ok {
		solved, pen := s.contribution(old)
		next.SolvedCount -= solved
		next.TotalPenalty -= pen
	} else {
		next.Letters = append(slices.Clone(s.Letters), letter)
		next.TotalProblems = len(next.Letters)
	}

	cell := newCell(letter, res.Clone())
	next.ProblemStatus[letter] = cell
	solved, pen := next.contribution(cell)
	next.SolvedCount += solved
	next.TotalPenalty += pen
	return next
}

// StatusCounts tallies the grid by verdict.
func (s Scoreboard) StatusCounts() map[model.ResultStatus]int {
	out := map[model.ResultStatus]int{}
	for _, cell := range s.ProblemStatus {
		out[cell.Status]++
	}
	return out
}

// ScoreboardService reads and writes contest records.
type ScoreboardService struct {
	contests repository.ContestRepository
}

func NewScoreboardService(contests repository.ContestRepository) *ScoreboardService {
	return &ScoreboardService{contests: contests}
}

func (s *ScoreboardService) Board(contestID string) (Scoreboard, error) {
	c, ok := s.contests.Find(contestID)
	if !ok {
		return Scoreboard{}, fmt.Errorf("contest %s: %w", contestID, common.ErrNotFound)
	}
	return BuildScoreboard(c, RecordedPenalty), nil
}

// RecordResult stores one letter's result and returns the updated board.
func (s *ScoreboardService) RecordResult(ctx context.Context, contestID, letter string, res model.ProblemResult) (Scoreboard, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		return Scoreboard{}, fmt.Errorf("problem letter is required: %w", common.ErrValidation)
	}
	if res.Attempts < 0 || res.Penalty < 0 || (res.ACTime != nil && *res.ACTime < 0) {
		return Scoreboard{}, fmt.Errorf("attempts, acTime and penalty cannot be negative: %w", common.ErrValidation)
	}
	c, ok := s.contests.Find(contestID)
	if !ok {
		return Scoreboard{}, fmt.Errorf("contest %s: %w", contestID, common.ErrNotFound)
	}

	rec := model.ContestRecord{ProblemResults: map[string]model.ProblemResult{}}
	if c.ContestRecord != nil {
		rec = c.ContestRecord.Clone()
		if rec.ProblemResults == nil {
			rec.ProblemResults = map[string]model.ProblemResult{}
		}
	}
	res.Status = model.ParseResultStatus(string(res.Status))
	rec.ProblemResults[letter] = res
	return s.save(ctx, contestID, rec)
}

// ReplaceRecord stores a whole record.
func (s *ScoreboardService) ReplaceRecord(ctx context.Context, contestID string, rec model.ContestRecord) (Scoreboard, error) {
	return s.save(ctx, contestID, rec)
}

func (s *ScoreboardService) save(ctx context.Context, contestID string, rec model.ContestRecord) (Scoreboard, error) {
	err := s.contests.SetContestRecord(ctx, contestID, rec)
	if err != nil && !common.IsSavedInSessionOnly(err) {
		return Scoreboard{}, err
	}
	c, _ := s.contests.Find(contestID)
	return BuildScoreboard(c, RecordedPenalty), err
}
