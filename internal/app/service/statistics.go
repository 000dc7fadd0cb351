package service

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

// NotAvailable is reported for figures that have no data behind them.
const NotAvailable = "N/A"

const recentLimit = 5

type Statistics struct {
	Contests ContestStats           `json:"contests"`
	Problems ProblemStats           `json:"problems"`
	Recent   RecentActivity         `json:"recent"`
	Records  map[string]RecordStats `json:"records"`
}

type ContestStats struct {
	Total       int            `json:"total"`
	ThisMonth   int            `json:"thisMonth"`
	TotalSolved int            `json:"totalSolved"`
	AverageRank string         `json:"averageRank"`
	Platforms   map[string]int `json:"platforms"`
	Monthly     map[string]int `json:"monthly"`
}

type ProblemStats struct {
	Total        int            `json:"total"`
	Solved       int            `json:"solved"`
	Pending      int            `json:"pending"`
	Failed       int            `json:"failed"`
	Unsolved     int            `json:"unsolved"`
	ByDifficulty map[string]int `json:"byDifficulty"`
	ByPlatform   map[string]int `json:"byPlatform"`
	Tags         map[string]int `json:"tags"`
}

type RecentActivity struct {
	Contests []model.Contest `json:"contests"`
	Problems []model.Problem `json:"problems"`
}

// Minutes is an optional duration in minutes; it encodes as "N/A" when unset.
type Minutes struct {
	Value int
	Valid bool
}

func (m Minutes) String() string {
	if !m.Valid {
		return NotAvailable
	}
	return strconv.Itoa(m.Value)
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(m.Value)
}

// RecordStats are the solve-time figures of one scoreboard record.
type RecordStats struct {
	SolvedCount   int     `json:"solvedCount"`
	TotalPenalty  int     `json:"totalPenalty"`
	AverageACTime Minutes `json:"averageACTime"`
	FastestSolve  Minutes `json:"fastestSolve"`
	SlowestSolve  Minutes `json:"slowestSolve"`
}

// Aggregate derives every dashboard figure from a snapshot of both
// collections. It never fails: malformed ranks and dates are skipped.
func Aggregate(contests []model.Contest, problems []model.Problem, now time.Time) Statistics {
	stats := Statistics{
		Contests: aggregateContests(contests, now),
		Problems: aggregateProblems(problems),
		Recent: RecentActivity{
			Contests: recentContests(contests),
			Problems: recentProblems(problems),
		},
		Records: map[string]RecordStats{},
	}
	for i := range contests {
		if rec := contests[i].ContestRecord; rec != nil {
			stats.Records[contests[i].ID] = AggregateRecord(*rec)
		}
	}
	return stats
}

func aggregateContests(contests []model.Contest, now time.Time) ContestStats {
	stats := ContestStats{
		Total:       len(contests),
		AverageRank: NotAvailable,
		Platforms:   map[string]int{},
		Monthly:     map[string]int{},
	}
	thisMonth := now.UTC().Format("2006-01")

	var percentileSum float64
	ranked := 0
	for _, c := range contests {
		if month, ok := contestMonth(c.Date); ok {
			stats.Monthly[month]++
			if month == thisMonth {
				stats.ThisMonth++
			}
		}
		stats.TotalSolved += max(c.Solved, 0)
		stats.Platforms[c.Platform]++

		if p, ok := rankPercentile(c.Rank); ok {
			percentileSum += p
			ranked++
		}
	}
	if ranked > 0 {
		stats.AverageRank = strconv.Itoa(int(math.Round(percentileSum/float64(ranked)*100))) + "%"
	}
	return stats
}

// contestMonth returns the YYYY-MM a contest date falls in.
func contestMonth(date string) (string, bool) {
	if t, ok := model.ParseDate(date); ok {
		return t.Format("2006-01"), true
	}
	return "", false
}

// rankPercentile parses "place/participants" into place/participants.
func rankPercentile(rank string) (float64, bool) {
	place, total, ok := strings.Cut(strings.TrimSpace(rank), "/")
	if !ok {
		return 0, false
	}
	p, err1 := strconv.Atoi(strings.TrimSpace(place))
	n, err2 := strconv.Atoi(strings.TrimSpace(total))
	if err1 != nil || err2 != nil || n <= 0 {
		return 0, false
	}
	return float64(p) / float64(n), true
}

func aggregateProblems(problems []model.Problem) ProblemStats {
	stats := ProblemStats{
		Total:        len(problems),
		ByDifficulty: map[string]int{},
		ByPlatform:   map[string]int{},
		Tags:         map[string]int{},
	}
	for _, p := range problems {
		switch model.ParseProblemStatus(string(p.Status)) {
		case model.ProblemSolved:
			stats.Solved++
		case model.ProblemPending:
			stats.Pending++
		case model.ProblemFailed:
			stats.Failed++
		default:
			stats.Unsolved++
		}

		difficulty := "unknown"
		if p.Difficulty != nil && *p.Difficulty != 0 {
			difficulty = strconv.Itoa(*p.Difficulty)
		}
		stats.ByDifficulty[difficulty]++

		platform := p.Platform
		if platform == "" {
			platform = "unknown"
		}
		stats.ByPlatform[platform]++

		for _, tag := range p.Tags {
			stats.Tags[tag]++
		}
	}
	return stats
}

func recentContests(contests []model.Contest) []model.Contest {
	out := make([]model.Contest, len(contests))
	for i, c := range contests {
		out[i] = c.Clone()
	}
	slices.SortStableFunc(out, func(a, b model.Contest) int {
		return model.SortTime(b.Date).Compare(model.SortTime(a.Date))
	})
	return out[:min(len(out), recentLimit)]
}

func recentProblems(problems []model.Problem) []model.Problem {
	out := make([]model.Problem, len(problems))
	for i, p := range problems {
		out[i] = p.Clone()
	}
	added := func(p model.Problem) time.Time {
		if p.AddedTime != "" {
			return model.SortTime(p.AddedTime)
		}
		return model.SortTime(p.AddedDate)
	}
	slices.SortStableFunc(out, func(a, b model.Problem) int {
		return added(b).Compare(added(a))
	})
	return out[:min(len(out), recentLimit)]
}

// AggregateRecord computes solve-time figures over the AC results of a
// scoreboard record. Results without an acTime count toward the totals but
// not the timing figures.
func AggregateRecord(rec model.ContestRecord) RecordStats {
	var out RecordStats
	times := make([]int, 0, len(rec.ProblemResults))
	for _, res := range rec.ProblemResults {
		if res.Status != model.ResultAC {
			continue
		}
		out.SolvedCount++
		out.TotalPenalty += res.Penalty
		if res.ACTime != nil {
			out.TotalPenalty += *res.ACTime
			if *res.ACTime > 0 {
				times = append(times, *res.ACTime)
			}
		}
	}
	if len(times) == 0 {
		return out
	}
	sum := 0
	for _, t := range times {
		sum += t
	}
	out.AverageACTime = Minutes{Value: int(math.Round(float64(sum) / float64(len(times)))), Valid: true}
	out.FastestSolve = Minutes{Value: slices.Min(times), Valid: true}
	out.SlowestSolve = Minutes{Value: slices.Max(times), Valid: true}
	return out
}
