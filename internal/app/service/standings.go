package service

import (
	"slices"

	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

// Standings is a horizontal board of several contestants over one set of
// letters.
type Standings struct {
	Letters []string                 `json:"letters"`
	Rows    []model.LeaderboardEntry `json:"rows"`
}

// Recalculate recomputes solved and penalty from the cells with
// ICPCPenalty.
func Recalculate(c model.Contestant) model.Contestant {
	c.Solved, c.Penalty = 0, 0
	for _, cell := range c.Problems {
		if cell.Status == model.ProblemSolved {
			c.Solved++
			c.Penalty += ICPCPenalty(cell.Time, cell.Attempts, 0)
		}
	}
	return c
}

// BuildStandings ranks contestants by solved descending then penalty
// ascending. Equal results share a rank. With showOnlyAC, contestants that
// solved nothing are dropped after ranking.
func BuildStandings(contestants []model.Contestant, letters []string, showOnlyAC bool) Standings {
	rows := make([]model.Contestant, len(contestants))
	for i, c := range contestants {
		rows[i] = cloneContestant(c)
	}
	slices.SortStableFunc(rows, func(a, b model.Contestant) int {
		if a.Solved != b.Solved {
			return b.Solved - a.Solved
		}
		return a.Penalty - b.Penalty
	})

	out := Standings{Letters: append([]string{}, letters...), Rows: []model.LeaderboardEntry{}}
	rank := 0
	for i, c := range rows {
		if i == 0 || c.Solved != rows[i-1].Solved || c.Penalty != rows[i-1].Penalty {
			rank = i + 1
		}
		if showOnlyAC && c.Solved == 0 {
			continue
		}
		out.Rows = append(out.Rows, model.LeaderboardEntry{Rank: rank, Contestant: c})
	}
	return out
}

// UpdateContestantCell sets one cell of a contestant and recalculates it.
func UpdateContestantCell(c model.Contestant, letter string, cell model.ContestantCell) model.Contestant {
	c = cloneContestant(c)
	if c.Problems == nil {
		c.Problems = map[string]model.ContestantCell{}
	}
	cell.Status = model.ParseProblemStatus(string(cell.Status))
	c.Problems[letter] = cell
	return Recalculate(c)
}

func cloneContestant(c model.Contestant) model.Contestant {
	if c.Problems != nil {
		cells := make(map[string]model.ContestantCell, len(c.Problems))
		for k, v := range c.Problems {
			cells[k] = v
		}
		c.Problems = cells
	}
	return c
}
