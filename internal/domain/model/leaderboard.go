package model

// Contestant is one row of a horizontal standings board.
type Contestant struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	IsCurrentUser bool                      `json:"isCurrentUser"`
	Solved        int                       `json:"solved"`
	Penalty       int                       `json:"penalty"`
	Problems      map[string]ContestantCell `json:"problems"`
}

// ContestantCell is one letter of a contestant row. Time is minutes.
type ContestantCell struct {
	Status   ProblemStatus `json:"status"`
	Time     int           `json:"time"`
	Attempts int           `json:"attempts"`
}

// LeaderboardEntry is a ranked, display-ready contestant row.
type LeaderboardEntry struct {
	Rank       int        `json:"rank"`
	Contestant Contestant `json:"contestant"`
}
