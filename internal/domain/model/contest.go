package model

import "strings"

// Contest is one recorded contest participation.
type Contest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Platform      string `json:"platform"`
	Date          string `json:"date"`
	URL           string `json:"url"`
	PDFPath       string `json:"pdfPath,omitempty"`
	SummaryPath   string `json:"summaryPath,omitempty"`
	Rank          string `json:"rank"`
	Solved        int    `json:"solved"`
	TotalProblems int    `json:"totalProblems"`
	Notes         string `json:"notes"`
	AddedTime     string `json:"addedTime"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`

	Problems          []ContestProblem `json:"problems"`
	Files             *ContestFiles    `json:"files,omitempty"`
	GeneratedProblems []string         `json:"generatedProblems,omitempty"`
	ContestRecord     *ContestRecord   `json:"contestRecord,omitempty"`
	Solutions         []Solution       `json:"solutions,omitempty"`
}

// ContestProblem is the per-letter file-tracking record of a contest.
type ContestProblem struct {
	Index        string           `json:"index"`
	Title        string           `json:"title"`
	Status       SubProblemStatus `json:"status"`
	PDFPath      string           `json:"pdfPath"`
	SolutionPath string           `json:"solutionPath"`
}

// FileArtifact describes one expected file on disk.
type FileArtifact struct {
	Path       string         `json:"path"`
	Status     ArtifactStatus `json:"status"`
	UploadTime string         `json:"uploadTime,omitempty"`
}

type ContestFiles struct {
	Statement *FileArtifact `json:"statement,omitempty"`
	Solution  *FileArtifact `json:"solution,omitempty"`
	Summary   *FileArtifact `json:"summary,omitempty"`
}

// ContestRecord is the scoreboard source of truth for a contest.
type ContestRecord struct {
	ProblemResults map[string]ProblemResult `json:"problemResults"`
	SolvedCount    int                      `json:"solvedCount"`
	TotalPenalty   int                      `json:"totalPenalty"`
}

// ProblemResult is the verdict recorded for one letter. Times are minutes.
type ProblemResult struct {
	Status   ResultStatus `json:"status"`
	Attempts int          `json:"attempts"`
	ACTime   *int         `json:"acTime"`
	Penalty  int          `json:"penalty"`
	Score    *int         `json:"score,omitempty"`
	Notes    string       `json:"notes"`
}

// Solution is a write-up attached to a contest or a problem.
type Solution struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Path         string   `json:"path"`
	Type         string   `json:"type"`
	Language     string   `json:"language"`
	Author       string   `json:"author"`
	Description  string   `json:"description"`
	AddedTime    string   `json:"addedTime"`
	ModifiedTime string   `json:"modifiedTime,omitempty"`
	Tags         []string `json:"tags"`
}

// SolvedFromProblems counts solved lettered sub-records.
func (c *Contest) SolvedFromProblems() int {
	n := 0
	for _, p := range c.Problems {
		if p.Status == SubProblemSolved {
			n++
		}
	}
	return n
}

// ProblemPosition resolves a sub-record by letter (case-insensitive).
// It returns -1 when the letter is unknown.
func (c *Contest) ProblemPosition(letter string) int {
	for i, p := range c.Problems {
		if strings.EqualFold(p.Index, letter) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can never alias repository state.
func (c Contest) Clone() Contest {
	out := c
	if c.Problems != nil {
		out.Problems = append([]ContestProblem(nil), c.Problems...)
	}
	if c.GeneratedProblems != nil {
		out.GeneratedProblems = append([]string(nil), c.GeneratedProblems...)
	}
	if c.Files != nil {
		files := ContestFiles{
			Statement: cloneArtifact(c.Files.Statement),
			Solution:  cloneArtifact(c.Files.Solution),
			Summary:   cloneArtifact(c.Files.Summary),
		}
		out.Files = &files
	}
	if c.ContestRecord != nil {
		rec := c.ContestRecord.Clone()
		out.ContestRecord = &rec
	}
	if c.Solutions != nil {
		out.Solutions = cloneSolutions(c.Solutions)
	}
	return out
}

func (r ContestRecord) Clone() ContestRecord {
	out := r
	if r.ProblemResults == nil {
		return out
	}
	out.ProblemResults = make(map[string]ProblemResult, len(r.ProblemResults))
	for k, v := range r.ProblemResults {
		out.ProblemResults[k] = v.Clone()
	}
	return out
}

func (r ProblemResult) Clone() ProblemResult {
	out := r
	if r.ACTime != nil {
		t := *r.ACTime
		out.ACTime = &t
	}
	if r.Score != nil {
		s := *r.Score
		out.Score = &s
	}
	return out
}

// SubProblemLetters builds the default lettered list A.. for n problems.
func SubProblemLetters(n int) []ContestProblem {
	if n <= 0 {
		return []ContestProblem{}
	}
	out := make([]ContestProblem, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, ContestProblem{
			Index:  Letter(i),
			Status: SubProblemUnsolved,
		})
	}
	return out
}

// Letter returns the spreadsheet-style letter for a zero-based position:
// 0 is A, 25 is Z, 26 is AA.
func Letter(i int) string {
	if i < 0 {
		return ""
	}
	s := ""
	for i >= 0 {
		s = string(rune('A'+i%26)) + s
		i = i/26 - 1
	}
	return s
}

func cloneArtifact(a *FileArtifact) *FileArtifact {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func cloneSolutions(in []Solution) []Solution {
	out := make([]Solution, len(in))
	for i, s := range in {
		out[i] = s
		if s.Tags != nil {
			out[i].Tags = append([]string(nil), s.Tags...)
		}
	}
	return out
}
