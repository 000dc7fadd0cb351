package model

// OfficialAuthor is the solution key that can never be removed.
const OfficialAuthor = "official"

// Problem is one entry of the problem library.
type Problem struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Platform   string        `json:"platform"`
	Difficulty *int          `json:"difficulty"`
	Status     ProblemStatus `json:"status"`
	Tags       []string      `json:"tags"`
	URL        string        `json:"url"`

	ContestID     string `json:"contestId,omitempty"`
	ProblemIndex  string `json:"problemIndex,omitempty"`
	ProblemLetter string `json:"problemLetter,omitempty"`

	PDFPath      string        `json:"pdfPath,omitempty"`
	SolutionPath string        `json:"solutionPath,omitempty"`
	Files        *ProblemFiles `json:"files,omitempty"`

	Notes         string `json:"notes"`
	Source        string `json:"source,omitempty"`
	AutoGenerated bool   `json:"autoGenerated,omitempty"`

	AddedTime    string  `json:"addedTime,omitempty"`
	AddedDate    string  `json:"addedDate,omitempty"`
	ModifiedTime string  `json:"modifiedTime,omitempty"`
	SolvedTime   *string `json:"solvedTime"`

	Solutions []Solution `json:"solutions,omitempty"`
}

// ProblemFiles is the multi-author file layout of a problem.
type ProblemFiles struct {
	Statement *FileArtifact             `json:"statement,omitempty"`
	Solutions map[string]AuthorSolution `json:"solutions,omitempty"`
}

// AuthorSolution is one author's solution file, keyed by a sanitized slug.
type AuthorSolution struct {
	Path       string         `json:"path"`
	Author     string         `json:"author"`
	Status     ArtifactStatus `json:"status"`
	UploadTime string         `json:"uploadTime,omitempty"`
}

// Letter returns the position of the problem within its contest, whichever
// of the two legacy fields carries it.
func (p *Problem) Letter() string {
	if p.ProblemLetter != "" {
		return p.ProblemLetter
	}
	return p.ProblemIndex
}

// DifficultyOrZero is the sort key used for problems without a rating.
func (p *Problem) DifficultyOrZero() int {
	if p.Difficulty == nil {
		return 0
	}
	return *p.Difficulty
}

func (p Problem) Clone() Problem {
	out := p
	if p.Difficulty != nil {
		d := *p.Difficulty
		out.Difficulty = &d
	}
	if p.SolvedTime != nil {
		t := *p.SolvedTime
		out.SolvedTime = &t
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}
	if p.Files != nil {
		files := ProblemFiles{Statement: cloneArtifact(p.Files.Statement)}
		if p.Files.Solutions != nil {
			files.Solutions = make(map[string]AuthorSolution, len(p.Files.Solutions))
			for k, v := range p.Files.Solutions {
				files.Solutions[k] = v
			}
		}
		out.Files = &files
	}
	if p.Solutions != nil {
		out.Solutions = cloneSolutions(p.Solutions)
	}
	return out
}

// IntPtr and StringPtr help build optional fields and patches.
func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
