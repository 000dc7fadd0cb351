package model

import (
	"encoding/json"
	"strings"
)

// SubProblemStatus tracks the lettered sub-records of a contest.
type SubProblemStatus string

// ProblemStatus is the canonical status of a library problem.
type ProblemStatus string

// ResultStatus is a scoreboard verdict for one contest letter.
type ResultStatus string

// ArtifactStatus tracks whether a file artifact has been placed on disk.
type ArtifactStatus string

const (
	SubProblemSolved   SubProblemStatus = "solved"
	SubProblemUnsolved SubProblemStatus = "unsolved"

	ProblemUnsolved ProblemStatus = "unsolved"
	ProblemPending  ProblemStatus = "pending"
	ProblemFailed   ProblemStatus = "failed"
	ProblemSolved   ProblemStatus = "solved"

	ResultAC          ResultStatus = "AC"
	ResultWA          ResultStatus = "WA"
	ResultTLE         ResultStatus = "TLE"
	ResultPartial     ResultStatus = "PARTIAL"
	ResultUnattempted ResultStatus = "UNATTEMPTED"

	ArtifactPending  ArtifactStatus = "pending"
	ArtifactUploaded ArtifactStatus = "uploaded"
)

// ParseProblemStatus folds the legacy vocabularies used by older exports
// into the canonical set. Unknown values map to unsolved.
func ParseProblemStatus(s string) ProblemStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "solved", "ac", "accepted":
		return ProblemSolved
	case "pending", "review", "reviewing", "partial":
		return ProblemPending
	case "failed", "wa", "tle", "wrong":
		return ProblemFailed
	default: // "", "unsolved", "unattempted", "todo"
		return ProblemUnsolved
	}
}

// Valid reports whether s is one of the canonical values.
func (s ProblemStatus) Valid() bool {
	switch s {
	case ProblemUnsolved, ProblemPending, ProblemFailed, ProblemSolved:
		return true
	}
	return false
}

// SubProblemStatus collapses the problem status to the binary contest view.
func (s ProblemStatus) SubProblemStatus() SubProblemStatus {
	if s == ProblemSolved {
		return SubProblemSolved
	}
	return SubProblemUnsolved
}

func (s *ProblemStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// null or a non-string value
		*s = ProblemUnsolved
		return nil
	}
	*s = ParseProblemStatus(raw)
	return nil
}

// ParseSubProblemStatus accepts anything that reads as solved; the rest is unsolved.
func ParseSubProblemStatus(s string) SubProblemStatus {
	if ParseProblemStatus(s) == ProblemSolved {
		return SubProblemSolved
	}
	return SubProblemUnsolved
}

// ProblemStatus lifts the binary status into the canonical problem set.
func (s SubProblemStatus) ProblemStatus() ProblemStatus {
	if s == SubProblemSolved {
		return ProblemSolved
	}
	return ProblemUnsolved
}

func (s *SubProblemStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = SubProblemUnsolved
		return nil
	}
	*s = ParseSubProblemStatus(raw)
	return nil
}

// ParseResultStatus is case-insensitive; unknown values are UNATTEMPTED.
func ParseResultStatus(s string) ResultStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AC":
		return ResultAC
	case "WA":
		return ResultWA
	case "TLE":
		return ResultTLE
	case "PARTIAL":
		return ResultPartial
	default:
		return ResultUnattempted
	}
}

func (s *ResultStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = ResultUnattempted
		return nil
	}
	*s = ParseResultStatus(raw)
	return nil
}

// ProblemStatus maps a verdict onto the library status:
// AC is solved, WA and TLE are failed, PARTIAL is pending.
func (s ResultStatus) ProblemStatus() ProblemStatus {
	switch s {
	case ResultAC:
		return ProblemSolved
	case ResultWA, ResultTLE:
		return ProblemFailed
	case ResultPartial:
		return ProblemPending
	default:
		return ProblemUnsolved
	}
}

// SubProblemStatus maps a verdict onto the binary contest view.
func (s ResultStatus) SubProblemStatus() SubProblemStatus {
	return s.ProblemStatus().SubProblemStatus()
}

// ResultStatusFor gives the closest verdict for a library status. Failed has
// no single verdict and maps to WA.
func ResultStatusFor(s ProblemStatus) ResultStatus {
	switch s {
	case ProblemSolved:
		return ResultAC
	case ProblemFailed:
		return ResultWA
	case ProblemPending:
		return ResultPartial
	default:
		return ResultUnattempted
	}
}
