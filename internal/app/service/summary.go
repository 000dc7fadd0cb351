package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

func orNone(s, none string) string {
	if strings.TrimSpace(s) == "" {
		return none
	}
	return s
}

// SummaryTemplate renders a markdown review skeleton for a contest.
func SummaryTemplate(c model.Contest, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s contest summary\n\n", c.Name)
	b.WriteString("## Basics\n")
	fmt.Fprintf(&b, "- **Date**: %s\n", c.Date)
	fmt.Fprintf(&b, "- **Platform**: %s\n", c.Platform)
	fmt.Fprintf(&b, "- **Final rank**: %s\n", orNone(c.Rank, "not recorded"))
	fmt.Fprintf(&b, "- **Solved**: %d/%d\n", c.Solved, c.TotalProblems)
	fmt.Fprintf(&b, "- **Contest link**: %s\n\n", orNone(c.URL, "none"))

	b.WriteString("## Problems\n")
	for _, p := range c.Problems {
		status := "❌ unsolved"
		if p.Status == model.SubProblemSolved {
			status = "✅ solved"
		}
		fmt.Fprintf(&b, "\n### %s - %s\n", p.Index, orNone(p.Title, "untitled"))
		fmt.Fprintf(&b, "- **Status**: %s\n", status)
		fmt.Fprintf(&b, "- **Statement**: %s\n", orNone(p.PDFPath, "none"))
		fmt.Fprintf(&b, "- **Solution**: %s\n", orNone(p.SolutionPath, "none"))
		b.WriteString("- **Approach**: \n")
		b.WriteString("- **Pitfalls**: \n")
	}

	if c.ContestRecord != nil {
		rs := AggregateRecord(*c.ContestRecord)
		b.WriteString("\n## Time\n")
		fmt.Fprintf(&b, "- **Penalty**: %d\n", rs.TotalPenalty)
		fmt.Fprintf(&b, "- **Average AC time**: %s\n", rs.AverageACTime)
		fmt.Fprintf(&b, "- **Fastest solve**: %s\n", rs.FastestSolve)
		fmt.Fprintf(&b, "- **Slowest solve**: %s\n", rs.SlowestSolve)
	} else {
		b.WriteString("\n## Time\n- **Total time**: \n- **Per problem**: \n")
	}

	b.WriteString("\n## Reflection\n\n")
	for _, section := range []string{"What went well", "What to improve", "What I learned", "Goals for next time"} {
		fmt.Fprintf(&b, "### %s\n- \n\n", section)
	}

	fmt.Fprintf(&b, "## Notes\n%s\n\n---\n", orNone(c.Notes, "none"))
	fmt.Fprintf(&b, "*Summary created %s*\n", now.Format("2006-01-02 15:04:05"))
	return b.String()
}
