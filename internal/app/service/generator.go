package service

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

const (
	MinGeneratedProblems = 5
	MaxGeneratedProblems = 15

	// CustomPlatform is the template used for unknown platforms.
	CustomPlatform = "custom"

	fallbackDifficulty = 1000
	slugMaxLength      = 30
	generatedSource    = "contest"
	contestProblemTag  = "contest problem"
)

// PlatformTemplate describes how problems of one platform are laid out.
type PlatformTemplate struct {
	URLPattern          string `yaml:"urlPattern" json:"urlPattern"`
	DefaultDifficulties []int  `yaml:"defaultDifficulties" json:"defaultDifficulties"`
	ContestIDPattern    string `yaml:"contestIdPattern" json:"contestIdPattern"`
	LetterCase          string `yaml:"letterCase" json:"letterCase"`

	contestIDRe *regexp.Regexp
}

func (t PlatformTemplate) difficulty(i int) int {
	if i >= 0 && i < len(t.DefaultDifficulties) {
		return t.DefaultDifficulties[i]
	}
	return fallbackDifficulty
}

// ContestID extracts the platform's contest id from a contest URL, or "".
func (t PlatformTemplate) ContestID(url string) string {
	if url == "" || t.contestIDRe == nil {
		return ""
	}
	m := t.contestIDRe.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ProblemURL fills the URL pattern. It is empty when the platform has no
// pattern or the contest id is unknown.
func (t PlatformTemplate) ProblemURL(contestID, letter string) string {
	if t.URLPattern == "" || contestID == "" {
		return ""
	}
	if t.LetterCase == "lower" {
		letter = strings.ToLower(letter)
	} else {
		letter = strings.ToUpper(letter)
	}
	return strings.NewReplacer("{contestId}", contestID, "{letter}", letter).Replace(t.URLPattern)
}

func steps(from, to, step int) []int {
	out := make([]int, 0, (to-from)/step+1)
	for d := from; d <= to; d += step {
		out = append(out, d)
	}
	return out
}

func defaultTemplates() map[string]PlatformTemplate {
	return map[string]PlatformTemplate{
		"Codeforces": {
			URLPattern:          "https://codeforces.com/contest/{contestId}/problem/{letter}",
			DefaultDifficulties: append(steps(800, 3400, 200), 3500),
			ContestIDPattern:    `contest/(\d+)`,
			LetterCase:          "upper",
		},
		"AtCoder": {
			URLPattern:          "https://atcoder.jp/contests/{contestId}/tasks/{contestId}_{letter}",
			DefaultDifficulties: steps(100, 1500, 100),
			ContestIDPattern:    `contests/([^/]+)`,
			LetterCase:          "lower",
		},
		"CodeChef": {
			URLPattern:          "https://www.codechef.com/{contestId}/problems/{contestId}{letter}",
			DefaultDifficulties: steps(1000, 3800, 200),
			ContestIDPattern:    `contests/([^/]+)`,
			LetterCase:          "upper",
		},
		"ICPC": {
			DefaultDifficulties: steps(1200, 4000, 200),
			LetterCase:          "upper",
		},
		"CCPC": {
			DefaultDifficulties: steps(1200, 4000, 200),
			LetterCase:          "upper",
		},
		"NowCoder": {
			URLPattern:          "https://ac.nowcoder.com/acm/contest/{contestId}#{letter}",
			DefaultDifficulties: steps(1000, 3800, 200),
			ContestIDPattern:    `contest/(\d+)`,
			LetterCase:          "upper",
		},
		CustomPlatform: {
			DefaultDifficulties: steps(1000, 3800, 200),
			LetterCase:          "upper",
		},
	}
}

// LoadGeneratorTemplates reads platform template overrides from a YAML
// document mapping platform names to templates.
func LoadGeneratorTemplates(path string) (map[string]PlatformTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("service.LoadGeneratorTemplates: %w", err)
	}
	var out map[string]PlatformTemplate
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("service.LoadGeneratorTemplates: %s: %v: %w", path, err, common.ErrValidation)
	}
	return out, nil
}

// Generator derives lettered placeholder problems for a contest.
type Generator struct {
	templates map[string]PlatformTemplate
	now       func() time.Time
}

func NewGenerator() *Generator {
	g := &Generator{templates: map[string]PlatformTemplate{}, now: time.Now}
	if err := g.SetTemplates(defaultTemplates()); err != nil {
		panic(err) // built-in patterns always compile
	}
	return g
}

// SetTemplates adds or replaces platform templates.
func (g *Generator) SetTemplates(templates map[string]PlatformTemplate) error {
	for platform, t := range templates {
		if t.ContestIDPattern != "" {
			re, err := regexp.Compile(t.ContestIDPattern)
			if err != nil {
				return fmt.Errorf("template %s: bad contestIdPattern: %v: %w", platform, err, common.ErrValidation)
			}
			t.contestIDRe = re
		}
		t.DefaultDifficulties = append([]int(nil), t.DefaultDifficulties...)
		g.templates[platform] = t
	}
	return nil
}

func (g *Generator) SetClock(now func() time.Time) { g.now = now }

// PlatformTemplate returns the template for platform, falling back to the
// custom one.
func (g *Generator) PlatformTemplate(platform string) PlatformTemplate {
	if t, ok := g.templates[platform]; ok {
		return t
	}
	for name, t := range g.templates {
		if strings.EqualFold(name, platform) {
			return t
		}
	}
	return g.templates[CustomPlatform]
}

// CountOption is one entry of the problem-count picker.
type CountOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

func SupportedCounts() []CountOption {
	notes := map[int]string{
		5:  "small practice",
		6:  "common on AtCoder",
		7:  "common in Div. 2",
		11: "common in ICPC",
		13: "ICPC World Finals",
		15: "large contest",
	}
	out := make([]CountOption, 0, MaxGeneratedProblems-MinGeneratedProblems+1)
	for n := MinGeneratedProblems; n <= MaxGeneratedProblems; n++ {
		label := strconv.Itoa(n) + " problems"
		if note, ok := notes[n]; ok {
			label += " (" + note + ")"
		}
		out = append(out, CountOption{Value: n, Label: label})
	}
	return out
}

var (
	nonSlugRe   = regexp.MustCompile(`[^A-Za-z0-9_\s-]`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
	hyphenRunRe = regexp.MustCompile(`-+`)
)

// ContestSlug is the id prefix of generated problems: ASCII word
// characters, spaces and hyphens kept, whitespace and hyphen runs folded to
// one hyphen, lowercased, at most 30 characters. Names with no ASCII word
// characters fall back to a transliterated slug.
func ContestSlug(name string) string {
	s := nonSlugRe.ReplaceAllString(name, "")
	s = spaceRunRe.ReplaceAllString(s, "-")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Trim(s, "-") == "" {
		s = slug.Make(name)
	}
	if s == "" {
		s = "contest"
	}
	if len(s) > slugMaxLength {
		s = s[:slugMaxLength]
	}
	return s
}

// DefaultTags derives tags from the contest name and platform.
func DefaultTags(contest model.Contest) []string {
	tags := []string{contestProblemTag}
	if contest.Platform != "" {
		tags = append(tags, contest.Platform)
	}
	name := strings.ToLower(contest.Name)
	if strings.Contains(name, "div") {
		switch {
		case strings.Contains(name, "div. 1"), strings.Contains(name, "division 1"):
			tags = append(tags, "div1")
		case strings.Contains(name, "div. 2"), strings.Contains(name, "division 2"):
			tags = append(tags, "div2")
		case strings.Contains(name, "div. 3"), strings.Contains(name, "division 3"):
			tags = append(tags, "div3")
		}
	}
	if strings.Contains(name, "educational") {
		tags = append(tags, "educational")
	}
	if strings.Contains(name, "global") {
		tags = append(tags, "global")
	}
	if strings.Contains(name, "icpc") || strings.Contains(name, "ccpc") {
		tags = append(tags, "icpc-style")
	}
	return repository.ProcessTags(tags)
}

func validateCount(count int) error {
	if count < MinGeneratedProblems || count > MaxGeneratedProblems {
		return fmt.Errorf("problem count must be between %d and %d, got %d: %w",
			MinGeneratedProblems, MaxGeneratedProblems, count, common.ErrValidation)
	}
	return nil
}

// Generate builds count problems for contest. Ids already in existing, or
// generated earlier in the batch, get a numeric suffix and a note.
func (g *Generator) Generate(contest model.Contest, count int, existing []string) ([]model.Problem, error) {
	if strings.TrimSpace(contest.Name) == "" {
		return nil, fmt.Errorf("contest has no name: %w", common.ErrValidation)
	}
	if err := validateCount(count); err != nil {
		return nil, err
	}

	t := g.PlatformTemplate(contest.Platform)
	prefix := ContestSlug(contest.Name)
	tags := DefaultTags(contest)
	today := model.FormatDate(g.now())

	taken := make(map[string]struct{}, len(existing)+count)
	for _, id := range existing {
		taken[id] = struct{}{}
	}

	out := make([]model.Problem, 0, count)
	for i := 0; i < count; i++ {
		letter := model.Letter(i)
		base := prefix + "-" + strings.ToLower(letter)
		id := base
		for n := 1; ; n++ {
			if _, dup := taken[id]; !dup {
				break
			}
			id = base + "-" + strconv.Itoa(n)
		}
		taken[id] = struct{}{}

		notes := "From contest: " + contest.Name + "; difficulty and tags can be edited in the library"
		if id != base {
			notes += " (id adjusted to " + id + " to avoid a duplicate)"
		}
		out = append(out, model.Problem{
			ID:            id,
			Title:         contest.Name + " - " + letter,
			Platform:      contest.Platform,
			Difficulty:    model.IntPtr(t.difficulty(i)),
			Status:        model.ProblemUnsolved,
			Tags:          append([]string(nil), tags...),
			Notes:         notes,
			AddedDate:     today,
			ContestID:     contest.ID,
			ProblemIndex:  letter,
			ProblemLetter: letter,
			Source:        generatedSource,
			AutoGenerated: true,
		})
	}
	return out, nil
}

type PreviewProblem struct {
	Letter     string   `json:"letter"`
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Difficulty int      `json:"difficulty"`
	Tags       []string `json:"tags"`
}

type PreviewSummary struct {
	ContestName   string `json:"contestName"`
	Platform      string `json:"platform"`
	ProblemCount  int    `json:"problemCount"`
	ContestPrefix string `json:"contestPrefix"`
	HasURLs       bool   `json:"hasUrls"`
}

type Preview struct {
	Problems []PreviewProblem `json:"preview"`
	Summary  PreviewSummary   `json:"summary"`
}

// Preview shows what Generate would produce, including the URLs derived
// from the contest URL, without checking existing ids.
func (g *Generator) Preview(contest model.Contest, count int) (Preview, error) {
	var problems []string
	if strings.TrimSpace(contest.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(contest.Platform) == "" {
		problems = append(problems, "platform is required")
	}
	if strings.TrimSpace(contest.Date) == "" {
		problems = append(problems, "date is required")
	} else if !model.ValidDate(contest.Date) {
		problems = append(problems, "date is not a valid date")
	}
	if len(problems) > 0 {
		return Preview{}, fmt.Errorf("contest data invalid: %s: %w", strings.Join(problems, ", "), common.ErrValidation)
	}
	if err := validateCount(count); err != nil {
		return Preview{}, err
	}

	t := g.PlatformTemplate(contest.Platform)
	contestID := t.ContestID(contest.URL)
	prefix := ContestSlug(contest.Name)
	tags := DefaultTags(contest)

	out := Preview{
		Problems: make([]PreviewProblem, 0, count),
		Summary: PreviewSummary{
			ContestName:   contest.Name,
			Platform:      contest.Platform,
			ProblemCount:  count,
			ContestPrefix: prefix,
		},
	}
	for i := 0; i < count; i++ {
		letter := model.Letter(i)
		url := t.ProblemURL(contestID, letter)
		out.Summary.HasURLs = out.Summary.HasURLs || url != ""
		out.Problems = append(out.Problems, PreviewProblem{
			Letter:     letter,
			ID:         prefix + "-" + strings.ToLower(letter),
			Title:      contest.Name + " - " + letter,
			URL:        url,
			Difficulty: t.difficulty(i),
			Tags:       append([]string(nil), tags...),
		})
	}
	return out, nil
}
