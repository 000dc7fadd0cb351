package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

func newTestGenerator() *Generator {
	g := NewGenerator()
	g.SetClock(fixedClock)
	return g
}

func TestContestSlug(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Codeforces Round 900 (Div. 2)", "codeforces-round-900-div-2"},
		{"ABC  -- 300", "abc-300"},
		{"Educational Codeforces Round 160 (Rated for Div. 2)", "educational-codeforces-round-1"},
		{"!!!", "contest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContestSlug(tt.name))
		})
	}
	assert.NotEmpty(t, ContestSlug("北京站"), "non-ASCII names fall back to a transliterated slug")
}

func TestDefaultTags(t *testing.T) {
	tags := DefaultTags(model.Contest{Name: "Educational Round (Div. 2)", Platform: "Codeforces"})
	assert.Equal(t, []string{"contest problem", "codeforces", "div2", "educational"}, tags)

	tags = DefaultTags(model.Contest{Name: "The 2023 ICPC Asia Regional", Platform: "ICPC"})
	assert.Equal(t, []string{"contest problem", "icpc", "icpc-style"}, tags)
}

func TestGenerate(t *testing.T) {
	g := newTestGenerator()
	c := model.Contest{ID: "contest_1", Name: "Codeforces Round 900 (Div. 2)", Platform: "Codeforces"}

	problems, err := g.Generate(c, 6, nil)
	require.NoError(t, err)
	require.Len(t, problems, 6)

	a := problems[0]
	assert.Equal(t, "codeforces-round-900-div-2-a", a.ID)
	assert.Equal(t, "Codeforces Round 900 (Div. 2) - A", a.Title)
	assert.Equal(t, 800, *a.Difficulty)
	assert.Equal(t, 1800, *problems[5].Difficulty)
	assert.Equal(t, model.ProblemUnsolved, a.Status)
	assert.Equal(t, "contest_1", a.ContestID)
	assert.Equal(t, "A", a.ProblemLetter)
	assert.Equal(t, "2024-03-15", a.AddedDate)
	assert.True(t, a.AutoGenerated)
	assert.Empty(t, a.URL)
	assert.Contains(t, a.Tags, "div2")
}

func TestGenerate_ICPCElevenProblems(t *testing.T) {
	problems, err := newTestGenerator().Generate(model.Contest{Name: "ICPC", Platform: "ICPC"}, 11, nil)
	require.NoError(t, err)
	require.Len(t, problems, 11)

	for i, p := range problems {
		letter := model.Letter(i)
		assert.Equal(t, letter, p.ProblemLetter)
		assert.Equal(t, "icpc-"+strings.ToLower(letter), p.ID)
		assert.Equal(t, 1200+200*i, *p.Difficulty)
	}
	assert.Equal(t, "K", problems[10].ProblemLetter)
	assert.Equal(t, 3200, *problems[10].Difficulty)
	assert.Contains(t, problems[0].Tags, "icpc-style")
}

func TestGenerate_AdjustsDuplicateIDs(t *testing.T) {
	g := newTestGenerator()
	c := model.Contest{Name: "ABC 300", Platform: "AtCoder"}

	problems, err := g.Generate(c, 5, []string{"abc-300-a", "abc-300-a-1", "abc-300-c"})
	require.NoError(t, err)

	assert.Equal(t, "abc-300-a-2", problems[0].ID)
	assert.Contains(t, problems[0].Notes, "id adjusted to abc-300-a-2")
	assert.Equal(t, "abc-300-b", problems[1].ID)
	assert.NotContains(t, problems[1].Notes, "adjusted")
	assert.Equal(t, "abc-300-c-1", problems[2].ID)
	assert.Equal(t, 100, *problems[0].Difficulty)
}

func TestGenerate_Validation(t *testing.T) {
	g := newTestGenerator()

	_, err := g.Generate(model.Contest{Name: "X"}, 4, nil)
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = g.Generate(model.Contest{Name: "X"}, 16, nil)
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = g.Generate(model.Contest{}, 5, nil)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestGenerate_UnknownPlatformUsesCustom(t *testing.T) {
	problems, err := newTestGenerator().Generate(model.Contest{Name: "Team practice", Platform: "Luogu"}, 15, nil)
	require.NoError(t, err)
	assert.Equal(t, 1000, *problems[0].Difficulty)
	assert.Equal(t, 3800, *problems[14].Difficulty)
	assert.Equal(t, "O", problems[14].ProblemLetter)
}

func TestPreview_URLs(t *testing.T) {
	g := newTestGenerator()

	p, err := g.Preview(model.Contest{
		Name:     "Codeforces Round 900",
		Platform: "Codeforces",
		Date:     "2024-03-10",
		URL:      "https://codeforces.com/contest/1875",
	}, 5)
	require.NoError(t, err)
	assert.True(t, p.Summary.HasURLs)
	assert.Equal(t, "https://codeforces.com/contest/1875/problem/A", p.Problems[0].URL)
	assert.Equal(t, "codeforces-round-900", p.Summary.ContestPrefix)

	p, err = g.Preview(model.Contest{
		Name:     "ABC 300",
		Platform: "AtCoder",
		Date:     "2024-03-10",
		URL:      "https://atcoder.jp/contests/abc300",
	}, 5)
	require.NoError(t, err)
	assert.Equal(t, "https://atcoder.jp/contests/abc300/tasks/abc300_b", p.Problems[1].URL)

	p, err = g.Preview(model.Contest{Name: "ICPC", Platform: "ICPC", Date: "2024-03-10"}, 5)
	require.NoError(t, err)
	assert.False(t, p.Summary.HasURLs)
	assert.Empty(t, p.Problems[0].URL)
}

func TestPreview_Validation(t *testing.T) {
	_, err := newTestGenerator().Preview(model.Contest{Name: "X", Date: "soon"}, 5)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "platform is required")
	assert.Contains(t, err.Error(), "date is not a valid date")
}

func TestLoadGeneratorTemplates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
Luogu:
  urlPattern: "https://www.luogu.com.cn/problem/{contestId}{letter}"
  defaultDifficulties: [900, 1100]
  contestIdPattern: "contest/(\\d+)"
  letterCase: upper
`), 0o644))

	templates, err := LoadGeneratorTemplates(path)
	require.NoError(t, err)

	g := newTestGenerator()
	require.NoError(t, g.SetTemplates(templates))
	tmpl := g.PlatformTemplate("luogu")
	assert.Equal(t, "1234", tmpl.ContestID("https://www.luogu.com.cn/contest/1234"))
	assert.Equal(t, "https://www.luogu.com.cn/problem/1234B", tmpl.ProblemURL("1234", "b"))
	assert.Equal(t, 1000, tmpl.difficulty(2))
}

func TestSetTemplates_BadPattern(t *testing.T) {
	err := NewGenerator().SetTemplates(map[string]PlatformTemplate{"X": {ContestIDPattern: "("}})
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestSupportedCounts(t *testing.T) {
	counts := SupportedCounts()
	require.Len(t, counts, 11)
	assert.Equal(t, 5, counts[0].Value)
	assert.Equal(t, "13 problems (ICPC World Finals)", counts[8].Label)
}
