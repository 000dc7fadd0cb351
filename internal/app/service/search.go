package service

import (
	"slices"
	"strings"
	"sync"

	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
)

const (
	ResultContest = "contest"
	ResultProblem = "problem"

	searchLimit = 10
)

// Relevance weights.
const (
	scoreExactTitle = 100
	scoreTitle      = 50
	scorePlatform   = 30
	scoreTag        = 20
	scoreID         = 15
	scoreNameWord   = 25
	scoreLetter     = 40
	scoreContestID  = 15
)

// platformAliases maps short query forms to platform names.
var platformAliases = map[string]string{
	"cf":  "codeforces",
	"atc": "atcoder",
	"ac":  "atcoder",
	"cc":  "codechef",
	"nc":  "nowcoder",
}

type SearchResult struct {
	Type     string         `json:"type"`
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Score    int            `json:"score"`
	Contest  *model.Contest `json:"contest,omitempty"`
	Problem  *model.Problem `json:"problem,omitempty"`
}

// SearchIndex scores every record on each query. Results are cached per
// raw query until the next Refresh.
type SearchIndex struct {
	mu       sync.RWMutex
	contests []model.Contest
	problems []model.Problem
	cache    map[string][]SearchResult
	metrics  *metrics.Metrics
}

func NewSearchIndex(m *metrics.Metrics) *SearchIndex {
	if m == nil {
		m = metrics.Nop()
	}
	return &SearchIndex{cache: map[string][]SearchResult{}, metrics: m}
}

// Refresh replaces the searched snapshot and drops every cached query.
func (s *SearchIndex) Refresh(contests []model.Contest, problems []model.Problem) {
	s.mu.Lock()
	s.contests = contests
	s.problems = problems
	s.cache = map[string][]SearchResult{}
	s.mu.Unlock()
}

// CacheSize is the number of cached queries.
func (s *SearchIndex) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Search returns at most ten records with a positive score, best first.
func (s *SearchIndex) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []SearchResult{}
	}
	s.metrics.SearchQueries.Inc()

	s.mu.RLock()
	if hit, ok := s.cache[query]; ok {
		s.mu.RUnlock()
		s.metrics.SearchCacheHits.Inc()
		return slices.Clone(hit)
	}
	contests, problems := s.contests, s.problems
	s.mu.RUnlock()

	results := make([]SearchResult, 0)
	for i := range contests {
		c := &contests[i]
		if score := ScoreContest(c, q); score > 0 {
			cp := c.Clone()
			results = append(results, SearchResult{
				Type:     ResultContest,
				ID:       c.ID,
				Title:    c.Name,
				Subtitle: c.Platform + " • " + c.Date,
				Score:    score,
				Contest:  &cp,
			})
		}
	}
	for i := range problems {
		p := &problems[i]
		if score := ScoreProblem(p, q); score > 0 {
			cp := p.Clone()
			results = append(results, SearchResult{
				Type:     ResultProblem,
				ID:       p.ID,
				Title:    p.Title,
				Subtitle: p.Platform + " • " + string(p.Status),
				Score:    score,
				Problem:  &cp,
			})
		}
	}
	slices.SortStableFunc(results, func(a, b SearchResult) int { return b.Score - a.Score })
	results = results[:min(len(results), searchLimit)]

	s.mu.Lock()
	// a Refresh in between means this result belongs to an old snapshot
	if sameSnapshot(s.contests, contests) && sameSnapshot(s.problems, problems) {
		s.cache[query] = results
	}
	s.mu.Unlock()
	return slices.Clone(results)
}

func sameSnapshot[T any](a, b []T) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

func matchesPlatform(platform, q string) bool {
	p := strings.ToLower(platform)
	if p == "" {
		return false
	}
	if strings.Contains(p, q) {
		return true
	}
	alias, ok := platformAliases[q]
	return ok && p == alias
}

func titleScore(title, q string) int {
	t := strings.ToLower(title)
	switch {
	case t == q:
		return scoreExactTitle
	case strings.Contains(t, q):
		return scoreTitle
	}
	return 0
}

// ScoreContest scores a contest against a lowercased query. The contest
// name counts as its title.
func ScoreContest(c *model.Contest, q string) int {
	score := titleScore(c.Name, q)
	if matchesPlatform(c.Platform, q) {
		score += scorePlatform
	}
	if c.ID != "" && strings.Contains(strings.ToLower(c.ID), q) {
		score += scoreID
	}
	for _, word := range strings.Fields(strings.ToLower(c.Name)) {
		if strings.Contains(word, q) {
			score += scoreNameWord
			break
		}
	}
	return score
}

// ScoreProblem scores a problem against a lowercased query.
func ScoreProblem(p *model.Problem, q string) int {
	score := titleScore(p.Title, q)
	if matchesPlatform(p.Platform, q) {
		score += scorePlatform
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			score += scoreTag
			break
		}
	}
	if p.ID != "" && strings.Contains(strings.ToLower(p.ID), q) {
		score += scoreID
	}
	if letter := p.Letter(); letter != "" && strings.ToLower(letter) == q {
		score += scoreLetter
	}
	if p.ContestID != "" && strings.Contains(strings.ToLower(p.ContestID), q) {
		score += scoreContestID
	}
	return score
}

// Watch refreshes the index from the repositories now and after every
// change they report. The returned func unsubscribes.
func (s *SearchIndex) Watch(contests repository.ContestRepository, problems repository.ProblemRepository) (stop func()) {
	refresh := func() { s.Refresh(contests.All(), problems.All()) }
	refresh()

	cs := contests.Events().On(events.Wildcard, func(e repository.ContestEvent) {
		if e.Type != repository.EventSaved {
			refresh()
		}
	})
	ps := problems.Events().On(events.Wildcard, func(e repository.ProblemEvent) {
		if e.Type != repository.EventSaved {
			refresh()
		}
	})
	return func() {
		contests.Events().Off(cs)
		problems.Events().Off(ps)
	}
}
