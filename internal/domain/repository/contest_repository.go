package repository

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

const DefaultPlatform = "custom"

// MaxContestProblems bounds totalProblems to the lettered range A..Z.
const MaxContestProblems = 26

func validateTotalProblems(n int) error {
	if n > MaxContestProblems {
		return fmt.Errorf("totalProblems must be at most %d, got %d: %w", MaxContestProblems, n, common.ErrValidation)
	}
	return nil
}

var rankRe = regexp.MustCompile(`^\d+/\d+$`)

// ContestStore is the persistence the contest repository needs.
type ContestStore interface {
	LoadContests(ctx context.Context) ([]model.Contest, error)
	SaveContests(ctx context.Context, contests []model.Contest) error
}

// ContestEvent is the payload of every contest repository event.
type ContestEvent struct {
	Type         string         `json:"type"`
	Contest      *model.Contest `json:"contest,omitempty"`
	Original     *model.Contest `json:"original,omitempty"`
	ProblemIndex int            `json:"problemIndex,omitempty"`
	Count        int            `json:"count"`
}

type ContestInput struct {
	Name          string `json:"name"`
	Platform      string `json:"platform"`
	Date          string `json:"date"`
	URL           string `json:"url"`
	PDFPath       string `json:"pdfPath"`
	SummaryPath   string `json:"summaryPath"`
	Rank          string `json:"rank"`
	Solved        int    `json:"solved"`
	TotalProblems int    `json:"totalProblems"`
	Notes         string `json:"notes"`
}

// ContestPatch lists the fields an update may change; nil means untouched.
// Changing TotalProblems regenerates the lettered problem list and discards
// the previous per-letter data.
type ContestPatch struct {
	Name          *string                 `json:"name,omitempty"`
	Platform      *string                 `json:"platform,omitempty"`
	Date          *string                 `json:"date,omitempty"`
	URL           *string                 `json:"url,omitempty"`
	PDFPath       *string                 `json:"pdfPath,omitempty"`
	SummaryPath   *string                 `json:"summaryPath,omitempty"`
	Rank          *string                 `json:"rank,omitempty"`
	Solved        *int                    `json:"solved,omitempty"`
	TotalProblems *int                    `json:"totalProblems,omitempty"`
	Notes         *string                 `json:"notes,omitempty"`
	Problems      *[]model.ContestProblem `json:"problems,omitempty"`
}

type ContestProblemPatch struct {
	Title        *string                 `json:"title,omitempty"`
	Status       *model.SubProblemStatus `json:"status,omitempty"`
	PDFPath      *string                 `json:"pdfPath,omitempty"`
	SolutionPath *string                 `json:"solutionPath,omitempty"`
}

// ContestFilter is conjunctive; zero fields do not filter.
type ContestFilter struct {
	Platform  string `json:"platform"`
	DateFrom  string `json:"dateFrom"`
	DateTo    string `json:"dateTo"`
	Search    string `json:"search"`
	MinSolved *int   `json:"minSolved"`
}

type ContestRepository interface {
	Initialize(ctx context.Context) error
	Add(ctx context.Context, in ContestInput) (string, error)
	Update(ctx context.Context, id string, patch ContestPatch) error
	UpdateProblem(ctx context.Context, id, index string, patch ContestProblemPatch) error
	Delete(ctx context.Context, id string) error

	Find(id string) (model.Contest, bool)
	FindByName(name string) (model.Contest, bool)
	All() []model.Contest
	Filter(f ContestFilter) []model.Contest
	Sort(key, order string) []model.Contest

	Import(ctx context.Context, coll model.ContestCollection) (model.ImportResult, error)
	Export() []model.Contest
	Reload(ctx context.Context) error
	Clear(ctx context.Context) error

	SetContestRecord(ctx context.Context, id string, rec model.ContestRecord) error
	SetGeneratedProblems(ctx context.Context, id string, ids []string) error
	AppendNote(ctx context.Context, id, note string) error
	SetFiles(ctx context.Context, id string, files model.ContestFiles) error
	SetSolutions(ctx context.Context, id string, solutions []model.Solution) error

	Events() *events.Bus[ContestEvent]
}

type memContestRepository struct {
	mu          sync.RWMutex
	contests    []model.Contest
	initialized bool

	store ContestStore
	bus   *events.Bus[ContestEvent]
	opts  options
}

func NewContestRepository(store ContestStore, opts ...Option) ContestRepository {
	o := buildOptions("contest-repository", opts)
	bus := events.NewBus[ContestEvent]()
	bus.OnPanic(func(event string, recovered any) {
		o.logger.Error().Str("event", event).Interface("panic", recovered).Msg("Contest event handler panicked")
	})
	return &memContestRepository{
		contests: []model.Contest{},
		store:    store,
		bus:      bus,
		opts:     o,
	}
}

func (r *memContestRepository) Events() *events.Bus[ContestEvent] { return r.bus }

// Initialize loads the collection. A load failure leaves the repository
// empty and refuses to persist until a later Reload succeeds, so that a
// broken store is never overwritten with nothing.
func (r *memContestRepository) Initialize(ctx context.Context) error {
	contests, err := r.store.LoadContests(ctx)

	r.mu.Lock()
	if err != nil {
		r.contests = []model.Contest{}
		r.initialized = false
		r.mu.Unlock()
		r.opts.logger.Warn().Err(err).Msg("Contest repository starting empty")
		return fmt.Errorf("memContestRepository.Initialize: %w", err)
	}
	r.contests = contests
	r.initialized = true
	n := len(r.contests)
	r.mu.Unlock()

	r.opts.logger.Info().Int("count", n).Msg("Contest repository initialized")
	r.bus.Emit(EventInitialized, ContestEvent{Type: EventInitialized, Count: n})
	return nil
}

func (r *memContestRepository) Add(ctx context.Context, in ContestInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	date := strings.TrimSpace(in.Date)
	if name == "" || date == "" {
		return "", fmt.Errorf("contest name and date are required: %w", common.ErrValidation)
	}
	if !model.ValidDate(date) {
		return "", fmt.Errorf("invalid contest date %q: %w", in.Date, common.ErrValidation)
	}
	rank := strings.TrimSpace(in.Rank)
	if rank != "" && !rankRe.MatchString(rank) {
		return "", fmt.Errorf("rank must look like \"100/2000\", got %q: %w", in.Rank, common.ErrValidation)
	}
	if err := validateTotalProblems(in.TotalProblems); err != nil {
		return "", err
	}
	platform := strings.TrimSpace(in.Platform)
	if platform == "" {
		platform = DefaultPlatform
	}
	total := max(in.TotalProblems, 0)

	r.mu.Lock()
	if _, ok := r.findByNameLocked(name); ok {
		r.mu.Unlock()
		return "", fmt.Errorf("contest %q already exists: %w", name, common.ErrConflict)
	}

	now := r.opts.now()
	c := model.Contest{
		ID:            newID("contest", now),
		Name:          name,
		Platform:      platform,
		Date:          date,
		URL:           strings.TrimSpace(in.URL),
		PDFPath:       common.NormalizeRelativePath(in.PDFPath),
		SummaryPath:   common.NormalizeRelativePath(in.SummaryPath),
		Rank:          rank,
		TotalProblems: total,
		Notes:         strings.TrimSpace(in.Notes),
		AddedTime:     model.FormatTimestamp(now),
		Problems:      model.SubProblemLetters(total),
	}
	c.Solved = reconcileSolved(&c, max(in.Solved, 0))
	r.contests = append(r.contests, c)
	saveErr := r.saveLocked(ctx)
	n := len(r.contests)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("contest", "add")
	r.opts.logger.Info().Str("id", c.ID).Str("name", c.Name).Msg("Contest added")
	out := c.Clone()
	r.bus.Emit(EventAdded, ContestEvent{Type: EventAdded, Contest: &out, Count: 1})
	return c.ID, saveErr
}

func (r *memContestRepository) Update(ctx context.Context, id string, patch ContestPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return fmt.Errorf("contest name cannot be blank: %w", common.ErrValidation)
	}
	if patch.Date != nil && !model.ValidDate(*patch.Date) {
		return fmt.Errorf("invalid contest date %q: %w", *patch.Date, common.ErrValidation)
	}
	if patch.Rank != nil {
		if rank := strings.TrimSpace(*patch.Rank); rank != "" && !rankRe.MatchString(rank) {
			return fmt.Errorf("rank must look like \"100/2000\", got %q: %w", *patch.Rank, common.ErrValidation)
		}
	}
	if patch.TotalProblems != nil {
		if err := validateTotalProblems(*patch.TotalProblems); err != nil {
			return err
		}
	}

	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("contest %s: %w", id, common.ErrNotFound)
	}
	if patch.Name != nil {
		if other, ok := r.findByNameLocked(*patch.Name); ok && other.ID != id {
			r.mu.Unlock()
			return fmt.Errorf("contest %q already exists: %w", strings.TrimSpace(*patch.Name), common.ErrConflict)
		}
	}

	original := r.contests[i].Clone()
	c := r.contests[i].Clone()
	applyContestPatch(&c, patch)
	c.ID = original.ID
	c.AddedTime = original.AddedTime
	c.ModifiedTime = model.FormatTimestamp(r.opts.now())
	r.contests[i] = c
	saveErr := r.saveLocked(ctx)
	n := len(r.contests)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("contest", "update")
	out := c.Clone()
	r.bus.Emit(EventUpdated, ContestEvent{Type: EventUpdated, Contest: &out, Original: &original, Count: 1})
	return saveErr
}

func applyContestPatch(c *model.Contest, p ContestPatch) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Platform != nil {
		c.Platform = strings.TrimSpace(*p.Platform)
		if c.Platform == "" {
			c.Platform = DefaultPlatform
		}
	}
	if p.Date != nil {
		c.Date = strings.TrimSpace(*p.Date)
	}
	if p.URL != nil {
		c.URL = strings.TrimSpace(*p.URL)
	}
	if p.PDFPath != nil {
		c.PDFPath = common.NormalizeRelativePath(*p.PDFPath)
	}
	if p.SummaryPath != nil {
		c.SummaryPath = common.NormalizeRelativePath(*p.SummaryPath)
	}
	if p.Rank != nil {
		c.Rank = strings.TrimSpace(*p.Rank)
	}
	if p.Notes != nil {
		c.Notes = strings.TrimSpace(*p.Notes)
	}

	listChanged := false
	if p.Problems != nil {
		c.Problems = normalizeContestProblems(*p.Problems)
		c.TotalProblems = len(c.Problems)
		listChanged = true
	}
	if p.TotalProblems != nil {
		total := max(*p.TotalProblems, 0)
		if total != c.TotalProblems {
			c.Problems = model.SubProblemLetters(total)
			listChanged = true
		}
		c.TotalProblems = total
	}

	switch {
	case listChanged:
		recorded := 0
		if p.Solved != nil {
			recorded = max(*p.Solved, 0)
		}
		c.Solved = reconcileSolved(c, recorded)
	case p.Solved != nil:
		c.Solved = reconcileSolved(c, max(*p.Solved, 0))
	}
}

// reconcileSolved keeps solved equal to the solved sub-records. A contest
// without lettered sub-records keeps the tally it was given.
func reconcileSolved(c *model.Contest, recorded int) int {
	if len(c.Problems) == 0 {
		return recorded
	}
	return c.SolvedFromProblems()
}

func normalizeContestProblems(in []model.ContestProblem) []model.ContestProblem {
	out := make([]model.ContestProblem, len(in))
	for i, p := range in {
		p.PDFPath = common.NormalizeRelativePath(p.PDFPath)
		p.SolutionPath = common.NormalizeRelativePath(p.SolutionPath)
		if p.Index == "" {
			p.Index = model.Letter(i)
		}
		if p.Status != model.SubProblemSolved {
			p.Status = model.SubProblemUnsolved
		}
		out[i] = p
	}
	return out
}

// normalizeImportedContest applies the path and status rules of Add and
// re-derives solved from the lettered list.
func normalizeImportedContest(in model.Contest) model.Contest {
	c := in.Clone()
	c.PDFPath = common.NormalizeRelativePath(c.PDFPath)
	c.SummaryPath = common.NormalizeRelativePath(c.SummaryPath)
	if c.Problems == nil {
		c.Problems = []model.ContestProblem{}
	} else {
		c.Problems = normalizeContestProblems(c.Problems)
	}
	if c.Files != nil {
		for _, a := range []*model.FileArtifact{c.Files.Statement, c.Files.Solution, c.Files.Summary} {
			if a != nil {
				a.Path = common.NormalizeRelativePath(a.Path)
			}
		}
	}
	for i := range c.Solutions {
		c.Solutions[i].Path = common.NormalizeRelativePath(c.Solutions[i].Path)
	}
	c.Solved = reconcileSolved(&c, max(c.Solved, 0))
	return c
}

// UpdateProblem changes one lettered sub-record. index is either a
// zero-based position or a letter.
func (r *memContestRepository) UpdateProblem(ctx context.Context, id, index string, patch ContestProblemPatch) error {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("contest %s: %w", id, common.ErrNotFound)
	}
	c := r.contests[i].Clone()
	pos := resolveProblemPosition(&c, index)
	if pos < 0 {
		r.mu.Unlock()
		return fmt.Errorf("contest %s has no problem %q: %w", id, index, common.ErrNotFound)
	}

	p := c.Problems[pos]
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Status != nil {
		p.Status = *patch.Status
		if p.Status != model.SubProblemSolved {
			p.Status = model.SubProblemUnsolved
		}
	}
	if patch.PDFPath != nil {
		p.PDFPath = common.NormalizeRelativePath(*patch.PDFPath)
	}
	if patch.SolutionPath != nil {
		p.SolutionPath = common.NormalizeRelativePath(*patch.SolutionPath)
	}
	c.Problems[pos] = p
	c.ModifiedTime = model.FormatTimestamp(r.opts.now())
	c.Solved = c.SolvedFromProblems()
	r.contests[i] = c
	saveErr := r.saveLocked(ctx)
	n := len(r.contests)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("contest", "update_problem")
	out := c.Clone()
	r.bus.Emit(EventProblemUpdated, ContestEvent{Type: EventProblemUpdated, Contest: &out, ProblemIndex: pos, Count: 1})
	return saveErr
}

func resolveProblemPosition(c *model.Contest, index string) int {
	index = strings.TrimSpace(index)
	if n, err := strconv.Atoi(index); err == nil {
		if n >= 0 && n < len(c.Problems) {
			return n
		}
		return -1
	}
	return c.ProblemPosition(index)
}

func (r *memContestRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("contest %s: %w", id, common.ErrNotFound)
	}
	deleted := r.contests[i].Clone()
	r.contests = slices.Delete(r.contests, i, i+1)
	saveErr := r.saveLocked(ctx)
	n := len(r.contests)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("contest", "delete")
	r.opts.logger.Info().Str("id", id).Str("name", deleted.Name).Msg("Contest deleted")
	r.bus.Emit(EventDeleted, ContestEvent{Type: EventDeleted, Contest: &deleted, Count: 1})
	return saveErr
}

func (r *memContestRepository) Find(id string) (model.Contest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.contests[i].Clone(), true
	}
	return model.Contest{}, false
}

func (r *memContestRepository) FindByName(name string) (model.Contest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.findByNameLocked(name)
	if !ok {
		return model.Contest{}, false
	}
	return c.Clone(), true
}

func (r *memContestRepository) All() []model.Contest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneContests(r.contests)
}

func (r *memContestRepository) Export() []model.Contest { return r.All() }

func (r *memContestRepository) Filter(f ContestFilter) []model.Contest {
	from, hasFrom := model.ParseDate(f.DateFrom)
	to, hasTo := model.ParseDate(f.DateTo)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Contest{}
	for _, c := range r.contests {
		if f.Platform != "" && c.Platform != f.Platform {
			continue
		}
		// Records with unparseable dates are not excluded by a range.
		if d, ok := model.ParseDate(c.Date); ok {
			if hasFrom && d.Before(from) {
				continue
			}
			if hasTo && d.After(to) {
				continue
			}
		}
		if search != "" {
			haystack := strings.ToLower(strings.Join([]string{c.Name, c.Platform, c.Notes, c.Rank}, " "))
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		if f.MinSolved != nil && c.Solved < *f.MinSolved {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}

// Sort returns a sorted copy. Date keys compare as dates, text keys with
// collation, counts numerically. Order defaults to descending.
func (r *memContestRepository) Sort(key, order string) []model.Contest {
	out := r.All()
	if key == "" {
		key = "date"
	}
	desc := descending(order)
	col := newCollator()

	slices.SortStableFunc(out, func(a, b model.Contest) int {
		var res int
		switch key {
		case "date", "addedTime", "modifiedTime":
			res = cmpTime(model.SortTime(contestField(a, key)), model.SortTime(contestField(b, key)))
		case "solved":
			res = cmpInt(a.Solved, b.Solved)
		case "totalProblems":
			res = cmpInt(a.TotalProblems, b.TotalProblems)
		default:
			res = col.CompareString(contestField(a, key), contestField(b, key))
		}
		if desc {
			return -res
		}
		return res
	})
	return out
}

func contestField(c model.Contest, key string) string {
	switch key {
	case "date":
		return c.Date
	case "addedTime":
		return c.AddedTime
	case "modifiedTime":
		return c.ModifiedTime
	case "name":
		return c.Name
	case "platform":
		return c.Platform
	case "rank":
		return c.Rank
	case "url":
		return c.URL
	case "notes":
		return c.Notes
	case "id":
		return c.ID
	}
	return ""
}

// Import merges records whose id and (name, date) pair are both new. Every
// record must carry id, name and date or nothing is merged.
func (r *memContestRepository) Import(ctx context.Context, coll model.ContestCollection) (model.ImportResult, error) {
	if coll.Contests == nil {
		return model.ImportResult{}, fmt.Errorf("import has no contests array: %w", common.ErrValidation)
	}
	for i, c := range coll.Contests {
		if c.ID == "" || c.Name == "" || c.Date == "" {
			return model.ImportResult{}, fmt.Errorf("imported contest #%d lacks id, name or date: %w", i, common.ErrValidation)
		}
	}

	r.mu.Lock()
	added := 0
	for _, in := range coll.Contests {
		exists := slices.ContainsFunc(r.contests, func(c model.Contest) bool {
			return c.ID == in.ID || (c.Name == in.Name && c.Date == in.Date)
		})
		if exists {
			continue
		}
		r.contests = append(r.contests, normalizeImportedContest(in))
		added++
	}
	var saveErr error
	if added > 0 {
		saveErr = r.saveLocked(ctx)
	}
	n := len(r.contests)
	r.mu.Unlock()
	if added > 0 {
		r.emitSaved(saveErr, n)
	}

	result := model.ImportResult{Success: true, AddedCount: added, TotalCount: len(coll.Contests)}
	if added > 0 {
		r.opts.metrics.IncMutation("contest", "import")
		r.bus.Emit(EventImported, ContestEvent{Type: EventImported, Count: added})
	}
	return result, saveErr
}

func (r *memContestRepository) Reload(ctx context.Context) error {
	contests, err := r.store.LoadContests(ctx)
	if err != nil {
		return fmt.Errorf("memContestRepository.Reload: %w", err)
	}
	r.mu.Lock()
	r.contests = contests
	r.initialized = true
	n := len(contests)
	r.mu.Unlock()

	r.bus.Emit(EventReloaded, ContestEvent{Type: EventReloaded, Count: n})
	return nil
}

func (r *memContestRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	cleared := len(r.contests)
	r.contests = []model.Contest{}
	saveErr := r.saveLocked(ctx)
	r.mu.Unlock()
	r.emitSaved(saveErr, 0)

	r.opts.metrics.IncMutation("contest", "clear")
	r.opts.logger.Info().Int("count", cleared).Msg("All contests cleared")
	r.bus.Emit(EventCleared, ContestEvent{Type: EventCleared, Count: cleared})
	return saveErr
}

// SetContestRecord replaces the scoreboard record. The record's own totals
// are recomputed from its results; the sub-record tally is left alone.
func (r *memContestRepository) SetContestRecord(ctx context.Context, id string, rec model.ContestRecord) error {
	rec = rec.Clone()
	if rec.ProblemResults == nil {
		rec.ProblemResults = map[string]model.ProblemResult{}
	}
	rec.SolvedCount, rec.TotalPenalty = 0, 0
	for _, res := range rec.ProblemResults {
		if res.Status == model.ResultAC {
			rec.SolvedCount++
			if res.ACTime != nil {
				rec.TotalPenalty += *res.ACTime
			}
			rec.TotalPenalty += res.Penalty
		}
	}
	return r.mutate(ctx, id, "set_record", func(c *model.Contest) error {
		c.ContestRecord = &rec
		return nil
	})
}

func (r *memContestRepository) SetGeneratedProblems(ctx context.Context, id string, ids []string) error {
	ids = append([]string(nil), ids...)
	return r.mutate(ctx, id, "set_generated", func(c *model.Contest) error {
		c.GeneratedProblems = ids
		return nil
	})
}

// AppendNote adds a paragraph to the contest notes.
func (r *memContestRepository) AppendNote(ctx context.Context, id, note string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	return r.mutate(ctx, id, "append_note", func(c *model.Contest) error {
		if c.Notes == "" {
			c.Notes = note
		} else {
			c.Notes += "\n\n" + note
		}
		return nil
	})
}

func (r *memContestRepository) SetFiles(ctx context.Context, id string, files model.ContestFiles) error {
	files = *model.Contest{Files: &files}.Clone().Files
	for _, a := range []*model.FileArtifact{files.Statement, files.Solution, files.Summary} {
		if a != nil {
			a.Path = common.NormalizeRelativePath(a.Path)
		}
	}
	return r.mutate(ctx, id, "set_files", func(c *model.Contest) error {
		c.Files = &files
		return nil
	})
}

func (r *memContestRepository) SetSolutions(ctx context.Context, id string, solutions []model.Solution) error {
	cp := model.Contest{Solutions: solutions}.Clone().Solutions
	return r.mutate(ctx, id, "set_solutions", func(c *model.Contest) error {
		c.Solutions = cp
		return nil
	})
}

// mutate applies fn to a copy of the contest, stamps modifiedTime, persists
// and emits updated.
func (r *memContestRepository) mutate(ctx context.Context, id, op string, fn func(*model.Contest) error) error {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("contest %s: %w", id, common.ErrNotFound)
	}
	original := r.contests[i].Clone()
	c := r.contests[i].Clone()
	if err := fn(&c); err != nil {
		r.mu.Unlock()
		return err
	}
	c.ModifiedTime = model.FormatTimestamp(r.opts.now())
	r.contests[i] = c
	saveErr := r.saveLocked(ctx)
	n := len(r.contests)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("contest", op)
	out := c.Clone()
	r.bus.Emit(EventUpdated, ContestEvent{Type: EventUpdated, Contest: &out, Original: &original, Count: 1})
	return saveErr
}

func (r *memContestRepository) saveLocked(ctx context.Context) error {
	if !r.initialized {
		r.opts.logger.Warn().Msg("Contest repository not initialized, change kept in memory only")
		return fmt.Errorf("contests were never loaded, change kept for this session only: %w", common.ErrStorage)
	}
	return r.store.SaveContests(ctx, cloneContests(r.contests))
}

// emitSaved runs after the lock is released so handlers may read back.
func (r *memContestRepository) emitSaved(saveErr error, n int) {
	if saveErr == nil {
		r.bus.Emit(EventSaved, ContestEvent{Type: EventSaved, Count: n})
	}
}

func (r *memContestRepository) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(r.contests, func(c model.Contest) bool { return c.ID == id })
}

func (r *memContestRepository) findByNameLocked(name string) (model.Contest, bool) {
	name = strings.TrimSpace(name)
	for _, c := range r.contests {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c, true
		}
	}
	return model.Contest{}, false
}

func cloneContests(in []model.Contest) []model.Contest {
	out := make([]model.Contest, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
