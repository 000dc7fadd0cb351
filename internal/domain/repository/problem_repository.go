package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/common/events"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

// Accepted rating range for user-entered difficulties.
const (
	MinDifficulty = 800
	MaxDifficulty = 3500
)

type ProblemStore interface {
	LoadProblems(ctx context.Context) ([]model.Problem, error)
	SaveProblems(ctx context.Context, problems []model.Problem) error
}

type ProblemEvent struct {
	Type     string         `json:"type"`
	Problem  *model.Problem `json:"problem,omitempty"`
	Original *model.Problem `json:"original,omitempty"`
	Count    int            `json:"count"`
}

type ProblemInput struct {
	Title        string              `json:"title"`
	Platform     string              `json:"platform"`
	Difficulty   *int                `json:"difficulty"`
	Status       model.ProblemStatus `json:"status"`
	Tags         TagInput            `json:"tags"`
	URL          string              `json:"url"`
	ContestID    string              `json:"contestId"`
	ProblemIndex string              `json:"problemIndex"`
	PDFPath      string              `json:"pdfPath"`
	SolutionPath string              `json:"solutionPath"`
	Notes        string              `json:"notes"`
}

// ProblemPatch lists the fields an update may change. Difficulty
// distinguishes "leave alone" from an explicit null.
type ProblemPatch struct {
	Title         *string              `json:"title,omitempty"`
	Platform      *string              `json:"platform,omitempty"`
	Difficulty    Nullable[int]        `json:"difficulty"`
	Status        *model.ProblemStatus `json:"status,omitempty"`
	Tags          *TagInput            `json:"tags,omitempty"`
	URL           *string              `json:"url,omitempty"`
	ContestID     *string              `json:"contestId,omitempty"`
	ProblemIndex  *string              `json:"problemIndex,omitempty"`
	ProblemLetter *string              `json:"problemLetter,omitempty"`
	PDFPath       *string              `json:"pdfPath,omitempty"`
	SolutionPath  *string              `json:"solutionPath,omitempty"`
	Notes         *string              `json:"notes,omitempty"`
}

type ProblemFilter struct {
	Platform      string   `json:"platform"`
	Status        string   `json:"status"`
	MinDifficulty *int     `json:"minDifficulty"`
	MaxDifficulty *int     `json:"maxDifficulty"`
	Tags          []string `json:"tags"`
	ContestID     string   `json:"contestId"`
	Search        string   `json:"search"`
}

type ProblemRepository interface {
	Initialize(ctx context.Context) error
	Add(ctx context.Context, in ProblemInput) (string, error)
	AddBatch(ctx context.Context, problems []model.Problem) error
	Update(ctx context.Context, id string, patch ProblemPatch) error
	Delete(ctx context.Context, id string) error

	Find(id string) (model.Problem, bool)
	FindByTitleAndPlatform(title, platform string) (model.Problem, bool)
	All() []model.Problem
	IDs() []string
	Filter(f ProblemFilter) []model.Problem
	Sort(key, order string) []model.Problem
	AllTags() []string

	Import(ctx context.Context, coll model.ProblemCollection) (model.ImportResult, error)
	Export() []model.Problem
	Reload(ctx context.Context) error
	Clear(ctx context.Context) error

	SetStatementFile(ctx context.Context, id string, artifact model.FileArtifact) error
	SetSolutionFile(ctx context.Context, id, authorKey string, sol model.AuthorSolution) error
	RemoveSolutionFile(ctx context.Context, id, authorKey string) error
	SetSolutions(ctx context.Context, id string, solutions []model.Solution) error

	Events() *events.Bus[ProblemEvent]
}

type memProblemRepository struct {
	mu          sync.RWMutex
	problems    []model.Problem
	tags        map[string]struct{}
	initialized bool

	store ProblemStore
	bus   *events.Bus[ProblemEvent]
	opts  options
}

func NewProblemRepository(store ProblemStore, opts ...Option) ProblemRepository {
	o := buildOptions("problem-repository", opts)
	bus := events.NewBus[ProblemEvent]()
	bus.OnPanic(func(event string, recovered any) {
		o.logger.Error().Str("event", event).Interface("panic", recovered).Msg("Problem event handler panicked")
	})
	return &memProblemRepository{
		problems: []model.Problem{},
		tags:     map[string]struct{}{},
		store:    store,
		bus:      bus,
		opts:     o,
	}
}

func (r *memProblemRepository) Events() *events.Bus[ProblemEvent] { return r.bus }

func (r *memProblemRepository) Initialize(ctx context.Context) error {
	problems, err := r.store.LoadProblems(ctx)

	r.mu.Lock()
	if err != nil {
		r.problems = []model.Problem{}
		r.rebuildTagsLocked()
		r.initialized = false
		r.mu.Unlock()
		r.opts.logger.Warn().Err(err).Msg("Problem repository starting empty")
		return fmt.Errorf("memProblemRepository.Initialize: %w", err)
	}
	r.problems = problems
	r.rebuildTagsLocked()
	r.initialized = true
	n := len(r.problems)
	r.mu.Unlock()

	r.opts.logger.Info().Int("count", n).Msg("Problem repository initialized")
	r.bus.Emit(EventInitialized, ProblemEvent{Type: EventInitialized, Count: n})
	return nil
}

func validDifficulty(d int) bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

func (r *memProblemRepository) Add(ctx context.Context, in ProblemInput) (string, error) {
	title := strings.TrimSpace(in.Title)
	platform := strings.TrimSpace(in.Platform)
	if title == "" || platform == "" {
		return "", fmt.Errorf("problem title and platform are required: %w", common.ErrValidation)
	}
	difficulty := in.Difficulty
	if difficulty != nil && *difficulty == 0 {
		difficulty = nil
	}
	if difficulty != nil && !validDifficulty(*difficulty) {
		return "", fmt.Errorf("difficulty %d outside %d-%d: %w", *difficulty, MinDifficulty, MaxDifficulty, common.ErrValidation)
	}
	status := model.ParseProblemStatus(string(in.Status))

	r.mu.Lock()
	if _, ok := r.findByTitleAndPlatformLocked(title, platform); ok {
		r.mu.Unlock()
		return "", fmt.Errorf("problem %q already exists on %s: %w", title, platform, common.ErrConflict)
	}

	now := r.opts.now()
	p := model.Problem{
		ID:           newID("problem", now),
		Title:        title,
		Platform:     platform,
		Status:       status,
		Tags:         ProcessTags(in.Tags),
		URL:          strings.TrimSpace(in.URL),
		ContestID:    strings.TrimSpace(in.ContestID),
		ProblemIndex: strings.TrimSpace(in.ProblemIndex),
		PDFPath:      common.NormalizeRelativePath(in.PDFPath),
		SolutionPath: common.NormalizeRelativePath(in.SolutionPath),
		Notes:        strings.TrimSpace(in.Notes),
		AddedTime:    model.FormatTimestamp(now),
	}
	if difficulty != nil {
		p.Difficulty = model.IntPtr(*difficulty)
	}
	if status == model.ProblemSolved {
		p.SolvedTime = model.StringPtr(model.FormatTimestamp(now))
	}
	r.problems = append(r.problems, p)
	r.rebuildTagsLocked()
	saveErr := r.saveLocked(ctx)
	n := len(r.problems)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("problem", "add")
	r.opts.logger.Info().Str("id", p.ID).Str("title", p.Title).Msg("Problem added")
	out := p.Clone()
	r.bus.Emit(EventAdded, ProblemEvent{Type: EventAdded, Problem: &out, Count: 1})
	return p.ID, saveErr
}

// AddBatch stores generated problems as they are. Their difficulty comes
// from platform templates and is not range checked. Any id already present
// rejects the whole batch.
func (r *memProblemRepository) AddBatch(ctx context.Context, problems []model.Problem) error {
	if len(problems) == 0 {
		return nil
	}
	batch := make([]model.Problem, 0, len(problems))
	seen := make(map[string]struct{}, len(problems))
	now := model.FormatTimestamp(r.opts.now())
	for _, p := range problems {
		if p.ID == "" {
			return fmt.Errorf("batch problem %q has no id: %w", p.Title, common.ErrValidation)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("batch repeats id %s: %w", p.ID, common.ErrConflict)
		}
		seen[p.ID] = struct{}{}
		p = p.Clone()
		p.Tags = ProcessTags(p.Tags)
		p.Status = model.ParseProblemStatus(string(p.Status))
		if p.AddedTime == "" {
			p.AddedTime = now
		}
		batch = append(batch, p)
	}

	r.mu.Lock()
	for _, p := range batch {
		if r.indexLocked(p.ID) >= 0 {
			r.mu.Unlock()
			return fmt.Errorf("problem id %s already exists: %w", p.ID, common.ErrConflict)
		}
	}
	r.problems = append(r.problems, batch...)
	r.rebuildTagsLocked()
	saveErr := r.saveLocked(ctx)
	n := len(r.problems)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("problem", "add_batch")
	for i := range batch {
		out := batch[i].Clone()
		r.bus.Emit(EventAdded, ProblemEvent{Type: EventAdded, Problem: &out, Count: 1})
	}
	return saveErr
}

func (r *memProblemRepository) Update(ctx context.Context, id string, patch ProblemPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return fmt.Errorf("problem title cannot be blank: %w", common.ErrValidation)
	}
	if patch.Platform != nil && strings.TrimSpace(*patch.Platform) == "" {
		return fmt.Errorf("problem platform cannot be blank: %w", common.ErrValidation)
	}
	if patch.Difficulty.Value != nil && *patch.Difficulty.Value != 0 && !validDifficulty(*patch.Difficulty.Value) {
		return fmt.Errorf("difficulty %d outside %d-%d: %w", *patch.Difficulty.Value, MinDifficulty, MaxDifficulty, common.ErrValidation)
	}

	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("problem %s: %w", id, common.ErrNotFound)
	}
	original := r.problems[i].Clone()
	p := r.problems[i].Clone()
	now := model.FormatTimestamp(r.opts.now())
	applyProblemPatch(&p, patch, now)
	p.ID = original.ID
	p.AddedTime = original.AddedTime
	p.ModifiedTime = now
	r.problems[i] = p
	r.rebuildTagsLocked()
	saveErr := r.saveLocked(ctx)
	n := len(r.problems)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("problem", "update")
	out := p.Clone()
	r.bus.Emit(EventUpdated, ProblemEvent{Type: EventUpdated, Problem: &out, Original: &original, Count: 1})
	return saveErr
}

func applyProblemPatch(p *model.Problem, patch ProblemPatch, now string) {
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Platform != nil {
		p.Platform = strings.TrimSpace(*patch.Platform)
	}
	if patch.Difficulty.Set {
		p.Difficulty = nil
		if v := patch.Difficulty.Value; v != nil && *v != 0 {
			p.Difficulty = model.IntPtr(*v)
		}
	}
	if patch.Tags != nil {
		p.Tags = ProcessTags(*patch.Tags)
	}
	if patch.URL != nil {
		p.URL = strings.TrimSpace(*patch.URL)
	}
	if patch.ContestID != nil {
		p.ContestID = strings.TrimSpace(*patch.ContestID)
	}
	if patch.ProblemIndex != nil {
		p.ProblemIndex = strings.TrimSpace(*patch.ProblemIndex)
	}
	if patch.ProblemLetter != nil {
		p.ProblemLetter = strings.TrimSpace(*patch.ProblemLetter)
	}
	if patch.PDFPath != nil {
		p.PDFPath = common.NormalizeRelativePath(*patch.PDFPath)
	}
	if patch.SolutionPath != nil {
		p.SolutionPath = common.NormalizeRelativePath(*patch.SolutionPath)
	}
	if patch.Notes != nil {
		p.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.Status != nil {
		next := model.ParseProblemStatus(string(*patch.Status))
		switch {
		case next == model.ProblemSolved && p.Status != model.ProblemSolved:
			p.SolvedTime = model.StringPtr(now)
		case next == model.ProblemUnsolved:
			p.SolvedTime = nil
		}
		p.Status = next
	}
}

func (r *memProblemRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("problem %s: %w", id, common.ErrNotFound)
	}
	deleted := r.problems[i].Clone()
	r.problems = slices.Delete(r.problems, i, i+1)
	r.rebuildTagsLocked()
	saveErr := r.saveLocked(ctx)
	n := len(r.problems)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("problem", "delete")
	r.opts.logger.Info().Str("id", id).Str("title", deleted.Title).Msg("Problem deleted")
	r.bus.Emit(EventDeleted, ProblemEvent{Type: EventDeleted, Problem: &deleted, Count: 1})
	return saveErr
}

// Find tries the exact id, then the "{contestId}-{letter}" form generated
// links use, then containment either way for legacy ids.
func (r *memProblemRepository) Find(id string) (model.Problem, bool) {
	if id == "" {
		return model.Problem{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexLocked(id); i >= 0 {
		return r.problems[i].Clone(), true
	}
	for _, p := range r.problems {
		if letter := p.Letter(); p.ContestID != "" && letter != "" {
			if p.ContestID+"-"+strings.ToLower(letter) == id {
				return p.Clone(), true
			}
		}
	}
	for _, p := range r.problems {
		if p.ID != "" && (strings.Contains(p.ID, id) || strings.Contains(id, p.ID)) {
			return p.Clone(), true
		}
	}
	r.opts.logger.Debug().Str("id", id).Int("candidates", len(r.problems)).Msg("Problem not found")
	return model.Problem{}, false
}

func (r *memProblemRepository) FindByTitleAndPlatform(title, platform string) (model.Problem, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.findByTitleAndPlatformLocked(title, platform)
	if !ok {
		return model.Problem{}, false
	}
	return p.Clone(), true
}

func (r *memProblemRepository) All() []model.Problem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneProblems(r.problems)
}

func (r *memProblemRepository) Export() []model.Problem { return r.All() }

func (r *memProblemRepository) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.problems))
	for i, p := range r.problems {
		ids[i] = p.ID
	}
	return ids
}

func (r *memProblemRepository) Filter(f ProblemFilter) []model.Problem {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var status model.ProblemStatus
	if f.Status != "" {
		status = model.ParseProblemStatus(f.Status)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Problem{}
	for _, p := range r.problems {
		if f.Platform != "" && p.Platform != f.Platform {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		if f.MinDifficulty != nil || f.MaxDifficulty != nil {
			if p.Difficulty == nil {
				continue
			}
			if f.MinDifficulty != nil && *p.Difficulty < *f.MinDifficulty {
				continue
			}
			if f.MaxDifficulty != nil && *p.Difficulty > *f.MaxDifficulty {
				continue
			}
		}
		if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, func(t string) bool { return slices.Contains(p.Tags, t) }) {
			continue
		}
		if f.ContestID != "" && p.ContestID != f.ContestID {
			continue
		}
		if search != "" {
			fields := append([]string{p.Title, p.Platform}, p.Tags...)
			fields = append(fields, p.Notes, p.ProblemIndex)
			if !strings.Contains(strings.ToLower(strings.Join(fields, " ")), search) {
				continue
			}
		}
		out = append(out, p.Clone())
	}
	return out
}

// Sort returns a sorted copy; the default key is addedTime, descending.
// Missing timestamps sort as the epoch and a missing difficulty as 0.
func (r *memProblemRepository) Sort(key, order string) []model.Problem {
	out := r.All()
	if key == "" {
		key = "addedTime"
	}
	desc := descending(order)
	col := newCollator()

	slices.SortStableFunc(out, func(a, b model.Problem) int {
		var res int
		switch key {
		case "addedTime", "modifiedTime", "solvedTime":
			res = cmpTime(model.SortTime(problemField(a, key)), model.SortTime(problemField(b, key)))
		case "difficulty":
			res = cmpInt(a.DifficultyOrZero(), b.DifficultyOrZero())
		default:
			res = col.CompareString(problemField(a, key), problemField(b, key))
		}
		if desc {
			return -res
		}
		return res
	})
	return out
}

func problemField(p model.Problem, key string) string {
	switch key {
	case "addedTime":
		if p.AddedTime == "" {
			return p.AddedDate
		}
		return p.AddedTime
	case "modifiedTime":
		return p.ModifiedTime
	case "solvedTime":
		if p.SolvedTime == nil {
			return ""
		}
		return *p.SolvedTime
	case "title":
		return p.Title
	case "platform":
		return p.Platform
	case "status":
		return string(p.Status)
	case "url":
		return p.URL
	case "notes":
		return p.Notes
	case "contestId":
		return p.ContestID
	case "id":
		return p.ID
	}
	return ""
}

func (r *memProblemRepository) AllTags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tags))
	for t := range r.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Import merges problems whose id and (title, platform) pair are both new.
func (r *memProblemRepository) Import(ctx context.Context, coll model.ProblemCollection) (model.ImportResult, error) {
	if coll.Problems == nil {
		return model.ImportResult{}, fmt.Errorf("import has no problems array: %w", common.ErrValidation)
	}
	for i, p := range coll.Problems {
		if p.ID == "" || p.Title == "" || p.Platform == "" {
			return model.ImportResult{}, fmt.Errorf("imported problem #%d lacks id, title or platform: %w", i, common.ErrValidation)
		}
	}

	r.mu.Lock()
	added := 0
	for _, in := range coll.Problems {
		if r.indexLocked(in.ID) >= 0 {
			continue
		}
		if _, dup := r.findByTitleAndPlatformLocked(in.Title, in.Platform); dup {
			continue
		}
		r.problems = append(r.problems, normalizeImportedProblem(in))
		added++
	}
	var saveErr error
	if added > 0 {
		r.rebuildTagsLocked()
		saveErr = r.saveLocked(ctx)
	}
	n := len(r.problems)
	r.mu.Unlock()

	if added > 0 {
		r.emitSaved(saveErr, n)
		r.opts.metrics.IncMutation("problem", "import")
		r.bus.Emit(EventImported, ProblemEvent{Type: EventImported, Count: added})
	}
	return model.ImportResult{Success: true, AddedCount: added, TotalCount: len(coll.Problems)}, saveErr
}

// normalizeImportedProblem applies the same tag, status and path rules as
// Add. Records that already follow them come back unchanged.
func normalizeImportedProblem(in model.Problem) model.Problem {
	p := in.Clone()
	if p.Tags != nil {
		p.Tags = ProcessTags(p.Tags)
	}
	p.Status = model.ParseProblemStatus(string(p.Status))
	p.PDFPath = common.NormalizeRelativePath(p.PDFPath)
	p.SolutionPath = common.NormalizeRelativePath(p.SolutionPath)
	if p.Files != nil {
		if st := p.Files.Statement; st != nil {
			st.Path = common.NormalizeRelativePath(st.Path)
		}
		for key, sol := range p.Files.Solutions {
			sol.Path = common.NormalizeRelativePath(sol.Path)
			p.Files.Solutions[key] = sol
		}
	}
	for i := range p.Solutions {
		p.Solutions[i].Path = common.NormalizeRelativePath(p.Solutions[i].Path)
	}
	return p
}

func (r *memProblemRepository) Reload(ctx context.Context) error {
	problems, err := r.store.LoadProblems(ctx)
	if err != nil {
		return fmt.Errorf("memProblemRepository.Reload: %w", err)
	}
	r.mu.Lock()
	r.problems = problems
	r.rebuildTagsLocked()
	r.initialized = true
	n := len(problems)
	r.mu.Unlock()

	r.bus.Emit(EventReloaded, ProblemEvent{Type: EventReloaded, Count: n})
	return nil
}

func (r *memProblemRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	cleared := len(r.problems)
	r.problems = []model.Problem{}
	r.rebuildTagsLocked()
	saveErr := r.saveLocked(ctx)
	r.mu.Unlock()
	r.emitSaved(saveErr, 0)

	r.opts.metrics.IncMutation("problem", "clear")
	r.opts.logger.Info().Int("count", cleared).Msg("All problems cleared")
	r.bus.Emit(EventCleared, ProblemEvent{Type: EventCleared, Count: cleared})
	return saveErr
}

func (r *memProblemRepository) SetStatementFile(ctx context.Context, id string, artifact model.FileArtifact) error {
	artifact.Path = common.NormalizeRelativePath(artifact.Path)
	return r.mutate(ctx, id, "set_statement", func(p *model.Problem) error {
		if p.Files == nil {
			p.Files = &model.ProblemFiles{}
		}
		p.Files.Statement = &artifact
		return nil
	})
}

func (r *memProblemRepository) SetSolutionFile(ctx context.Context, id, authorKey string, sol model.AuthorSolution) error {
	authorKey = strings.TrimSpace(authorKey)
	if authorKey == "" {
		return fmt.Errorf("solution author key is required: %w", common.ErrValidation)
	}
	sol.Path = common.NormalizeRelativePath(sol.Path)
	return r.mutate(ctx, id, "set_solution_file", func(p *model.Problem) error {
		if p.Files == nil {
			p.Files = &model.ProblemFiles{}
		}
		if p.Files.Solutions == nil {
			p.Files.Solutions = map[string]model.AuthorSolution{}
		}
		p.Files.Solutions[authorKey] = sol
		return nil
	})
}

// RemoveSolutionFile deletes one author's solution. The official entry is
// protected.
func (r *memProblemRepository) RemoveSolutionFile(ctx context.Context, id, authorKey string) error {
	if authorKey == model.OfficialAuthor {
		return fmt.Errorf("the official solution cannot be removed: %w", common.ErrValidation)
	}
	return r.mutate(ctx, id, "remove_solution_file", func(p *model.Problem) error {
		if p.Files == nil || p.Files.Solutions == nil {
			return fmt.Errorf("problem %s has no solution by %q: %w", id, authorKey, common.ErrNotFound)
		}
		if _, ok := p.Files.Solutions[authorKey]; !ok {
			return fmt.Errorf("problem %s has no solution by %q: %w", id, authorKey, common.ErrNotFound)
		}
		delete(p.Files.Solutions, authorKey)
		return nil
	})
}

func (r *memProblemRepository) SetSolutions(ctx context.Context, id string, solutions []model.Solution) error {
	cp := model.Problem{Solutions: solutions}.Clone().Solutions
	return r.mutate(ctx, id, "set_solutions", func(p *model.Problem) error {
		p.Solutions = cp
		return nil
	})
}

func (r *memProblemRepository) mutate(ctx context.Context, id, op string, fn func(*model.Problem) error) error {
	r.mu.Lock()
	i := r.indexLocked(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("problem %s: %w", id, common.ErrNotFound)
	}
	original := r.problems[i].Clone()
	p := r.problems[i].Clone()
	if err := fn(&p); err != nil {
		r.mu.Unlock()
		return err
	}
	p.ModifiedTime = model.FormatTimestamp(r.opts.now())
	r.problems[i] = p
	saveErr := r.saveLocked(ctx)
	n := len(r.problems)
	r.mu.Unlock()
	r.emitSaved(saveErr, n)

	r.opts.metrics.IncMutation("problem", op)
	out := p.Clone()
	r.bus.Emit(EventUpdated, ProblemEvent{Type: EventUpdated, Problem: &out, Original: &original, Count: 1})
	return saveErr
}

func (r *memProblemRepository) saveLocked(ctx context.Context) error {
	if !r.initialized {
		r.opts.logger.Warn().Msg("Problem repository not initialized, change kept in memory only")
		return fmt.Errorf("problems were never loaded, change kept for this session only: %w", common.ErrStorage)
	}
	return r.store.SaveProblems(ctx, cloneProblems(r.problems))
}

func (r *memProblemRepository) emitSaved(saveErr error, n int) {
	if saveErr == nil {
		r.bus.Emit(EventSaved, ProblemEvent{Type: EventSaved, Count: n})
	}
}

func (r *memProblemRepository) rebuildTagsLocked() {
	r.tags = make(map[string]struct{})
	for _, p := range r.problems {
		for _, t := range p.Tags {
			r.tags[t] = struct{}{}
		}
	}
}

func (r *memProblemRepository) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(r.problems, func(p model.Problem) bool { return p.ID == id })
}

func (r *memProblemRepository) findByTitleAndPlatformLocked(title, platform string) (model.Problem, bool) {
	title = strings.TrimSpace(title)
	for _, p := range r.problems {
		if strings.EqualFold(strings.TrimSpace(p.Title), title) && p.Platform == platform {
			return p, true
		}
	}
	return model.Problem{}, false
}

func cloneProblems(in []model.Problem) []model.Problem {
	out := make([]model.Problem, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
