package service

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
	"github.com/zyn-615/ACM-Transit-Template/internal/platform/probe"
)

const (
	DefaultProbeCacheTTL = 30 * time.Second
	DefaultProbeTimeout  = 3 * time.Second

	batchProbeLimit = 8
)

var (
	authorUnsafeRe = regexp.MustCompile(`[^a-z0-9\x{4e00}-\x{9fa5}]`)
	dashRunRe      = regexp.MustCompile(`-+`)
)

// ContestPaths is the fixed file layout of a contest folder.
type ContestPaths struct {
	Statement string `json:"statement"`
	Solution  string `json:"solution"`
	Summary   string `json:"summary"`
}

// ProblemPaths is the file layout of a problem folder, one solution per
// author folder.
type ProblemPaths struct {
	Statement string            `json:"statement"`
	Solutions map[string]string `json:"solutions"`
}

type FileStatus struct {
	Path        string               `json:"path"`
	Exists      bool                 `json:"exists"`
	Status      model.ArtifactStatus `json:"status"`
	LastChecked string               `json:"lastChecked"`
}

type AuthorFileStatus struct {
	FileStatus
	Author       string `json:"author"`
	AuthorFolder string `json:"authorFolder"`
}

type ContestFileStatus struct {
	Statement FileStatus `json:"statement"`
	Solution  FileStatus `json:"solution"`
	Summary   FileStatus `json:"summary"`
}

type ProblemFileStatus struct {
	Statement FileStatus                  `json:"statement"`
	Solutions map[string]AuthorFileStatus `json:"solutions"`
}

type CacheStats struct {
	Total        int   `json:"total"`
	Valid        int   `json:"valid"`
	Expired      int   `json:"expired"`
	CacheTimeout int64 `json:"cacheTimeout"`
}

// UploadGuidance tells a user where to copy a file by hand.
type UploadGuidance struct {
	TargetPath          string   `json:"targetPath"`
	AbsolutePath        string   `json:"absolutePath"`
	Instructions        []string `json:"instructions"`
	FolderPath          string   `json:"folderPath"`
	FileName            string   `json:"fileName"`
	CreateFolderCommand string   `json:"createFolderCommand"`
}

type FileServiceConfig struct {
	// BaseDir is the directory holding the files/ tree; guidance resolves
	// relative paths against it.
	BaseDir  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

type probeEntry struct {
	exists  bool
	checked time.Time
}

// FileService derives artifact paths and answers, with a short-lived cache,
// whether the files behind them exist.
type FileService struct {
	prober  probe.Prober
	baseDir string
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Metrics

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]probeEntry
}

func NewFileService(prober probe.Prober, cfg FileServiceConfig, logger zerolog.Logger, m *metrics.Metrics) *FileService {
	if m == nil {
		m = metrics.Nop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultProbeCacheTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultProbeTimeout
	}
	base := cfg.BaseDir
	if base == "" {
		base = "."
	}
	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	return &FileService{
		prober:  prober,
		baseDir: filepath.ToSlash(base),
		ttl:     cfg.CacheTTL,
		timeout: cfg.Timeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "files").Logger(),
		metrics: m,
		cache:   map[string]probeEntry{},
	}
}

func (s *FileService) SetClock(now func() time.Time) { s.now = now }

func (s *FileService) ContestStructure(contestID string) ContestPaths {
	base := common.ContestFilesRoot + contestID + "/"
	return ContestPaths{
		Statement: base + "statement/contest.pdf",
		Solution:  base + "solution/editorial.pdf",
		Summary:   base + "summary/review.pdf",
	}
}

func (s *FileService) ProblemStructure(problemID string) ProblemPaths {
	base := common.ProblemFilesRoot + problemID + "/"
	return ProblemPaths{
		Statement: base + "statement/problem.pdf",
		Solutions: map[string]string{
			model.OfficialAuthor: s.AuthorSolutionPath(problemID, model.OfficialAuthor),
		},
	}
}

func (s *FileService) AuthorSolutionPath(problemID, author string) string {
	return AuthorSolutionPath(problemID, author)
}

// AuthorSolutionPath is where an author's solution for a problem lives.
func AuthorSolutionPath(problemID, author string) string {
	return common.ProblemFilesRoot + problemID + "/solution/" + SanitizeAuthor(author) + "/solution.pdf"
}

// SanitizeAuthor turns a display name into a folder name: lowercase, runs
// of anything but ASCII letters, digits and CJK ideographs collapsed to a
// single dash, no leading or trailing dash.
func SanitizeAuthor(name string) string {
	s := authorUnsafeRe.ReplaceAllString(strings.ToLower(name), "-")
	s = dashRunRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CheckFileStatus reports whether the file exists. Unsafe paths, probe
// errors and timeouts all count as missing. Concurrent checks of one path
// share a single probe.
func (s *FileService) CheckFileStatus(ctx context.Context, filePath string) bool {
	p := common.NormalizePath(filePath)
	if !common.ValidatePathSecurity(p) {
		s.logger.Warn().Str("path", filePath).Msg("Refusing to probe unsafe path")
		s.metrics.IncProbe("rejected")
		return false
	}

	s.mu.Lock()
	if e, ok := s.cache[p]; ok && s.now().Sub(e.checked) < s.ttl {
		s.mu.Unlock()
		s.metrics.IncProbe("cached")
		return e.exists
	}
	s.mu.Unlock()

	v, _, _ := s.group.Do(p, func() (any, error) {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		exists, err := s.prober.Exists(pctx, p)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", p).Msg("File check failed")
			s.metrics.IncProbe("error")
			return false, nil
		}
		if exists {
			s.metrics.IncProbe("exists")
		} else {
			s.metrics.IncProbe("missing")
		}

		s.mu.Lock()
		s.cache[p] = probeEntry{exists: exists, checked: s.now()}
		s.mu.Unlock()
		return exists, nil
	})
	return v.(bool)
}

func (s *FileService) status(ctx context.Context, p string) FileStatus {
	exists := s.CheckFileStatus(ctx, p)
	return FileStatus{
		Path:        p,
		Exists:      exists,
		Status:      artifactStatus(exists),
		LastChecked: model.FormatTimestamp(s.now()),
	}
}

func artifactStatus(exists bool) model.ArtifactStatus {
	if exists {
		return model.ArtifactUploaded
	}
	return model.ArtifactPending
}

func (s *FileService) ScanContestFiles(ctx context.Context, contestID string) ContestFileStatus {
	paths := s.ContestStructure(contestID)
	return ContestFileStatus{
		Statement: s.status(ctx, paths.Statement),
		Solution:  s.status(ctx, paths.Solution),
		Summary:   s.status(ctx, paths.Summary),
	}
}

// ScanProblemFiles checks the statement and one solution per author; no
// authors means just the official one.
func (s *FileService) ScanProblemFiles(ctx context.Context, problemID string, authors []string) ProblemFileStatus {
	if len(authors) == 0 {
		authors = []string{model.OfficialAuthor}
	}
	out := ProblemFileStatus{
		Statement: s.status(ctx, s.ProblemStructure(problemID).Statement),
		Solutions: make(map[string]AuthorFileStatus, len(authors)),
	}
	for _, author := range authors {
		out.Solutions[author] = AuthorFileStatus{
			FileStatus:   s.status(ctx, s.AuthorSolutionPath(problemID, author)),
			Author:       author,
			AuthorFolder: SanitizeAuthor(author),
		}
	}
	return out
}

// BatchCheck probes every path concurrently, keyed by the path as given.
func (s *FileService) BatchCheck(ctx context.Context, paths []string) map[string]FileStatus {
	var (
		mu  sync.Mutex
		out = make(map[string]FileStatus, len(paths))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchProbeLimit)
	for _, p := range paths {
		g.Go(func() error {
			st := s.status(gctx, p)
			st.Path = p
			mu.Lock()
			out[p] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *FileService) ClearCache() {
	s.mu.Lock()
	n := len(s.cache)
	s.cache = map[string]probeEntry{}
	s.mu.Unlock()
	s.logger.Debug().Int("entries", n).Msg("File status cache cleared")
}

func (s *FileService) CacheStats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := CacheStats{Total: len(s.cache), CacheTimeout: s.ttl.Milliseconds()}
	for _, e := range s.cache {
		if now.Sub(e.checked) < s.ttl {
			stats.Valid++
		} else {
			stats.Expired++
		}
	}
	return stats
}

func (s *FileService) absolutePath(relative string) string {
	return strings.Replace(relative, common.FilesRoot, s.baseDir+"/files/", 1)
}

func folderOf(file string) string {
	if i := strings.LastIndex(file, "/"); i >= 0 {
		return file[:i]
	}
	return ""
}

func (s *FileService) UploadGuidance(targetPath, fileType string) UploadGuidance {
	if fileType == "" {
		fileType = "pdf"
	}
	abs := s.absolutePath(targetPath)
	folder := folderOf(targetPath)
	name := targetPath[strings.LastIndex(targetPath, "/")+1:]
	return UploadGuidance{
		TargetPath:   targetPath,
		AbsolutePath: abs,
		Instructions: []string{
			fmt.Sprintf("Copy your %s file to the following location:", fileType),
			"Relative path: " + targetPath,
			"Absolute path: " + abs,
			"Note: create the folder first if it does not exist",
		},
		FolderPath:          folder,
		FileName:            name,
		CreateFolderCommand: fmt.Sprintf("mkdir -p %q", s.absolutePath(folder)),
	}
}

// CreateFoldersScript renders a shell script creating the folders for a
// contest, a problem and its extra solution authors. Empty ids are skipped.
func (s *FileService) CreateFoldersScript(contestID, problemID string, authors []string) string {
	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("# Folder layout for the ACM transit station\n")
	b.WriteString("# Generated; adjust the paths as needed\n\n")

	mkdir := func(file string) {
		fmt.Fprintf(&b, "mkdir -p %q\n", folderOf(file))
	}

	if contestID != "" {
		paths := s.ContestStructure(contestID)
		fmt.Fprintf(&b, "# Contest folders: %s\n", contestID)
		mkdir(paths.Statement)
		mkdir(paths.Solution)
		mkdir(paths.Summary)
		b.WriteString("\n")
	}

	if problemID != "" {
		paths := s.ProblemStructure(problemID)
		fmt.Fprintf(&b, "# Problem folders: %s\n", problemID)
		mkdir(paths.Statement)
		mkdir(paths.Solutions[model.OfficialAuthor])
		for _, author := range authors {
			mkdir(s.AuthorSolutionPath(problemID, author))
		}
		b.WriteString("\n")
	}

	b.WriteString(`echo "Folder layout created"` + "\n")
	return b.String()
}
