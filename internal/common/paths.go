package common

import (
	"regexp"
	"strings"
)

var (
	filesPrefixRe = regexp.MustCompile(`^.*[/\\]files[/\\]`)
	slashRunRe    = regexp.MustCompile(`/{2,}`)
)

// Base folders every artifact path must live under.
const (
	FilesRoot        = "./files/"
	ContestFilesRoot = "./files/contests/"
	ProblemFilesRoot = "./files/problems/"
)

// NormalizeRelativePath rewrites a user-supplied artifact path into the
// canonical form stored on records: "./"-prefixed, forward slashes only,
// no "." or ".." segments. Anything up to a "files" folder is replaced by
// "./files/" so absolute paths from any machine collapse to the same value.
// URLs are returned trimmed but otherwise untouched. An empty input stays
// empty.
func NormalizeRelativePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.Contains(path, "://") {
		return path
	}

	path = filesPrefixRe.ReplaceAllString(path, FilesRoot)
	path = strings.ReplaceAll(path, `\`, "/")

	segments := strings.Split(path, "/")
	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".", "..":
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return ""
	}

	out := "./" + strings.Join(kept, "/")
	if strings.HasSuffix(path, "/") {
		out += "/"
	}
	return out
}

// NormalizePath is the lighter form used for probe paths: forward slashes,
// "./" prefix unless absolute, repeated slashes collapsed.
func NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	path = strings.ReplaceAll(path, `\`, "/")
	if !strings.HasPrefix(path, "./") && !strings.HasPrefix(path, "/") {
		path = "./" + path
	}
	return slashRunRe.ReplaceAllString(path, "/")
}

// ValidatePathSecurity rejects traversal, home-relative and absolute paths,
// and anything outside the contest and problem file trees.
func ValidatePathSecurity(path string) bool {
	if strings.Contains(path, "..") || strings.Contains(path, "~") || strings.HasPrefix(path, "/") {
		return false
	}
	return strings.HasPrefix(path, ContestFilesRoot) || strings.HasPrefix(path, ProblemFilesRoot)
}
