package repository

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxTags      = 10
	MaxTagLength = 20
)

var tagSplitRe = regexp.MustCompile(`[,，\s]+`)

// TagInput decodes either a JSON array of tags or one delimited string.
type TagInput []string

func (t *TagInput) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	*t = ParseTags(text)
	return nil
}

// ParseTags splits a free-form tag string on commas (ASCII or full-width)
// and whitespace.
func ParseTags(s string) []string {
	parts := tagSplitRe.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ProcessTags trims and lowercases tags, drops empty and over-long ones and
// duplicates, and keeps at most MaxTags.
func ProcessTags(in []string) []string {
	out := make([]string, 0, min(len(in), MaxTags))
	seen := make(map[string]struct{}, len(in))
	for _, tag := range in {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if n := utf8.RuneCountInString(tag); n == 0 || n > MaxTagLength {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
