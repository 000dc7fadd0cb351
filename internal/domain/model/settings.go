package model

// DataVersion is written into every persisted envelope.
const DataVersion = "1.0"

// Settings is a free-form key/value document. Known keys are read through
// the typed accessors; unknown keys survive a load/save cycle.
type Settings map[string]any

var DefaultPlatforms = []string{"Codeforces", "AtCoder", "CodeChef", "ICPC", "CCPC", "NowCoder", "custom"}

var DefaultProblemTags = []string{
	"dp", "greedy", "graph", "math", "string", "data-structure",
	"implementation", "brute-force", "binary-search", "sorting",
}

// DefaultSettings returns a fresh copy of the built-in settings.
func DefaultSettings() Settings {
	levels := make([]any, 0, 18)
	for d := 800; d <= 2500; d += 100 {
		levels = append(levels, d)
	}
	platforms := make([]any, len(DefaultPlatforms))
	for i, p := range DefaultPlatforms {
		platforms[i] = p
	}
	tags := make([]any, len(DefaultProblemTags))
	for i, t := range DefaultProblemTags {
		tags[i] = t
	}

	return Settings{
		"defaultFilePath":     "./files/",
		"autoSync":            false,
		"sortBy":              "date",
		"sortOrder":           "desc",
		"viewMode":            "table",
		"theme":               "light",
		"itemsPerPage":        20,
		"language":            "zh-cn",
		"enableNotifications": true,
		"dateFormat":          "YYYY-MM-DD",
		"timeFormat":          "HH:mm:ss",
		"contestPlatforms":    platforms,
		"problemTags":         tags,
		"difficultyLevels":    levels,
		"version":             DataVersion,
	}
}

// String returns a string setting or fallback.
func (s Settings) String(key, fallback string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return fallback
}

// Int returns a numeric setting or fallback. JSON numbers decode as float64.
func (s Settings) Int(key string, fallback int) int {
	switch v := s[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func (s Settings) Bool(key string, fallback bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return fallback
}

// Strings returns a list setting, skipping non-string members.
func (s Settings) Strings(key string) []string {
	switch v := s[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Merge returns a copy of s with defaults filled in for missing keys.
func (s Settings) Merge(defaults Settings) Settings {
	out := make(Settings, len(defaults)+len(s))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range s {
		out[k] = v
	}
	return out
}
