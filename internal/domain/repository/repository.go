// Package repository owns the in-memory contest and problem collections.
// Every mutation goes through a repository so that persistence, secondary
// indexes and change events stay consistent.
package repository

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/zyn-615/ACM-Transit-Template/internal/metrics"
)

// Event names emitted by both repositories.
const (
	EventInitialized    = "initialized"
	EventAdded          = "added"
	EventUpdated        = "updated"
	EventProblemUpdated = "problemUpdated"
	EventDeleted        = "deleted"
	EventImported       = "imported"
	EventSaved          = "saved"
	EventReloaded       = "reloaded"
	EventCleared        = "cleared"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

type options struct {
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(component string, opts []Option) options {
	o := options{now: time.Now, logger: zerolog.Nop(), metrics: metrics.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With().Str("component", component).Logger()
	return o
}

// newID builds "{prefix}_{base36 millis}_{6 random}".
func newID(prefix string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + random
}

// newCollator orders strings with Chinese collation rules; Latin text is
// compared case-insensitively. Collators are not safe for concurrent use.
func newCollator() *collate.Collator {
	return collate.New(language.Chinese, collate.IgnoreCase)
}

func descending(order string) bool {
	return !strings.EqualFold(order, OrderAsc)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpTime(a, b time.Time) int {
	return a.Compare(b)
}
