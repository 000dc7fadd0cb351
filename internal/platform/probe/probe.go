// Package probe answers whether a file artifact exists. Callers treat every
// error as "does not exist".
package probe

import (
	"context"
	"fmt"
	"strings"
)

type Prober interface {
	Exists(ctx context.Context, path string) (bool, error)
}

// Backend names.
const (
	BackendHTTP = "http"
	BackendFS   = "fs"
	BackendS3   = "s3"
)

type Options struct {
	Backend string
	BaseURL string // http
	Root    string // fs
	S3      S3Config
}

func New(opts Options) (Prober, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendHTTP:
		return NewHTTPProber(opts.BaseURL, nil), nil
	case "", BackendFS:
		return NewFSProber(opts.Root), nil
	case BackendS3:
		return NewS3Prober(opts.S3)
	default:
		return nil, fmt.Errorf("probe.New: unknown backend %q", opts.Backend)
	}
}

// objectKey strips the "./" prefix so artifact paths address objects and
// URL paths directly.
func objectKey(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	path = strings.TrimPrefix(path, "./")
	return strings.TrimLeft(path, "/")
}

// Func adapts a plain function to Prober.
type Func func(ctx context.Context, path string) (bool, error)

func (f Func) Exists(ctx context.Context, path string) (bool, error) { return f(ctx, path) }
