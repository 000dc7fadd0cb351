package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// HTTPProber issues HEAD requests against a static file server.
type HTTPProber struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProber(baseURL string, client *http.Client) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *HTTPProber) Exists(ctx context.Context, path string) (bool, error) {
	target := path
	if !strings.Contains(path, "://") {
		target = p.baseURL + "/" + (&url.URL{Path: objectKey(path)}).EscapedPath()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false, fmt.Errorf("probe.HTTPProber: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe.HTTPProber: %w", err)
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
