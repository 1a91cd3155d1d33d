package syncer

import (
	"context"
	"net/http"
	"time"
)

// Probe reports whether the backend is reachable. Mutating services consult
// it to decide between the write-through path and the offline queue; Watch
// uses it to detect the offline-to-online transition.
type Probe interface {
	Online(ctx context.Context) bool
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context) bool

func (f ProbeFunc) Online(ctx context.Context) bool { return f(ctx) }

// Always returns a probe with a fixed answer. Useful for tests and for
// deployments where the store is local and always reachable.
func Always(online bool) Probe {
	return ProbeFunc(func(context.Context) bool { return online })
}

// HTTPProbe checks connectivity by issuing a HEAD request against a health
// URL. Any response at all counts as online; only transport errors count as
// offline.
type HTTPProbe struct {
	url    string
	client *http.Client
}

// NewHTTPProbe creates a probe against url with the given request timeout.
func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	return &HTTPProbe{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProbe) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
