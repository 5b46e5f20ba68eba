package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"cdncrawler/internal/model"
)

const (
	cacheHeader = "X-Cache"
	linkHeader  = "Link"
)

// StatusError reports a response with a 4xx or 5xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Prober times single GET requests.
type Prober struct {
	client         *http.Client
	userAgent      string
	acceptEncoding string
	now            func() time.Time
}

// New builds a Prober. A zero timeout means requests never time out.
func New(userAgent, acceptEncoding string, timeout time.Duration) *Prober {
	return &Prober{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				// We ask for compressed bodies ourselves and only count bytes.
				DisableCompression: true,
			},
			Timeout: timeout,
		},
		userAgent:      userAgent,
		acceptEncoding: acceptEncoding,
		now:            time.Now,
	}
}

// Probe fetches u once and returns how long the request and the full body
// download took, along with the cache headers of the response.
func (p *Prober) Probe(ctx context.Context, u string) (model.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.ProbeResult{}, err
	}
	req.Header.Set("User-Agent", p.userAgent)
	if p.acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", p.acceptEncoding)
	}

	start := p.now()
	resp, err := p.client.Do(req)
	if err != nil {
		return model.ProbeResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return model.ProbeResult{}, fmt.Errorf("failed reading response body: %w", err)
	}
	took := p.now().Sub(start)

	if resp.StatusCode >= 400 {
		return model.ProbeResult{}, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	return model.ProbeResult{
		Took:  took.Seconds(),
		Cache: resp.Header.Get(cacheHeader),
		Link:  resp.Header.Get(linkHeader),
	}, nil
}

// Format renders the console line printed after every probe. Responses with
// a Link header but no X-Cache most likely came straight from Nginx.
func Format(u string, r model.ProbeResult) string {
	cache := r.Cache
	if cache == "" {
		cache = "-"
	}
	origin := ""
	if r.Link != "" && r.Cache == "" {
		origin = "Nginx"
	}
	return fmt.Sprintf("%-100s %.2fms %-6s %s", u, r.Took*1000, cache, origin)
}
