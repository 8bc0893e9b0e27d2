// internal/adapters/mockapi/client.go
package mockapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"property_bot/internal/adapters/observability"
	"property_bot/internal/domain"
)

const (
	service      = "mockapi"
	maxBodyBytes = 10 << 20
)

type Options struct {
	// KeyHeader/KeyValue are sent only when KeyValue is non-empty.
	KeyHeader   string
	KeyValue    string
	Timeout     time.Duration
	RPS         int
	MaxAttempts int
	HTTPClient  *http.Client
}

type Client struct {
	hc          *http.Client
	keyHeader   string
	keyValue    string
	timeout     time.Duration
	maxAttempts int
	rl          *rate.Limiter
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RPS <= 0 {
		opts.RPS = 5
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.KeyHeader == "" {
		opts.KeyHeader = "Authorization"
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		hc:          hc,
		keyHeader:   opts.KeyHeader,
		keyValue:    opts.KeyValue,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		rl:          rate.NewLimiter(rate.Limit(opts.RPS), opts.RPS),
	}
}

// Fetch GETs endpoint (with optional query) and returns the JSON array it serves.
// Every failure is a *domain.FetchError; the whole call, retries included, is bounded by the timeout.
func (c *Client) Fetch(ctx context.Context, endpoint string, query url.Values) ([]any, error) {
	u, err := buildURL(endpoint, query)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.Unreachable, URL: endpoint, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, &domain.FetchError{Kind: domain.Unreachable, URL: u, Err: err}
	}

	label := endpointLabel(endpoint)
	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		last := i == c.maxAttempts-1

		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, &domain.FetchError{Kind: domain.Unreachable, URL: u, Err: err}
		}
		if c.keyValue != "" {
			req.Header.Set(c.keyHeader, c.keyValue)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "property-bot/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, label, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, &domain.FetchError{Kind: domain.Unreachable, URL: u, Err: ctx.Err()}
			}
			lastErr = &domain.FetchError{Kind: domain.Unreachable, URL: u, Err: err}
			if !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, &domain.FetchError{Kind: domain.Unreachable, URL: u, Err: ctx.Err()}
			}
			return nil, lastErr
		}
		observability.ObserveExternal(service, label, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return []any{}, nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			resp.Body.Close()
			if err != nil {
				if ctx.Err() != nil {
					return nil, &domain.FetchError{Kind: domain.Unreachable, URL: u, Err: ctx.Err()}
				}
				return nil, &domain.FetchError{Kind: domain.Unreachable, URL: u, Err: err}
			}
			items, err := decodeCollection(body)
			if err != nil {
				return nil, &domain.FetchError{Kind: domain.MalformedBody, URL: u, Err: err}
			}
			return items, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = &domain.FetchError{Kind: domain.BadStatus, URL: u, Status: resp.StatusCode}
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, &domain.FetchError{Kind: domain.Unreachable, URL: u, Err: ctx.Err()}
			}
			return nil, lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			var detail error
			if s := strings.TrimSpace(string(b)); s != "" {
				detail = errors.New(s)
			}
			return nil, &domain.FetchError{Kind: domain.BadStatus, URL: u, Status: resp.StatusCode, Err: detail}
		}
	}
	return nil, lastErr
}

// decodeCollection accepts a bare JSON array or a {"data": [...]} envelope.
func decodeCollection(body []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		if data, ok := t["data"].([]any); ok {
			return data, nil
		}
		return nil, errors.New("object payload without a data array")
	}
	return nil, fmt.Errorf("unexpected payload type %T", v)
}

func buildURL(endpoint string, query url.Values) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url %q", endpoint)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// endpointLabel keeps metric cardinality low: the last path segment only.
func endpointLabel(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "root"
	}
	return path.Base(strings.TrimRight(u.Path, "/"))
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
