package app_test

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"property_bot/internal/domain"
)

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }

// ---- fakes ----

type fakeSource struct {
	mu      sync.Mutex
	byURL   map[string][]any
	errs    map[string]error
	queries map[string]url.Values
}

func (f *fakeSource) Fetch(ctx context.Context, endpoint string, q url.Values) ([]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queries == nil {
		f.queries = map[string]url.Values{}
	}
	f.queries[endpoint] = q
	if err := f.errs[endpoint]; err != nil {
		return nil, err
	}
	return f.byURL[endpoint], nil
}

type fakeCharts struct {
	calls int
	title string
	n     int
}

func (c *fakeCharts) RenderRatings(entries []domain.RankedEntry, title string) ([]byte, error) {
	c.calls++
	c.title = title
	c.n = len(entries)
	if len(entries) == 0 {
		return nil, domain.ErrNoData
	}
	return []byte("png"), nil
}

func prop(id string, airbnb, booking *float64) domain.Property {
	p := domain.Property{ID: id, Name: "P" + id}
	if airbnb != nil {
		p.Airbnb = domain.Known(*airbnb)
	}
	if booking != nil {
		p.Booking = domain.Known(*booking)
	}
	return p
}

func pfloat(f float64) *float64 { return &f }
