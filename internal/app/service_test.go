package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"property_bot/internal/app"
	"property_bot/internal/domain"
)

const (
	propsURL      = "http://api/properties"
	complaintsURL = "http://api/complaints"
)

func sampleProperties() []any {
	return []any{
		map[string]any{"id": "1", "name": "Sea View", "airbnb_rating": 4.8, "booking_rating": 4.6, "price": 100.0},
		map[string]any{"id": "2", "name": "Old Town", "airbnb_rating": 4.9},
		map[string]any{"id": "3", "name": "Unrated"},
	}
}

func newService(src *fakeSource, charts *fakeCharts, withComplaints bool) *app.PropertyService {
	ep := app.Endpoints{Properties: propsURL}
	if withComplaints {
		ep.Complaints = complaintsURL
	}
	return app.NewPropertyService(src, charts, ep)
}

func TestRatings(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: sampleProperties()}}
	out, err := newService(src, &fakeCharts{}, false).Ratings(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.HasPrefix(out, "🏡 Property Ratings") {
		t.Fatalf("missing header:\n%s", out)
	}
	if got := strings.Count(out, "🏠 "); got != 3 {
		t.Fatalf("expected 3 properties, got %d", got)
	}
}

func TestRatings_EmptyIsNoData(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: {}}}
	_, err := newService(src, &fakeCharts{}, false).Ratings(context.Background())
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestRatings_FetchErrorPropagates(t *testing.T) {
	fe := &domain.FetchError{Kind: domain.Unreachable, URL: propsURL}
	src := &fakeSource{errs: map[string]error{propsURL: fe}}
	_, err := newService(src, &fakeCharts{}, false).Ratings(context.Background())
	if !errors.Is(err, domain.ErrUnreachable) {
		t.Fatalf("expected Unreachable, got %v", err)
	}
}

func TestCatalog(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: sampleProperties()}}
	out, err := newService(src, &fakeCharts{}, false).Catalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(out, "[2] Old Town") {
		t.Fatalf("unexpected catalog:\n%s", out)
	}
}

func TestProperty_FoundAndNotFound(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: sampleProperties()}}
	svc := newService(src, &fakeCharts{}, false)

	out, err := svc.Property(context.Background(), "1")
	if err != nil || !strings.Contains(out, "Sea View") {
		t.Fatalf("unexpected result %q %v", out, err)
	}
	if _, err := svc.Property(context.Background(), "01"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ids match exactly, expected ErrNotFound, got %v", err)
	}
}

func TestTop_RanksAndCharts(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: sampleProperties()}}
	charts := &fakeCharts{}
	rep, err := newService(src, charts, false).Top(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rep.Entries) != 2 || rep.Entries[0].Property.ID != "2" {
		t.Fatalf("unexpected ranking: %+v", rep.Entries)
	}
	if charts.calls != 1 || charts.n != 2 || charts.title != "Top 2 Properties - Ratings Comparison" {
		t.Fatalf("unexpected chart call: %+v", charts)
	}
	if string(rep.Chart) != "png" || rep.Caption != "📊 Top 2 Properties Rating Chart" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.HasPrefix(rep.Text, "🏆 Top 2 Best Rated Properties") {
		t.Fatalf("unexpected text:\n%s", rep.Text)
	}
}

func TestTop_NoRatedPropertiesIsNoData(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: {map[string]any{"id": "1"}}}}
	charts := &fakeCharts{}
	_, err := newService(src, charts, false).Top(context.Background(), 5)
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	if charts.calls != 0 {
		t.Fatalf("chart must not be rendered without data")
	}
}

func TestComplaints(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{
		propsURL: sampleProperties(),
		complaintsURL: {
			map[string]any{"id": "10", "property_id": "1", "complaint": "Noisy", "status": "open"},
			map[string]any{"id": "11", "property_id": "2", "complaint": "Cold"},
			map[string]any{"id": "12", "property_id": "1", "complaint": "Dirty"},
		},
	}}
	out, err := newService(src, &fakeCharts{}, true).Complaints(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.HasPrefix(out, "📋 Complaints for Sea View (id: 1)\nTotal: 2 complaint(s)") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if strings.Contains(out, "Cold") {
		t.Fatalf("complaints of other properties leaked:\n%s", out)
	}
	if got := src.queries[complaintsURL].Get("property_id"); got != "1" {
		t.Fatalf("expected property_id hint, got %q", got)
	}
}

func TestComplaints_NoneFound(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: sampleProperties(), complaintsURL: {}}}
	out, err := newService(src, &fakeCharts{}, true).Complaints(context.Background(), "2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out != "No complaints found for Old Town (id: 2)." {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestComplaints_UnknownProperty(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: sampleProperties(), complaintsURL: {}}}
	_, err := newService(src, &fakeCharts{}, true).Complaints(context.Background(), "99")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestComplaints_PropertiesDownStillAnswers(t *testing.T) {
	src := &fakeSource{
		byURL: map[string][]any{complaintsURL: {map[string]any{"id": "10", "property_id": "1", "complaint": "Noisy"}}},
		errs:  map[string]error{propsURL: &domain.FetchError{Kind: domain.BadStatus, Status: 500}},
	}
	out, err := newService(src, &fakeCharts{}, true).Complaints(context.Background(), "1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(out, "Complaints for Property 1 (id: 1)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestComplaints_NotConfigured(t *testing.T) {
	src := &fakeSource{byURL: map[string][]any{propsURL: sampleProperties()}}
	svc := newService(src, &fakeCharts{}, false)
	if svc.HasComplaints() {
		t.Fatalf("complaints should be disabled")
	}
	if _, err := svc.Complaints(context.Background(), "1"); !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestComplaints_FetchErrorPropagates(t *testing.T) {
	src := &fakeSource{
		byURL: map[string][]any{propsURL: sampleProperties()},
		errs:  map[string]error{complaintsURL: &domain.FetchError{Kind: domain.MalformedBody}},
	}
	_, err := newService(src, &fakeCharts{}, true).Complaints(context.Background(), "1")
	if !errors.Is(err, domain.ErrMalformedBody) {
		t.Fatalf("expected MalformedBody, got %v", err)
	}
}
