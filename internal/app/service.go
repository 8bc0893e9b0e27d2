package app

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"property_bot/internal/domain"
)

// Endpoints are the two independently configured collections.
type Endpoints struct {
	Properties string
	Complaints string // optional
}

// PropertyService runs one fetch → normalize → compute → format pass per call.
// It holds no per-request state and is safe for concurrent use.
type PropertyService struct {
	src    domain.DataSource
	charts domain.ChartRenderer
	ep     Endpoints
}

func NewPropertyService(src domain.DataSource, charts domain.ChartRenderer, ep Endpoints) *PropertyService {
	return &PropertyService{src: src, charts: charts, ep: ep}
}

type TopReport struct {
	Text    string
	Entries []domain.RankedEntry
	Chart   []byte // PNG
	Caption string
}

func (s *PropertyService) HasComplaints() bool { return s.ep.Complaints != "" }

// LoadProperties fetches and normalizes the whole properties collection.
func (s *PropertyService) LoadProperties(ctx context.Context) ([]domain.Property, error) {
	raw, err := s.src.Fetch(ctx, s.ep.Properties, nil)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	return NormalizeProperties(raw), nil
}

// LoadComplaints fetches complaints and keeps those whose property id matches exactly.
// The query parameter is only a server-side hint.
func (s *PropertyService) LoadComplaints(ctx context.Context, propertyID string) ([]domain.Complaint, error) {
	if s.ep.Complaints == "" {
		return nil, fmt.Errorf("complaints endpoint not configured: %w", domain.ErrNoData)
	}
	raw, err := s.src.Fetch(ctx, s.ep.Complaints, url.Values{"property_id": {propertyID}})
	if err != nil {
		return nil, fmt.Errorf("load complaints: %w", err)
	}
	return ComplaintsFor(NormalizeComplaints(raw), propertyID), nil
}

// Ratings lists every property with both ratings.
func (s *PropertyService) Ratings(ctx context.Context) (string, error) {
	props, err := s.LoadProperties(ctx)
	if err != nil {
		return "", err
	}
	if len(props) == 0 {
		return "", fmt.Errorf("ratings: %w", domain.ErrNoData)
	}
	return JoinBlocks("🏡 Property Ratings", FormatList(props)), nil
}

// Catalog lists every property on one line each.
func (s *PropertyService) Catalog(ctx context.Context) (string, error) {
	props, err := s.LoadProperties(ctx)
	if err != nil {
		return "", err
	}
	if len(props) == 0 {
		return "", fmt.Errorf("catalog: %w", domain.ErrNoData)
	}
	blocks := make([]string, 0, len(props)+1)
	blocks = append(blocks, "🏠 Properties List")
	for _, p := range props {
		blocks = append(blocks, FormatPropertyLine(p))
	}
	return JoinBlocks(blocks...), nil
}

// Property renders a single property by exact id.
func (s *PropertyService) Property(ctx context.Context, id string) (string, error) {
	props, err := s.LoadProperties(ctx)
	if err != nil {
		return "", err
	}
	p, ok := FindProperty(props, id)
	if !ok {
		return "", fmt.Errorf("property %q: %w", id, domain.ErrNotFound)
	}
	return FormatProperty(p), nil
}

// Ranked returns the top n rated properties.
func (s *PropertyService) Ranked(ctx context.Context, n int) ([]domain.RankedEntry, error) {
	props, err := s.LoadProperties(ctx)
	if err != nil {
		return nil, err
	}
	entries := Rank(props, n)
	if len(entries) == 0 {
		return nil, fmt.Errorf("top %d: no rated properties: %w", n, domain.ErrNoData)
	}
	return entries, nil
}

// Top ranks, formats and charts the best n properties.
func (s *PropertyService) Top(ctx context.Context, n int) (TopReport, error) {
	entries, err := s.Ranked(ctx, n)
	if err != nil {
		return TopReport{}, err
	}
	k := len(entries)
	chart, err := s.charts.RenderRatings(entries, fmt.Sprintf("Top %d Properties - Ratings Comparison", k))
	if err != nil {
		return TopReport{}, fmt.Errorf("render chart: %w", err)
	}
	return TopReport{
		Text:    JoinBlocks(fmt.Sprintf("🏆 Top %d Best Rated Properties", k), FormatRanked(entries)),
		Entries: entries,
		Chart:   chart,
		Caption: fmt.Sprintf("📊 Top %d Properties Rating Chart", k),
	}, nil
}

// Complaints lists complaints for one property. Properties and complaints are fetched
// concurrently; a failing properties endpoint only costs the property name in the title.
func (s *PropertyService) Complaints(ctx context.Context, propertyID string) (string, error) {
	if s.ep.Complaints == "" {
		return "", fmt.Errorf("complaints endpoint not configured: %w", domain.ErrNoData)
	}

	var (
		props      []domain.Property
		propsErr   error
		complaints []domain.Complaint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		props, propsErr = s.LoadProperties(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		complaints, err = s.LoadComplaints(gctx, propertyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	title := fmt.Sprintf("Property %s", propertyID)
	if propsErr != nil {
		zerolog.Ctx(ctx).Warn().Err(propsErr).Str("property_id", propertyID).Msg("complaints without property details")
	} else {
		p, ok := FindProperty(props, propertyID)
		if !ok {
			return "", fmt.Errorf("property %q: %w", propertyID, domain.ErrNotFound)
		}
		title = orDefault(oneLine(p.Name), title)
	}

	if len(complaints) == 0 {
		return fmt.Sprintf("No complaints found for %s (id: %s).", title, propertyID), nil
	}
	header := fmt.Sprintf("📋 Complaints for %s (id: %s)\nTotal: %d complaint(s)", title, propertyID, len(complaints))
	return JoinBlocks(header, FormatComplaints(complaints)), nil
}
