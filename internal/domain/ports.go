package domain

import (
	"context"
	"net/url"
)

// DataSource fetches a whole JSON collection from one endpoint.
type DataSource interface {
	Fetch(ctx context.Context, endpoint string, query url.Values) ([]any, error)
}

// OffsetStore keeps the chat transport's update cursor between restarts.
type OffsetStore interface {
	LoadOffset(ctx context.Context) (int64, error)
	SaveOffset(ctx context.Context, offset int64) error
}

// ChartRenderer draws a rating comparison for ranked entries as PNG bytes.
type ChartRenderer interface {
	RenderRatings(entries []RankedEntry, title string) ([]byte, error)
}
