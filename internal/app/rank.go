package app

import (
	"math"
	"sort"

	"property_bot/internal/domain"
)

// CompositeScore is the mean of the known ratings, rounded to 6 decimals; ok is false when neither is known.
func CompositeScore(p domain.Property) (float64, bool) {
	var sum float64
	var n int
	for _, m := range []domain.Measure{p.Airbnb, p.Booking} {
		if m.Known {
			sum += m.Value
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return roundScore(sum / float64(n)), true
}

// roundScore drops float noise so means that are equal in decimal compare equal,
// e.g. (4.8+4.6)/2 and 4.7.
func roundScore(s float64) float64 { return math.Round(s*1e6) / 1e6 }

// Rank returns at most n rated properties, best first, ties broken by id ascending.
// Properties without any rating never appear.
func Rank(props []domain.Property, n int) []domain.RankedEntry {
	if n <= 0 {
		return nil
	}
	out := make([]domain.RankedEntry, 0, len(props))
	for _, p := range props {
		if s, ok := CompositeScore(p); ok {
			out = append(out, domain.RankedEntry{Property: p, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Property.ID < out[j].Property.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
