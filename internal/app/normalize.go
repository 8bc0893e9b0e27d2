package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"property_bot/internal/domain"
)

/********** alias registries (single source of truth) **********/

var propertyAliases = map[string][]string{
	"id":          {"id", "property_id"},
	"name":        {"name", "title"},
	"location":    {"location", "address", "city"},
	"airbnb":      {"airbnb_rating", "airbnb", "ratings.airbnb"},
	"booking":     {"booking_rating", "booking", "ratings.booking"},
	"price":       {"price", "price_per_night", "nightly_price"},
	"description": {"description", "summary"},
}

var complaintAliases = map[string][]string{
	"id":          {"id", "complaint_id"},
	"property_id": {"property_id", "propertyId", "property"},
	"text":        {"complaint", "description", "message", "text"},
	"date":        {"date", "created_at", "createdAt"},
	"status":      {"status"},
	"title":       {"title", "subject"},
	"severity":    {"severity", "priority"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// textOf renders scalars as text; objects and arrays are not text.
func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// firstText: first non-empty text for a named alias set, or "".
func firstText(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := textOf(lookupAny(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// firstID accepts strings and integral numbers; 3.5 is not an identifier.
func firstID(m map[string]any, paths ...string) string {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case string:
			if s := cleanText(v); s != "" {
				return s
			}
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return strconv.FormatInt(n, 10)
			}
			// integer literals beyond int64 are kept verbatim
			if s := v.String(); isIntLiteral(s) {
				return s
			}
			if f, err := v.Float64(); err == nil && fitsInt64(f) {
				return strconv.FormatInt(int64(f), 10)
			}
		case float64:
			if fitsInt64(v) {
				return strconv.FormatInt(int64(v), 10)
			}
		}
	}
	return ""
}

func isIntLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// fitsInt64 reports an integral value that converts to int64 without overflow.
func fitsInt64(f float64) bool {
	return f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63
}

// getFloatFlexible: number from several paths (float64/json.Number/string like "4,5").
func getFloatFlexible(m map[string]any, paths ...string) (float64, bool) {
	for _, k := range paths {
		var (
			f   float64
			err error
		)
		switch v := lookupAny(m, k).(type) {
		case float64:
			f = v
		case json.Number:
			f, err = v.Float64()
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			f, err = strconv.ParseFloat(s, 64)
		default:
			continue
		}
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		return f, true
	}
	return 0, false
}

func rating(m map[string]any, key, id string) domain.Measure {
	f, ok := getFloatFlexible(m, propertyAliases[key]...)
	if !ok {
		return domain.Unknown
	}
	if f < domain.RatingMin || f > domain.RatingMax {
		log.Debug().Str("id", id).Str("field", key).Float64("value", f).Msg("rating out of range, treating as unknown")
		return domain.Unknown
	}
	return domain.Known(f)
}

func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

/********** property normalizer **********/

// NormalizeProperty maps one raw record; ok is false only when the record has no identifier.
func NormalizeProperty(raw map[string]any) (domain.Property, bool) {
	id := firstID(raw, propertyAliases["id"]...)
	if id == "" {
		return domain.Property{}, false
	}
	p := domain.Property{
		ID:          id,
		Name:        firstText(raw, propertyAliases, "name"),
		Location:    firstText(raw, propertyAliases, "location"),
		Airbnb:      rating(raw, "airbnb", id),
		Booking:     rating(raw, "booking", id),
		Description: firstText(raw, propertyAliases, "description"),
	}
	if f, ok := getFloatFlexible(raw, propertyAliases["price"]...); ok && f >= 0 {
		p.Price = domain.Known(f)
	}
	return p, true
}

// NormalizeProperties drops non-objects, records without an id, and repeated ids (first wins).
func NormalizeProperties(items []any) []domain.Property {
	out := make([]domain.Property, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			log.Warn().Int("index", i).Str("context", "NormalizeProperties").Msg("dropping non-object record")
			continue
		}
		p, ok := NormalizeProperty(m)
		if !ok {
			log.Warn().Int("index", i).Str("context", "NormalizeProperties").Msg("dropping record without id")
			continue
		}
		if _, dup := seen[p.ID]; dup {
			log.Warn().Str("id", p.ID).Str("context", "NormalizeProperties").Msg("dropping duplicate id")
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

/********** complaint normalizer **********/

func NormalizeComplaint(raw map[string]any) (domain.Complaint, bool) {
	id := firstID(raw, complaintAliases["id"]...)
	if id == "" {
		return domain.Complaint{}, false
	}
	return domain.Complaint{
		ID:         id,
		PropertyID: firstID(raw, complaintAliases["property_id"]...),
		Text:       firstText(raw, complaintAliases, "text"),
		Date:       firstText(raw, complaintAliases, "date"),
		Status:     firstText(raw, complaintAliases, "status"),
		Title:      firstText(raw, complaintAliases, "title"),
		Severity:   firstText(raw, complaintAliases, "severity"),
	}, true
}

func NormalizeComplaints(items []any) []domain.Complaint {
	out := make([]domain.Complaint, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			log.Warn().Int("index", i).Str("context", "NormalizeComplaints").Msg("dropping non-object record")
			continue
		}
		c, ok := NormalizeComplaint(m)
		if !ok {
			log.Warn().Int("index", i).Str("context", "NormalizeComplaints").Msg("dropping record without id")
			continue
		}
		out = append(out, c)
	}
	return out
}

// ComplaintsFor keeps complaints whose property id equals propertyID exactly.
func ComplaintsFor(all []domain.Complaint, propertyID string) []domain.Complaint {
	var out []domain.Complaint
	for _, c := range all {
		if c.PropertyID == propertyID {
			out = append(out, c)
		}
	}
	return out
}

// FindProperty looks an id up by exact string value.
func FindProperty(props []domain.Property, id string) (domain.Property, bool) {
	for _, p := range props {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Property{}, false
}
