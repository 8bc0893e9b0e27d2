// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"property_bot/internal/app"
	"property_bot/internal/domain"
)

const maxTopN = 100

type Handlers struct{ S *app.PropertyService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type propertyDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Location    string   `json:"location,omitempty"`
	Airbnb      *float64 `json:"airbnb_rating"`
	Booking     *float64 `json:"booking_rating"`
	Price       *float64 `json:"price"`
	Description string   `json:"description,omitempty"`
}

type rankedDTO struct {
	Rank     int         `json:"rank"`
	Score    float64     `json:"score"`
	Property propertyDTO `json:"property"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/properties", h.listProperties)
	s.mux.Get("/v1/properties/{id}", h.getProperty)
	s.mux.Get("/v1/properties/{id}/complaints", h.listComplaints)
	s.mux.Get("/v1/top/{n}", h.getTop)
	s.mux.Get("/v1/top/{n}/chart.png", h.getTopChart)
}

func measurePtr(m domain.Measure) *float64 {
	if !m.Known {
		return nil
	}
	v := m.Value
	return &v
}

func toDTO(p domain.Property) propertyDTO {
	return propertyDTO{
		ID: p.ID, Name: p.Name, Location: p.Location,
		Airbnb: measurePtr(p.Airbnb), Booking: measurePtr(p.Booking), Price: measurePtr(p.Price),
		Description: p.Description,
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps pipeline failures onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *domain.FetchError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "property not found")
	case errors.Is(err, domain.ErrNoData):
		writeProblem(w, http.StatusNotFound, "No Data", "no matching data available")
	case errors.As(err, &fe):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("upstream fetch failed")
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "property source "+fe.Kind.String())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// etagOf hashes the exact bytes that will be written.
func etagOf(body []byte) string {
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}

// writeBody sends body with an ETag, or 304 when the client already has it.
func writeBody(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	etag := etagOf(body)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeBody(w, r, "application/json", body)
}

func writeText(w http.ResponseWriter, r *http.Request, text string) {
	writeBody(w, r, "text/plain; charset=utf-8", []byte(text))
}

func parseN(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n <= 0 || n > maxTopN {
		writeProblem(w, http.StatusBadRequest, "Invalid n", "n must be an integer between 1 and 100")
		return 0, false
	}
	return n, true
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.S.LoadProperties(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]propertyDTO, 0, len(props))
	for _, p := range props {
		out = append(out, toDTO(p))
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	text, err := h.S.Property(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, r, text)
}

func (h *Handlers) listComplaints(w http.ResponseWriter, r *http.Request) {
	text, err := h.S.Complaints(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, r, text)
}

func (h *Handlers) getTop(w http.ResponseWriter, r *http.Request) {
	n, ok := parseN(w, r)
	if !ok {
		return
	}
	entries, err := h.S.Ranked(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]rankedDTO, 0, len(entries))
	for i, e := range entries {
		out = append(out, rankedDTO{Rank: i + 1, Score: e.Score, Property: toDTO(e.Property)})
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getTopChart(w http.ResponseWriter, r *http.Request) {
	n, ok := parseN(w, r)
	if !ok {
		return
	}
	rep, err := h.S.Top(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeBody(w, r, "image/png", rep.Chart)
}
