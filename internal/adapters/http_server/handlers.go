// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"rent_estimator/internal/adapters/observability"
	"rent_estimator/internal/app"
	"rent_estimator/internal/domain"
)

// Form defaults, matching the initial widget values.
const (
	defaultAreaSqm     = 25.0
	defaultBuiltYear   = 2015
	defaultWalkMinutes = 5

	maxBodyBytes = 64 << 10
)

type Handlers struct {
	E       *app.EstimateService
	C       *app.Catalog
	Limiter *rate.Limiter // nil disables estimate rate limiting
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type estimateRequest struct {
	LocationKey string          `json:"location_key"`
	Ward        string          `json:"ward"`
	Point       string          `json:"point"`
	Address     json.RawMessage `json:"address"`
	AreaSqm     *float64        `json:"area_sqm"`
	BuiltYear   *int            `json:"built_year"`
	WalkMinutes *int            `json:"walk_minutes"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/wards", h.listWards)
	s.mux.Get("/v1/wards/{ward}/points", h.listPoints)
	s.mux.Group(func(g chi.Router) {
		g.Use(RateLimit(h.Limiter))
		g.Get("/v1/estimates", h.getEstimate)
		g.Post("/v1/estimates", h.postEstimate)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON writes v with a weak ETag and answers a matching If-None-Match
// with 304.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response encoding failed")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) listWards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{"wards": h.C.Wards()})
}

func (h *Handlers) listPoints(w http.ResponseWriter, r *http.Request) {
	ward, err := url.PathUnescape(chi.URLParam(r, "ward"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ward", "ward must be URL-encoded")
		return
	}
	ps, err := h.C.Points(ward)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "ward not found")
		return
	}
	writeJSON(w, r, map[string]any{"ward": ward, "points": ps})
}

func (h *Handlers) postEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}

	in := app.LocationInput{LocationKey: req.LocationKey, Ward: req.Ward, Point: req.Point}
	if len(req.Address) > 0 {
		in.HasAddress = true
		if err := json.Unmarshal(req.Address, &in.Address); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid address", err.Error())
			return
		}
	}

	spec := domain.PropertySpec{
		AreaSqm:     defaultAreaSqm,
		BuiltYear:   defaultBuiltYear,
		WalkMinutes: defaultWalkMinutes,
		LocationKey: h.C.ResolveLocationKey(in),
	}
	if req.AreaSqm != nil {
		spec.AreaSqm = *req.AreaSqm
	}
	if req.BuiltYear != nil {
		spec.BuiltYear = *req.BuiltYear
	}
	if req.WalkMinutes != nil {
		spec.WalkMinutes = *req.WalkMinutes
	}
	h.estimate(w, r, spec)
}

func (h *Handlers) getEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := app.LocationInput{LocationKey: q.Get("location_key"), Ward: q.Get("ward"), Point: q.Get("point")}
	if q.Has("address") {
		in.Address, in.HasAddress = q.Get("address"), true
	}

	spec := domain.PropertySpec{
		AreaSqm:     defaultAreaSqm,
		BuiltYear:   defaultBuiltYear,
		WalkMinutes: defaultWalkMinutes,
		LocationKey: h.C.ResolveLocationKey(in),
	}
	if v := q.Get("area_sqm"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid area_sqm", "area_sqm must be a number")
			return
		}
		spec.AreaSqm = f
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"built_year", &spec.BuiltYear}, {"walk_minutes", &spec.WalkMinutes}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid "+p.name, p.name+" must be an integer")
			return
		}
		*p.dst = n
	}
	h.estimate(w, r, spec)
}

func (h *Handlers) estimate(w http.ResponseWriter, r *http.Request, spec domain.PropertySpec) {
	est, err := h.E.Estimate(r.Context(), spec)
	switch {
	case errors.Is(err, domain.ErrNoLocation):
		writeProblem(w, http.StatusUnprocessableEntity, "Missing location", "give location_key, ward and point, or address")
		return
	case errors.Is(err, domain.ErrInvalidSpec):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid property spec", err.Error())
		return
	case err != nil:
		log.Error().Err(err).Str("location_key", spec.LocationKey).Msg("estimate failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "prediction failed")
		return
	}

	observability.ObserveEstimate(est.Fallback, string(est.Confidence))
	writeJSON(w, r, est)
}
