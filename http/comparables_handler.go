package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"

	"github.com/yourorg/cma-api/internal/canon"
	"github.com/yourorg/cma-api/internal/comps"
	"github.com/yourorg/cma-api/internal/events"
	"github.com/yourorg/cma-api/internal/logger"
)

const maxBodyBytes = 64 << 10

// Engine is the comparables engine as seen by the HTTP layer.
type Engine interface {
	Search(ctx context.Context, req comps.Request) (comps.Response, error)
	Parse(full string) canon.ParsedAddress
	Tiers(full string) []comps.Tier
}

type ComparablesDeps struct {
	Engine Engine
	Events events.Publisher
}

func RegisterComparables(r chi.Router, d ComparablesDeps) {
	if d.Events == nil {
		d.Events = events.Nop{}
	}

	// POST: JSON body
	r.Post("/v1/comparables/search", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxBodyBytes))
		if err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if err := validateBody(body); err != nil {
			var bad errInvalidJSON
			if errors.As(err, &bad) {
				writeError(w, req, http.StatusBadRequest, "invalid_json", bad.Error())
				return
			}
			writeError(w, req, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		var in comps.Request
		if err := json.Unmarshal(body, &in); err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		handleComparables(w, req, d, in)
	})

	// GET: query params for quick lookups from the back office
	r.Get("/v1/comparables/search", func(w http.ResponseWriter, req *http.Request) {
		handleComparables(w, req, d, requestFromQuery(req))
	})

	r.Get("/v1/address/parse", func(w http.ResponseWriter, req *http.Request) {
		addr := strings.TrimSpace(req.URL.Query().Get("address"))
		if addr == "" {
			writeError(w, req, http.StatusBadRequest, "address_required", "address query parameter is required")
			return
		}
		render.JSON(w, req, map[string]any{
			"address": addr,
			"parsed":  d.Engine.Parse(addr),
			"tiers":   d.Engine.Tiers(addr),
		})
	})
}

func handleComparables(w http.ResponseWriter, req *http.Request, d ComparablesDeps, in comps.Request) {
	start := time.Now()
	resp, err := d.Engine.Search(req.Context(), in)
	switch {
	case errors.Is(err, comps.ErrNoCriteria):
		writeError(w, req, http.StatusBadRequest, "search_or_criteria_required", "provide a search address or at least one filter")
		return
	case errors.Is(err, comps.ErrProviderUnconfigured):
		writeError(w, req, http.StatusServiceUnavailable, "provider_unconfigured", "listings provider credentials are not configured")
		return
	case err != nil:
		logger.FromContext(req.Context()).Error("comparables search failed", "error", err)
		writeError(w, req, http.StatusInternalServerError, "search_failed", "comparables search failed")
		return
	}

	searchID := uuid.NewString()
	w.Header().Set("X-Search-ID", searchID)
	render.JSON(w, req, resp)

	d.Events.PublishSearchCompleted(context.WithoutCancel(req.Context()), searchEvent(req.Context(), searchID, in, resp, time.Since(start)))
}

func searchEvent(ctx context.Context, id string, in comps.Request, resp comps.Response, took time.Duration) events.SearchCompleted {
	evt := events.SearchCompleted{
		SearchID:      id,
		TraceID:       logger.TraceID(ctx),
		Query:         strings.TrimSpace(in.Search),
		Criteria:      strings.TrimSpace(in.Search) == "",
		Strategy:      resp.SearchStrategy,
		Tier:          string(resp.Tier),
		ProviderCalls: resp.ProviderCalls,
		Results:       resp.Total,
		DurationMS:    took.Milliseconds(),
		At:            time.Now().UTC(),
	}
	if in.Subject.HasCoordinates() {
		evt.Geohash = geohash.EncodeWithPrecision(*in.Subject.Lat, *in.Subject.Lon, 6)
	}
	return evt
}

func requestFromQuery(req *http.Request) comps.Request {
	q := req.URL.Query()
	atoi := func(k string) int {
		i, _ := strconv.Atoi(strings.TrimSpace(q.Get(k)))
		return i
	}
	var in comps.Request
	in.Search = q.Get("search")
	for _, v := range q["statuses"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				in.Statuses = append(in.Statuses, s)
			}
		}
	}
	in.DateSoldDays = atoi("dateSoldDays")
	in.Limit = atoi("limit")
	in.Page = atoi("page")

	in.City = q.Get("city")
	in.Zip = q.Get("zip")
	in.MinPrice = atoi("minPrice")
	in.MaxPrice = atoi("maxPrice")
	in.MinBeds = atoi("minBeds")
	in.MinBaths = atoi("minBaths")
	in.MinSqft = atoi("minSqft")
	in.MaxSqft = atoi("maxSqft")
	in.PropertyType = q.Get("propertyType")

	var subj comps.Subject
	set := false
	if f, err := strconv.ParseFloat(q.Get("lat"), 64); err == nil {
		subj.Lat, set = &f, true
	}
	if f, err := strconv.ParseFloat(q.Get("lon"), 64); err == nil {
		subj.Lon, set = &f, true
	}
	if i, err := strconv.Atoi(q.Get("beds")); err == nil {
		subj.Beds, set = &i, true
	}
	if f, err := strconv.ParseFloat(q.Get("baths"), 64); err == nil {
		subj.Baths, set = &f, true
	}
	if i, err := strconv.Atoi(q.Get("sqft")); err == nil {
		subj.Sqft, set = &i, true
	}
	if v := strings.TrimSpace(q.Get("subjectType")); v != "" {
		subj.PropertyType, set = v, true
	}
	if set {
		in.Subject = &subj
	}
	return in
}

func writeError(w http.ResponseWriter, req *http.Request, status int, code, detail string) {
	render.Status(req, status)
	render.JSON(w, req, map[string]any{"error": code, "detail": detail})
}
