package comps

import (
	"errors"
	"strings"

	"github.com/yourorg/cma-api/mls"
)

var (
	ErrNoCriteria           = errors.New("comps: search text or at least one criteria field is required")
	ErrProviderUnconfigured = errors.New("comps: listings provider is not configured")
)

const (
	DefaultLimit        = 25
	MaxLimit            = 50
	DefaultDateSoldDays = 180
	MaxDateSoldDays     = 3650

	StrategyExactMatch     = "exact_match"
	StrategyFallbackSearch = "fallback_search"
)

var DefaultStatuses = []string{mls.StatusActive, mls.StatusClosed}

// Subject describes the property the comparables are for. Nil fields are unknown.
type Subject struct {
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	Beds         *int     `json:"beds,omitempty"`
	Baths        *float64 `json:"baths,omitempty"`
	Sqft         *int     `json:"sqft,omitempty"`
	PropertyType string   `json:"propertyType,omitempty"`
}

func (s *Subject) HasCoordinates() bool {
	return s != nil && s.Lat != nil && s.Lon != nil
}

// Criteria are the structured filters used when no search text is given.
type Criteria struct {
	City         string `json:"city,omitempty"`
	Zip          string `json:"zip,omitempty"`
	MinPrice     int    `json:"minPrice,omitempty"`
	MaxPrice     int    `json:"maxPrice,omitempty"`
	MinBeds      int    `json:"minBeds,omitempty"`
	MinBaths     int    `json:"minBaths,omitempty"`
	MinSqft      int    `json:"minSqft,omitempty"`
	MaxSqft      int    `json:"maxSqft,omitempty"`
	PropertyType string `json:"propertyType,omitempty"`
}

func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.City) == "" && strings.TrimSpace(c.Zip) == "" &&
		c.MinPrice <= 0 && c.MaxPrice <= 0 && c.MinBeds <= 0 && c.MinBaths <= 0 &&
		c.MinSqft <= 0 && c.MaxSqft <= 0 && strings.TrimSpace(c.PropertyType) == ""
}

func (c Criteria) params() mls.Params {
	return mls.Params{
		City:         strings.TrimSpace(c.City),
		PostalCode:   strings.TrimSpace(c.Zip),
		MinPrice:     c.MinPrice,
		MaxPrice:     c.MaxPrice,
		MinBeds:      c.MinBeds,
		MinBaths:     c.MinBaths,
		MinSqft:      c.MinSqft,
		MaxSqft:      c.MaxSqft,
		PropertyType: strings.TrimSpace(c.PropertyType),
	}
}

type Request struct {
	Search       string   `json:"search,omitempty"`
	Subject      *Subject `json:"subjectProperty,omitempty"`
	Statuses     []string `json:"statuses,omitempty"`
	DateSoldDays int      `json:"dateSoldDays,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Page         int      `json:"page,omitempty"`
	Criteria
}

// Response never exposes scores; Listings are already ranked.
type Response struct {
	Listings       []mls.Listing `json:"listings"`
	Total          int           `json:"total"`
	Page           int           `json:"page"`
	TotalPages     int           `json:"totalPages"`
	ResultsPerPage int           `json:"resultsPerPage"`
	AddressParsed  *bool         `json:"addressParsed,omitempty"`
	SearchStrategy string        `json:"searchStrategy,omitempty"`
	Message        string        `json:"message,omitempty"`
	Tier           TierKind      `json:"tier,omitempty"`
	ProviderCalls  int           `json:"providerCalls"`
}

// ClampLimit maps 0 to the default and clamps everything else into [1, MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func clampDateSoldDays(days int) int {
	if days <= 0 {
		return DefaultDateSoldDays
	}
	if days > MaxDateSoldDays {
		return MaxDateSoldDays
	}
	return days
}

var statusAliases = map[string]string{
	"active":              mls.StatusActive,
	"pending":             mls.StatusPending,
	"activeundercontract": mls.StatusActiveUnderContract,
	"closed":              mls.StatusClosed,
	"sold":                mls.StatusClosed,
	"expired":             mls.StatusExpired,
	"withdrawn":           mls.StatusWithdrawn,
}

// NormalizeStatuses drops unknown values and duplicates; an empty result falls
// back to DefaultStatuses.
func NormalizeStatuses(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
		canonical, ok := statusAliases[key]
		if !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultStatuses...)
	}
	return out
}

type normalized struct {
	search       string
	subject      *Subject
	statuses     []string
	dateSoldDays int
	limit        int
	page         int
	criteria     Criteria
}

func normalizeRequest(req Request) normalized {
	page := req.Page
	if page < 1 {
		page = 1
	}
	return normalized{
		search:       strings.TrimSpace(req.Search),
		subject:      req.Subject,
		statuses:     NormalizeStatuses(req.Statuses),
		dateSoldDays: clampDateSoldDays(req.DateSoldDays),
		limit:        ClampLimit(req.Limit),
		page:         page,
		criteria:     req.Criteria,
	}
}
