package comps

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/s2"

	"github.com/yourorg/cma-api/mls"
)

const earthRadiusMiles = 3958.8

type DistanceRule struct {
	NearMiles  float64 `toml:"near_miles"`
	NearBonus  float64 `toml:"near_bonus"`
	CloseMiles float64 `toml:"close_miles"`
	CloseBonus float64 `toml:"close_bonus"`
	MidMiles   float64 `toml:"mid_miles"`
	MidBonus   float64 `toml:"mid_bonus"`
	FarMiles   float64 `toml:"far_miles"`
	FarPenalty float64 `toml:"far_penalty"`
}

type SimilarityRule struct {
	MaxDiff float64 `toml:"max_diff"`
	Bonus   float64 `toml:"bonus"`
}

// SizeRule ratios are relative to the subject's living area.
type SizeRule struct {
	CloseRatio float64 `toml:"close_ratio"`
	CloseBonus float64 `toml:"close_bonus"`
	NearRatio  float64 `toml:"near_ratio"`
	NearBonus  float64 `toml:"near_bonus"`
	FarRatio   float64 `toml:"far_ratio"`
	FarPenalty float64 `toml:"far_penalty"`
}

type RecencyRule struct {
	RecentMonths int     `toml:"recent_months"`
	RecentBonus  float64 `toml:"recent_bonus"`
	MidMonths    int     `toml:"mid_months"`
	MidBonus     float64 `toml:"mid_bonus"`
	OldMonths    int     `toml:"old_months"`
	OldBonus     float64 `toml:"old_bonus"`
}

// ScoringConfig holds every threshold and adjustment of the relevance model.
// All thresholds are inclusive.
type ScoringConfig struct {
	Base           float64        `toml:"base"`
	Distance       DistanceRule   `toml:"distance"`
	Beds           SimilarityRule `toml:"beds"`
	Baths          SimilarityRule `toml:"baths"`
	Size           SizeRule       `toml:"size"`
	TypeMatchBonus float64        `toml:"type_match_bonus"`
	ClosedBonus    float64        `toml:"closed_bonus"`
	Recency        RecencyRule    `toml:"recency"`
}

func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Base: 100,
		Distance: DistanceRule{
			NearMiles: 0.5, NearBonus: 50,
			CloseMiles: 1, CloseBonus: 30,
			MidMiles: 2, MidBonus: 10,
			FarMiles: 5, FarPenalty: 20,
		},
		Beds:  SimilarityRule{MaxDiff: 1, Bonus: 25},
		Baths: SimilarityRule{MaxDiff: 1, Bonus: 25},
		Size: SizeRule{
			CloseRatio: 0.30, CloseBonus: 20,
			NearRatio: 0.50, NearBonus: 10,
			FarRatio: 1.00, FarPenalty: 15,
		},
		TypeMatchBonus: 15,
		ClosedBonus:    30,
		Recency: RecencyRule{
			RecentMonths: 3, RecentBonus: 20,
			MidMonths: 6, MidBonus: 15,
			OldMonths: 12, OldBonus: 5,
		},
	}
}

// Reason is one signal's contribution to a score.
type Reason struct {
	Signal string  `json:"signal"`
	Detail string  `json:"detail"`
	Impact float64 `json:"impact"`
}

type Scorer struct {
	cfg ScoringConfig
	now func() time.Time
}

func NewScorer(cfg ScoringConfig, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{cfg: cfg, now: now}
}

// Score returns Base when subject is nil, otherwise Base plus every adjustment.
func (s *Scorer) Score(l mls.Listing, subject *Subject) float64 {
	total := s.cfg.Base
	for _, r := range s.reasons(l, subject, s.now()) {
		total += r.Impact
	}
	return total
}

func (s *Scorer) Explain(l mls.Listing, subject *Subject) []Reason {
	return s.reasons(l, subject, s.now())
}

func (s *Scorer) reasons(l mls.Listing, subj *Subject, now time.Time) []Reason {
	if subj == nil {
		return nil
	}
	var out []Reason
	add := func(signal string, impact float64, format string, args ...any) {
		if impact != 0 {
			out = append(out, Reason{Signal: signal, Detail: fmt.Sprintf(format, args...), Impact: impact})
		}
	}

	if subj.HasCoordinates() && l.Coordinates != nil {
		miles := DistanceMiles(*subj.Lat, *subj.Lon, l.Coordinates.Lat, l.Coordinates.Lng)
		add("distance", s.distanceAdjustment(miles), "%.2f mi from subject", miles)
	}
	if subj.Beds != nil && l.Beds > 0 {
		diff := math.Abs(float64(l.Beds - *subj.Beds))
		if diff <= s.cfg.Beds.MaxDiff {
			add("beds", s.cfg.Beds.Bonus, "%d beds vs %d", l.Beds, *subj.Beds)
		}
	}
	if subj.Baths != nil && l.Baths > 0 {
		diff := math.Abs(l.Baths - *subj.Baths)
		if diff <= s.cfg.Baths.MaxDiff {
			add("baths", s.cfg.Baths.Bonus, "%.1f baths vs %.1f", l.Baths, *subj.Baths)
		}
	}
	if subj.Sqft != nil && *subj.Sqft > 0 && l.Sqft > 0 {
		ratio := math.Abs(float64(l.Sqft-*subj.Sqft)) / float64(*subj.Sqft)
		add("size", s.sizeAdjustment(ratio), "%d sqft, %.0f%% from subject", l.Sqft, ratio*100)
	}
	if subj.PropertyType != "" && l.PropertyType == subj.PropertyType {
		add("type", s.cfg.TypeMatchBonus, "property type %s", l.PropertyType)
	}
	if l.IsClosed() {
		add("status", s.cfg.ClosedBonus, "status %s", l.Status)
	}
	if l.CloseDate != nil {
		add("recency", s.recencyAdjustment(*l.CloseDate, now), "sold %s", l.CloseDate.Format("2006-01-02"))
	}
	return out
}

func (s *Scorer) distanceAdjustment(miles float64) float64 {
	d := s.cfg.Distance
	switch {
	case miles <= d.NearMiles:
		return d.NearBonus
	case miles <= d.CloseMiles:
		return d.CloseBonus
	case miles <= d.MidMiles:
		return d.MidBonus
	case miles > d.FarMiles:
		return -d.FarPenalty
	}
	return 0
}

func (s *Scorer) sizeAdjustment(ratio float64) float64 {
	z := s.cfg.Size
	switch {
	case ratio <= z.CloseRatio:
		return z.CloseBonus
	case ratio <= z.NearRatio:
		return z.NearBonus
	case ratio > z.FarRatio:
		return -z.FarPenalty
	}
	return 0
}

func (s *Scorer) recencyAdjustment(sold, now time.Time) float64 {
	r := s.cfg.Recency
	switch {
	case !sold.Before(now.AddDate(0, -r.RecentMonths, 0)):
		return r.RecentBonus
	case !sold.Before(now.AddDate(0, -r.MidMonths, 0)):
		return r.MidBonus
	case !sold.Before(now.AddDate(0, -r.OldMonths, 0)):
		return r.OldBonus
	}
	return 0
}

// DistanceMiles is the great-circle distance between two points.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * earthRadiusMiles
}
