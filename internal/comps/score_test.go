package comps

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/cma-api/mls"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const (
	subjectLat     = 30.2672
	subjectLon     = -97.7431
	milesPerDegLat = earthRadiusMiles * math.Pi / 180
)

func ptr[T any](v T) *T { return &v }

// north returns coordinates the given distance due north of the subject.
func north(miles float64) *mls.Coordinates {
	return &mls.Coordinates{Lat: subjectLat + miles/milesPerDegLat, Lng: subjectLon}
}

func monthsAgo(m int) *time.Time {
	t := fixedNow.AddDate(0, -m, 0)
	return &t
}

func testScorer() *Scorer {
	return NewScorer(DefaultScoring(), func() time.Time { return fixedNow })
}

func TestDistanceMiles(t *testing.T) {
	c := north(3)
	assert.InDelta(t, 3.0, DistanceMiles(subjectLat, subjectLon, c.Lat, c.Lng), 0.001)
	assert.InDelta(t, 0.0, DistanceMiles(subjectLat, subjectLon, subjectLat, subjectLon), 1e-9)
	// Austin to Dallas is roughly 182 miles.
	assert.InDelta(t, 182, DistanceMiles(30.2672, -97.7431, 32.7767, -96.7970), 3)
}

func TestScore_NoSubject(t *testing.T) {
	s := testScorer()
	l := mls.Listing{Status: mls.StatusClosed, CloseDate: monthsAgo(1), Coordinates: north(0.1), Beds: 3}
	assert.Equal(t, 100.0, s.Score(l, nil))
	assert.Nil(t, s.Explain(l, nil))
}

func TestScore_Signals(t *testing.T) {
	subject := &Subject{
		Lat:          ptr(subjectLat),
		Lon:          ptr(subjectLon),
		Beds:         ptr(3),
		Baths:        ptr(2.0),
		Sqft:         ptr(1000),
		PropertyType: "Residential",
	}

	tests := []struct {
		name    string
		listing mls.Listing
		want    float64
	}{
		{"nothing known", mls.Listing{Status: mls.StatusActive}, 100},
		{"within half mile", mls.Listing{Coordinates: north(0.3)}, 150},
		{"within one mile", mls.Listing{Coordinates: north(0.8)}, 130},
		{"within two miles", mls.Listing{Coordinates: north(1.5)}, 110},
		{"between two and five miles", mls.Listing{Coordinates: north(3)}, 100},
		{"beyond five miles", mls.Listing{Coordinates: north(6)}, 80},
		{"beds within one", mls.Listing{Beds: 4}, 125},
		{"beds too far", mls.Listing{Beds: 5}, 100},
		{"baths within one", mls.Listing{Baths: 2.5}, 125},
		{"baths too far", mls.Listing{Baths: 3.5}, 100},
		{"size within 30%", mls.Listing{Sqft: 1250}, 120},
		{"size exactly 30%", mls.Listing{Sqft: 1300}, 120},
		{"size within 50%", mls.Listing{Sqft: 1400}, 110},
		{"size exactly 50%", mls.Listing{Sqft: 1500}, 110},
		{"size exactly double", mls.Listing{Sqft: 2000}, 100},
		{"size smaller within 50%", mls.Listing{Sqft: 600}, 110},
		{"size between 50% and 100%", mls.Listing{Sqft: 1800}, 100},
		{"size more than double", mls.Listing{Sqft: 2100}, 85},
		{"type match", mls.Listing{PropertyType: "Residential"}, 115},
		{"type mismatch", mls.Listing{PropertyType: "residential"}, 100},
		{"closed", mls.Listing{Status: mls.StatusClosed}, 130},
		{"sold alias", mls.Listing{Status: "Sold"}, 130},
		{"sold last month", mls.Listing{CloseDate: monthsAgo(1)}, 120},
		{"sold exactly three months ago", mls.Listing{CloseDate: monthsAgo(3)}, 120},
		{"sold five months ago", mls.Listing{CloseDate: monthsAgo(5)}, 115},
		{"sold exactly six months ago", mls.Listing{CloseDate: monthsAgo(6)}, 115},
		{"sold ten months ago", mls.Listing{CloseDate: monthsAgo(10)}, 105},
		{"sold exactly a year ago", mls.Listing{CloseDate: monthsAgo(12)}, 105},
		{"sold over a year ago", mls.Listing{CloseDate: monthsAgo(14)}, 100},
		{
			"everything at once",
			mls.Listing{
				Coordinates:  north(0.3),
				Beds:         4,
				Baths:        2.5,
				Sqft:         1150,
				PropertyType: "Residential",
				Status:       mls.StatusClosed,
				CloseDate:    monthsAgo(2),
			},
			100 + 50 + 25 + 25 + 20 + 15 + 30 + 20,
		},
	}
	s := testScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.listing, subject))
		})
	}
}

func TestScore_DistanceBoundariesInclusive(t *testing.T) {
	s := testScorer()
	tests := []struct {
		miles float64
		want  float64
	}{
		{0.5, 50},
		{1, 30},
		{2, 10},
		{5, 0},
		{5.01, -20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.distanceAdjustment(tt.miles), "%.2f mi", tt.miles)
	}
	assert.Equal(t, 100.0, s.Score(mls.Listing{Coordinates: north(4.99)}, &Subject{Lat: ptr(subjectLat), Lon: ptr(subjectLon)}))
}

func TestScore_MissingSubjectFields(t *testing.T) {
	s := testScorer()
	l := mls.Listing{Coordinates: north(0.1), Beds: 3, Baths: 2, Sqft: 1000}

	assert.Equal(t, 100.0, s.Score(l, &Subject{}), "no subject attributes")
	assert.Equal(t, 100.0, s.Score(l, &Subject{Lat: ptr(subjectLat)}), "half a coordinate")
	assert.Equal(t, 100.0, s.Score(mls.Listing{}, &Subject{Beds: ptr(0), Baths: ptr(0.0)}), "candidate without beds or baths")
	assert.Equal(t, 100.0, s.Score(l, &Subject{Sqft: ptr(0)}), "subject sqft zero")
}

func TestScore_DistanceMonotonic(t *testing.T) {
	s := testScorer()
	subject := &Subject{Lat: ptr(subjectLat), Lon: ptr(subjectLon)}
	prev := s.Score(mls.Listing{Coordinates: north(0)}, subject)
	for d := 0.05; d <= 12; d += 0.05 {
		cur := s.Score(mls.Listing{Coordinates: north(d)}, subject)
		require.LessOrEqual(t, cur, prev, "score rose at %.2f mi", d)
		prev = cur
	}
}

func TestExplain(t *testing.T) {
	s := testScorer()
	subject := &Subject{Beds: ptr(3), PropertyType: "Condo"}
	reasons := s.Explain(mls.Listing{Beds: 3, PropertyType: "Condo", Status: mls.StatusClosed}, subject)

	signals := make([]string, 0, len(reasons))
	var sum float64
	for _, r := range reasons {
		signals = append(signals, r.Signal)
		sum += r.Impact
		assert.NotEmpty(t, r.Detail)
	}
	assert.Equal(t, []string{"beds", "type", "status"}, signals)
	assert.Equal(t, 70.0, sum)
}

func TestParseScoringConfig(t *testing.T) {
	cfg := DefaultScoring()
	err := ParseScoringConfig([]byte(`
base = 50.0
closed_bonus = 0.0

[distance]
near_bonus = 99.0
`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.Base)
	assert.Equal(t, 0.0, cfg.ClosedBonus)
	assert.Equal(t, 99.0, cfg.Distance.NearBonus)
	assert.Equal(t, 30.0, cfg.Distance.CloseBonus, "unset keys keep defaults")
	assert.Equal(t, 25.0, cfg.Beds.Bonus)

	cfg = DefaultScoring()
	assert.Error(t, ParseScoringConfig([]byte(`bogus_key = 1`), &cfg))
}

func TestLoadScoringConfig(t *testing.T) {
	cfg, err := LoadScoringConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScoring(), cfg)

	path := filepath.Join(t.TempDir(), "scoring.toml")
	require.NoError(t, os.WriteFile(path, []byte("[recency]\nrecent_months = 1\n"), 0o600))
	cfg, err = LoadScoringConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Recency.RecentMonths)
	assert.Equal(t, 6, cfg.Recency.MidMonths)

	_, err = LoadScoringConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
