package comps

import (
	"cmp"
	"slices"

	"github.com/yourorg/cma-api/mls"
)

// Scored pairs a candidate with its transient relevance score.
type Scored struct {
	Listing mls.Listing
	Score   float64
}

// Rank scores every candidate and sorts them by descending score. Equal scores
// keep provider order.
func Rank(s *Scorer, candidates []mls.Listing, subject *Subject) []Scored {
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		out[i] = Scored{Listing: c, Score: s.Score(c, subject)}
	}
	slices.SortStableFunc(out, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// Page returns the listings of the 1-based page, scores stripped.
func Page(ranked []Scored, limit, page int) []mls.Listing {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	if len(ranked) == 0 || page-1 > (len(ranked)-1)/limit {
		return []mls.Listing{}
	}
	start := (page - 1) * limit
	end := min(start+limit, len(ranked))
	out := make([]mls.Listing, 0, end-start)
	for _, r := range ranked[start:end] {
		out = append(out, r.Listing)
	}
	return out
}

func totalPages(total, limit int) int {
	if total == 0 || limit < 1 {
		return 0
	}
	return (total + limit - 1) / limit
}
