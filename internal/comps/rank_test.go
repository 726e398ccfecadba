package comps

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/cma-api/mls"
)

func numbered(n int, fn func(i int, l *mls.Listing)) []mls.Listing {
	out := make([]mls.Listing, n)
	for i := range out {
		out[i].ID = strconv.Itoa(i)
		if fn != nil {
			fn(i, &out[i])
		}
	}
	return out
}

func ids(ls []mls.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestRank_NoSubjectKeepsProviderOrder(t *testing.T) {
	candidates := numbered(5, func(i int, l *mls.Listing) {
		l.Beds = 5 - i
		l.Status = mls.StatusClosed
	})
	ranked := Rank(testScorer(), candidates, nil)
	for _, r := range ranked {
		assert.Equal(t, 100.0, r.Score)
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, ids(Page(ranked, 25, 1)))
}

func TestRank_Truncation(t *testing.T) {
	// every third candidate matches the subject's bed count
	candidates := numbered(30, func(i int, l *mls.Listing) {
		l.Beds = 6
		if i%3 == 0 {
			l.Beds = 3
		}
	})
	ranked := Rank(testScorer(), candidates, &Subject{Beds: ptr(3)})
	top := Page(ranked, 10, 1)

	require.Len(t, top, 10)
	assert.Equal(t, []string{"0", "3", "6", "9", "12", "15", "18", "21", "24", "27"}, ids(top))
}

func TestRank_DescendingStable(t *testing.T) {
	candidates := []mls.Listing{
		{ID: "a"},
		{ID: "b", Status: mls.StatusClosed},
		{ID: "c"},
		{ID: "d", Status: mls.StatusClosed},
	}
	ranked := Rank(testScorer(), candidates, &Subject{})
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(Page(ranked, 10, 1)))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestPage(t *testing.T) {
	ranked := Rank(testScorer(), numbered(7, nil), nil)

	assert.Equal(t, []string{"0", "1", "2"}, ids(Page(ranked, 3, 1)))
	assert.Equal(t, []string{"3", "4", "5"}, ids(Page(ranked, 3, 2)))
	assert.Equal(t, []string{"6"}, ids(Page(ranked, 3, 3)))
	assert.Empty(t, Page(ranked, 3, 4))
	assert.NotNil(t, Page(ranked, 3, 4))
	assert.Equal(t, []string{"0"}, ids(Page(ranked, 0, 0)))
	assert.Empty(t, Page(ranked, 3, 1<<62+1), "page far past the end")
	assert.Empty(t, Page(ranked, MaxLimit, math.MaxInt))
	assert.Empty(t, Page(nil, 3, 1))

	assert.Equal(t, 3, totalPages(7, 3))
	assert.Equal(t, 0, totalPages(0, 3))
	assert.Equal(t, 1, totalPages(3, 3))
}
