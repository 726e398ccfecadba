package comps

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/cma-api/internal/canon"
	"github.com/yourorg/cma-api/internal/logger"
	"github.com/yourorg/cma-api/mls"
)

// TierCriteria labels the single parameter set of a criteria-only search.
const TierCriteria TierKind = "criteria"

const (
	defaultTimeout      = 20 * time.Second
	defaultPerCallLimit = 50

	msgNoResults = "No properties found matching your search. Try a broader address or fewer filters."
	msgDeadline  = "The search timed out before any properties were found. Please try again."
)

// ListingsClient is the provider boundary. *mls.Client satisfies it.
type ListingsClient interface {
	SearchListings(ctx context.Context, p mls.Params) ([]byte, error)
	Configured() bool
}

type Options struct {
	Scoring          *ScoringConfig
	Timeout          time.Duration
	PerCallLimit     int
	ParallelStatuses bool
	Suffixes         *canon.SuffixTable
	Normalize        func(raw []byte) ([]mls.Listing, error)
	Now              func() time.Time
}

type Engine struct {
	client    ListingsClient
	parser    *canon.Parser
	scorer    *Scorer
	normalize func([]byte) ([]mls.Listing, error)
	now       func() time.Time

	timeout      time.Duration
	perCallLimit int
	parallel     bool
}

func NewEngine(client ListingsClient, opts Options) *Engine {
	scoring := DefaultScoring()
	if opts.Scoring != nil {
		scoring = *opts.Scoring
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		client:       client,
		parser:       canon.NewParser(opts.Suffixes),
		scorer:       NewScorer(scoring, now),
		normalize:    opts.Normalize,
		now:          now,
		timeout:      opts.Timeout,
		perCallLimit: opts.PerCallLimit,
		parallel:     opts.ParallelStatuses,
	}
	if e.normalize == nil {
		e.normalize = mls.MapListingsPayload
	}
	if e.timeout <= 0 {
		e.timeout = defaultTimeout
	}
	if e.perCallLimit <= 0 {
		e.perCallLimit = defaultPerCallLimit
	}
	return e
}

func (e *Engine) Parse(full string) canon.ParsedAddress { return e.parser.Parse(full) }

func (e *Engine) Tiers(full string) []Tier {
	return BuildTiers(e.parser.Parse(full), full)
}

func (e *Engine) Explain(l mls.Listing, subject *Subject) []Reason {
	return e.scorer.Explain(l, subject)
}

// Search runs one comparables search. Free text goes through the fallback
// chain; otherwise the criteria are sent to the provider as a single tier.
// Provider failures never surface as errors.
func (e *Engine) Search(ctx context.Context, req Request) (Response, error) {
	n := normalizeRequest(req)
	if n.search == "" && n.criteria.IsZero() {
		return Response{}, ErrNoCriteria
	}
	if e.client == nil || !e.client.Configured() {
		return Response{}, ErrProviderUnconfigured
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	log := logger.FromContext(ctx).With("component", "comps")

	var (
		out  tierOutcome
		kind TierKind
	)
	if n.search != "" {
		out, kind = e.runFallbacks(ctx, log, n)
	} else {
		t := Tier{Kind: TierCriteria, Params: n.criteria.params()}
		out = e.runTier(ctx, log, t, n)
		if len(out.listings) > 0 {
			kind = TierCriteria
		}
	}

	resp := e.respond(out.listings, n)
	resp.Tier = kind
	resp.ProviderCalls = out.calls
	if n.search != "" {
		exact := out.exact
		resp.AddressParsed = &exact
		resp.SearchStrategy = StrategyFallbackSearch
		if exact {
			resp.SearchStrategy = StrategyExactMatch
		}
	}
	if len(out.listings) == 0 {
		resp.Message = msgNoResults
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			resp.Message = msgDeadline
		}
	}
	log.Debug("comparables search done",
		"strategy", resp.SearchStrategy,
		"tier", kind,
		"provider_calls", out.calls,
		"total", resp.Total,
	)
	return resp, nil
}

func (e *Engine) respond(found []mls.Listing, n normalized) Response {
	ranked := Rank(e.scorer, found, n.subject)
	return Response{
		Listings:       Page(ranked, n.limit, n.page),
		Total:          len(ranked),
		Page:           n.page,
		TotalPages:     totalPages(len(ranked), n.limit),
		ResultsPerPage: n.limit,
	}
}

type tierOutcome struct {
	listings []mls.Listing
	exact    bool
	calls    int
}

// runFallbacks walks the tiers in order and stops at the first one that
// yields candidates. Calls across tiers are always sequential.
func (e *Engine) runFallbacks(ctx context.Context, log *slog.Logger, n normalized) (tierOutcome, TierKind) {
	var total tierOutcome
	for _, t := range e.Tiers(n.search) {
		if ctx.Err() != nil {
			log.Warn("search deadline reached, skipping remaining tiers", "tier", t.Kind)
			break
		}
		out := e.runTier(ctx, log, t, n)
		total.calls += out.calls
		if len(out.listings) > 0 {
			total.listings = out.listings
			total.exact = out.exact
			return total, t.Kind
		}
	}
	return total, ""
}

func (e *Engine) runTier(ctx context.Context, log *slog.Logger, t Tier, n normalized) tierOutcome {
	if e.parallel && len(n.statuses) > 1 {
		return e.runTierParallel(ctx, log, t, n)
	}
	var out tierOutcome
	seen := map[string]struct{}{}
	for _, status := range n.statuses {
		if ctx.Err() != nil {
			break
		}
		found := e.fetch(ctx, log, t, status, n.dateSoldDays)
		out.calls++
		out.listings = appendUnique(out.listings, seen, found)
		if t.matchesStreet() && containsStreet(found, t.Params) {
			out.exact = true
			break
		}
	}
	return out
}

// errExactMatch stops the sibling calls of a parallel tier.
var errExactMatch = errors.New("comps: exact address match")

// runTierParallel issues one call per status concurrently. Results are
// combined in status order so aggregation matches the sequential path. An
// exact match cancels the calls still in flight.
func (e *Engine) runTierParallel(ctx context.Context, log *slog.Logger, t Tier, n normalized) tierOutcome {
	slots := make([][]mls.Listing, len(n.statuses))
	g, gctx := errgroup.WithContext(ctx)
	for i, status := range n.statuses {
		g.Go(func() error {
			found := e.fetch(gctx, log, t, status, n.dateSoldDays)
			slots[i] = found
			if t.matchesStreet() && containsStreet(found, t.Params) {
				return errExactMatch
			}
			return nil
		})
	}

	out := tierOutcome{calls: len(n.statuses)}
	out.exact = errors.Is(g.Wait(), errExactMatch)
	seen := map[string]struct{}{}
	for _, found := range slots {
		out.listings = appendUnique(out.listings, seen, found)
	}
	return out
}

// fetch performs a single (tier, status) call. Any failure is logged and
// yields no candidates.
func (e *Engine) fetch(ctx context.Context, log *slog.Logger, t Tier, status string, soldDays int) []mls.Listing {
	p := t.Params
	p.Status = status
	p.Limit = e.perCallLimit
	if status == mls.StatusClosed {
		p.MinCloseDate = e.now().AddDate(0, 0, -soldDays)
	}

	raw, err := e.client.SearchListings(ctx, p)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			log.Debug("listings call cancelled", "tier", t.Kind, "status", status)
			return nil
		}
		log.Warn("listings call failed", "tier", t.Kind, "status", status, "params", p.String(), "error", err)
		return nil
	}
	listings, err := e.normalize(raw)
	if err != nil {
		log.Warn("listings payload rejected", "tier", t.Kind, "status", status, "error", err)
		return nil
	}
	return listings
}

func appendUnique(dst []mls.Listing, seen map[string]struct{}, src []mls.Listing) []mls.Listing {
	for _, l := range src {
		if key := dedupeKey(l); key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		dst = append(dst, l)
	}
	return dst
}

// dedupeKey prefers the provider id. Listings without one fall back to the
// canonical property key plus unit; listings with neither are always kept.
func dedupeKey(l mls.Listing) string {
	if l.ID != "" {
		return "id:" + l.ID
	}
	line := l.Address.Full
	if line == "" {
		line = l.Address.StreetNumber + " " + l.Address.StreetName
	}
	if strings.TrimSpace(line) == "" {
		return ""
	}
	_, _, _, _, key := canon.Canonicalize(line, l.Address.City, l.Address.State, l.Address.PostalCode)
	return "addr:" + key + "#" + strings.ToUpper(strings.TrimSpace(l.Address.Unit))
}

func containsStreet(listings []mls.Listing, p mls.Params) bool {
	for _, l := range listings {
		if canon.SameStreet(p.StreetNumber, p.StreetName, l.Address.StreetNumber, l.Address.StreetName) {
			return true
		}
	}
	return false
}
