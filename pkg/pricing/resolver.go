// Package pricing drives the serial price-resolution batch over the
// distinct reward items of the relic catalog.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mosestyle/warframe-relic-data/pkg/fetch"
	"github.com/mosestyle/warframe-relic-data/pkg/logging"
	"github.com/mosestyle/warframe-relic-data/pkg/market"
)

// Prometheus metrics for batch resolution.
var (
	itemsPricedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updater_items_priced_total",
		Help: "Items that resolved to a price",
	})

	itemsMissingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updater_items_missing_total",
		Help: "Items no slug candidate could price",
	})

	slugFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updater_slug_fallbacks_total",
		Help: "Items priced through a non-primary slug candidate",
	})
)

// MinPricedItems is the publication floor: a run pricing fewer items than
// this must fail loudly instead of silently emitting a broken dataset.
const MinPricedItems = 25

// ErrTooFewPriced is returned by Result.Validate on a threshold breach.
var ErrTooFewPriced = errors.New("too few items priced")

// StatisticsSource is the slice of the market client the resolver needs.
type StatisticsSource interface {
	ItemStatistics(ctx context.Context, slug string) (*market.StatisticsDocument, error)
}

// Config holds resolver pacing and reporting knobs.
type Config struct {
	// ItemDelay is the unconditional pause after each item, keeping the
	// batch at roughly 2.5 requests per second.
	ItemDelay time.Duration

	// TransientPause is the extra hold after a transient failure burns an
	// item for the run.
	TransientPause time.Duration

	// ProgressEvery controls coarse progress logging.
	ProgressEvery int
}

// DefaultConfig returns the production pacing.
func DefaultConfig() Config {
	return Config{
		ItemDelay:      400 * time.Millisecond,
		TransientPause: 1250 * time.Millisecond,
		ProgressEvery:  25,
	}
}

// Result partitions the item set after a run: every input name lands in
// exactly one of Prices or Missing.
type Result struct {
	Prices  map[string]int
	Missing []string
}

// Validate reports a systemic failure when fewer than min items priced.
// Callers abort the pipeline on this error rather than publish the result.
func (r *Result) Validate(min int) error {
	if len(r.Prices) < min {
		return fmt.Errorf("%w: %d priced, need at least %d", ErrTooFewPriced, len(r.Prices), min)
	}
	return nil
}

// Resolver iterates the item set strictly serially, one candidate slug at
// a time, accumulating the priced/missing partition.
type Resolver struct {
	source StatisticsSource
	cfg    Config
	logger zerolog.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration)
}

// NewResolver creates a resolver. Zero config fields fall back to defaults.
func NewResolver(source StatisticsSource, cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.ItemDelay <= 0 {
		cfg.ItemDelay = def.ItemDelay
	}
	if cfg.TransientPause <= 0 {
		cfg.TransientPause = def.TransientPause
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = def.ProgressEvery
	}

	return &Resolver{
		source: source,
		cfg:    cfg,
		logger: logging.NewLogger("resolver"),
		sleep:  sleepCtx,
	}
}

// ResolveAll prices every distinct item name in lexicographic order. Items
// whose candidates all come back without data land in Missing; a transient
// upstream failure costs only the affected item, never the batch. The
// per-item pacing delay applies after every item regardless of outcome.
func (r *Resolver) ResolveAll(ctx context.Context, itemNames []string) (*Result, error) {
	items := distinctSorted(itemNames)
	result := &Result{Prices: make(map[string]int, len(items))}

	r.logger.Info().Int("items", len(items)).Msg("Starting price resolution")

	for i, name := range items {
		price, ok, err := r.resolveItem(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", name, err)
		}
		if ok {
			result.Prices[name] = price
			itemsPricedTotal.Inc()
		} else {
			result.Missing = append(result.Missing, name)
			itemsMissingTotal.Inc()
		}

		if (i+1)%r.cfg.ProgressEvery == 0 {
			r.logger.Info().
				Int("done", i+1).
				Int("total", len(items)).
				Int("priced", len(result.Prices)).
				Int("missing", len(result.Missing)).
				Msg("Pricing progress")
		}

		r.sleep(ctx, r.cfg.ItemDelay)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	r.logger.Info().
		Int("priced", len(result.Prices)).
		Int("missing", len(result.Missing)).
		Int("total", len(items)).
		Msg("Price resolution done")

	return result, nil
}

// resolveItem tries each slug candidate in order; the first candidate that
// yields a price wins and the rest are not tried. A candidate without data
// (404/403 upstream) is skipped; a transient-class failure abandons the
// item for this run after a short hold. Anything else aborts the batch.
func (r *Resolver) resolveItem(ctx context.Context, name string) (int, bool, error) {
	for i, slug := range market.SlugCandidates(name) {
		doc, err := r.source.ItemStatistics(ctx, slug)
		if err != nil {
			if fetch.IsTransient(err) {
				r.logger.Warn().
					Err(err).
					Str("item", name).
					Str("slug", slug).
					Msg("Transient failure, item unresolved this run")
				r.sleep(ctx, r.cfg.TransientPause)
				return 0, false, nil
			}
			return 0, false, err
		}
		if doc == nil {
			continue
		}
		if price, ok := market.ExtractPrice(doc); ok {
			if i > 0 {
				slugFallbacksTotal.Inc()
				r.logger.Debug().
					Str("item", name).
					Str("slug", slug).
					Msg("Priced via fallback slug")
			}
			return price, true, nil
		}
	}
	return 0, false, nil
}

func distinctSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
