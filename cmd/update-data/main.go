// Command update-data rebuilds the relic catalog and price artifacts:
// fetch the WFCD drop tables, resolve a market price for every distinct
// reward item, and write the JSON files the site serves.
package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mosestyle/warframe-relic-data/internal/artifact"
	"github.com/mosestyle/warframe-relic-data/internal/config"
	"github.com/mosestyle/warframe-relic-data/pkg/catalog"
	"github.com/mosestyle/warframe-relic-data/pkg/fetch"
	"github.com/mosestyle/warframe-relic-data/pkg/logging"
	"github.com/mosestyle/warframe-relic-data/pkg/market"
	"github.com/mosestyle/warframe-relic-data/pkg/metrics"
	"github.com/mosestyle/warframe-relic-data/pkg/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.Setup(logging.Config{})
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := logging.Setup(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	ctx := context.Background()
	fetcher := fetch.New(fetch.DefaultConfig())
	writer := artifact.NewWriter(cfg.DataDir)

	relics, err := catalog.NewBuilder(fetcher).Build(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Catalog build failed")
	}
	if err := writer.WriteRelics(relics); err != nil {
		logger.Fatal().Err(err).Msg("Writing relics failed")
	}

	items := catalog.UniqueRewardItems(relics)
	logger.Info().Int("items", len(items)).Msg("Unique reward items to price")

	resolver := pricing.NewResolver(market.NewClient(fetcher), pricing.DefaultConfig())
	result, err := resolver.ResolveAll(ctx, items)
	if err != nil {
		logger.Fatal().Err(err).Msg("Price resolution failed")
	}

	if err := writer.WritePrices(result.Prices); err != nil {
		logger.Fatal().Err(err).Msg("Writing prices failed")
	}
	if err := writer.WriteMissing(result.Missing); err != nil {
		logger.Fatal().Err(err).Msg("Writing missing items failed")
	}

	// Artifacts land on disk before the threshold check so a failed run
	// still leaves evidence; the breach is what must stop publication.
	if err := result.Validate(pricing.MinPricedItems); err != nil {
		logger.Fatal().Err(err).Msg("Run produced too few prices")
	}

	logger.Info().
		Int("priced", len(result.Prices)).
		Int("missing", len(result.Missing)).
		Msg("Done")
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(metrics.Registry, promhttp.Handler()))

	logger.Info().Str("addr", addr).Msg("Serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server failed")
	}
}
