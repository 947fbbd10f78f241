package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/AngelCh415/ad-cutoff/internal/analytics"
	"github.com/AngelCh415/ad-cutoff/internal/config"
	"github.com/AngelCh415/ad-cutoff/internal/metrics"
	"github.com/AngelCh415/ad-cutoff/internal/store"
	"github.com/AngelCh415/ad-cutoff/internal/utils"
)

type ETL struct {
	c    HTTPClient
	st   *store.MemoryStore
	log  *slog.Logger
	cfg  config.Config
	prom *metrics.Collectors
}

func NewETL(c HTTPClient, st *store.MemoryStore, log *slog.Logger, cfg config.Config, prom *metrics.Collectors) *ETL {
	return &ETL{c: c, st: st, log: log, cfg: cfg, prom: prom}
}

// Run fetches the configured report URLs and processes them as one batch.
func (e *ETL) Run(ctx context.Context) (*analytics.Batch, error) {
	b := utils.NewBackoff(100*time.Millisecond, e.cfg.FetchRetries)
	sources, err := FetchSources(ctx, e.c, e.cfg.ReportURLs, b, e.log)
	if err != nil {
		e.prom.ObserveFailure(0)
		return nil, err
	}
	return e.Process(ctx, sources)
}

// Process parses the sources, scores every ad and replaces the stored batch.
func (e *ETL) Process(ctx context.Context, sources []Source) (*analytics.Batch, error) {
	start := time.Now()
	parsed, err := ParseBatch(ctx, sources)
	for _, se := range parsed.Errors {
		e.log.Warn("source parse failed", slog.String("source", se.Source), slog.String("err", se.Err.Error()))
	}
	if err != nil {
		e.prom.ObserveFailure(len(parsed.Errors))
		return nil, err
	}

	batch := analytics.Run(parsed.Records, analytics.Options{Workers: e.cfg.Workers, Logger: e.log})
	batch.Sources = parsed.Sources
	batch.Rows = len(parsed.Records) + parsed.Discarded
	batch.Discarded = parsed.Discarded
	batch.SourceErrors = parsed.ErrorStrings()
	e.st.Replace(batch)

	took := time.Since(start)
	e.prom.ObserveBatch(batch, took.Seconds())
	e.log.Info("batch complete",
		slog.String("run_id", batch.RunID),
		slog.Int("sources", batch.Sources),
		slog.Int("rows", batch.Rows),
		slog.Int("discarded", batch.Discarded),
		slog.Int("ads", len(batch.Ads)),
		slog.Int("actionable", len(analytics.Actionable(batch.Ads, nil))),
		slog.Duration("took", took))
	return batch, nil
}
