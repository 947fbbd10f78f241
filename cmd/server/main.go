package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AngelCh415/ad-cutoff/internal/config"
	"github.com/AngelCh415/ad-cutoff/internal/export"
	"github.com/AngelCh415/ad-cutoff/internal/httpx"
	"github.com/AngelCh415/ad-cutoff/internal/ingest"
	"github.com/AngelCh415/ad-cutoff/internal/metrics"
	"github.com/AngelCh415/ad-cutoff/internal/store"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := metrics.NewCollectors(reg)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore()
	etl := ingest.NewETL(cl, st, logger, cfg, prom)
	mSvc := metrics.NewService(st)
	sink := export.NewSink(cl, cfg.SinkURL, cfg.SinkSecret)

	r := httpx.NewRouter(httpx.Deps{
		Log:      logger,
		Cfg:      cfg,
		ETL:      etl,
		Metrics:  mSvc,
		Sink:     sink,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port), slog.Int("workers", cfg.Workers))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
