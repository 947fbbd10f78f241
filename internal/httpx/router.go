package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/ad-cutoff/internal/analytics"
	"github.com/AngelCh415/ad-cutoff/internal/config"
	"github.com/AngelCh415/ad-cutoff/internal/export"
	"github.com/AngelCh415/ad-cutoff/internal/ingest"
	"github.com/AngelCh415/ad-cutoff/internal/metrics"
	"github.com/AngelCh415/ad-cutoff/internal/utils"
)

type Deps struct {
	Log      *slog.Logger
	Cfg      config.Config
	ETL      *ingest.ETL
	Metrics  *metrics.Service
	Sink     *export.Sink
	Gatherer prometheus.Gatherer
}

type batchResponse struct {
	RunID        string   `json:"run_id"`
	Sources      int      `json:"sources"`
	Rows         int      `json:"rows"`
	Discarded    int      `json:"discarded"`
	Ads          int      `json:"ads"`
	Actionable   int      `json:"actionable"`
	SourceErrors []string `json:"source_errors,omitempty"`
}

func NewRouter(d Deps) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": "ready", "batches": d.Metrics.Batches()})
	})
	if d.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.Post("/batches", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, d.Cfg.MaxUploadBytes)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			http.Error(w, "multipart form required: "+err.Error(), 400)
			return
		}
		defer r.MultipartForm.RemoveAll()

		sources, closeAll, err := formSources(r.MultipartForm.File["files"])
		defer closeAll()
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		b, err := d.ETL.Process(r.Context(), sources)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSONStatus(w, 201, summarizeBatch(b))
	})

	mux.Post("/ingest/run", func(w http.ResponseWriter, r *http.Request) {
		b, err := d.ETL.Run(r.Context())
		if err != nil {
			code := 502
			if errors.Is(err, ingest.ErrNoSources) {
				code = 400
			}
			http.Error(w, err.Error(), code)
			return
		}
		writeJSONStatus(w, 201, summarizeBatch(b))
	})

	mux.Get("/ads", func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Metrics.Actionable(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, list)
	})

	mux.Get("/ads/{adID}", func(w http.ResponseWriter, r *http.Request) {
		a, err := d.Metrics.Ad(chi.URLParam(r, "adID"))
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, map[string]any{"summary": metrics.Summarize(a), "days": a.Days, "optimal": a.Optimal})
	})

	mux.Get("/ads/{adID}/export", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "adID")
		rows, err := d.Metrics.Export(id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(export.FileName(id))))
		if err := export.WriteCSV(w, rows); err != nil {
			d.Log.Error("export write failed", slog.String("ad", id), slog.String("err", err.Error()))
		}
	})

	mux.Post("/ads/{adID}/export/push", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "adID")
		rows, err := d.Metrics.Export(id)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		n, err := d.Sink.Push(r.Context(), id, rows)
		if err != nil {
			code := 502
			if errors.Is(err, export.ErrSinkNotConfigured) {
				code = 503
			}
			http.Error(w, err.Error(), code)
			return
		}
		writeJSON(w, map[string]any{"exported": n})
	})

	return mux
}

func formSources(files []*multipart.FileHeader) ([]ingest.Source, func(), error) {
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(files) == 0 {
		return nil, closeAll, ingest.ErrNoSources
	}
	out := make([]ingest.Source, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		closers = append(closers, f.Close)
		out = append(out, ingest.Source{Name: fh.Filename, Body: f})
	}
	return out, closeAll, nil
}

func summarizeBatch(b *analytics.Batch) batchResponse {
	return batchResponse{
		RunID:        b.RunID,
		Sources:      b.Sources,
		Rows:         b.Rows,
		Discarded:    b.Discarded,
		Ads:          len(b.Ads),
		Actionable:   len(analytics.Actionable(b.Ads, nil)),
		SourceErrors: b.SourceErrors,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, metrics.ErrNoBatch), errors.Is(err, metrics.ErrAdUnknown):
		return 404
	default:
		return 400
	}
}

func writeJSON(w http.ResponseWriter, v any) { writeJSONStatus(w, 200, v) }

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
