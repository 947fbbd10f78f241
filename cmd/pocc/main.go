package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"

	"github.com/AngelCh415/ad-cutoff/internal/analytics"
	"github.com/AngelCh415/ad-cutoff/internal/config"
	"github.com/AngelCh415/ad-cutoff/internal/export"
	"github.com/AngelCh415/ad-cutoff/internal/ingest"
	"github.com/AngelCh415/ad-cutoff/internal/models"
)

func main() {
	cfg := config.FromEnv()

	dismiss := flag.String("dismiss", "", "comma separated ad ids to leave out")
	outDir := flag.String("out", "", "directory to write one export CSV per listed ad")
	workers := flag.Int("workers", cfg.Workers, "parallel per-ad workers")
	all := flag.Bool("all", false, "list every ad, not only actionable ones")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	lvl := cfg.LogLevel
	if *verbose {
		lvl = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: pocc [flags] report.csv [report.csv ...]")
		os.Exit(2)
	}

	if err := run(context.Background(), log, flag.Args(), *workers, *dismiss, *outDir, *all, os.Stdout); err != nil {
		log.Error("pocc failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, paths []string, workers int, dismiss, outDir string, all bool, stdout io.Writer) error {
	sources, total, closeAll, err := openSources(paths)
	defer closeAll()
	if err != nil {
		return err
	}

	bar := progressbar.DefaultBytes(total, "parsing")
	for i := range sources {
		rd := progressbar.NewReader(sources[i].Body, bar)
		sources[i].Body = &rd
	}
	parsed, err := ingest.ParseBatch(ctx, sources)
	_ = bar.Finish()
	for _, se := range parsed.Errors {
		log.Warn("source parse failed", slog.String("source", se.Source), slog.String("err", se.Err.Error()))
	}
	if err != nil {
		return err
	}

	batch := analytics.Run(parsed.Records, analytics.Options{Workers: workers, Logger: log})
	log.Info("batch complete",
		slog.String("run_id", batch.RunID),
		slog.Int("records", len(parsed.Records)),
		slog.Int("discarded", parsed.Discarded),
		slog.Int("ads", len(batch.Ads)))

	ads := batch.Ads
	if !all {
		ads = analytics.Actionable(batch.Ads, dismissedSet(dismiss))
	}
	printSummary(stdout, ads)

	if outDir == "" {
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	for _, a := range ads {
		path := filepath.Join(outDir, export.FileName(a.AdID))
		if err := writeExport(path, a); err != nil {
			return err
		}
		log.Debug("export written", slog.String("ad", a.AdID), slog.String("path", path))
	}
	return nil
}

func openSources(paths []string) ([]ingest.Source, int64, func(), error) {
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	var total int64
	out := make([]ingest.Source, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, 0, closeAll, fmt.Errorf("open %s: %w", p, err)
		}
		files = append(files, f)
		if st, err := f.Stat(); err == nil {
			total += st.Size()
		}
		out = append(out, ingest.Source{Name: filepath.Base(p), Body: f})
	}
	return out, total, closeAll, nil
}

func dismissedSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

func printSummary(w io.Writer, ads []models.AdAnalysis) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AD\tDAYS\tSPEND\tCUM ROAS\tSTOP DAY\tPOCC")
	for _, a := range ads {
		last, _ := a.Final()
		stop, pocc := "-", "-"
		if a.Optimal != nil {
			stop = analytics.DayLabel(*a.Optimal)
			pocc = fmt.Sprintf("%.2f", a.Optimal.POCC)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\t%s\t%s\n",
			a.AdID, len(a.Scores), export.FormatAmount(last.CumulativeSpend), last.CumulativeROAS, stop, pocc)
	}
	tw.Flush()
}

func writeExport(path string, a models.AdAnalysis) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, export.Rows(a)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
