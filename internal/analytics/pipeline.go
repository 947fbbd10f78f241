package analytics

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

// SpendScale converts spend to the 만원 unit used by chart series.
const SpendScale = 10000.0

// Batch is the full derived state of one upload.
type Batch struct {
	RunID        string              `json:"run_id"`
	CreatedAt    time.Time           `json:"created_at"`
	Sources      int                 `json:"sources"`
	Rows         int                 `json:"rows"`
	Discarded    int                 `json:"discarded"`
	SourceErrors []string            `json:"source_errors,omitempty"`
	Ads          []models.AdAnalysis `json:"ads"`
}

// Ad finds an analyzed ad by id.
func (b *Batch) Ad(id string) (models.AdAnalysis, bool) {
	for _, a := range b.Ads {
		if a.AdID == id {
			return a, true
		}
	}
	return models.AdAnalysis{}, false
}

type Options struct {
	Workers int
	Logger  *slog.Logger
}

// Run analyzes every ad in records. Records are partitioned by ad before the
// per-ad work is fanned out; results keep the descending ad id order.
func Run(records []models.RawRecord, opts Options) *Batch {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	start := time.Now()
	ids, byAd := PartitionByAd(records)
	ads := make([]models.AdAnalysis, len(ids))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			ads[i] = Analyze(id, byAd[id])
			return nil
		})
	}
	_ = g.Wait()

	b := &Batch{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Rows:      len(records),
		Ads:       ads,
	}
	log.Debug("pipeline complete",
		slog.String("run_id", b.RunID),
		slog.Int("ads", len(ads)),
		slog.Duration("took", time.Since(start)))
	return b
}

// Analyze runs the whole per-ad pipeline for one ad's records.
func Analyze(adID string, records []models.RawRecord) models.AdAnalysis {
	avg := AverageROAS(records)
	series := BuildCumulative(GroupDaily(records))
	scores := Score(series, avg)
	return models.AdAnalysis{
		AdID:            adID,
		AverageROAS:     avg,
		LastRecordSpend: LastRecordSpend(records),
		Series:          series,
		Scores:          scores,
		Days:            dayRows(series, scores),
		Optimal:         SelectOptimal(scores),
	}
}

func dayRows(series []models.CumulativeDayMetric, scores []models.POCCScore) []models.DayRow {
	out := make([]models.DayRow, len(series))
	for i, d := range series {
		out[i] = models.DayRow{
			Date:                  d.Date.Format("2006-01-02"),
			Label:                 d.Label,
			Display:               displayLabel(d.Date, d.Label),
			DailyROAS:             d.DailyROAS,
			CumulativeROAS:        d.CumulativeROAS,
			POCC:                  scores[i].POCC,
			DailySpend:            d.DailySpend,
			CumulativeSpend:       d.CumulativeSpend,
			DailyClicks:           d.DailyClicks,
			DailyConversions:      d.DailyConversions,
			CumulativeConversions: d.CumulativeConversions,
			ScaledSpend:           d.DailySpend / SpendScale,
			ScaledCumulativeSpend: d.CumulativeSpend / SpendScale,
		}
	}
	return out
}
