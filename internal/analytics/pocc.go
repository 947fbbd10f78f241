package analytics

import (
	"math"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

// Calibration constants for the POCC model.
const (
	DefaultAverageROAS = 1.77
	TargetROAS         = 2.5
	EvidenceSpend      = 50000.0
	StabilityWindow    = 3
	BudgetDiscount     = 0.1
)

// Score computes the POCC breakdown for every day of the series, in order.
func Score(series []models.CumulativeDayMetric, averageROAS float64) []models.POCCScore {
	out := make([]models.POCCScore, len(series))
	for i := range series {
		out[i] = scoreDay(series, i, averageROAS)
	}
	return out
}

func scoreDay(series []models.CumulativeDayMetric, i int, averageROAS float64) models.POCCScore {
	day := series[i]

	future := futureROAS(series, i)
	rsi := day.CumulativeROAS / averageROAS
	sdi := stability(series, i)

	efi := 1.0
	if future != 0 {
		efi = day.CumulativeROAS / future
	}

	dsi := math.Min(day.CumulativeSpend/EvidenceSpend, 1)

	var rdi float64
	remaining := day.Budget - day.CumulativeSpend
	if remaining > 0 && day.Budget > 0 {
		rdi = BudgetDiscount * (remaining / day.Budget)
	}

	return models.POCCScore{
		Date:                 day.Date,
		Label:                day.Label,
		RSI:                  rsi,
		SDI:                  sdi,
		EFI:                  efi,
		DSI:                  dsi,
		RDI:                  rdi,
		POCC:                 rsi*sdi*efi*dsi - rdi,
		CumulativeROAS:       day.CumulativeROAS,
		CumulativeSpend:      day.CumulativeSpend,
		DailyROAS:            day.DailyROAS,
		FutureROAS:           future,
		TargetReached:        day.CumulativeROAS >= TargetROAS,
		SufficientData:       day.CumulativeSpend >= EvidenceSpend,
		EfficiencyDecreasing: day.CumulativeROAS > future,
	}
}

// futureROAS averages daily ROAS strictly after i. The last day compares
// against itself so it never reads as declining.
func futureROAS(series []models.CumulativeDayMetric, i int) float64 {
	rest := series[i+1:]
	if len(rest) == 0 {
		return series[i].DailyROAS
	}
	var sum float64
	for _, d := range rest {
		sum += d.DailyROAS
	}
	return sum / float64(len(rest))
}

// stability is 1 minus the coefficient of variation of daily ROAS over the
// trailing window ending at i, 0 when the window mean is 0.
func stability(series []models.CumulativeDayMetric, i int) float64 {
	start := i - (StabilityWindow - 1)
	if start < 0 {
		start = 0
	}
	window := series[start : i+1]
	n := float64(len(window))

	var sum float64
	for _, d := range window {
		sum += d.DailyROAS
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, d := range window {
		variance += math.Pow(d.DailyROAS-mean, 2)
	}
	variance /= n
	return 1 - math.Sqrt(variance)/mean
}
