package analytics

import "github.com/AngelCh415/ad-cutoff/internal/models"

// BuildCumulative turns sorted daily buckets into a running series.
// Days without spend are skipped and do not reset the totals.
func BuildCumulative(buckets []models.DailyBucket) []models.CumulativeDayMetric {
	out := make([]models.CumulativeDayMetric, 0, len(buckets))
	var spend, conversions, revenue float64
	for _, b := range buckets {
		if b.Spend <= 0 {
			continue
		}
		spend += b.Spend
		conversions += b.Conversions
		revenue += b.Spend * b.ROAS
		out = append(out, models.CumulativeDayMetric{
			Date:                  b.Date,
			Label:                 b.Label,
			DailySpend:            b.Spend,
			DailyROAS:             b.ROAS,
			DailyClicks:           b.Clicks,
			DailyConversions:      b.Conversions,
			CumulativeSpend:       spend,
			CumulativeConversions: conversions,
			CumulativeRevenue:     revenue,
			CumulativeROAS:        safeDivF(revenue, spend),
			Budget:                b.Budget,
		})
	}
	return out
}

func safeDivF(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
