package analytics

import (
	"sort"
	"strconv"
	"time"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

// PartitionByAd splits records by ad id. The returned ids are ordered
// descending, which is the order ads are analyzed and listed in.
func PartitionByAd(records []models.RawRecord) ([]string, map[string][]models.RawRecord) {
	byAd := make(map[string][]models.RawRecord)
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		byAd[r.AdID] = append(byAd[r.AdID], r)
	}
	ids := make([]string, 0, len(byAd))
	for id := range byAd {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, byAd
}

// GroupDaily folds one ad's records into daily buckets keyed by calendar date.
// Spend, clicks and conversions are summed; ROAS and budget keep the last value seen.
// Records without a report date are dropped.
func GroupDaily(records []models.RawRecord) []models.DailyBucket {
	idx := make(map[time.Time]int)
	var out []models.DailyBucket
	for _, r := range records {
		if r.ReportDate == nil {
			continue
		}
		d := dayUTC(*r.ReportDate)
		i, ok := idx[d]
		if !ok {
			i = len(out)
			idx[d] = i
			out = append(out, models.DailyBucket{Date: d, Label: strconv.Itoa(d.Day())})
		}
		b := &out[i]
		b.Spend += r.SpendOr0()
		b.Clicks += r.ClicksOr0()
		b.Conversions += r.ConversionsOr0()
		b.ROAS = r.ROASOr0()
		b.Budget = r.BudgetOr0()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// AverageROAS is the unweighted mean of every record's ROAS for the ad,
// falling back to DefaultAverageROAS when there is nothing to average or the mean is zero.
func AverageROAS(records []models.RawRecord) float64 {
	if len(records) == 0 {
		return DefaultAverageROAS
	}
	var sum float64
	for _, r := range records {
		sum += r.ROASOr0()
	}
	avg := sum / float64(len(records))
	if avg == 0 || avg != avg {
		return DefaultAverageROAS
	}
	return avg
}

// LastRecordSpend returns the spend of the latest record by report date.
// Records with equal dates keep their input order; undated records sort first.
func LastRecordSpend(records []models.RawRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sorted := make([]models.RawRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].ReportDate, sorted[j].ReportDate
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	return sorted[len(sorted)-1].SpendOr0()
}

func dayUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
