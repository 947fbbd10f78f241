package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

func f(v float64) *float64 { return &v }

func day(n int) *time.Time {
	d := time.Date(2025, 5, n, 0, 0, 0, 0, time.UTC)
	return &d
}

func rec(ad string, dayN int, spend, roas float64) models.RawRecord {
	return models.RawRecord{AdID: ad, ReportDate: day(dayN), Spend: f(spend), ROAS: f(roas)}
}

// six days of 10000 spend; roas per day given
func sixDays(ad string, roas ...float64) []models.RawRecord {
	out := make([]models.RawRecord, 0, len(roas))
	for i, r := range roas {
		out = append(out, rec(ad, i+1, 10000, r))
	}
	return out
}

func TestGroupDailySumsAndLastWriteWins(t *testing.T) {
	rows := []models.RawRecord{
		{AdID: "A", ReportDate: day(2), Spend: f(100), ROAS: f(2), Clicks: f(3), Conversions: f(1), Budget: f(1000)},
		{AdID: "A", ReportDate: day(1), Spend: f(50), ROAS: f(4)},
		{AdID: "A", ReportDate: day(2), Spend: f(200), ROAS: f(5), Clicks: f(7), Budget: f(2000)},
		{AdID: "A", Spend: f(999), ROAS: f(9)}, // no date
	}
	got := GroupDaily(rows)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].Label)
	assert.Equal(t, 50.0, got[0].Spend)
	assert.Equal(t, 4.0, got[0].ROAS)

	assert.Equal(t, "2", got[1].Label)
	assert.Equal(t, 300.0, got[1].Spend)
	assert.Equal(t, 10.0, got[1].Clicks)
	assert.Equal(t, 1.0, got[1].Conversions)
	assert.Equal(t, 5.0, got[1].ROAS)
	assert.Equal(t, 2000.0, got[1].Budget)
}

func TestGroupDailyKeepsMonthsApart(t *testing.T) {
	apr := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	may := time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC)
	got := GroupDaily([]models.RawRecord{
		{AdID: "A", ReportDate: &may, Spend: f(10)},
		{AdID: "A", ReportDate: &apr, Spend: f(20)},
	})
	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(apr))
	assert.Equal(t, "7", got[0].Label)
	assert.Equal(t, "7", got[1].Label)
}

func TestAverageROASFallback(t *testing.T) {
	assert.Equal(t, DefaultAverageROAS, AverageROAS(nil))
	assert.Equal(t, DefaultAverageROAS, AverageROAS([]models.RawRecord{{AdID: "A", Spend: f(1)}}))
	// undated rows still count toward the average
	got := AverageROAS([]models.RawRecord{rec("A", 1, 1, 2), {AdID: "A", Spend: f(1), ROAS: f(4)}})
	assert.Equal(t, 3.0, got)
}

func TestBuildCumulativeSkipsZeroSpend(t *testing.T) {
	buckets := []models.DailyBucket{
		{Label: "1", Spend: 100, ROAS: 2, Conversions: 1},
		{Label: "2", Spend: 0, ROAS: 9, Conversions: 5},
		{Label: "3", Spend: 300, ROAS: 4, Conversions: 2},
	}
	got := BuildCumulative(buckets)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[1].Label)
	assert.Equal(t, 400.0, got[1].CumulativeSpend)
	assert.Equal(t, 3.0, got[1].CumulativeConversions)
	assert.Equal(t, 1400.0, got[1].CumulativeRevenue)
	assert.InDelta(t, 3.5, got[1].CumulativeROAS, 1e-9)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].CumulativeSpend, got[i-1].CumulativeSpend)
		assert.GreaterOrEqual(t, got[i].CumulativeRevenue, got[i-1].CumulativeRevenue)
	}
}

func TestScoreIndexBounds(t *testing.T) {
	series := BuildCumulative([]models.DailyBucket{
		{Label: "1", Spend: 20000, ROAS: 0, Budget: 100000},
		{Label: "2", Spend: 40000, ROAS: 3, Budget: 100000},
		{Label: "3", Spend: 10000, ROAS: 0, Budget: 0},
	})
	scores := Score(series, 2)
	require.Len(t, scores, 3)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s.DSI, 0.0)
		assert.LessOrEqual(t, s.DSI, 1.0)
		assert.GreaterOrEqual(t, s.RDI, 0.0)
		assert.LessOrEqual(t, s.RDI, BudgetDiscount)
		if s.FutureROAS == 0 {
			assert.Equal(t, 1.0, s.EFI)
		}
	}
	// day 1: remaining 80000 of 100000
	assert.InDelta(t, 0.08, scores[0].RDI, 1e-9)
	assert.InDelta(t, 0.4, scores[0].DSI, 1e-9)
	// day 2 future is day 3 only, roas 0
	assert.Equal(t, 0.0, scores[1].FutureROAS)
	assert.Equal(t, 1.0, scores[1].EFI)
	// day 3 has no budget
	assert.Equal(t, 0.0, scores[2].RDI)
	assert.Equal(t, 1.0, scores[2].DSI)
}

func TestStabilityWindow(t *testing.T) {
	series := []models.CumulativeDayMetric{
		{DailyROAS: 1}, {DailyROAS: 3}, {DailyROAS: 2}, {DailyROAS: 2},
	}
	// first day: single value, no deviation
	assert.Equal(t, 1.0, stability(series, 0))
	// window {1,3}: mean 2, std 1
	assert.InDelta(t, 0.5, stability(series, 1), 1e-9)
	// window {3,2,2}: earliest day has dropped out
	mean := 7.0 / 3
	std := math.Sqrt((math.Pow(3-mean, 2) + 2*math.Pow(2-mean, 2)) / 3)
	assert.InDelta(t, 1-std/mean, stability(series, 3), 1e-9)

	assert.Equal(t, 0.0, stability([]models.CumulativeDayMetric{{DailyROAS: 0}}, 0))
}

func TestFlatROASHasNoOptimalDay(t *testing.T) {
	a := Analyze("A", sixDays("A", 3, 3, 3, 3, 3, 3))
	require.Len(t, a.Scores, 6)

	last := a.Scores[5]
	assert.Equal(t, 60000.0, last.CumulativeSpend)
	assert.True(t, last.SufficientData)
	for _, s := range a.Scores {
		assert.Equal(t, 3.0, s.CumulativeROAS)
		assert.True(t, s.TargetReached)
		assert.False(t, s.EfficiencyDecreasing)
	}
	assert.Nil(t, a.Optimal)
}

func TestDroppingLastDaySelectsDayFive(t *testing.T) {
	a := Analyze("A", sixDays("A", 3, 3, 3, 3, 3, 1))
	require.NotNil(t, a.Optimal)

	opt := a.Optimal
	assert.Equal(t, "5", opt.Label)
	assert.Equal(t, 3.0, opt.CumulativeROAS)
	assert.Equal(t, 1.0, opt.FutureROAS)
	assert.True(t, Eligible(*opt))
	assert.Greater(t, opt.POCC, 0.0)
	assert.InDelta(t, 3.0/(16.0/6)*3, opt.POCC, 1e-9)
	assert.Equal(t, "5월 5일", DayLabel(*opt))
}

func TestSelectOptimal(t *testing.T) {
	ok := func(label string, pocc float64) models.POCCScore {
		return models.POCCScore{Label: label, POCC: pocc, TargetReached: true, SufficientData: true, EfficiencyDecreasing: true}
	}
	tests := []struct {
		name   string
		scores []models.POCCScore
		want   string
	}{
		{"none", nil, ""},
		{"no eligible", []models.POCCScore{{Label: "1", POCC: 9, TargetReached: true}}, ""},
		{"max positive", []models.POCCScore{ok("1", 0.5), ok("2", 2), ok("3", 1)}, "2"},
		{"earliest tie", []models.POCCScore{ok("1", 1), ok("2", 2), ok("3", 2)}, "2"},
		{"ineligible higher ignored", []models.POCCScore{ok("1", 1), {Label: "2", POCC: 5}}, "1"},
		{"all non positive", []models.POCCScore{ok("1", -0.5), ok("2", -0.1), ok("3", -0.1)}, "2"},
		{"positive beats zero", []models.POCCScore{ok("1", 0), ok("2", 0.01)}, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectOptimal(tt.scores)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Label)
			assert.True(t, Eligible(*got))
		})
	}
}

func TestActionable(t *testing.T) {
	big := Analyze("big", sixDays("big", 3, 3, 3, 3, 3, 1))
	small := Analyze("small", []models.RawRecord{
		rec("small", 1, 1000, 2), rec("small", 2, 1000, 2), rec("small", 3, 1000, 2),
		rec("small", 4, 1000, 2), rec("small", 5, 1000, 2), rec("small", 6, 1000, 2),
	})
	short := Analyze("short", sixDays("short", 3, 3, 3, 3, 3))
	stopped := Analyze("stopped", append(sixDays("stopped", 3, 3, 3, 3, 3, 3), rec("stopped", 7, 0, 0)))
	quiet := Analyze("quiet", []models.RawRecord{
		rec("quiet", 1, 1000, 0), rec("quiet", 2, 1000, 0), rec("quiet", 3, 1000, 0),
		rec("quiet", 4, 1000, 0), rec("quiet", 5, 1000, 0), rec("quiet", 6, 1000, 0),
	})
	dismissed := Analyze("gone", sixDays("gone", 3, 3, 3, 3, 3, 3))

	ads := []models.AdAnalysis{small, short, stopped, quiet, dismissed, big}
	got := Actionable(ads, map[string]struct{}{"gone": {}})

	ids := make([]string, 0, len(got))
	for _, a := range got {
		ids = append(ids, a.AdID)
	}
	assert.Equal(t, []string{"big", "small"}, ids)
	assert.Equal(t, "small", ads[0].AdID, "input must not be reordered")
}

func TestLastRecordSpendUsesLatestDate(t *testing.T) {
	// The paused day arrives first in the input but is the latest by date.
	rows := append([]models.RawRecord{rec("paused", 7, 0, 0)}, sixDays("paused", 3, 3, 3, 3, 3, 3)...)
	assert.Equal(t, 0.0, LastRecordSpend(rows))

	undated := models.RawRecord{AdID: "paused", Spend: f(5000)}
	assert.Equal(t, 0.0, LastRecordSpend(append(rows, undated)))

	paused := Analyze("paused", rows)
	assert.Len(t, paused.Scores, 6)
	assert.Empty(t, Actionable([]models.AdAnalysis{paused}, nil))

	resumed := Analyze("resumed", append(sixDays("resumed", 3, 3, 3, 3, 3, 3), rec("resumed", 0, 0, 0)))
	assert.Len(t, Actionable([]models.AdAnalysis{resumed}, nil), 1)
}

func TestRunOrdersAdsDescending(t *testing.T) {
	var rows []models.RawRecord
	rows = append(rows, sixDays("alpha", 3, 3, 3, 3, 3, 1)...)
	rows = append(rows, sixDays("charlie", 3, 3, 3, 3, 3, 3)...)
	rows = append(rows, sixDays("bravo", 2, 2, 2, 2, 2, 2)...)
	rows = append(rows, models.RawRecord{Spend: f(1)})

	b := Run(rows, Options{Workers: 2})
	require.Len(t, b.Ads, 3)
	assert.Equal(t, "charlie", b.Ads[0].AdID)
	assert.Equal(t, "bravo", b.Ads[1].AdID)
	assert.Equal(t, "alpha", b.Ads[2].AdID)
	assert.NotEmpty(t, b.RunID)

	a, ok := b.Ad("alpha")
	require.True(t, ok)
	require.NotNil(t, a.Optimal)
	require.Len(t, a.Days, 6)
	assert.Equal(t, a.Scores[3].POCC, a.Days[3].POCC)
	assert.Equal(t, 6.0, a.Days[5].ScaledCumulativeSpend)

	_, ok = b.Ad("delta")
	assert.False(t, ok)
}

func TestExplainMentionsFlags(t *testing.T) {
	a := Analyze("A", sixDays("A", 3, 3, 3, 3, 3, 1))
	require.NotNil(t, a.Optimal)
	s := Explain(*a.Optimal)
	assert.Contains(t, s, "5월 5일")
	assert.Contains(t, s, "5.0만원")
	assert.Contains(t, s, "최적 중단 시점")
	assert.Contains(t, s, "목표 ROAS(✓)")
	assert.NotContains(t, s, "✗")
}
