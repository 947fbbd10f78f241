package models

import "time"

// RawRecord is one parsed report row. Optional numeric fields stay nil when
// the cell was missing so callers can tell "absent" from "zero".
type RawRecord struct {
	Source      string
	Line        int
	AdID        string
	ReportDate  *time.Time
	Spend       *float64
	ROAS        *float64
	Clicks      *float64
	Conversions *float64
	Budget      *float64
}

// Valid reports whether the row survives ingestion: ad id present and spend defined.
func (r RawRecord) Valid() bool { return r.AdID != "" && r.Spend != nil }

func (r RawRecord) SpendOr0() float64       { return or0(r.Spend) }
func (r RawRecord) ROASOr0() float64        { return or0(r.ROAS) }
func (r RawRecord) ClicksOr0() float64      { return or0(r.Clicks) }
func (r RawRecord) ConversionsOr0() float64 { return or0(r.Conversions) }
func (r RawRecord) BudgetOr0() float64      { return or0(r.Budget) }

func or0(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

type DailyBucket struct {
	Date        time.Time
	Label       string // day of month, e.g. "7"
	Spend       float64
	ROAS        float64 // last record of the day wins
	Clicks      float64
	Conversions float64
	Budget      float64 // last record of the day wins
}

type CumulativeDayMetric struct {
	Date                  time.Time
	Label                 string
	DailySpend            float64
	DailyROAS             float64
	DailyClicks           float64
	DailyConversions      float64
	CumulativeSpend       float64
	CumulativeConversions float64
	CumulativeRevenue     float64
	CumulativeROAS        float64
	Budget                float64
}

type POCCScore struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"`

	RSI  float64 `json:"rsi"`
	SDI  float64 `json:"sdi"`
	EFI  float64 `json:"efi"`
	DSI  float64 `json:"dsi"`
	RDI  float64 `json:"rdi"`
	POCC float64 `json:"pocc"`

	CumulativeROAS  float64 `json:"cumulative_roas"`
	CumulativeSpend float64 `json:"cumulative_spend"`
	DailyROAS       float64 `json:"daily_roas"`
	FutureROAS      float64 `json:"future_roas"`

	TargetReached        bool `json:"target_reached"`
	SufficientData       bool `json:"sufficient_data"`
	EfficiencyDecreasing bool `json:"efficiency_decreasing"`
}

// DayRow is the per-day output row handed to presentation and export.
type DayRow struct {
	Date                  string  `json:"date"`
	Label                 string  `json:"label"`
	Display               string  `json:"display"`
	DailyROAS             float64 `json:"daily_roas"`
	CumulativeROAS        float64 `json:"cumulative_roas"`
	POCC                  float64 `json:"pocc"`
	DailySpend            float64 `json:"daily_spend"`
	CumulativeSpend       float64 `json:"cumulative_spend"`
	DailyClicks           float64 `json:"daily_clicks"`
	DailyConversions      float64 `json:"daily_conversions"`
	CumulativeConversions float64 `json:"cumulative_conversions"`
	ScaledSpend           float64 `json:"scaled_spend"`
	ScaledCumulativeSpend float64 `json:"scaled_cumulative_spend"`
}

type AdAnalysis struct {
	AdID            string                `json:"ad_id"`
	AverageROAS     float64               `json:"average_roas"`
	LastRecordSpend float64               `json:"last_record_spend"`
	Series          []CumulativeDayMetric `json:"-"`
	Scores          []POCCScore           `json:"-"`
	Days            []DayRow              `json:"days"`
	Optimal         *POCCScore            `json:"optimal"`
}

// Final returns the last scored day, if any.
func (a AdAnalysis) Final() (POCCScore, bool) {
	if len(a.Scores) == 0 {
		return POCCScore{}, false
	}
	return a.Scores[len(a.Scores)-1], true
}

type ExportRow struct {
	Day             string `json:"day"`
	DailyROAS       string `json:"daily_roas"`
	CumulativeROAS  string `json:"cumulative_roas"`
	POCC            string `json:"pocc"`
	DailySpend      string `json:"daily_spend"`
	CumulativeSpend string `json:"cumulative_spend"`
}
