package metrics

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/AngelCh415/ad-cutoff/internal/analytics"
	"github.com/AngelCh415/ad-cutoff/internal/export"
	"github.com/AngelCh415/ad-cutoff/internal/models"
	"github.com/AngelCh415/ad-cutoff/internal/store"
)

var (
	ErrNoBatch   = errors.New("no batch processed yet")
	ErrAdUnknown = errors.New("ad not found in latest batch")
)

type Service struct{ st *store.MemoryStore }

func NewService(st *store.MemoryStore) *Service { return &Service{st: st} }

// Batches reports how many batches have been stored since start.
func (s *Service) Batches() int { return s.st.Runs() }

// AdSummary is one entry of the actionable list.
type AdSummary struct {
	AdID            string            `json:"ad_id"`
	Days            int               `json:"days"`
	TotalSpend      float64           `json:"total_spend"`
	CumulativeROAS  float64           `json:"cumulative_roas"`
	AverageROAS     float64           `json:"average_roas"`
	LastRecordSpend float64           `json:"last_record_spend"`
	Optimal         *models.POCCScore `json:"optimal"`
	OptimalDay      string            `json:"optimal_day,omitempty"`
	Explanation     string            `json:"explanation,omitempty"`
}

type ActionableList struct {
	RunID string      `json:"run_id"`
	Total int         `json:"total"`
	Ads   []AdSummary `json:"ads"`
}

// csvSet parses a comma list of ad ids. Ids are case sensitive.
func csvSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}

// Actionable lists the latest batch's review-worthy ads. Query params:
// dismissed (comma list, repeatable), limit, offset.
func (s *Service) Actionable(v url.Values) (ActionableList, error) {
	b, ok := s.st.Latest()
	if !ok {
		return ActionableList{}, ErrNoBatch
	}
	dismissed := map[string]struct{}{}
	for _, d := range v["dismissed"] {
		for id := range csvSet(d) {
			dismissed[id] = struct{}{}
		}
	}
	ads := analytics.Actionable(b.Ads, dismissed)

	rows := make([]AdSummary, 0, len(ads))
	for _, a := range ads {
		rows = append(rows, Summarize(a))
	}
	limit, offset := clampLimitOffset(atoiDef(v.Get("limit"), 100), atoiDef(v.Get("offset"), 0), len(rows))
	return ActionableList{RunID: b.RunID, Total: len(rows), Ads: paginate(rows, limit, offset)}, nil
}

// Ad returns the full analysis of one ad from the latest batch.
func (s *Service) Ad(id string) (models.AdAnalysis, error) {
	b, ok := s.st.Latest()
	if !ok {
		return models.AdAnalysis{}, ErrNoBatch
	}
	a, ok := b.Ad(id)
	if !ok {
		return models.AdAnalysis{}, ErrAdUnknown
	}
	return a, nil
}

// Export returns the spreadsheet rows for one ad.
func (s *Service) Export(id string) ([]models.ExportRow, error) {
	a, err := s.Ad(id)
	if err != nil {
		return nil, err
	}
	return export.Rows(a), nil
}

func Summarize(a models.AdAnalysis) AdSummary {
	out := AdSummary{
		AdID:            a.AdID,
		Days:            len(a.Scores),
		AverageROAS:     round2(a.AverageROAS),
		LastRecordSpend: a.LastRecordSpend,
		Optimal:         a.Optimal,
	}
	if last, ok := a.Final(); ok {
		out.TotalSpend = last.CumulativeSpend
		out.CumulativeROAS = round2(last.CumulativeROAS)
	}
	if a.Optimal != nil {
		out.OptimalDay = analytics.DayLabel(*a.Optimal)
		out.Explanation = analytics.Explain(*a.Optimal)
	}
	return out
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

func clampLimitOffset(limit, offset, n int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = n
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset > n {
		offset = n
	}
	return limit, offset
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
