package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

var (
	ErrNoSources     = errors.New("no input sources")
	ErrMissingColumn = errors.New("required column missing")
)

// Source is one tabular input, typically an uploaded report file.
type Source struct {
	Name string
	Body io.Reader
}

type ParseResult struct {
	Records   []models.RawRecord
	Discarded int
}

// Column aliases: Meta Ads Manager Korean export headers first, English after.
var columns = map[string][]string{
	"ad":          {"광고 이름", "ad name", "ad_name", "ad"},
	"date":        {"보고 시작", "reporting starts", "date", "report_date"},
	"spend":       {"지출 금액 (krw)", "amount spent (krw)", "spend"},
	"roas":        {"구매 roas(광고 지출 대비 수익률)", "purchase roas (return on ad spend)", "roas"},
	"clicks":      {"클릭(전체)", "clicks (all)", "clicks"},
	"conversions": {"구매", "purchases", "conversions"},
	"budget":      {"광고 세트 예산", "ad set budget", "budget"},
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006.01.02", "2006-01-02 15:04:05", time.RFC3339}

// ParseCSV reads one source. Rows without an ad id, or cut short before the
// spend column, are counted as discarded; a source without those columns
// fails as a whole. A blank spend cell reads as zero spend.
func ParseCSV(src Source) (ParseResult, error) {
	r := csv.NewReader(src.Body)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return ParseResult{}, nil
	}
	if err != nil {
		return ParseResult{}, fmt.Errorf("read header: %w", err)
	}
	idx := resolveColumns(header)
	for _, req := range []string{"ad", "spend"} {
		if _, ok := idx[req]; !ok {
			return ParseResult{}, fmt.Errorf("%w: %s", ErrMissingColumn, req)
		}
	}

	var res ParseResult
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return ParseResult{}, fmt.Errorf("line %d: %w", line, err)
		}
		if blank(rec) {
			continue
		}
		row := models.RawRecord{
			Source:      src.Name,
			Line:        line,
			AdID:        strings.TrimSpace(cell(rec, idx, "ad")),
			ReportDate:  parseDate(cell(rec, idx, "date")),
			Spend:       parseSpend(rec, idx["spend"]),
			ROAS:        parseNum(cell(rec, idx, "roas")),
			Clicks:      parseNum(cell(rec, idx, "clicks")),
			Conversions: parseNum(cell(rec, idx, "conversions")),
			Budget:      parseNum(cell(rec, idx, "budget")),
		}
		if !row.Valid() {
			res.Discarded++
			continue
		}
		res.Records = append(res.Records, row)
	}
	return res, nil
}

func resolveColumns(header []string) map[string]int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = normalizeHeader(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	idx := make(map[string]int)
	for key, aliases := range columns {
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				idx[key] = i
				break
			}
		}
	}
	return idx
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

func cell(rec []string, idx map[string]int, key string) string {
	i, ok := idx[key]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseSpend treats a present but blank spend cell as 0 so paused days still
// count as the latest record. A row too short to reach the column stays nil.
func parseSpend(rec []string, i int) *float64 {
	if i >= len(rec) {
		return nil
	}
	if strings.TrimSpace(rec[i]) == "" {
		zero := 0.0
		return &zero
	}
	return parseNum(rec[i])
}

// parseNum returns nil for empty or unparseable cells.
func parseNum(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return &d
		}
	}
	return nil
}
