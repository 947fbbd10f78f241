package export

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

var printer = message.NewPrinter(language.Korean)

// Rows re-projects an ad's day rows into the spreadsheet layout.
func Rows(ad models.AdAnalysis) []models.ExportRow {
	out := make([]models.ExportRow, len(ad.Days))
	for i, d := range ad.Days {
		day := d.Display
		if day == "" {
			day = d.Label + "일"
		}
		out[i] = models.ExportRow{
			Day:             day,
			DailyROAS:       fixed2(d.DailyROAS),
			CumulativeROAS:  fixed2(d.CumulativeROAS),
			POCC:            fixed2(d.POCC),
			DailySpend:      FormatAmount(d.DailySpend),
			CumulativeSpend: FormatAmount(d.CumulativeSpend),
		}
	}
	return out
}

// FormatAmount groups thousands the way the ko-KR locale does, keeping up to
// three fractional digits.
func FormatAmount(v float64) string {
	s := strconv.FormatFloat(round3(v), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return s
	}
	out := printer.Sprintf("%d", n)
	if frac != "" {
		out += "." + frac
	}
	return out
}

func fixed2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func round3(f float64) float64 {
	if f < 0 {
		return -round3(-f)
	}
	return float64(int64(f*1000+0.5)) / 1000
}
