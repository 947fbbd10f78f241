package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

var header = []string{"날짜", "일별 ROAS", "누적 ROAS", "POCC", "지출금액(원)", "누적지출금액(원)"}

// WriteCSV writes rows with a UTF-8 BOM so spreadsheet apps pick the right encoding.
func WriteCSV(w io.Writer, rows []models.ExportRow) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Day, r.DailyROAS, r.CumulativeROAS, r.POCC, r.DailySpend, r.CumulativeSpend}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the download name for an ad's export.
func FileName(adID string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "\"", "", ":", "_")
	return r.Replace(adID) + "_광고성과.csv"
}
