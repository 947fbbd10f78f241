package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

// DayLabel renders a day the way reports show it, e.g. "5월 7일".
func DayLabel(s models.POCCScore) string { return displayLabel(s.Date, s.Label) }

func displayLabel(d time.Time, label string) string {
	if d.IsZero() {
		return label + "일"
	}
	return fmt.Sprintf("%d월 %d일", int(d.Month()), d.Day())
}

// Explain summarizes why a day was picked as the stop point.
func Explain(s models.POCCScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s이 최적 중단 시점으로 분석되었습니다 (POCC %.2f, 누적 ROAS %.2f, 누적 지출 %.1f만원, 일별 ROAS %.2f). ",
		DayLabel(s), s.POCC, s.CumulativeROAS, s.CumulativeSpend/SpendScale, s.DailyROAS)
	fmt.Fprintf(&b, "이 날짜는 목표 ROAS(%s), 충분한 데이터(%s), 효율성 감소(%s) 조건을 충족합니다. ",
		check(s.TargetReached), check(s.SufficientData), check(s.EfficiencyDecreasing))
	fmt.Fprintf(&b, "상대적 성과 지수(RSI)는 %.2f로 평균 대비 %.0f%% 높은 성과를 보였으며, 향후 예상되는 ROAS보다 %.0f%% 높은 효율을 보여주고 있습니다.",
		s.RSI, (s.RSI-1)*100, (s.EFI-1)*100)
	return b.String()
}

func check(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
