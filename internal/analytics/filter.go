package analytics

import (
	"sort"

	"github.com/AngelCh415/ad-cutoff/internal/models"
)

const (
	MinScoredDays   = 5
	NegligibleSpend = 10000.0
)

// Actionable returns the ads worth reviewing, most total spend first.
// The input slice is not modified.
func Actionable(ads []models.AdAnalysis, dismissed map[string]struct{}) []models.AdAnalysis {
	out := make([]models.AdAnalysis, 0, len(ads))
	for _, a := range ads {
		if isActionable(a, dismissed) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return finalSpend(out[i]) > finalSpend(out[j])
	})
	return out
}

func isActionable(a models.AdAnalysis, dismissed map[string]struct{}) bool {
	if len(a.Scores) <= MinScoredDays {
		return false
	}
	if _, ok := dismissed[a.AdID]; ok {
		return false
	}
	if a.LastRecordSpend <= 0 {
		return false
	}
	last, _ := a.Final()
	// no return and barely any spend: nothing to review
	return !(last.CumulativeROAS == 0 && last.CumulativeSpend <= NegligibleSpend)
}

func finalSpend(a models.AdAnalysis) float64 {
	last, _ := a.Final()
	return last.CumulativeSpend
}
