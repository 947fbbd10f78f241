package analytics

import "github.com/AngelCh415/ad-cutoff/internal/models"

// Eligible reports whether a day meets all three stop conditions.
func Eligible(s models.POCCScore) bool {
	return s.TargetReached && s.SufficientData && s.EfficiencyDecreasing
}

// SelectOptimal picks the recommended stop day among eligible days: the highest
// positive POCC if any day is positive, otherwise the highest POCC overall.
// Ties keep the earliest day. Nil means no day qualifies yet.
func SelectOptimal(scores []models.POCCScore) *models.POCCScore {
	var best, bestPositive *models.POCCScore
	for i := range scores {
		s := &scores[i]
		if !Eligible(*s) {
			continue
		}
		if best == nil || s.POCC > best.POCC {
			best = s
		}
		if s.POCC > 0 && (bestPositive == nil || s.POCC > bestPositive.POCC) {
			bestPositive = s
		}
	}
	pick := bestPositive
	if pick == nil {
		pick = best
	}
	if pick == nil {
		return nil
	}
	out := *pick
	return &out
}
