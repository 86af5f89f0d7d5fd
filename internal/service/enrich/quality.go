package enrich

import "SignalDesk/internal/domain/models"

// QualityScore counts confluence points for a setup against the free
// data: favourable funding, crowd positioning against the trade, and
// recent forced flow. Missing inputs simply contribute nothing.
func QualityScore(setup string, funding, lsr *float64, liqRecent *int) int {
	score := 0
	longBias := setup == models.SetupStrongLong
	shortBias := setup == models.SetupStrongShort

	if funding != nil {
		if longBias && *funding < 0.0005 {
			score++
		}
		if shortBias && *funding > -0.0005 {
			score++
		}
	}
	if lsr != nil {
		if longBias && *lsr < 1.0 {
			score++
		}
		if shortBias && *lsr > 1.0 {
			score++
		}
	}
	if liqRecent != nil && *liqRecent >= 1 {
		score++
	}
	return score
}
