package llm

import (
	"strconv"
	"strings"

	"SignalDesk/internal/domain/models"
)

// ParseDecision extracts the strict line-oriented schema from a model
// reply. Unknown or missing lines degrade to zero values; an absent or
// unrecognized decision becomes WAIT so a sloppy reply never publishes
// a trade.
func ParseDecision(raw string) *models.Decision {
	d := &models.Decision{Decision: models.DecisionWait}

	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "decision":
			switch strings.ToUpper(value) {
			case models.DecisionLong, models.DecisionShort, models.DecisionWait:
				d.Decision = strings.ToUpper(value)
			}
		case "entry":
			d.Entry = parseNum(value)
		case "sl":
			d.SL = parseNum(value)
		case "tp1":
			d.TP1 = parseNum(value)
		case "tp2":
			d.TP2 = parseNum(value)
		case "rr":
			d.RR = parseNum(value)
		case "why":
			d.Why = value
		case "risk":
			d.Risk = value
		}
	}

	return d
}

// parseNum tolerates thousands separators and stray symbols around the
// number ("$43,250.5" -> 43250.5).
func parseNum(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '.' && r != '-'
	})
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
