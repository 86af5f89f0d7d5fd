package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SignalDesk/internal/domain/models"
)

func TestParseDecisionFullSchema(t *testing.T) {
	raw := "Decision: LONG\n" +
		"Entry: 68,123.50\n" +
		"SL: 67500\n" +
		"TP1: 69000\n" +
		"TP2: $70,250\n" +
		"RR: 2.4\n" +
		"Why: Sweep of lows into demand.\n" +
		"Risk: Funding flip risk above 0.01%."

	d := ParseDecision(raw)
	assert.Equal(t, models.DecisionLong, d.Decision)
	assert.Equal(t, 68123.50, d.Entry)
	assert.Equal(t, 67500.0, d.SL)
	assert.Equal(t, 69000.0, d.TP1)
	assert.Equal(t, 70250.0, d.TP2)
	assert.Equal(t, 2.4, d.RR)
	assert.Equal(t, "Sweep of lows into demand.", d.Why)
	assert.Equal(t, "Funding flip risk above 0.01%.", d.Risk)
}

func TestParseDecisionDefaultsToWait(t *testing.T) {
	for _, raw := range []string{
		"",
		"I cannot decide on this one.",
		"Decision: MAYBE\nEntry: 100",
	} {
		d := ParseDecision(raw)
		assert.Equal(t, models.DecisionWait, d.Decision, "input %q", raw)
	}
}

func TestParseDecisionCaseInsensitiveKeys(t *testing.T) {
	d := ParseDecision("decision: short\nENTRY: 50000\nwhy: distribution")
	assert.Equal(t, models.DecisionShort, d.Decision)
	assert.Equal(t, 50000.0, d.Entry)
	assert.Equal(t, "distribution", d.Why)
}

func TestParseDecisionIgnoresJunkLines(t *testing.T) {
	d := ParseDecision("Sure, here is my analysis\nDecision: WAIT\nUnparseable line\nRisk: chop")
	assert.Equal(t, models.DecisionWait, d.Decision)
	assert.Equal(t, "chop", d.Risk)
	assert.Zero(t, d.Entry)
}
