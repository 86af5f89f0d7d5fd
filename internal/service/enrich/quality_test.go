package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SignalDesk/internal/domain/models"
)

func TestQualityScore(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	n := func(v int) *int { return &v }

	tests := []struct {
		name    string
		setup   string
		funding *float64
		lsr     *float64
		liq     *int
		want    int
	}{
		{"full long confluence", models.SetupStrongLong, f(-0.0001), f(0.8), n(3), 3},
		{"long against crowded longs", models.SetupStrongLong, f(0.001), f(1.5), n(0), 0},
		{"short with positive funding", models.SetupStrongShort, f(0.0003), f(1.2), nil, 2},
		{"neutral setup scores nothing directional", models.SetupNeutral, f(-0.001), f(0.5), n(2), 1},
		{"missing inputs contribute nothing", models.SetupStrongLong, nil, nil, nil, 0},
		{"liquidation only", models.SetupStrongShort, nil, nil, n(1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QualityScore(tt.setup, tt.funding, tt.lsr, tt.liq))
		})
	}
}
