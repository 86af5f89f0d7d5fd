package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidCommands(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Command
	}{
		{
			name: "tp1 with price",
			raw:  "tp1 BTCUSDT-20260831-101500 68500.5",
			want: Command{Verb: VerbTP1, TradeID: "BTCUSDT-20260831-101500", Value: 68500.5, HasVal: true},
		},
		{
			name: "slash prefix",
			raw:  "/status BTCUSDT-20260831-101500",
			want: Command{Verb: VerbStatus, TradeID: "BTCUSDT-20260831-101500"},
		},
		{
			name: "uppercase verb",
			raw:  "EXIT trade-1 -1.5",
			want: Command{Verb: VerbExit, TradeID: "trade-1", Value: -1.5, HasVal: true},
		},
		{
			name: "cancel without value",
			raw:  "cancel trade-1",
			want: Command{Verb: VerbCancel, TradeID: "trade-1"},
		},
		{
			name: "surrounding whitespace",
			raw:  "  sl   trade-1  ",
			want: Command{Verb: VerbSL, TradeID: "trade-1"},
		},
		{
			name: "fill with price",
			raw:  "fill trade-1 67890",
			want: Command{Verb: VerbFill, TradeID: "trade-1", Value: 67890, HasVal: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNotCommand(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"hello there",
		"BTCUSDT 15m strong_long 68000",
		"tpx trade-1",
	} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrNotCommand, "input %q", raw)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		token string
	}{
		{"missing trade id", "tp1", "tp1"},
		{"missing numeric argument", "tp2 trade-1", "tp2"},
		{"invalid number", "exit trade-1 abc", "abc"},
		{"unexpected argument", "cancel trade-1 42", "42"},
		{"status with extra", "status trade-1 now", "now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.token, perr.Token)
		})
	}
}
