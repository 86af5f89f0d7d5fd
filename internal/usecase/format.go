package usecase

import (
	"fmt"
	"strings"

	"SignalDesk/internal/domain/models"
)

// FormatAlert renders the published Telegram message for an admitted
// signal, HTML parse mode.
func FormatAlert(tradeID string, sig *models.SignalDescriptor, enr *models.Enrichment, d *models.Decision) string {
	var b strings.Builder

	icon := "⏸"
	switch d.Decision {
	case models.DecisionLong:
		icon = "🟢"
	case models.DecisionShort:
		icon = "🔴"
	}
	fmt.Fprintf(&b, "%s <b>%s</b> | %s %s | %s\n", icon, d.Decision, sig.Symbol, sig.Timeframe, sig.Setup)

	if d.Decision != models.DecisionWait {
		if d.Entry != 0 {
			fmt.Fprintf(&b, "Entry: <code>%.2f</code>\n", d.Entry)
		}
		if d.SL != 0 {
			fmt.Fprintf(&b, "SL: <code>%.2f</code>\n", d.SL)
		}
		if d.TP1 != 0 {
			fmt.Fprintf(&b, "TP1: <code>%.2f</code>\n", d.TP1)
		}
		if d.TP2 != 0 {
			fmt.Fprintf(&b, "TP2: <code>%.2f</code>\n", d.TP2)
		}
		if d.RR != 0 {
			fmt.Fprintf(&b, "RR: %.2f\n", d.RR)
		}
	}
	if d.Why != "" {
		fmt.Fprintf(&b, "Why: %s\n", d.Why)
	}
	if d.Risk != "" {
		fmt.Fprintf(&b, "Risk: %s\n", d.Risk)
	}

	if enr != nil {
		var ctx []string
		if enr.Funding != nil {
			ctx = append(ctx, fmt.Sprintf("funding %.4f%%", *enr.Funding*100))
		}
		if enr.LSRatio5m != nil {
			ctx = append(ctx, fmt.Sprintf("L/S %.2f", *enr.LSRatio5m))
		}
		if enr.NewsScore != 0 {
			ctx = append(ctx, fmt.Sprintf("news %+d", enr.NewsScore))
		}
		if len(ctx) > 0 {
			fmt.Fprintf(&b, "<i>%s</i>\n", strings.Join(ctx, " · "))
		}
	}

	fmt.Fprintf(&b, "ID: <code>%s</code>", tradeID)
	return b.String()
}

// FormatChartAlert renders the message for a chart-screenshot decision.
func FormatChartAlert(d *models.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Chart read: <b>%s</b>\n", d.Decision)
	if d.Entry != 0 {
		fmt.Fprintf(&b, "Entry: <code>%.2f</code> SL: <code>%.2f</code> TP1: <code>%.2f</code>\n", d.Entry, d.SL, d.TP1)
	}
	if d.Why != "" {
		fmt.Fprintf(&b, "Why: %s", d.Why)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatEntryStatus renders a journal entry as a command reply.
func FormatEntryStatus(e *models.JournalEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> [%s]\n%s %s %s", e.TradeID, e.Status, e.Symbol, e.Timeframe, e.Setup)
	if e.FillPrice != nil {
		fmt.Fprintf(&b, "\nFill: %.2f", *e.FillPrice)
	}
	if e.PnL != nil {
		fmt.Fprintf(&b, "\nPnL: %.2f%%", *e.PnL)
	}
	return b.String()
}
