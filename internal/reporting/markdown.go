package reporting

import (
	"fmt"
	"strings"
	"time"

	"statement-pnl-lab/internal/money"
)

const dateLayout = "2006-01-02"

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Statement P&L Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Import: %s | Broker: %s\n\n", r.ImportID, r.Broker))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trades Imported | %d |\n", r.Summary.TradesImported))
	sb.WriteString(fmt.Sprintf("| Parse Errors | %d |\n", r.Summary.ParseErrors))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.Summary.ClosedCount))
	sb.WriteString(fmt.Sprintf("| Open Lots | %d |\n", r.Summary.OpenCount))
	sb.WriteString(fmt.Sprintf("| Wins / Losses | %d / %d |\n", r.Summary.WinCount, r.Summary.LossCount))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.Summary.WinRate))
	sb.WriteString(fmt.Sprintf("| Realized P&L | %s |\n", money.Format2(r.Summary.TotalPL)))
	sb.WriteString(fmt.Sprintf("| Computed Cumulative P&L | %s |\n", money.Format2(r.Summary.ComputedPL)))
	if r.Summary.StatementPL != nil {
		sb.WriteString(fmt.Sprintf("| Statement Cumulative P&L | %s |\n", money.Format2(*r.Summary.StatementPL)))
	}
	sb.WriteString("\n")

	// Closed trades
	sb.WriteString("## Closed Trades\n\n")
	if len(r.ClosedTrades) > 0 {
		sb.WriteString("| Instrument | Opened | Closed | Qty | Open | Close | P&L | Days | Fees | W/L |\n")
		sb.WriteString("|------------|--------|--------|-----|------|-------|-----|------|------|-----|\n")
		for _, c := range r.ClosedTrades {
			wl := "L"
			if c.IsWin {
				wl = "W"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %.4f | %.4f | %s | %d | %s | %s |\n",
				c.Instrument, c.OpenDate.Format(dateLayout), c.CloseDate.Format(dateLayout),
				c.Quantity, c.OpenPremium, c.ClosePremium,
				money.Format2(c.PnL), c.DaysHeld, money.Format2(c.Commissions), wl))
		}
	} else {
		sb.WriteString("No closed trades.\n")
	}
	sb.WriteString("\n")

	// Open lots
	sb.WriteString("## Open Lots\n\n")
	if len(r.OpenLots) > 0 {
		sb.WriteString("| Instrument | Qty | Premium | Opened |\n")
		sb.WriteString("|------------|-----|---------|--------|\n")
		for _, l := range r.OpenLots {
			premium := "n/a"
			if l.Premium != nil {
				premium = fmt.Sprintf("%.4f", *l.Premium)
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n",
				l.Instrument, l.Quantity, premium, l.OpenDate.Format(dateLayout)))
		}
	} else {
		sb.WriteString("No open lots.\n")
	}
	sb.WriteString("\n")

	// Findings (always shown if present)
	if len(r.Findings.Ambiguities) > 0 || len(r.Findings.Anomalies) > 0 {
		sb.WriteString("## Findings\n\n")
		if len(r.Findings.Ambiguities) > 0 {
			sb.WriteString("### Ambiguities\n\n")
			for _, a := range r.Findings.Ambiguities {
				sb.WriteString(fmt.Sprintf("- %s\n", a))
			}
			sb.WriteString("\n")
		}
		if len(r.Findings.Anomalies) > 0 {
			sb.WriteString("### Anomalies\n\n")
			sb.WriteString("| Type | Symbol | Detail |\n")
			sb.WriteString("|------|--------|--------|\n")
			for _, a := range r.Findings.Anomalies {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", a.Type, a.Symbol, a.Message))
			}
			sb.WriteString("\n")
		}
	}

	// Reconciliation
	if r.Reconciliation != nil {
		sb.WriteString("## Reconciliation\n\n")
		sb.WriteString("| Book | Factor | Status |\n")
		sb.WriteString("|------|--------|--------|\n")
		sb.WriteString(fmt.Sprintf("| Realized | %.6f | %s |\n",
			r.Reconciliation.RealizedFactor, reconcileStatus(r.Reconciliation.RealizedUnreconcilable)))
		sb.WriteString(fmt.Sprintf("| Unrealized | %.6f | %s |\n",
			r.Reconciliation.UnrealizedFactor, reconcileStatus(r.Reconciliation.UnrealizedUnreconcilable)))
		sb.WriteString("\n")

		if len(r.Reconciliation.Adjusted) > 0 {
			sb.WriteString("| Trade | Symbol | Calculated | Broker | Factor |\n")
			sb.WriteString("|-------|--------|-----------|--------|--------|\n")
			for _, t := range r.Reconciliation.Adjusted {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %.6f |\n",
					shortID(t.TradeID), t.Symbol,
					money.Format2(t.CalculatedPL), money.Format2(t.BrokerReportedPL), t.AppliedFactor))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func reconcileStatus(unreconcilable bool) string {
	if unreconcilable {
		return "UNRECONCILABLE"
	}
	return "OK"
}

// shortID truncates a hash ID for table display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
