package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the closed-trade ledger as CSV string.
func RenderCSV(rows []ClosedTradeRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("instrument,symbol,open_date,close_date,quantity,")
	sb.WriteString("open_premium,close_premium,pnl,days_held,commissions,is_win\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%.6f,%.6f,%.2f,%d,%.6f,%t\n",
			csvField(r.Instrument),
			r.Symbol,
			r.OpenDate.Format(dateLayout),
			r.CloseDate.Format(dateLayout),
			r.Quantity,
			r.OpenPremium,
			r.ClosePremium,
			r.PnL,
			r.DaysHeld,
			r.Commissions,
			r.IsWin,
		))
	}

	return sb.String()
}

// csvField quotes a value that contains a comma. Instrument strings are
// space-separated so this rarely fires, but symbols are broker-supplied.
func csvField(s string) string {
	if strings.Contains(s, ",") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
