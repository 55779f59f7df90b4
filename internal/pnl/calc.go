// Package pnl derives profit-and-loss figures from parsed trades: the
// per-trade figure, the statement-order cumulative total and aggregate
// performance stats.
package pnl

import (
	"sort"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/money"
)

// TradePL returns the trade's effective P&L by lifecycle state: a closed
// trade contributes its realized component, an open trade its unrealized
// mark-to-market. Missing components contribute zero, never an error.
func TradePL(trade *domain.TradeRecord) float64 {
	if trade.IsClosed() {
		if trade.RealizedPL != nil {
			return *trade.RealizedPL
		}
		return 0
	}
	if trade.UnrealizedPL != nil {
		return *trade.UnrealizedPL
	}
	return 0
}

// StampCumulative walks trades in chronological order and stamps each one's
// CumulativePL with the running total of TradePL so far, returning the
// final total. The running total is rounded to 2 decimals after every
// addition, matching broker statement cumulative columns. Trades are
// stamped in place; the input order is not changed.
func StampCumulative(trades []*domain.TradeRecord) float64 {
	ordered := make([]*domain.TradeRecord, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OpenDate.Before(ordered[j].OpenDate)
	})

	var running money.RunningTotal
	for _, trade := range ordered {
		trade.CumulativePL = running.Add(trade.TradePL)
	}
	return running.Value()
}

// Stats aggregates a match pass into headline performance numbers.
type Stats struct {
	OpenCount   int
	ClosedCount int
	WinCount    int
	LossCount   int
	WinRate     float64 // percentage, 0 when no trades have closed
	TotalPL     float64 // realized, rounded to 2 decimals
}

// ComputeStats summarizes closed matches and remaining open lots.
func ComputeStats(closed []domain.ClosedTradePL, open []domain.OpenLot) Stats {
	stats := Stats{
		OpenCount:   len(open),
		ClosedCount: len(closed),
	}
	var total float64
	for _, c := range closed {
		total += c.PnL
		if c.IsWin {
			stats.WinCount++
		} else if c.PnL < 0 {
			stats.LossCount++
		}
	}
	if stats.ClosedCount > 0 {
		stats.WinRate = float64(stats.WinCount) / float64(stats.ClosedCount) * 100
	}
	stats.TotalPL = money.Round2(total)
	return stats
}
