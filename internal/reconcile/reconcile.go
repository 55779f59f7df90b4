// Package reconcile scales calculated P&L figures so their totals agree
// with the broker's own statement totals. Brokers apply fees, adjustments
// and rounding that per-trade arithmetic cannot reproduce exactly; a
// proportional factor distributes the difference across trades instead of
// letting it accumulate as silent drift.
package reconcile

import (
	"math"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/pnl"
)

// epsilon guards the zero-denominator check. Totals inside this band are
// treated as zero.
const epsilon = 1e-9

// BrokerSummary carries the statement's own authoritative totals.
type BrokerSummary struct {
	RealizedTotal     float64
	MarkToMarketTotal float64
}

// AdjustedTrade pairs one trade's calculated figure with its scaled,
// broker-aligned counterpart.
type AdjustedTrade struct {
	TradeID          string
	Symbol           string
	CalculatedPL     float64
	BrokerReportedPL float64
	AppliedFactor    float64
}

// Result is the outcome of one reconciliation pass. When a calculated
// total is zero while the broker reports a nonzero figure, no factor can
// reproduce the broker's total; the factor stays 1 and the corresponding
// Unreconcilable flag is raised so the discrepancy is never hidden.
type Result struct {
	Trades []AdjustedTrade

	RealizedFactor           float64
	UnrealizedFactor         float64
	RealizedUnreconcilable   bool
	UnrealizedUnreconcilable bool
}

// Reconcile computes realized and unrealized scale factors from the broker
// summary and applies them per trade: closed trades scale by the realized
// factor, open trades by the unrealized one.
func Reconcile(trades []*domain.TradeRecord, summary BrokerSummary) *Result {
	var realizedTotal, unrealizedTotal float64
	for _, trade := range trades {
		if trade.IsClosed() {
			realizedTotal += pnl.TradePL(trade)
		} else {
			unrealizedTotal += pnl.TradePL(trade)
		}
	}

	result := &Result{}
	result.RealizedFactor, result.RealizedUnreconcilable =
		factor(summary.RealizedTotal, realizedTotal)
	result.UnrealizedFactor, result.UnrealizedUnreconcilable =
		factor(summary.MarkToMarketTotal, unrealizedTotal)

	result.Trades = make([]AdjustedTrade, 0, len(trades))
	for _, trade := range trades {
		f := result.UnrealizedFactor
		if trade.IsClosed() {
			f = result.RealizedFactor
		}
		calculated := pnl.TradePL(trade)
		result.Trades = append(result.Trades, AdjustedTrade{
			TradeID:          trade.TradeID,
			Symbol:           trade.Symbol,
			CalculatedPL:     calculated,
			BrokerReportedPL: calculated * f,
			AppliedFactor:    f,
		})
	}
	return result
}

// factor returns broker/calculated, or 1 with the unreconcilable flag when
// the calculated total is zero but the broker's is not. Both totals zero
// is a clean match, factor 1.
func factor(broker, calculated float64) (float64, bool) {
	if math.Abs(calculated) < epsilon {
		if math.Abs(broker) < epsilon {
			return 1, false
		}
		return 1, true
	}
	return broker / calculated, false
}
