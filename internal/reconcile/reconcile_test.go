package reconcile

import (
	"math"
	"testing"

	"statement-pnl-lab/internal/domain"
)

func fp(v float64) *float64 { return &v }

func closedTrade(id string, realized float64) *domain.TradeRecord {
	return &domain.TradeRecord{TradeID: id, Symbol: "AAPL", Code: "C", RealizedPL: fp(realized)}
}

func openTrade(id string, unrealized float64) *domain.TradeRecord {
	return &domain.TradeRecord{TradeID: id, Symbol: "SPY", Code: "O", UnrealizedPL: fp(unrealized)}
}

func TestReconcile_MatchingTotalsFactorOne(t *testing.T) {
	trades := []*domain.TradeRecord{
		closedTrade("t1", 100),
		closedTrade("t2", 50),
		openTrade("t3", 25),
	}

	result := Reconcile(trades, BrokerSummary{RealizedTotal: 150, MarkToMarketTotal: 25})

	if math.Abs(result.RealizedFactor-1) > 1e-12 {
		t.Errorf("RealizedFactor = %v, want 1", result.RealizedFactor)
	}
	if math.Abs(result.UnrealizedFactor-1) > 1e-12 {
		t.Errorf("UnrealizedFactor = %v, want 1", result.UnrealizedFactor)
	}
	if result.RealizedUnreconcilable || result.UnrealizedUnreconcilable {
		t.Error("matching totals flagged unreconcilable")
	}
	for _, adj := range result.Trades {
		if adj.BrokerReportedPL != adj.CalculatedPL {
			t.Errorf("trade %s: adjusted %v != calculated %v at factor 1",
				adj.TradeID, adj.BrokerReportedPL, adj.CalculatedPL)
		}
	}
}

func TestReconcile_ScalesProportionally(t *testing.T) {
	trades := []*domain.TradeRecord{
		closedTrade("t1", 100),
		closedTrade("t2", 300),
	}

	// Broker says 380 against our 400: factor 0.95 spread across trades.
	result := Reconcile(trades, BrokerSummary{RealizedTotal: 380})

	if math.Abs(result.RealizedFactor-0.95) > 1e-12 {
		t.Fatalf("RealizedFactor = %v, want 0.95", result.RealizedFactor)
	}
	if got := result.Trades[0].BrokerReportedPL; math.Abs(got-95) > 1e-9 {
		t.Errorf("t1 adjusted = %v, want 95", got)
	}
	if got := result.Trades[1].BrokerReportedPL; math.Abs(got-285) > 1e-9 {
		t.Errorf("t2 adjusted = %v, want 285", got)
	}

	var sum float64
	for _, adj := range result.Trades {
		sum += adj.BrokerReportedPL
	}
	if math.Abs(sum-380) > 1e-9 {
		t.Errorf("adjusted total = %v, want broker total 380", sum)
	}
}

func TestReconcile_ZeroCalculatedNonzeroBroker(t *testing.T) {
	trades := []*domain.TradeRecord{openTrade("t1", 10)}

	// No closed trades at all, yet the broker reports realized P&L.
	result := Reconcile(trades, BrokerSummary{RealizedTotal: 42, MarkToMarketTotal: 10})

	if !result.RealizedUnreconcilable {
		t.Error("RealizedUnreconcilable = false, want flag raised")
	}
	if result.RealizedFactor != 1 {
		t.Errorf("RealizedFactor = %v, want 1 when unreconcilable", result.RealizedFactor)
	}
	if result.UnrealizedUnreconcilable {
		t.Error("UnrealizedUnreconcilable = true for matching totals")
	}
}

func TestReconcile_BothZeroIsClean(t *testing.T) {
	result := Reconcile(nil, BrokerSummary{})
	if result.RealizedUnreconcilable || result.UnrealizedUnreconcilable {
		t.Error("zero-vs-zero totals flagged unreconcilable")
	}
	if result.RealizedFactor != 1 || result.UnrealizedFactor != 1 {
		t.Errorf("factors = %v / %v, want 1 / 1", result.RealizedFactor, result.UnrealizedFactor)
	}
}

func TestReconcile_OpenAndClosedUseDifferentFactors(t *testing.T) {
	trades := []*domain.TradeRecord{
		closedTrade("t1", 200),
		openTrade("t2", 50),
	}

	result := Reconcile(trades, BrokerSummary{RealizedTotal: 100, MarkToMarketTotal: 100})

	if got := result.Trades[0].AppliedFactor; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("closed trade factor = %v, want 0.5", got)
	}
	if got := result.Trades[1].AppliedFactor; math.Abs(got-2) > 1e-12 {
		t.Errorf("open trade factor = %v, want 2", got)
	}
}
