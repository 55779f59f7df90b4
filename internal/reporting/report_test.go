package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/matching"
	"statement-pnl-lab/internal/pipeline"
	"statement-pnl-lab/internal/pnl"
	"statement-pnl-lab/internal/reconcile"
	"statement-pnl-lab/internal/storage/memory"
)

func ptr(v float64) *float64 { return &v }

func date(day int) time.Time {
	return time.Date(2025, 3, day, 14, 30, 0, 0, time.UTC)
}

func optionKey(symbol string) domain.InstrumentKey {
	return domain.InstrumentKey{Symbol: symbol, PutCall: domain.PutCallCall, Strike: 222.5, Expiry: "2025-03-28"}
}

func sampleResult() *pipeline.ImportResult {
	closeDate := date(21)
	return &pipeline.ImportResult{
		ImportID:       "abc123def456789",
		Broker:         domain.BrokerIBKR,
		Success:        true,
		TradesImported: 2,
		ClosedTrades: []domain.ClosedTradePL{
			{
				Key:             optionKey("AAPL"),
				Symbol:          "AAPL",
				OpenDate:        date(10),
				CloseDate:       closeDate,
				MatchedQuantity: 1,
				OpenPremium:     2.12,
				ClosePremium:    3.25,
				PnL:             110.77,
				DaysHeld:        11,
				Commissions:     2.23,
				IsWin:           true,
			},
		},
		Anomalies: []matching.Anomaly{
			{Type: matching.AnomalyMissingPrice, Symbol: "QQQ", Message: "open row has no premium"},
		},
		CumulativePL: ptr(1629.822617),
		ComputedPL:   110.77,
		Stats:        pnl.Stats{ClosedCount: 1, WinCount: 1, WinRate: 100, TotalPL: 110.77},
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	r := Build(sampleResult(), now)

	if r.GeneratedAt != now {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, now)
	}
	if r.Broker != domain.BrokerIBKR {
		t.Errorf("Broker = %s, want ibkr", r.Broker)
	}
	if r.Summary.ClosedCount != 1 || r.Summary.TotalPL != 110.77 {
		t.Errorf("Summary = %+v", r.Summary)
	}
	if r.Summary.StatementPL == nil || *r.Summary.StatementPL != 1629.822617 {
		t.Errorf("StatementPL = %v, want 1629.822617", r.Summary.StatementPL)
	}
	if len(r.ClosedTrades) != 1 {
		t.Fatalf("got %d closed rows, want 1", len(r.ClosedTrades))
	}
	if r.ClosedTrades[0].Instrument != "AAPL 2025-03-28 222.5 CALL" {
		t.Errorf("Instrument = %q", r.ClosedTrades[0].Instrument)
	}
	if len(r.Findings.Anomalies) != 1 || r.Findings.Anomalies[0].Type != matching.AnomalyMissingPrice {
		t.Errorf("Findings = %+v", r.Findings)
	}
	if r.Reconciliation != nil {
		t.Error("Reconciliation set without broker totals")
	}
}

func TestRenderMarkdown(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	r := Build(sampleResult(), now).WithReconciliation(&reconcile.Result{
		Trades: []reconcile.AdjustedTrade{
			{TradeID: "0123456789abcdef", Symbol: "AAPL", CalculatedPL: 110.77, BrokerReportedPL: 105.23, AppliedFactor: 0.95},
		},
		RealizedFactor:   0.95,
		UnrealizedFactor: 1,
	})

	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Statement P&L Report",
		"Import: abc123def456789 | Broker: ibkr",
		"| Trades Imported | 2 |",
		"| Realized P&L | 110.77 |",
		"| Statement Cumulative P&L | 1629.82 |",
		"| AAPL 2025-03-28 222.5 CALL | 2025-03-10 | 2025-03-21 | 1 |",
		"No open lots.",
		"### Anomalies",
		"| MISSING_PRICE | QQQ |",
		"## Reconciliation",
		"| Realized | 0.950000 | OK |",
		"| 0123456789ab | AAPL | 110.77 | 105.23 | 0.950000 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_CleanStatement(t *testing.T) {
	result := sampleResult()
	result.Anomalies = nil
	md := RenderMarkdown(Build(result, time.Now()))

	if strings.Contains(md, "## Findings") {
		t.Error("Findings section rendered with nothing to report")
	}
	if strings.Contains(md, "## Reconciliation") {
		t.Error("Reconciliation section rendered without broker totals")
	}
}

func TestRenderCSV(t *testing.T) {
	r := Build(sampleResult(), time.Now())
	out := RenderCSV(r.ClosedTrades)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "instrument,symbol,open_date") {
		t.Errorf("header = %q", lines[0])
	}
	want := "AAPL 2025-03-28 222.5 CALL,AAPL,2025-03-10,2025-03-21,1,2.120000,3.250000,110.77,11,2.230000,true"
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestGeneratorGenerate(t *testing.T) {
	ctx := context.Background()
	trades := memory.NewTradeRecordStore()
	closed := memory.NewClosedTradeStore()
	imports := memory.NewImportStore()

	open := &domain.TradeRecord{
		TradeID: "t-open", ImportID: "imp-1",
		Symbol: "AAPL", PutCall: domain.PutCallCall, Strike: 222.5,
		Expiry:   time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC),
		Quantity: 1, Premium: ptr(2.12), Commission: 1.11,
		Strategy: "LONG CALL", OpenDate: date(10), Code: "O",
		RealizedPL: ptr(0.0), UnrealizedPL: ptr(13.0), TradePL: 13,
	}
	closeTrade := &domain.TradeRecord{
		TradeID: "t-close", ImportID: "imp-1",
		Symbol: "AAPL", PutCall: domain.PutCallCall, Strike: 222.5,
		Expiry:   time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC),
		Quantity: -1, Premium: ptr(3.25), Commission: 1.12,
		Strategy: "LONG CALL", OpenDate: date(21), Code: "C",
		RealizedPL: ptr(98.877711), UnrealizedPL: ptr(13.34), TradePL: 112.217711,
	}
	if err := trades.InsertBulk(ctx, []*domain.TradeRecord{open, closeTrade}); err != nil {
		t.Fatalf("seed trades: %v", err)
	}

	closedRow := domain.ClosedTradePL{
		Key: optionKey("AAPL"), Symbol: "AAPL",
		OpenDate: date(10), CloseDate: date(21), MatchedQuantity: 1,
		OpenPremium: 2.12, ClosePremium: 3.25, PnL: 110.77,
		DaysHeld: 11, Commissions: 2.23, IsWin: true,
	}
	if err := closed.InsertBulk(ctx, "imp-1", []domain.ClosedTradePL{closedRow}); err != nil {
		t.Fatalf("seed closed: %v", err)
	}

	cumulative := 1629.822617
	if err := imports.Insert(ctx, &domain.ImportRecord{
		ImportID: "imp-1", Broker: domain.BrokerIBKR,
		ImportedAt: date(22), TradeCount: 2, ClosedCount: 1,
		Success: true, CumulativePL: &cumulative,
	}); err != nil {
		t.Fatalf("seed import: %v", err)
	}

	fixed := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	gen := NewGenerator(trades, closed, imports).WithClock(func() time.Time { return fixed })

	r, err := gen.Generate(ctx, "imp-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if r.GeneratedAt != fixed {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, fixed)
	}
	if r.Summary.TradesImported != 2 || r.Summary.ClosedCount != 1 {
		t.Errorf("Summary = %+v", r.Summary)
	}
	if r.Summary.ComputedPL != 125.22 {
		t.Errorf("ComputedPL = %v, want 125.22", r.Summary.ComputedPL)
	}
	if len(r.ClosedTrades) != 1 || r.ClosedTrades[0].PnL != 110.77 {
		t.Errorf("ClosedTrades = %+v", r.ClosedTrades)
	}
	if len(r.OpenLots) != 0 {
		t.Errorf("OpenLots = %+v, want none", r.OpenLots)
	}
}

func TestGeneratorGenerate_UnknownImport(t *testing.T) {
	gen := NewGenerator(memory.NewTradeRecordStore(), memory.NewClosedTradeStore(), memory.NewImportStore())
	if _, err := gen.Generate(context.Background(), "missing"); err == nil {
		t.Error("Generate for unknown import: want error")
	}
}
