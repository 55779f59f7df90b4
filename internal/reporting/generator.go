package reporting

import (
	"context"
	"fmt"
	"time"

	"statement-pnl-lab/internal/matching"
	"statement-pnl-lab/internal/pnl"
	"statement-pnl-lab/internal/storage"
)

// Generator produces reports from stored data, without re-parsing the
// original statement.
type Generator struct {
	trades  storage.TradeRecordStore
	closed  storage.ClosedTradeStore
	imports storage.ImportStore
	engine  *matching.Engine
	now     func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator over the given stores.
func NewGenerator(trades storage.TradeRecordStore, closed storage.ClosedTradeStore, imports storage.ImportStore) *Generator {
	return &Generator{
		trades:  trades,
		closed:  closed,
		imports: imports,
		engine:  matching.NewEngine(nil),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for one stored import. Closed trades come from
// the closed-trade store; open lots are re-derived by running the matcher
// over the stored trade records, which is deterministic for a given import.
func (g *Generator) Generate(ctx context.Context, importID string) (*Report, error) {
	rec, err := g.imports.GetByID(ctx, importID)
	if err != nil {
		return nil, fmt.Errorf("load import %s: %w", importID, err)
	}

	trades, err := g.trades.GetByImportID(ctx, importID)
	if err != nil {
		return nil, fmt.Errorf("load trades for %s: %w", importID, err)
	}

	closed, err := g.closed.GetByImportID(ctx, importID)
	if err != nil && rec.ClosedCount > 0 {
		return nil, fmt.Errorf("load closed trades for %s: %w", importID, err)
	}

	computedPL := pnl.StampCumulative(trades)

	matched, err := g.engine.Match(trades)
	if err != nil {
		return nil, fmt.Errorf("rematch trades for %s: %w", importID, err)
	}

	stats := statsFromRows(closed, matched.OpenLots)

	return &Report{
		GeneratedAt: g.now(),
		ImportID:    importID,
		Broker:      rec.Broker,
		Summary: Summary{
			TradesImported: rec.TradeCount,
			ParseErrors:    rec.ErrorCount,
			ClosedCount:    stats.ClosedCount,
			OpenCount:      stats.OpenCount,
			WinCount:       stats.WinCount,
			LossCount:      stats.LossCount,
			WinRate:        stats.WinRate,
			TotalPL:        stats.TotalPL,
			ComputedPL:     computedPL,
			StatementPL:    rec.CumulativePL,
		},
		ClosedTrades: buildClosedRows(closed),
		OpenLots:     buildOpenRows(matched.OpenLots),
		Findings:     buildFindings(matched.Ambiguities, matched.Anomalies),
	}, nil
}
