// Package pipeline wires the import flow end to end: detect the broker,
// parse the statement, stamp deterministic IDs and cumulative P&L, run
// FIFO matching and persist everything.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"statement-pnl-lab/internal/detect"
	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/idhash"
	"statement-pnl-lab/internal/matching"
	"statement-pnl-lab/internal/observability"
	"statement-pnl-lab/internal/pnl"
	"statement-pnl-lab/internal/statement"
	"statement-pnl-lab/internal/storage"
)

// ErrUnknownBroker is returned when no broker signature matches the
// statement's header rows.
var ErrUnknownBroker = errors.New("statement matches no known broker format")

// Options configures an Importer. Stores and Metrics are optional; a nil
// store skips persistence of that record type, nil Metrics skips
// instrumentation. A nil Classifier uses the strategy label classifier.
type Options struct {
	Trades     storage.TradeRecordStore
	Closed     storage.ClosedTradeStore
	Imports    storage.ImportStore
	Classifier matching.Classifier
	Metrics    *observability.Metrics

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Importer runs statement imports. Safe for concurrent use when its
// stores are.
type Importer struct {
	opts   Options
	engine *matching.Engine
}

// NewImporter creates an Importer from options.
func NewImporter(opts Options) *Importer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{
		opts:   opts,
		engine: matching.NewEngine(opts.Classifier),
	}
}

// ImportResult is the complete outcome of one statement import.
type ImportResult struct {
	ImportID string
	Broker   domain.BrokerIdentity

	// LowConfidence is set when broker detection was ambiguous; the
	// import still proceeds with the best-scoring broker.
	LowConfidence bool

	// Success is true iff every statement row parsed cleanly.
	Success        bool
	TradesImported int
	ParseErrors    []domain.ParseError

	Trades       []*domain.TradeRecord
	ClosedTrades []domain.ClosedTradePL
	OpenLots     []domain.OpenLot
	Ambiguities  []matching.Ambiguity
	Anomalies    []matching.Anomaly

	// CumulativePL is the statement's own reported figure, when present.
	// ComputedPL is ours, from summing per-trade P&L chronologically.
	CumulativePL *float64
	ComputedPL   float64

	Stats pnl.Stats
}

// Import ingests one raw statement. Row-level problems are reported on the
// result; the returned error covers only conditions that abort the import
// (unreadable input, unknown broker, storage failure).
func (imp *Importer) Import(ctx context.Context, rawText string) (*ImportResult, error) {
	start := imp.opts.Now()

	if strings.TrimSpace(rawText) == "" {
		return nil, errors.New("empty statement")
	}

	headerRows, err := statement.FindHeaderRows(rawText)
	if err != nil {
		return nil, fmt.Errorf("find header rows: %w", err)
	}

	detection := detect.DetectBest(headerRows)
	if detection.Broker == domain.BrokerUnknown {
		return nil, ErrUnknownBroker
	}

	parser, err := statement.NewParser(detection.Broker)
	if err != nil {
		return nil, fmt.Errorf("resolve parser for %s: %w", detection.Broker, err)
	}

	parsed := parser.Parse(rawText)

	importID := idhash.ComputeImportID(string(detection.Broker), rawText)
	for i, t := range parsed.Trades {
		t.ImportID = importID
		t.TradeID = idhash.ComputeTradeID(importID, t.Symbol, t.OpenDate.Unix(), t.Quantity, i)
	}

	computedPL := pnl.StampCumulative(parsed.Trades)

	matched, err := imp.engine.Match(parsed.Trades)
	if err != nil {
		return nil, fmt.Errorf("match trades: %w", err)
	}

	result := &ImportResult{
		ImportID:       importID,
		Broker:         detection.Broker,
		LowConfidence:  detection.Ambiguous,
		Success:        parsed.Success(),
		TradesImported: len(parsed.Trades),
		ParseErrors:    parsed.Errors,
		Trades:         parsed.Trades,
		ClosedTrades:   matched.Closed,
		OpenLots:       matched.OpenLots,
		Ambiguities:    matched.Ambiguities,
		Anomalies:      matched.Anomalies,
		CumulativePL:   parsed.CumulativePL,
		ComputedPL:     computedPL,
		Stats:          pnl.ComputeStats(matched.Closed, matched.OpenLots),
	}

	if err := imp.persist(ctx, result); err != nil {
		return nil, err
	}

	imp.record(result, start)
	return result, nil
}

func (imp *Importer) persist(ctx context.Context, result *ImportResult) error {
	if imp.opts.Trades != nil && len(result.Trades) > 0 {
		if err := imp.opts.Trades.InsertBulk(ctx, result.Trades); err != nil {
			return fmt.Errorf("store trades: %w", err)
		}
	}
	if imp.opts.Closed != nil && len(result.ClosedTrades) > 0 {
		if err := imp.opts.Closed.InsertBulk(ctx, result.ImportID, result.ClosedTrades); err != nil {
			return fmt.Errorf("store closed trades: %w", err)
		}
	}
	if imp.opts.Imports != nil {
		rec := &domain.ImportRecord{
			ImportID:     result.ImportID,
			Broker:       result.Broker,
			ImportedAt:   imp.opts.Now().UTC(),
			TradeCount:   result.TradesImported,
			ErrorCount:   len(result.ParseErrors),
			ClosedCount:  len(result.ClosedTrades),
			OpenLotCount: len(result.OpenLots),
			Success:      result.Success,
			CumulativePL: result.CumulativePL,
		}
		if err := imp.opts.Imports.Insert(ctx, rec); err != nil {
			return fmt.Errorf("store import record: %w", err)
		}
	}
	return nil
}

func (imp *Importer) record(result *ImportResult, start time.Time) {
	m := imp.opts.Metrics
	if m == nil {
		return
	}
	m.StatementsImported.WithLabelValues(string(result.Broker)).Inc()
	m.TradeRowsParsed.Add(float64(result.TradesImported))
	m.ParseErrors.Add(float64(len(result.ParseErrors)))
	m.ClosedTradesMatched.Add(float64(len(result.ClosedTrades)))
	for _, a := range result.Anomalies {
		m.MatchAnomalies.WithLabelValues(a.Type).Inc()
	}
	m.OpenLots.Set(float64(len(result.OpenLots)))
	m.ImportDuration.Observe(imp.opts.Now().Sub(start).Seconds())
}
