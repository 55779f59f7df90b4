package reporting

import (
	"time"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/matching"
	"statement-pnl-lab/internal/pipeline"
	"statement-pnl-lab/internal/pnl"
	"statement-pnl-lab/internal/reconcile"
)

// Report is the renderable view of one statement import.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	ImportID    string
	Broker      domain.BrokerIdentity

	Summary Summary

	// Closed trades in FIFO match order, open lots sorted by instrument.
	ClosedTrades []ClosedTradeRow
	OpenLots     []OpenLotRow

	Findings FindingsSection

	// Reconciliation is nil when no broker totals were supplied.
	Reconciliation *ReconciliationSection
}

// Summary contains the header-line numbers for a report.
type Summary struct {
	TradesImported int
	ParseErrors    int
	ClosedCount    int
	OpenCount      int
	WinCount       int
	LossCount      int
	WinRate        float64
	TotalPL        float64

	// ComputedPL is our chronological running total over all trades;
	// StatementPL is the broker's own cumulative figure, when the
	// statement carried one.
	ComputedPL  float64
	StatementPL *float64
}

// ClosedTradeRow is one matched close in the ledger.
type ClosedTradeRow struct {
	Instrument   string
	Symbol       string
	OpenDate     time.Time
	CloseDate    time.Time
	Quantity     int64
	OpenPremium  float64
	ClosePremium float64
	PnL          float64
	DaysHeld     int
	Commissions  float64
	IsWin        bool
}

// OpenLotRow is one unclosed position at statement end.
type OpenLotRow struct {
	Instrument string
	Quantity   int64
	Premium    *float64
	OpenDate   time.Time
}

// FindingsSection lists the problems matching surfaced. Both slices may be
// empty for a clean statement.
type FindingsSection struct {
	Ambiguities []string
	Anomalies   []AnomalyRow
}

// AnomalyRow is one matching anomaly with its classification.
type AnomalyRow struct {
	Type    string
	Symbol  string
	Message string
}

// ReconciliationSection reports the scaling applied against broker totals.
type ReconciliationSection struct {
	RealizedFactor           float64
	UnrealizedFactor         float64
	RealizedUnreconcilable   bool
	UnrealizedUnreconcilable bool
	Adjusted                 []reconcile.AdjustedTrade
}

// Build converts an import result into a report. Reconciliation is attached
// separately via WithReconciliation since broker totals arrive out of band.
func Build(result *pipeline.ImportResult, now time.Time) *Report {
	r := &Report{
		GeneratedAt:  now,
		ImportID:     result.ImportID,
		Broker:       result.Broker,
		Summary:      buildSummary(result),
		ClosedTrades: buildClosedRows(result.ClosedTrades),
		OpenLots:     buildOpenRows(result.OpenLots),
		Findings:     buildFindings(result.Ambiguities, result.Anomalies),
	}
	return r
}

// WithReconciliation attaches a reconciliation outcome to the report.
func (r *Report) WithReconciliation(res *reconcile.Result) *Report {
	r.Reconciliation = &ReconciliationSection{
		RealizedFactor:           res.RealizedFactor,
		UnrealizedFactor:         res.UnrealizedFactor,
		RealizedUnreconcilable:   res.RealizedUnreconcilable,
		UnrealizedUnreconcilable: res.UnrealizedUnreconcilable,
		Adjusted:                 res.Trades,
	}
	return r
}

func buildSummary(result *pipeline.ImportResult) Summary {
	return Summary{
		TradesImported: result.TradesImported,
		ParseErrors:    len(result.ParseErrors),
		ClosedCount:    result.Stats.ClosedCount,
		OpenCount:      result.Stats.OpenCount,
		WinCount:       result.Stats.WinCount,
		LossCount:      result.Stats.LossCount,
		WinRate:        result.Stats.WinRate,
		TotalPL:        result.Stats.TotalPL,
		ComputedPL:     result.ComputedPL,
		StatementPL:    result.CumulativePL,
	}
}

func buildClosedRows(closed []domain.ClosedTradePL) []ClosedTradeRow {
	rows := make([]ClosedTradeRow, len(closed))
	for i, c := range closed {
		rows[i] = ClosedTradeRow{
			Instrument:   c.Key.String(),
			Symbol:       c.Symbol,
			OpenDate:     c.OpenDate,
			CloseDate:    c.CloseDate,
			Quantity:     c.MatchedQuantity,
			OpenPremium:  c.OpenPremium,
			ClosePremium: c.ClosePremium,
			PnL:          c.PnL,
			DaysHeld:     c.DaysHeld,
			Commissions:  c.Commissions,
			IsWin:        c.IsWin,
		}
	}
	return rows
}

func buildOpenRows(lots []domain.OpenLot) []OpenLotRow {
	rows := make([]OpenLotRow, len(lots))
	for i, l := range lots {
		rows[i] = OpenLotRow{
			Instrument: l.Key.String(),
			Quantity:   l.Quantity,
			Premium:    l.Premium,
			OpenDate:   l.OpenDate,
		}
	}
	return rows
}

func buildFindings(ambiguities []matching.Ambiguity, anomalies []matching.Anomaly) FindingsSection {
	var f FindingsSection
	for _, a := range ambiguities {
		f.Ambiguities = append(f.Ambiguities, a.Symbol+": "+a.Message)
	}
	for _, a := range anomalies {
		f.Anomalies = append(f.Anomalies, AnomalyRow{
			Type:    a.Type,
			Symbol:  a.Symbol,
			Message: a.Message,
		})
	}
	return f
}

// statsFromRows recomputes summary P&L stats from stored closed rows and
// open lots, for report generation against the store rather than a live
// import result.
func statsFromRows(closed []domain.ClosedTradePL, open []domain.OpenLot) pnl.Stats {
	return pnl.ComputeStats(closed, open)
}
