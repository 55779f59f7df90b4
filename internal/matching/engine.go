// Package matching pairs closing trades against opening lots in FIFO order
// and produces per-match realized P&L.
package matching

import (
	"fmt"
	"sort"
	"time"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/money"
)

// equityMultiplier and optionMultiplier convert per-unit premium deltas
// into dollar P&L. Standard US option contracts deliver 100 shares.
const (
	equityMultiplier = 1
	optionMultiplier = 100
)

// Anomaly types. An anomaly is a data-quality finding the engine works
// around; it never aborts the match pass.
const (
	AnomalyMissingPrice   = "MISSING_PRICE"
	AnomalyUnmatchedClose = "UNMATCHED_CLOSE"
)

// Ambiguity records a trade whose intent had to be assumed rather than
// read from the statement.
type Ambiguity struct {
	TradeID string
	Symbol  string
	Message string
}

// Anomaly records a data-quality problem found while matching.
type Anomaly struct {
	Type    string
	TradeID string
	Symbol  string
	Message string
}

// MatchResult is the outcome of one full match pass.
type MatchResult struct {
	Closed      []domain.ClosedTradePL
	OpenLots    []domain.OpenLot
	Ambiguities []Ambiguity
	Anomalies   []Anomaly
}

// Engine runs FIFO lot matching over a set of trades. Stateless across
// Match calls.
type Engine struct {
	classifier Classifier
}

// NewEngine builds an engine. A nil classifier defaults to the strategy
// label classifier.
func NewEngine(classifier Classifier) *Engine {
	if classifier == nil {
		classifier = StrategyLabelClassifier{}
	}
	return &Engine{classifier: classifier}
}

// bookKey routes a trade to one FIFO queue: same instrument, same book.
type bookKey struct {
	instrument domain.InstrumentKey
	book       Book
}

// Match processes trades in chronological order, opening lots and consuming
// them FIFO when closes arrive. Returns an error only on invalid input;
// data-quality problems are reported as anomalies on the result instead.
func (e *Engine) Match(trades []*domain.TradeRecord) (*MatchResult, error) {
	for _, t := range trades {
		if t.Quantity == 0 {
			return nil, fmt.Errorf("zero-quantity trade %s (%s)", t.TradeID, t.Symbol)
		}
	}

	ordered := make([]*domain.TradeRecord, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OpenDate.Before(ordered[j].OpenDate)
	})

	result := &MatchResult{}
	queues := make(map[bookKey][]*domain.OpenLot)

	for _, trade := range ordered {
		intent, confident := e.classifier.Classify(trade)
		if !confident {
			result.Ambiguities = append(result.Ambiguities, Ambiguity{
				TradeID: trade.TradeID,
				Symbol:  trade.Symbol,
				Message: fmt.Sprintf("no strategy label on %q; assuming %s book", trade.Strategy, intent.Book),
			})
		}

		key := bookKey{instrument: trade.Key(), book: intent.Book}
		if intent.Opens {
			queues[key] = append(queues[key], openLotFrom(trade, intent.Book))
			continue
		}
		e.consume(trade, key, queues, result)
	}

	result.OpenLots = collectOpenLots(queues)
	return result, nil
}

// consume matches one closing trade against its book's FIFO queue, emitting
// one ClosedTradePL per lot fragment it fills against. A residual quantity
// with no lots left flips to an opening lot on the opposite book, the same
// way brokers treat an oversized close as close-then-reopen.
func (e *Engine) consume(trade *domain.TradeRecord, key bookKey, queues map[bookKey][]*domain.OpenLot, result *MatchResult) {
	remaining := abs(trade.Quantity)
	closeTotal := remaining

	queue := queues[key]
	for remaining > 0 && len(queue) > 0 {
		lot := queue[0]
		lotQty := abs(lot.Quantity)

		exec := remaining
		if lotQty < exec {
			exec = lotQty
		}

		openShare := lot.Commission * float64(exec) / float64(lotQty)
		closeShare := trade.Commission * float64(exec) / float64(closeTotal)

		result.Closed = append(result.Closed, e.closedPL(trade, key, lot, exec, openShare, closeShare, result))

		lot.Commission -= openShare
		if lot.Quantity > 0 {
			lot.Quantity -= exec
		} else {
			lot.Quantity += exec
		}
		if lot.Quantity == 0 {
			queue = queue[1:]
		}
		remaining -= exec
	}
	queues[key] = queue

	if remaining > 0 {
		result.Anomalies = append(result.Anomalies, Anomaly{
			Type:    AnomalyUnmatchedClose,
			TradeID: trade.TradeID,
			Symbol:  trade.Symbol,
			Message: fmt.Sprintf("close of %d on %s exceeds open %s lots by %d", closeTotal, key.instrument, key.book, remaining),
		})

		// The residual opens a position on the opposite book.
		opposite := BookShort
		if key.book == BookShort {
			opposite = BookLong
		}
		residual := &domain.OpenLot{
			Key:        key.instrument,
			Quantity:   bookSigned(remaining, opposite),
			Premium:    trade.Premium,
			OpenDate:   trade.OpenDate,
			Commission: trade.Commission * float64(remaining) / float64(closeTotal),
		}
		oppKey := bookKey{instrument: key.instrument, book: opposite}
		queues[oppKey] = append(queues[oppKey], residual)
	}
}

// closedPL builds the realized P&L record for one match fragment. When a
// premium is missing on either side the fragment still closes the lot but
// carries zero P&L plus a MISSING_PRICE anomaly.
func (e *Engine) closedPL(trade *domain.TradeRecord, key bookKey, lot *domain.OpenLot, exec int64, openShare, closeShare float64, result *MatchResult) domain.ClosedTradePL {
	closed := domain.ClosedTradePL{
		Key:             key.instrument,
		Symbol:          trade.Symbol,
		OpenDate:        lot.OpenDate,
		CloseDate:       trade.OpenDate,
		MatchedQuantity: exec,
		DaysHeld:        daysBetween(lot.OpenDate, trade.OpenDate),
		Commissions:     openShare + closeShare,
	}

	if lot.Premium == nil || trade.Premium == nil {
		result.Anomalies = append(result.Anomalies, Anomaly{
			Type:    AnomalyMissingPrice,
			TradeID: trade.TradeID,
			Symbol:  trade.Symbol,
			Message: fmt.Sprintf("missing premium on %s match; P&L recorded as zero", key.instrument),
		})
		return closed
	}

	closed.OpenPremium = *lot.Premium
	closed.ClosePremium = *trade.Premium

	mult := float64(equityMultiplier)
	if key.instrument.IsOption() {
		mult = optionMultiplier
	}

	delta := closed.ClosePremium - closed.OpenPremium
	if key.book == BookShort {
		delta = closed.OpenPremium - closed.ClosePremium
	}
	pnl := delta*mult*float64(exec) - openShare - closeShare

	closed.PnL = money.Round2(pnl)
	closed.IsWin = closed.PnL > 0
	return closed
}

// openLotFrom converts an opening trade into a FIFO lot. Lot quantity is
// signed by book so a queue never mixes directions.
func openLotFrom(trade *domain.TradeRecord, book Book) *domain.OpenLot {
	return &domain.OpenLot{
		Key:        trade.Key(),
		Quantity:   bookSigned(abs(trade.Quantity), book),
		Premium:    trade.Premium,
		OpenDate:   trade.OpenDate,
		Commission: trade.Commission,
	}
}

// collectOpenLots flattens the residual queues into a deterministic slice,
// sorted by instrument then acquisition date.
func collectOpenLots(queues map[bookKey][]*domain.OpenLot) []domain.OpenLot {
	var lots []domain.OpenLot
	for _, queue := range queues {
		for _, lot := range queue {
			lots = append(lots, *lot)
		}
	}
	sort.SliceStable(lots, func(i, j int) bool {
		ki, kj := lots[i].Key.String(), lots[j].Key.String()
		if ki != kj {
			return ki < kj
		}
		if !lots[i].OpenDate.Equal(lots[j].OpenDate) {
			return lots[i].OpenDate.Before(lots[j].OpenDate)
		}
		return lots[i].Quantity > lots[j].Quantity
	})
	return lots
}

func bookSigned(qty int64, book Book) int64 {
	if book == BookShort {
		return -qty
	}
	return qty
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func daysBetween(opened, closed time.Time) int {
	d := closed.Sub(opened)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}
