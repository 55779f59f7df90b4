package domain

import (
	"fmt"
	"strings"
	"time"
)

// PutCall distinguishes option contract types. Empty for equities.
type PutCall string

const (
	PutCallNone PutCall = ""
	PutCallCall PutCall = "CALL"
	PutCallPut  PutCall = "PUT"
)

// TradeRecord represents one fill/execution parsed from a broker statement.
// Optional statement fields are pointers; nil means the statement did not
// report them.
type TradeRecord struct {
	TradeID  string // deterministic hash
	ImportID string // statement import this trade came from

	// Instrument
	Symbol  string
	PutCall PutCall
	Strike  float64
	Expiry  time.Time // zero for equities

	// Execution
	Quantity   int64    // signed: positive = buy, negative = sell
	Premium    *float64 // price per unit, nil when the row lacks it
	Commission float64  // absolute cost, normalized at parse time
	Strategy   string   // broker strategy label, e.g. "LONG CALL"
	OpenDate   time.Time
	CloseDate  *time.Time

	// Statement-reported P&L components
	RealizedPL   *float64
	UnrealizedPL *float64

	// Derived
	TradePL      float64 // RealizedPL + UnrealizedPL, stamped by the parser
	CumulativePL float64 // running total, stamped by the P&L calculator

	Code  string // broker code field, e.g. "O", "C"
	Notes string // free text used for closed-status inference
}

// IsClosed reports whether the trade represents a closed (realized) position.
// A trade with no close date is still treated as closed when the broker's
// code field carries a closing flag or the notes say so.
func (t *TradeRecord) IsClosed() bool {
	if t.CloseDate != nil {
		return true
	}
	if strings.Contains(strings.ToUpper(t.Code), "C") {
		return true
	}
	return strings.Contains(strings.ToLower(t.Notes), "closed")
}

// Key derives the instrument grouping key used to route the trade to its
// FIFO queue.
func (t *TradeRecord) Key() InstrumentKey {
	return InstrumentKey{
		Symbol:  t.Symbol,
		PutCall: t.PutCall,
		Strike:  t.Strike,
		Expiry:  normalizeExpiry(t.Expiry),
	}
}

// InstrumentKey groups fungible trades: two trades with the same key match
// against the same FIFO queue.
type InstrumentKey struct {
	Symbol  string
	PutCall PutCall
	Strike  float64
	Expiry  string // normalized YYYY-MM-DD, empty for equities
}

// IsOption reports whether the key identifies an option contract.
func (k InstrumentKey) IsOption() bool {
	return k.PutCall != PutCallNone
}

// String returns a human-readable form, e.g. "AAPL 2025-03-28 222.5 CALL".
func (k InstrumentKey) String() string {
	if !k.IsOption() {
		return k.Symbol
	}
	return fmt.Sprintf("%s %s %g %s", k.Symbol, k.Expiry, k.Strike, k.PutCall)
}

func normalizeExpiry(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
