package domain

import "time"

// BrokerIdentity names a known broker statement format.
type BrokerIdentity string

const (
	BrokerUnknown    BrokerIdentity = "unknown"
	BrokerIBKR       BrokerIdentity = "ibkr"
	BrokerTastytrade BrokerIdentity = "tastytrade"
	BrokerSchwab     BrokerIdentity = "schwab"
)

// ParseError records a single statement row that failed validation.
// Errors are appended during a parse pass, never removed; a bad row does
// not abort the import.
type ParseError struct {
	Line    int
	Message string
}

// ImportRecord summarizes one statement import.
type ImportRecord struct {
	ImportID     string // deterministic hash of broker + raw text
	Broker       BrokerIdentity
	ImportedAt   time.Time
	TradeCount   int
	ErrorCount   int
	ClosedCount  int
	OpenLotCount int
	Success      bool // true iff no row-level parse errors
	CumulativePL *float64
}
