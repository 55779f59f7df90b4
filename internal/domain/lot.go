package domain

import "time"

// OpenLot is one entry in an instrument's FIFO queue: a quantity acquired by
// a single opening trade, trackable until fully closed. Lots shrink when
// consumed by closing trades but are never merged, which preserves FIFO
// ordering by acquisition date.
type OpenLot struct {
	Key        InstrumentKey
	Quantity   int64    // signed: positive = long lot, negative = short lot
	Premium    *float64 // cost per unit at open, nil when the row lacked it
	OpenDate   time.Time
	Commission float64 // remaining unapportioned commission
}

// ClosedTradePL is the result of matching one opening lot (or lot fragment)
// against one closing trade fragment. Immutable once produced.
type ClosedTradePL struct {
	Key             InstrumentKey
	Symbol          string
	OpenDate        time.Time
	CloseDate       time.Time
	MatchedQuantity int64 // always positive
	OpenPremium     float64
	ClosePremium    float64
	PnL             float64 // rounded to 2 decimals at emission
	DaysHeld        int
	Commissions     float64 // apportioned open + close commissions
	IsWin           bool
}
