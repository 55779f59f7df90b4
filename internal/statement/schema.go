package statement

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/money"
)

// ErrUnsupportedBroker is returned when a broker is recognized by the
// detector but no column schema has been validated for it yet.
var ErrUnsupportedBroker = errors.New("no column schema for broker")

// Semantic column names shared across broker schemas.
const (
	colDescriptor   = "descriptor" // combined symbol + contract descriptor
	colSymbol       = "symbol"
	colPutCall      = "put_call"
	colStrike       = "strike"
	colExpiry       = "expiry"
	colDateTime     = "date_time"
	colQuantity     = "quantity"
	colPrice        = "price"
	colCommission   = "commission"
	colRealizedPL   = "realized_pl"
	colUnrealizedPL = "unrealized_pl"
	colCode         = "code"
	colStrategy     = "strategy"
	colNotes        = "notes"
)

// Column describes one fixed-offset field in a broker's trade row.
// Statement columns are positional, not named; the index is the contract,
// pinned by a golden sample per broker.
type Column struct {
	Name     string
	Index    int
	Required bool
	Validate func(string) error
}

// Schema describes how one broker lays out its statement sections.
// Resolved once per broker identity; the parser never hard-codes offsets.
type Schema struct {
	Broker         domain.BrokerIdentity
	TradeSection   string
	SummarySection string

	// Discriminator, when non-empty, must equal the field at
	// DiscriminatorIndex for a data row to count as a trade execution
	// (IBKR uses it to separate Order rows from ClosedLot rows).
	Discriminator      string
	DiscriminatorIndex int

	DateTimeLayout string
	Columns        []Column
}

// SchemaFor resolves the column schema for a broker.
func SchemaFor(broker domain.BrokerIdentity) (*Schema, error) {
	switch broker {
	case domain.BrokerIBKR:
		return ibkrSchema, nil
	case domain.BrokerTastytrade:
		return tastytradeSchema, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBroker, broker)
	}
}

// ibkrSchema covers IBKR Activity Statement Trades rows:
// Trades,Data,Order,Asset Category,Currency,Symbol,Date/Time,Quantity,
// T. Price,C. Price,Proceeds,Comm/Fee,Basis,Realized P/L,MTM P/L,Code
var ibkrSchema = &Schema{
	Broker:             domain.BrokerIBKR,
	TradeSection:       "Trades",
	SummarySection:     "Realized & Unrealized Performance Summary",
	Discriminator:      "Order",
	DiscriminatorIndex: 2,
	DateTimeLayout:     "2006-01-02, 15:04:05",
	Columns: []Column{
		{Name: colNotes, Index: 3, Required: false},
		{Name: colDescriptor, Index: 5, Required: true, Validate: validDescriptor},
		{Name: colDateTime, Index: 6, Required: true},
		{Name: colQuantity, Index: 7, Required: true, Validate: validInteger},
		{Name: colPrice, Index: 8, Required: false, Validate: validNumber},
		{Name: colCommission, Index: 11, Required: false, Validate: validNumber},
		{Name: colRealizedPL, Index: 13, Required: false, Validate: validNumber},
		{Name: colUnrealizedPL, Index: 14, Required: false, Validate: validNumber},
		{Name: colCode, Index: 15, Required: false},
	},
}

// tastytradeSchema covers tastytrade history exports:
// Trades,Data,Symbol,Call/Put,Strike Price,Expiration,Qty,Avg Price,
// Commissions,Realized P&L,Unrealized P&L,Strategy,Date/Time
var tastytradeSchema = &Schema{
	Broker:         domain.BrokerTastytrade,
	TradeSection:   "Trades",
	SummarySection: "Performance Summary",
	DateTimeLayout: "2006-01-02 15:04:05",
	Columns: []Column{
		{Name: colSymbol, Index: 2, Required: true, Validate: validDescriptor},
		{Name: colPutCall, Index: 3, Required: false, Validate: validPutCall},
		{Name: colStrike, Index: 4, Required: false, Validate: validNumber},
		{Name: colExpiry, Index: 5, Required: false, Validate: validDate},
		{Name: colQuantity, Index: 6, Required: true, Validate: validInteger},
		{Name: colPrice, Index: 7, Required: false, Validate: validNumber},
		{Name: colCommission, Index: 8, Required: false, Validate: validNumber},
		{Name: colRealizedPL, Index: 9, Required: false, Validate: validNumber},
		{Name: colUnrealizedPL, Index: 10, Required: false, Validate: validNumber},
		{Name: colStrategy, Index: 11, Required: false},
		{Name: colDateTime, Index: 12, Required: true},
	},
}

// extract pulls the schema's columns out of one record, validating each
// present value. The first failure aborts the row (not the parse pass).
// Absent optional columns are simply missing from the returned map.
func (s *Schema) extract(record []string) (map[string]string, error) {
	fields := make(map[string]string, len(s.Columns))
	for _, col := range s.Columns {
		if col.Index >= len(record) {
			if col.Required {
				return nil, fmt.Errorf("missing required field %s (column %d)", col.Name, col.Index)
			}
			continue
		}
		value := strings.TrimSpace(record[col.Index])
		if value == "" {
			if col.Required {
				return nil, fmt.Errorf("empty required field %s (column %d)", col.Name, col.Index)
			}
			continue
		}
		if col.Validate != nil {
			if err := col.Validate(value); err != nil {
				return nil, fmt.Errorf("field %s: %v", col.Name, err)
			}
		}
		fields[col.Name] = value
	}
	return fields, nil
}

func validNumber(s string) error {
	_, err := money.Parse(s)
	return err
}

func validInteger(s string) error {
	cleaned := strings.ReplaceAll(s, ",", "")
	if _, err := strconv.ParseInt(cleaned, 10, 64); err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	return nil
}

func validDescriptor(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("empty descriptor")
	}
	return nil
}

func validPutCall(s string) error {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "PUT", "C", "P":
		return nil
	}
	return fmt.Errorf("invalid put/call %q", s)
}

func validDate(s string) error {
	if _, err := parseISODate(s); err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	return nil
}
