// Package statement parses broker activity statements.
//
// Statements are line-oriented, comma-separated files where each row starts
// with a section name and row type (Header, Data, SubTotal, Total) and the
// remaining column positions are fixed per broker and section. Column
// offsets are described by a per-broker Schema pinned against a golden
// sample; see schema.go.
//
// A row that fails validation produces a ParseError and is skipped; the
// pass never aborts on bad rows, so a single malformed line cannot lose an
// entire statement.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/money"
)

// summaryNumericFields is how many numeric fields must follow the "Total"
// literal in a performance-summary row; the last one is the statement's
// cumulative P&L. Position-based by construction, pinned by golden samples.
const summaryNumericFields = 10

// rowTypeHeader and rowTypeData are the row type discriminators shared by
// the supported statement formats.
const (
	rowTypeHeader = "Header"
	rowTypeData   = "Data"
)

// summaryTotalLiteral marks the authoritative cumulative P&L row inside
// the performance-summary section.
const summaryTotalLiteral = "Total"

// ParseResult is the outcome of one parse pass. Even when Errors is
// non-empty the result carries whatever trades and summary figure were
// extracted (partial success is the default).
type ParseResult struct {
	Broker       domain.BrokerIdentity
	Trades       []*domain.TradeRecord
	CumulativePL *float64
	Errors       []domain.ParseError
}

// Success reports whether every row parsed cleanly.
func (r *ParseResult) Success() bool {
	return len(r.Errors) == 0
}

// Parser parses statements for one broker. Stateless across calls; build
// one per import, there is no shared instance.
type Parser struct {
	schema *Schema
}

// NewParser resolves the column schema for the broker and returns a parser.
// Returns ErrUnsupportedBroker for brokers without a validated schema.
func NewParser(broker domain.BrokerIdentity) (*Parser, error) {
	schema, err := SchemaFor(broker)
	if err != nil {
		return nil, err
	}
	return &Parser{schema: schema}, nil
}

// Parse splits raw statement text into sections and extracts normalized
// trade records plus the statement's reported cumulative P&L.
func (p *Parser) Parse(rawText string) *ParseResult {
	result := &ParseResult{Broker: p.schema.Broker}

	for i, line := range strings.Split(rawText, "\n") {
		lineNum := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, err := splitLine(line)
		if err != nil {
			result.Errors = append(result.Errors, domain.ParseError{
				Line:    lineNum,
				Message: fmt.Sprintf("unparseable row: %v", err),
			})
			continue
		}
		if len(record) < 2 {
			continue
		}

		section := record[0]
		rowType := record[1]
		if rowType != rowTypeData {
			continue
		}

		switch section {
		case p.schema.TradeSection:
			p.parseTradeRow(record, lineNum, result)
		case p.schema.SummarySection:
			p.parseSummaryRow(record, lineNum, result)
		}
	}

	return result
}

// FindHeaderRows returns the column names of every Header row in the raw
// text, for format detection. Statements carry several header rows (the
// account preamble, the trade table, summaries); the detector scores each
// and keeps the best match. Section labels and row types are stripped.
func FindHeaderRows(rawText string) ([][]string, error) {
	var rows [][]string
	for _, line := range strings.Split(rawText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := splitLine(line)
		if err != nil {
			continue
		}
		if len(record) >= 3 && record[1] == rowTypeHeader {
			rows = append(rows, record[2:])
		}
	}
	if len(rows) == 0 {
		return nil, errors.New("no header rows found")
	}
	return rows, nil
}

// parseTradeRow converts one trade data row into a TradeRecord. Validation
// failures append a ParseError; zero-quantity rows are dropped silently
// (they carry no position change and must not reach the matching engine).
func (p *Parser) parseTradeRow(record []string, lineNum int, result *ParseResult) {
	if p.schema.Discriminator != "" {
		if p.schema.DiscriminatorIndex >= len(record) {
			return
		}
		if record[p.schema.DiscriminatorIndex] != p.schema.Discriminator {
			return
		}
	}

	fields, err := p.schema.extract(record)
	if err != nil {
		result.Errors = append(result.Errors, domain.ParseError{Line: lineNum, Message: err.Error()})
		return
	}

	trade, err := p.buildTrade(fields)
	if err != nil {
		result.Errors = append(result.Errors, domain.ParseError{Line: lineNum, Message: err.Error()})
		return
	}
	if trade.Quantity == 0 {
		return
	}
	result.Trades = append(result.Trades, trade)
}

// buildTrade maps extracted fields onto a TradeRecord. The statement's own
// realized and mark-to-market components are authoritative: TradePL is
// their sum, never re-derived from price and quantity here.
func (p *Parser) buildTrade(fields map[string]string) (*domain.TradeRecord, error) {
	trade := &domain.TradeRecord{}

	switch p.schema.Broker {
	case domain.BrokerIBKR:
		symbol, putCall, strike, expiry, err := parseContract(fields[colDescriptor])
		if err != nil {
			return nil, err
		}
		trade.Symbol = symbol
		trade.PutCall = putCall
		trade.Strike = strike
		trade.Expiry = expiry
	default:
		trade.Symbol = fields[colSymbol]
		trade.PutCall = normalizePutCall(fields[colPutCall])
		if raw, ok := fields[colStrike]; ok {
			strike, err := money.Parse(raw)
			if err != nil {
				return nil, err
			}
			trade.Strike = strike
		}
		if raw, ok := fields[colExpiry]; ok {
			expiry, err := parseISODate(raw)
			if err != nil {
				return nil, err
			}
			trade.Expiry = expiry
		}
	}

	openDate, err := time.Parse(p.schema.DateTimeLayout, fields[colDateTime])
	if err != nil {
		return nil, fmt.Errorf("invalid date/time %q", fields[colDateTime])
	}
	trade.OpenDate = openDate

	quantity, err := strconv.ParseInt(strings.ReplaceAll(fields[colQuantity], ",", ""), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q", fields[colQuantity])
	}
	trade.Quantity = quantity

	if raw, ok := fields[colPrice]; ok {
		price, err := money.Parse(raw)
		if err != nil {
			return nil, err
		}
		trade.Premium = &price
	}
	if raw, ok := fields[colCommission]; ok {
		commission, err := money.Parse(raw)
		if err != nil {
			return nil, err
		}
		// IBKR reports commissions as negative amounts; normalize to cost.
		trade.Commission = math.Abs(commission)
	}
	if raw, ok := fields[colRealizedPL]; ok {
		realized, err := money.Parse(raw)
		if err != nil {
			return nil, err
		}
		trade.RealizedPL = &realized
	}
	if raw, ok := fields[colUnrealizedPL]; ok {
		unrealized, err := money.Parse(raw)
		if err != nil {
			return nil, err
		}
		trade.UnrealizedPL = &unrealized
	}

	trade.Code = fields[colCode]
	trade.Notes = fields[colNotes]
	trade.Strategy = fields[colStrategy]
	if trade.Strategy == "" {
		trade.Strategy = strategyFromCode(trade.Code, trade.Quantity)
	}

	trade.TradePL = 0
	if trade.RealizedPL != nil {
		trade.TradePL += *trade.RealizedPL
	}
	if trade.UnrealizedPL != nil {
		trade.TradePL += *trade.UnrealizedPL
	}
	return trade, nil
}

// parseSummaryRow extracts the statement's cumulative P&L: the row inside
// the performance-summary section containing the "Total" literal, whose
// tenth following numeric field is the authoritative figure. Only the
// first such row is used.
func (p *Parser) parseSummaryRow(record []string, lineNum int, result *ParseResult) {
	if result.CumulativePL != nil {
		return
	}

	totalIdx := -1
	for i, field := range record {
		if strings.TrimSpace(field) == summaryTotalLiteral {
			totalIdx = i
			break
		}
	}
	if totalIdx < 0 {
		return
	}

	var numerics []float64
	for _, field := range record[totalIdx+1:] {
		v, err := money.Parse(field)
		if err != nil {
			continue
		}
		numerics = append(numerics, v)
	}
	if len(numerics) < summaryNumericFields {
		result.Errors = append(result.Errors, domain.ParseError{
			Line: lineNum,
			Message: fmt.Sprintf("summary row has %d numeric fields, want %d",
				len(numerics), summaryNumericFields),
		})
		return
	}

	cumulative := numerics[summaryNumericFields-1]
	result.CumulativePL = &cumulative
}

// strategyFromCode synthesizes a strategy label for brokers that report
// open/close codes instead of labeled strategies. An opening buy or a
// closing sell belongs to a long book; the mirror belongs to a short book.
func strategyFromCode(code string, quantity int64) string {
	upper := strings.ToUpper(code)
	switch {
	case strings.Contains(upper, "O"):
		if quantity > 0 {
			return "LONG"
		}
		return "SHORT"
	case strings.Contains(upper, "C"):
		if quantity < 0 {
			return "LONG"
		}
		return "SHORT"
	}
	return ""
}

// splitLine parses one statement line as a CSV record. Statements are
// line-oriented; quoted fields may contain commas ("2025-03-10, 09:31:05")
// but never newlines.
func splitLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.Read()
}
