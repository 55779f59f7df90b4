package statement

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/money"
)

// optionDescriptorRe matches IBKR-style option descriptors,
// e.g. "AAPL 28MAR25 222.5 C" or "SPY 26APR25 500 P".
var optionDescriptorRe = regexp.MustCompile(`^([A-Z][A-Z0-9.]*)\s+(\d{2}[A-Z]{3}\d{2})\s+(\d+(?:\.\d+)?)\s+([CP])$`)

// equitySymbolRe matches bare equity symbols, e.g. "AAPL" or "BRK.B".
var equitySymbolRe = regexp.MustCompile(`^[A-Z][A-Z0-9.]*$`)

// parseContract splits a statement symbol descriptor into its instrument
// parts. A bare symbol is an equity; "SYM DDMONYY STRIKE C|P" is an option.
func parseContract(descriptor string) (symbol string, putCall domain.PutCall, strike float64, expiry time.Time, err error) {
	descriptor = strings.TrimSpace(descriptor)

	if equitySymbolRe.MatchString(descriptor) {
		return descriptor, domain.PutCallNone, 0, time.Time{}, nil
	}

	matches := optionDescriptorRe.FindStringSubmatch(descriptor)
	if matches == nil {
		return "", domain.PutCallNone, 0, time.Time{}, fmt.Errorf("unrecognized contract descriptor %q", descriptor)
	}

	symbol = matches[1]

	expiry, err = parseContractExpiry(matches[2])
	if err != nil {
		return "", domain.PutCallNone, 0, time.Time{}, err
	}

	strike, err = money.Parse(matches[3])
	if err != nil {
		return "", domain.PutCallNone, 0, time.Time{}, fmt.Errorf("invalid strike in %q: %v", descriptor, err)
	}

	switch matches[4] {
	case "C":
		putCall = domain.PutCallCall
	case "P":
		putCall = domain.PutCallPut
	}
	return symbol, putCall, strike, expiry, nil
}

// parseContractExpiry parses "28MAR25" style expiry dates.
func parseContractExpiry(s string) (time.Time, error) {
	if len(s) != 7 {
		return time.Time{}, fmt.Errorf("invalid expiry %q", s)
	}
	// time.Parse wants "Mar", statements print "MAR".
	normalized := s[:3] + strings.ToLower(s[3:5]) + s[5:]
	t, err := time.Parse("02Jan06", normalized)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiry %q: %v", s, err)
	}
	return t, nil
}

// parseISODate parses "2025-03-28" style dates.
func parseISODate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// normalizePutCall maps broker put/call spellings onto the domain constant.
func normalizePutCall(s string) domain.PutCall {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C":
		return domain.PutCallCall
	case "PUT", "P":
		return domain.PutCallPut
	}
	return domain.PutCallNone
}
