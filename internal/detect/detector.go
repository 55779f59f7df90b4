// Package detect identifies which broker exported a statement by scoring
// its header row against known broker signatures.
package detect

import (
	"sort"
	"strings"

	"statement-pnl-lab/internal/domain"
)

const (
	// minScore is the minimum signature score for a broker to be a candidate.
	minScore = 3
	// minRequired is the minimum count of required headers that must be present.
	minRequired = 2
)

// headerSignature is one header name a broker is known to emit.
type headerSignature struct {
	header   string
	weight   int
	required bool
}

// signatures maps each known broker to its header signature table.
// Comparison is case-insensitive on trimmed header names.
var signatures = map[domain.BrokerIdentity][]headerSignature{
	domain.BrokerIBKR: {
		{header: "DataDiscriminator", weight: 3, required: true},
		{header: "Asset Category", weight: 2, required: true},
		{header: "T. Price", weight: 2, required: true},
		{header: "Comm/Fee", weight: 2, required: false},
		{header: "Realized P/L", weight: 1, required: false},
		{header: "MTM P/L", weight: 1, required: false},
		{header: "Date/Time", weight: 1, required: false},
		{header: "Proceeds", weight: 1, required: false},
		{header: "Basis", weight: 1, required: false},
	},
	domain.BrokerTastytrade: {
		{header: "Call/Put", weight: 3, required: true},
		{header: "Strike Price", weight: 2, required: true},
		{header: "Avg Price", weight: 2, required: true},
		{header: "Strategy", weight: 2, required: false},
		{header: "Commissions", weight: 1, required: false},
		{header: "Realized P&L", weight: 1, required: false},
		{header: "Expiration", weight: 1, required: false},
		{header: "Qty", weight: 1, required: false},
	},
	domain.BrokerSchwab: {
		{header: "Action", weight: 3, required: true},
		{header: "Fees & Comm", weight: 2, required: true},
		{header: "Description", weight: 2, required: false},
		{header: "Amount", weight: 1, required: false},
		{header: "Price", weight: 1, required: false},
		{header: "Quantity", weight: 1, required: false},
	},
}

// Result is the outcome of format detection. The runner-up candidate and
// its score are always exposed so a caller can surface ambiguous imports
// for human confirmation instead of guessing.
type Result struct {
	Broker        domain.BrokerIdentity
	Score         int
	RunnerUp      domain.BrokerIdentity
	RunnerUpScore int
	// Ambiguous is set when two or more brokers were plausible candidates.
	// The returned broker is still the best-scoring one (ties broken by
	// lexically smaller name), but the caller should treat the detection
	// as low-confidence.
	Ambiguous bool
}

// DetectBest runs Detect over every header row of a statement and returns
// the highest-scoring result. Statements carry several header rows (account
// preamble, trade table, summaries); only the trade table's headers match a
// broker signature, so scanning all rows finds it without knowing section
// names.
func DetectBest(headerRows [][]string) Result {
	best := Result{Broker: domain.BrokerUnknown}
	for _, row := range headerRows {
		r := Detect(row)
		if r.Broker == domain.BrokerUnknown {
			continue
		}
		if best.Broker == domain.BrokerUnknown || r.Score > best.Score {
			best = r
		}
	}
	return best
}

// Detect scores a header row against all known broker signatures and
// returns the most likely broker, or BrokerUnknown when no broker meets
// the candidate thresholds. Pure function of the header list.
func Detect(headerRow []string) Result {
	present := make(map[string]bool, len(headerRow))
	for _, h := range headerRow {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}

	type candidate struct {
		broker domain.BrokerIdentity
		score  int
	}
	var candidates []candidate
	for broker, table := range signatures {
		score := 0
		requiredHits := 0
		for _, sig := range table {
			if !present[strings.ToLower(sig.header)] {
				continue
			}
			score += sig.weight
			if sig.required {
				requiredHits++
			}
		}
		if score >= minScore && requiredHits >= minRequired {
			candidates = append(candidates, candidate{broker: broker, score: score})
		}
	}

	if len(candidates) == 0 {
		return Result{Broker: domain.BrokerUnknown}
	}

	// Higher score first; equal scores break ties by lexically smaller
	// broker name so detection is deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].broker < candidates[j].broker
	})

	result := Result{
		Broker: candidates[0].broker,
		Score:  candidates[0].score,
	}
	if len(candidates) > 1 {
		result.Ambiguous = true
		result.RunnerUp = candidates[1].broker
		result.RunnerUpScore = candidates[1].score
	}
	return result
}
