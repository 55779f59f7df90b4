package idhash

import (
	"testing"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name     string
		importID string
		symbol   string
		openTime int64
		quantity int64
		line     int
		wantLen  int // hash length should be 64
	}{
		{
			name:     "option fill",
			importID: "abc123def456",
			symbol:   "AAPL",
			openTime: 1741599065,
			quantity: 1,
			line:     5,
			wantLen:  64,
		},
		{
			name:     "equity sell",
			importID: "xyz789ghi012",
			symbol:   "SPY",
			openTime: 1743608700,
			quantity: -2,
			line:     8,
			wantLen:  64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.importID, tt.symbol, tt.openTime, tt.quantity, tt.line)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeTradeID(tt.importID, tt.symbol, tt.openTime, tt.quantity, tt.line)
			if got != got2 {
				t.Errorf("ComputeTradeID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeTradeID_DifferentInputs(t *testing.T) {
	base := ComputeTradeID("import", "AAPL", 1000, 1, 5)

	if base == ComputeTradeID("other_import", "AAPL", 1000, 1, 5) {
		t.Error("Different import should produce different hash")
	}
	if base == ComputeTradeID("import", "SPY", 1000, 1, 5) {
		t.Error("Different symbol should produce different hash")
	}
	if base == ComputeTradeID("import", "AAPL", 2000, 1, 5) {
		t.Error("Different open time should produce different hash")
	}
	if base == ComputeTradeID("import", "AAPL", 1000, -1, 5) {
		t.Error("Different quantity should produce different hash")
	}
	if base == ComputeTradeID("import", "AAPL", 1000, 1, 6) {
		t.Error("Different line should produce different hash")
	}
}

func TestComputeImportID_Determinism(t *testing.T) {
	raw := "Trades,Header,DataDiscriminator\nTrades,Data,Order"

	first := ComputeImportID("ibkr", raw)
	for i := 0; i < 10; i++ {
		if got := ComputeImportID("ibkr", raw); got != first {
			t.Fatalf("ComputeImportID not deterministic: %s != %s", got, first)
		}
	}

	if ComputeImportID("tastytrade", raw) == first {
		t.Error("Different broker should produce different import_id")
	}
}
