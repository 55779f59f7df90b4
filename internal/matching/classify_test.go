package matching

import (
	"testing"

	"statement-pnl-lab/internal/domain"
)

func TestStrategyLabelClassifier(t *testing.T) {
	tests := []struct {
		name      string
		strategy  string
		quantity  int64
		want      Intent
		confident bool
	}{
		{"long buy opens", "LONG CALL", 2, Intent{Book: BookLong, Opens: true}, true},
		{"long sell closes", "LONG CALL", -2, Intent{Book: BookLong, Opens: false}, true},
		{"short sell opens", "SHORT PUT", -2, Intent{Book: BookShort, Opens: true}, true},
		{"short buy closes", "SHORT PUT", 2, Intent{Book: BookShort, Opens: false}, true},
		{"lowercase label", "long put spread", 1, Intent{Book: BookLong, Opens: true}, true},
		{"bare long word", "LONG", -1, Intent{Book: BookLong, Opens: false}, true},
		{"no label falls back long", "", 3, Intent{Book: BookLong, Opens: true}, false},
		{"unrecognized label falls back long", "IRON CONDOR", -3, Intent{Book: BookLong, Opens: false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := &domain.TradeRecord{Strategy: tt.strategy, Quantity: tt.quantity}
			got, confident := StrategyLabelClassifier{}.Classify(trade)
			if got != tt.want {
				t.Errorf("intent = %+v, want %+v", got, tt.want)
			}
			if confident != tt.confident {
				t.Errorf("confident = %v, want %v", confident, tt.confident)
			}
		})
	}
}
