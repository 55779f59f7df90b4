package matching

import (
	"strings"

	"statement-pnl-lab/internal/domain"
)

// Book is the direction of the position a trade belongs to.
type Book int

const (
	BookLong Book = iota
	BookShort
)

// String returns the book name for logs and messages.
func (b Book) String() string {
	if b == BookShort {
		return "short"
	}
	return "long"
}

// Intent is a classified trade action: which book the trade belongs to and
// whether it opens or closes a position on that book.
type Intent struct {
	Book  Book
	Opens bool
}

// Classifier decides the intent of a trade. The boolean reports confidence:
// false means the classifier fell back to an assumption and the caller must
// surface the trade as ambiguous rather than silently trusting it.
type Classifier interface {
	Classify(trade *domain.TradeRecord) (Intent, bool)
}

// StrategyLabelClassifier classifies by the broker's strategy label plus the
// quantity sign. A label containing SHORT picks the short book, LONG the
// long book; the sign then decides open versus close (a buy opens a long
// position and closes a short one). Trades with no usable label fall back
// to the long book, not confidently.
type StrategyLabelClassifier struct{}

func (StrategyLabelClassifier) Classify(trade *domain.TradeRecord) (Intent, bool) {
	label := strings.ToUpper(trade.Strategy)
	confident := true

	var book Book
	switch {
	case strings.Contains(label, "SHORT"):
		book = BookShort
	case strings.Contains(label, "LONG"):
		book = BookLong
	default:
		book = BookLong
		confident = false
	}

	opens := trade.Quantity > 0
	if book == BookShort {
		opens = trade.Quantity < 0
	}
	return Intent{Book: book, Opens: opens}, confident
}
