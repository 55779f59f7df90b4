package pnl

import (
	"errors"

	"statement-pnl-lab/internal/domain"
	"statement-pnl-lab/internal/money"
)

// ContractMultiplier converts option premium deltas to dollars. Standard
// US equity options deliver 100 shares per contract.
const ContractMultiplier = 100

// ErrMissingPremium is returned when an open position has no recorded entry
// premium, so no mark-to-market figure can be produced for it.
var ErrMissingPremium = errors.New("open position has no entry premium")

// PriceLookup resolves a current market price for a symbol. The boolean
// reports whether a price was available.
type PriceLookup func(symbol string) (float64, bool)

// OpenPositionPL marks an open trade to a current price:
// (price - premium) * multiplier * quantity - commission. The quantity sign
// carries through, so a short position gains when the price drops.
func OpenPositionPL(trade *domain.TradeRecord, price float64) (float64, error) {
	if trade.Premium == nil {
		return 0, ErrMissingPremium
	}
	mult := 1.0
	if trade.Key().IsOption() {
		mult = ContractMultiplier
	}
	return money.Round2((price-*trade.Premium)*mult*float64(trade.Quantity) - trade.Commission), nil
}

// OpenLotPL marks a FIFO lot to a current price, using the lot's remaining
// quantity and unapportioned commission.
func OpenLotPL(lot *domain.OpenLot, price float64) (float64, error) {
	if lot.Premium == nil {
		return 0, ErrMissingPremium
	}
	mult := 1.0
	if lot.Key.IsOption() {
		mult = ContractMultiplier
	}
	return money.Round2((price-*lot.Premium)*mult*float64(lot.Quantity) - lot.Commission), nil
}

// MarkLots values a set of open lots against caller-supplied prices.
// Lots whose symbol has no price, or which lack an entry premium, are
// skipped and reported in unpriced. The total is rounded to 2 decimals.
func MarkLots(lots []domain.OpenLot, lookup PriceLookup) (total float64, unpriced []string) {
	var sum float64
	for i := range lots {
		price, ok := lookup(lots[i].Key.Symbol)
		if !ok {
			unpriced = append(unpriced, lots[i].Key.String())
			continue
		}
		pl, err := OpenLotPL(&lots[i], price)
		if err != nil {
			unpriced = append(unpriced, lots[i].Key.String())
			continue
		}
		sum += pl
	}
	return money.Round2(sum), unpriced
}
