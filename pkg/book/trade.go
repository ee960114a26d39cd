package book

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trade records one executed match. Immutable once constructed. Price is
// always the resting sell order's price: the taker crosses into the
// standing ask.
type Trade struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Price       int64     `json:"price"`
	Qty         int64     `json:"qty"`
	BuyOrderID  uint64    `json:"buy_order_id"`
	SellOrderID uint64    `json:"sell_order_id"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// NewTrade builds the execution record for a matched (buy, sell) pair.
func NewTrade(symbol string, price, qty int64, buyID, sellID uint64) Trade {
	return Trade{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Price:       price,
		Qty:         qty,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		ExecutedAt:  time.Now(),
	}
}

func (t Trade) String() string {
	return fmt.Sprintf("TRADE %s %d@%d buy=%d sell=%d", t.Symbol, t.Qty, t.Price, t.BuyOrderID, t.SellOrderID)
}
