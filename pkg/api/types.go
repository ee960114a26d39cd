package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yhhsieh82/stock-trade/pkg/book"
)

// TradeResponse is the wire form of an executed trade. Prices leave the
// engine as integer ticks and are rendered in human units here.
type TradeResponse struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Price       string    `json:"price"`
	Qty         int64     `json:"qty"`
	BuyOrderID  uint64    `json:"buy_order_id"`
	SellOrderID uint64    `json:"sell_order_id"`
	ExecutedAt  time.Time `json:"executed_at"`
}

type LevelResponse struct {
	Price string `json:"price"`
	Qty   int64  `json:"qty"`
}

type BookResponse struct {
	Symbol string          `json:"symbol"`
	Bids   []LevelResponse `json:"bids"`
	Asks   []LevelResponse `json:"asks"`
}

// WSSubscribeRequest is a client subscription command, e.g.
// {"op":"subscribe","channels":["trades:AAPL"]}.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels"`
}

// WSMessage wraps a broadcast payload with its channel name.
type WSMessage struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

func renderPrice(ticks int64, tick decimal.Decimal) string {
	return decimal.NewFromInt(ticks).Mul(tick).String()
}

func toTradeResponse(t book.Trade, tick decimal.Decimal) TradeResponse {
	return TradeResponse{
		ID:          t.ID,
		Symbol:      t.Symbol,
		Price:       renderPrice(t.Price, tick),
		Qty:         t.Qty,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		ExecutedAt:  t.ExecutedAt,
	}
}

func toBookResponse(d book.Depth, tick decimal.Decimal) BookResponse {
	resp := BookResponse{
		Symbol: d.Symbol,
		Bids:   make([]LevelResponse, 0, len(d.Bids)),
		Asks:   make([]LevelResponse, 0, len(d.Asks)),
	}
	for _, lvl := range d.Bids {
		resp.Bids = append(resp.Bids, LevelResponse{Price: renderPrice(lvl.Price, tick), Qty: lvl.Qty})
	}
	for _, lvl := range d.Asks {
		resp.Asks = append(resp.Asks, LevelResponse{Price: renderPrice(lvl.Price, tick), Qty: lvl.Qty})
	}
	return resp
}
