package book

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// ErrInvalidReduction reports an attempt to reduce an order below zero
// remaining quantity. It marks an internal matching fault, never a normal
// outcome, and callers must not clamp it away.
var ErrInvalidReduction = errors.New("book: reduction exceeds remaining quantity")

var nextOrderID atomic.Uint64

// Order is a resting limit order. Identity, side and price are fixed at
// creation; only the remaining quantity changes, and only downward. Orders
// are shared between the book and an in-flight match attempt, so the
// remaining quantity lives behind atomics.
type Order struct {
	ID        uint64
	Symbol    string
	Side      Side
	Price     int64 // integer ticks
	CreatedAt int64 // unix nanos, FIFO tie-break only

	remaining atomic.Int64
}

// NewOrder validates and builds an order with a fresh globally unique id.
func NewOrder(symbol string, side Side, price int64, qty int64) (*Order, error) {
	if symbol == "" {
		return nil, errors.New("book: empty symbol")
	}
	if side != Buy && side != Sell {
		return nil, fmt.Errorf("book: invalid side %d", side)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("book: quantity must be positive, got %d", qty)
	}
	if price < 0 {
		return nil, fmt.Errorf("book: price must be non-negative, got %d", price)
	}
	o := &Order{
		ID:        nextOrderID.Add(1),
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		CreatedAt: time.Now().UnixNano(),
	}
	o.remaining.Store(qty)
	return o, nil
}

// Remaining returns the current unfilled quantity.
func (o *Order) Remaining() int64 { return o.remaining.Load() }

// Reduce decreases the remaining quantity by amount. Two match iterations
// can race on the same order, so this is a compare-and-swap loop rather
// than a plain read-modify-write: a concurrent decrement is never
// overwritten, and going below zero fails without touching the value.
func (o *Order) Reduce(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("book: reduction must be positive, got %d", amount)
	}
	for {
		cur := o.remaining.Load()
		if amount > cur {
			return fmt.Errorf("%w: have %d, reduce %d (order %d)", ErrInvalidReduction, cur, amount, o.ID)
		}
		if o.remaining.CompareAndSwap(cur, cur-amount) {
			return nil
		}
	}
}

// Equal reports order identity. Two orders are the same iff ids match.
func (o *Order) Equal(other *Order) bool {
	return other != nil && o.ID == other.ID
}

func (o *Order) String() string {
	return fmt.Sprintf("%s %s %d@%d (id=%d)", o.Side, o.Symbol, o.Remaining(), o.Price, o.ID)
}
