// Package book implements the shared order-book contract and its two
// concurrency strategies: a mutex-guarded heap book and a non-blocking
// price-level book. Both order resting orders by price advantage first,
// then earliest arrival, and both expose best-pair removal as a single
// atomic step so a matcher can never trade against a stale head.
package book

// PriceLevel is an aggregated view of all resting orders at one price.
type PriceLevel struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

// Depth is a point-in-time aggregate of one symbol's book, bids best-first
// (descending) and asks best-first (ascending).
type Depth struct {
	Symbol string       `json:"symbol"`
	Bids   []PriceLevel `json:"bids"`
	Asks   []PriceLevel `json:"asks"`
}

// Book is the capability contract shared by both strategies.
//
// PollBestPair is the one accessor a matcher needs: it identifies the best
// resting buy and sell for the symbol and, iff they cross
// (buy.Price >= sell.Price), removes BOTH from the book and hands them to
// the caller in one atomic unit. The caller then exclusively owns the two
// orders until it discards them or resubmits a remainder. Observing the
// best pair and removing it were two separate steps in an earlier design,
// and a better-priced order arriving in between produced trades priced
// off an order that was never removed; collapsing them into one operation
// is what makes that interleaving unrepresentable.
type Book interface {
	// Submit inserts the order into its side's priority structure,
	// making it visible to subsequent matcher reads. Validation happens
	// at order construction, not here.
	Submit(o *Order)

	// HasBuyOrders reports whether any buy order rests for symbol.
	HasBuyOrders(symbol string) bool

	// HasSellOrders reports whether any sell order rests for symbol.
	HasSellOrders(symbol string) bool

	// PollBestPair atomically removes and returns the crossing best
	// (buy, sell) pair, or reports ok=false if either side is empty or
	// the best prices do not cross. Returned orders are owned by the
	// caller.
	PollBestPair(symbol string) (buy, sell *Order, ok bool)

	// Depth returns an aggregated snapshot of the symbol's book.
	Depth(symbol string) Depth
}
