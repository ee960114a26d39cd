package book

// heapEntry pairs an order with its arrival sequence in a given book.
// The sequence is assigned per submit, so a partially filled order that
// re-enters goes behind orders already resting at its price.
type heapEntry struct {
	order *Order
	seq   uint64
}

// orderHeap implements heap.Interface over heapEntry with a pluggable
// price comparison. Use container/heap to manipulate it (Init, Push, Pop).
type orderHeap struct {
	entries []heapEntry
	// priceBefore reports whether price a outranks price b on this side:
	// higher-first for bids, lower-first for asks.
	priceBefore func(a, b int64) bool
}

func newBidHeap() *orderHeap {
	return &orderHeap{priceBefore: func(a, b int64) bool { return a > b }}
}

func newAskHeap() *orderHeap {
	return &orderHeap{priceBefore: func(a, b int64) bool { return a < b }}
}

func (h orderHeap) Len() int { return len(h.entries) }

func (h orderHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if a.order.Price != b.order.Price {
		return h.priceBefore(a.order.Price, b.order.Price)
	}
	return a.seq < b.seq // earliest arrival wins at equal price
}

func (h orderHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *orderHeap) Push(x interface{}) {
	h.entries = append(h.entries, x.(heapEntry))
}

func (h *orderHeap) Pop() interface{} {
	old := h.entries
	n := len(old)
	x := old[n-1]
	h.entries = old[:n-1]
	return x
}

// peek returns the top order without removing it, nil when empty.
func (h *orderHeap) peek() *Order {
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[0].order
}
