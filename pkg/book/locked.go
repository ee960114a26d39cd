package book

import (
	"container/heap"
	"sort"
	"sync"
)

// LockedBook keeps one bid heap and one ask heap per symbol, both behind a
// single per-symbol mutex. Holding one lock across the whole side-pair is
// what makes PollBestPair's peek-decide-remove sequence atomic with
// respect to concurrent submits: a better-priced order arriving during a
// match attempt either lands before the lock is taken (and is the order
// removed) or waits until the attempt finishes.
type LockedBook struct {
	mu      sync.RWMutex
	symbols map[string]*lockedSide
}

type lockedSide struct {
	mu      sync.Mutex
	bids    *orderHeap
	asks    *orderHeap
	nextSeq uint64
}

func NewLockedBook() *LockedBook {
	return &LockedBook{symbols: make(map[string]*lockedSide)}
}

// side returns the symbol's structure, creating it lazily. The created
// instance is shared by all subsequent callers for that symbol.
func (b *LockedBook) side(symbol string) *lockedSide {
	b.mu.RLock()
	s, ok := b.symbols[symbol]
	b.mu.RUnlock()
	if ok {
		return s
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok = b.symbols[symbol]; ok {
		return s
	}
	s = &lockedSide{bids: newBidHeap(), asks: newAskHeap()}
	b.symbols[symbol] = s
	return s
}

func (b *LockedBook) Submit(o *Order) {
	s := b.side(o.Symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	e := heapEntry{order: o, seq: s.nextSeq}
	if o.Side == Buy {
		heap.Push(s.bids, e)
	} else {
		heap.Push(s.asks, e)
	}
}

func (b *LockedBook) HasBuyOrders(symbol string) bool {
	s := b.side(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bids.Len() > 0
}

func (b *LockedBook) HasSellOrders(symbol string) bool {
	s := b.side(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asks.Len() > 0
}

// PollBestPair peeks both tops and pops them iff they cross, all under the
// symbol's one mutex.
func (b *LockedBook) PollBestPair(symbol string) (buy, sell *Order, ok bool) {
	s := b.side(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()

	bestBuy := s.bids.peek()
	bestSell := s.asks.peek()
	if bestBuy == nil || bestSell == nil {
		return nil, nil, false
	}
	if bestSell.Price > bestBuy.Price {
		return nil, nil, false
	}
	buy = heap.Pop(s.bids).(heapEntry).order
	sell = heap.Pop(s.asks).(heapEntry).order
	return buy, sell, true
}

func (b *LockedBook) Depth(symbol string) Depth {
	s := b.side(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()

	return Depth{
		Symbol: symbol,
		Bids:   aggregateLevels(s.bids.entries, true),
		Asks:   aggregateLevels(s.asks.entries, false),
	}
}

func aggregateLevels(entries []heapEntry, descending bool) []PriceLevel {
	byPrice := make(map[int64]int64)
	for _, e := range entries {
		byPrice[e.order.Price] += e.order.Remaining()
	}
	levels := make([]PriceLevel, 0, len(byPrice))
	for price, qty := range byPrice {
		levels = append(levels, PriceLevel{Price: price, Qty: qty})
	}
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price > levels[j].Price
		}
		return levels[i].Price < levels[j].Price
	})
	return levels
}

var _ Book = (*LockedBook)(nil)
