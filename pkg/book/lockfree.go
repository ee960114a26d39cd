package book

import (
	"sync"
	"sync/atomic"
)

// LockFreeBook maps each (symbol, side) to a price-sorted index over FIFO
// level queues, mutated only through compare-and-swap. No match attempt
// trusts a peek: the dequeue is the authoritative step, and anything a
// dequeue disproves (a level raced empty, an index price whose level is
// gone) is repaired locally and retried.
type LockFreeBook struct {
	symbols sync.Map // symbol -> *symbolBook
}

type symbolBook struct {
	bids *sideBook
	asks *sideBook
}

// sideBook holds one side's levels: a sync.Map price -> *levelQueue plus
// a copy-on-write sorted price slice behind an atomic pointer, best price
// first. The slice is the visibility root: a submit is complete once its
// price is published there.
type sideBook struct {
	levels sync.Map
	index  atomic.Pointer[[]int64]
	// before reports whether price a outranks b: bids descending, asks
	// ascending.
	before func(a, b int64) bool
}

func newSideBook(side Side) *sideBook {
	s := &sideBook{}
	if side == Buy {
		s.before = func(a, b int64) bool { return a > b }
	} else {
		s.before = func(a, b int64) bool { return a < b }
	}
	empty := []int64{}
	s.index.Store(&empty)
	return s
}

func NewLockFreeBook() *LockFreeBook {
	return &LockFreeBook{}
}

func (b *LockFreeBook) symbol(symbol string) *symbolBook {
	if v, ok := b.symbols.Load(symbol); ok {
		return v.(*symbolBook)
	}
	v, _ := b.symbols.LoadOrStore(symbol, &symbolBook{
		bids: newSideBook(Buy),
		asks: newSideBook(Sell),
	})
	return v.(*symbolBook)
}

func (b *LockFreeBook) Submit(o *Order) {
	sym := b.symbol(o.Symbol)
	if o.Side == Buy {
		sym.bids.insert(o)
	} else {
		sym.asks.insert(o)
	}
}

func (b *LockFreeBook) HasBuyOrders(symbol string) bool {
	_, ok := b.symbol(symbol).bids.best()
	return ok
}

func (b *LockFreeBook) HasSellOrders(symbol string) bool {
	_, ok := b.symbol(symbol).asks.best()
	return ok
}

// PollBestPair re-validates both best prices on every attempt and lets
// the dequeues decide. A nil dequeue means the level raced empty: it is
// collapsed and the attempt retried instead of trusting the earlier read.
// If the sell side comes up empty after the buy was already taken, the
// buy goes back before retrying.
func (b *LockFreeBook) PollBestPair(symbol string) (*Order, *Order, bool) {
	sym := b.symbol(symbol)
	for {
		bid, okBid := sym.bids.best()
		ask, okAsk := sym.asks.best()
		if !okBid || !okAsk || ask > bid {
			return nil, nil, false
		}

		buyLvl, ok := sym.bids.level(bid)
		if !ok {
			sym.bids.repair(bid)
			continue
		}
		buy := buyLvl.dequeue()
		if buy == nil {
			sym.bids.collapse(bid, buyLvl)
			continue
		}

		sellLvl, ok := sym.asks.level(ask)
		if !ok {
			sym.bids.insert(buy)
			sym.asks.repair(ask)
			continue
		}
		sell := sellLvl.dequeue()
		if sell == nil {
			sym.bids.insert(buy)
			sym.asks.collapse(ask, sellLvl)
			continue
		}

		// Drop drained levels eagerly; harmless no-op otherwise.
		sym.bids.collapse(bid, buyLvl)
		sym.asks.collapse(ask, sellLvl)
		return buy, sell, true
	}
}

func (b *LockFreeBook) Depth(symbol string) Depth {
	sym := b.symbol(symbol)
	return Depth{
		Symbol: symbol,
		Bids:   sym.bids.depth(),
		Asks:   sym.asks.depth(),
	}
}

// insert performs get-or-create-level then enqueue. An enqueue that loses
// to a seal retries against a freshly created level; the sealed entry is
// dropped so the retry cannot loop on a dead queue. A successful enqueue
// proves the level was not sealed, so the order cannot be lost to a
// concurrent collapse.
func (s *sideBook) insert(o *Order) {
	for {
		v, _ := s.levels.LoadOrStore(o.Price, newLevelQueue(o.Price))
		lvl := v.(*levelQueue)
		if lvl.enqueue(o) {
			s.indexAdd(o.Price)
			return
		}
		s.levels.CompareAndDelete(o.Price, lvl)
	}
}

func (s *sideBook) level(price int64) (*levelQueue, bool) {
	v, ok := s.levels.Load(price)
	if !ok {
		return nil, false
	}
	return v.(*levelQueue), true
}

func (s *sideBook) best() (int64, bool) {
	idx := *s.index.Load()
	if len(idx) == 0 {
		return 0, false
	}
	return idx[0], true
}

// collapse unlinks lvl iff it seals empty, then heals the index against a
// concurrent re-creation of the same price.
func (s *sideBook) collapse(price int64, lvl *levelQueue) {
	if !lvl.closeIfEmpty() {
		return
	}
	s.levels.CompareAndDelete(price, lvl)
	s.indexRemove(price)
	if _, ok := s.levels.Load(price); ok {
		s.indexAdd(price)
	}
}

// repair drops an index price whose level is gone, re-adding it if a new
// level appeared mid-removal. Spurious re-creation is tolerated; a lost
// price is not.
func (s *sideBook) repair(price int64) {
	if _, ok := s.levels.Load(price); ok {
		return
	}
	s.indexRemove(price)
	if _, ok := s.levels.Load(price); ok {
		s.indexAdd(price)
	}
}

func (s *sideBook) indexAdd(price int64) {
	for {
		old := s.index.Load()
		idx := *old
		pos := len(idx)
		for i, p := range idx {
			if p == price {
				return
			}
			if s.before(price, p) {
				pos = i
				break
			}
		}
		next := make([]int64, 0, len(idx)+1)
		next = append(next, idx[:pos]...)
		next = append(next, price)
		next = append(next, idx[pos:]...)
		if s.index.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (s *sideBook) indexRemove(price int64) {
	for {
		old := s.index.Load()
		idx := *old
		pos := -1
		for i, p := range idx {
			if p == price {
				pos = i
				break
			}
		}
		if pos < 0 {
			return
		}
		next := make([]int64, 0, len(idx)-1)
		next = append(next, idx[:pos]...)
		next = append(next, idx[pos+1:]...)
		if s.index.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (s *sideBook) depth() []PriceLevel {
	idx := *s.index.Load()
	levels := make([]PriceLevel, 0, len(idx))
	for _, price := range idx {
		lvl, ok := s.level(price)
		if !ok {
			continue
		}
		if qty := lvl.snapshotQty(); qty > 0 {
			levels = append(levels, PriceLevel{Price: price, Qty: qty})
		}
	}
	return levels
}

var _ Book = (*LockFreeBook)(nil)
