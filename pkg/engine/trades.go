package engine

import (
	"sync"

	"github.com/yhhsieh82/stock-trade/pkg/book"
)

// TradeFeed is the engine's trade output: an unbounded FIFO that the
// matcher appends to without ever blocking, drained by collaborators at
// their own pace. Broadcast subscribers get bounded channels; a slow
// subscriber loses messages instead of stalling the matcher.
type TradeFeed struct {
	mu     sync.Mutex
	queue  []book.Trade
	subs   []chan book.Trade
	signal chan struct{}
	closed bool
}

func NewTradeFeed() *TradeFeed {
	return &TradeFeed{signal: make(chan struct{}, 1)}
}

// Publish appends the trade and wakes drainers. Never blocks; after
// Close it is a no-op.
func (f *TradeFeed) Publish(t book.Trade) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.queue = append(f.queue, t)
	for _, ch := range f.subs {
		select {
		case ch <- t:
		default:
			// Subscriber backed up, drop for them.
		}
	}
	f.mu.Unlock()

	select {
	case f.signal <- struct{}{}:
	default:
	}
}

// Poll removes and returns the earliest undrained trade.
func (f *TradeFeed) Poll() (book.Trade, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return book.Trade{}, false
	}
	t := f.queue[0]
	f.queue = f.queue[1:]
	return t, true
}

// Drain removes and returns all undrained trades in publish order.
func (f *TradeFeed) Drain() []book.Trade {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	return out
}

func (f *TradeFeed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// C signals that new trades may be available to Drain.
func (f *TradeFeed) C() <-chan struct{} { return f.signal }

// Subscribe returns a broadcast channel with the given buffer. Trades
// published while the buffer is full are skipped for this subscriber.
func (f *TradeFeed) Subscribe(buf int) <-chan book.Trade {
	ch := make(chan book.Trade, buf)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch
	}
	f.subs = append(f.subs, ch)
	return ch
}

// Close closes all subscriber channels. Queued trades stay drainable.
func (f *TradeFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}
