package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yhhsieh82/stock-trade/pkg/book"
	"github.com/yhhsieh82/stock-trade/pkg/util"
)

const defaultMatchInterval = 10 * time.Millisecond

// Matcher runs the price-time matching algorithm over a Book. It is
// written once against the Book contract and behaves identically over the
// locked and lock-free strategies. One matcher loop per engine is the
// normal deployment; the algorithm stays correct with several loops over
// the same book, which the stress tests exercise.
type Matcher struct {
	book     book.Book
	feed     *TradeFeed
	symbols  []string
	interval time.Duration
	clock    util.Clock
	log      *zap.SugaredLogger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewMatcher(b book.Book, feed *TradeFeed, symbols []string, interval time.Duration, clock util.Clock, log *zap.SugaredLogger) *Matcher {
	if interval <= 0 {
		interval = defaultMatchInterval
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Matcher{
		book:     b,
		feed:     feed,
		symbols:  append([]string(nil), symbols...),
		interval: interval,
		clock:    clock,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run polls the symbol list until Stop. The stop flag is checked between
// symbols, never mid-match: once a best pair has been removed, the
// attempt always completes.
func (m *Matcher) Run() {
	defer close(m.done)
	for {
		for _, symbol := range m.symbols {
			select {
			case <-m.stop:
				return
			default:
			}
			m.MatchSymbol(symbol)
		}
		select {
		case <-m.stop:
			return
		case <-m.clock.After(m.interval):
		}
	}
}

// Stop requests a cooperative shutdown. Safe to call more than once.
func (m *Matcher) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Done is closed once the loop has exited.
func (m *Matcher) Done() <-chan struct{} { return m.done }

// MatchSymbol executes all currently possible matches for one symbol and
// returns the number of trades emitted.
//
// Identification and removal of the best pair happen inside PollBestPair
// as one atomic unit, so from here on both orders are exclusively owned:
// their remaining quantities cannot change under us until we discard or
// resubmit them.
func (m *Matcher) MatchSymbol(symbol string) int {
	matched := 0
	for m.book.HasBuyOrders(symbol) && m.book.HasSellOrders(symbol) {
		buy, sell, ok := m.book.PollBestPair(symbol)
		if !ok {
			break
		}

		qty := min(buy.Remaining(), sell.Remaining())
		// The trade crosses into the standing ask: resting sell's price.
		price := sell.Price

		if err := buy.Reduce(qty); err != nil {
			// Remaining would go negative. Fatal, never clamped.
			m.log.Errorw("quantity_reduction_violation", "order", buy.ID, "err", err)
			panic(err)
		}
		if err := sell.Reduce(qty); err != nil {
			m.log.Errorw("quantity_reduction_violation", "order", sell.ID, "err", err)
			panic(err)
		}

		trade := book.NewTrade(symbol, price, qty, buy.ID, sell.ID)
		m.feed.Publish(trade)
		matched++
		m.log.Debugw("trade_executed",
			"symbol", symbol, "price", price, "qty", qty,
			"buy_order", buy.ID, "sell_order", sell.ID)

		// Unfilled remainders rest again with the same id; a drained
		// order is discarded for good.
		if buy.Remaining() > 0 {
			m.book.Submit(buy)
		}
		if sell.Remaining() > 0 {
			m.book.Submit(sell)
		}
	}
	return matched
}
