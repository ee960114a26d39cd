// Package engine wires a book strategy to the matcher and owns their
// lifecycle: the matcher goroutine, the trade feed, and the optional
// journal drainer.
package engine

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yhhsieh82/stock-trade/pkg/book"
	"github.com/yhhsieh82/stock-trade/pkg/journal"
	"github.com/yhhsieh82/stock-trade/pkg/util"
)

type Option func(*options)

type options struct {
	interval time.Duration
	clock    util.Clock
	log      *zap.SugaredLogger
	journal  *journal.Journal
}

func WithInterval(d time.Duration) Option    { return func(o *options) { o.interval = d } }
func WithClock(c util.Clock) Option          { return func(o *options) { o.clock = c } }
func WithLogger(l *zap.SugaredLogger) Option { return func(o *options) { o.log = l } }
func WithJournal(j *journal.Journal) Option  { return func(o *options) { o.journal = j } }

// TradingEngine coordinates one book, one matcher loop and the trade
// output feed. Strategy is fixed at construction.
type TradingEngine struct {
	book    book.Book
	matcher *Matcher
	feed    *TradeFeed
	journal *journal.Journal
	log     *zap.SugaredLogger

	startOnce sync.Once
	stopOnce  sync.Once
	quit      chan struct{}
	wg        sync.WaitGroup
}

// New builds an engine over an explicit book implementation.
func New(b book.Book, symbols []string, opts ...Option) *TradingEngine {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}
	feed := NewTradeFeed()
	return &TradingEngine{
		book:    b,
		matcher: NewMatcher(b, feed, symbols, o.interval, o.clock, o.log),
		feed:    feed,
		journal: o.journal,
		log:     o.log,
		quit:    make(chan struct{}),
	}
}

// NewLockedEngine builds an engine over the mutex-guarded book strategy.
func NewLockedEngine(symbols []string, opts ...Option) *TradingEngine {
	return New(book.NewLockedBook(), symbols, opts...)
}

// NewLockFreeEngine builds an engine over the non-blocking book strategy.
func NewLockFreeEngine(symbols []string, opts ...Option) *TradingEngine {
	return New(book.NewLockFreeBook(), symbols, opts...)
}

// NewFromStrategy maps a config strategy name to a constructor.
func NewFromStrategy(strategy string, symbols []string, opts ...Option) (*TradingEngine, error) {
	switch strategy {
	case "locked":
		return NewLockedEngine(symbols, opts...), nil
	case "lockfree":
		return NewLockFreeEngine(symbols, opts...), nil
	default:
		return nil, fmt.Errorf("engine: unknown book strategy %q", strategy)
	}
}

// Start launches the matcher loop and, when a journal is attached, a
// drainer that persists trades off the feed. Idempotent.
func (e *TradingEngine) Start() {
	e.startOnce.Do(func() {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.matcher.Run()
		}()
		if e.journal != nil {
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				e.drainToJournal()
			}()
		}
		e.log.Infow("engine_started", "symbols", e.matcher.symbols)
	})
}

// Stop signals the matcher, waits for in-flight match attempts to finish,
// and closes subscriber channels. Idempotent.
func (e *TradingEngine) Stop() {
	e.stopOnce.Do(func() {
		e.matcher.Stop()
		// The journal drainer must outlive the matcher so its final
		// sweep sees every published trade.
		<-e.matcher.Done()
		close(e.quit)
		e.wg.Wait()
		e.feed.Close()
		e.log.Infow("engine_stopped", "undrained_trades", e.feed.Len())
	})
}

// SubmitOrder makes the order visible to the matcher. Safe for any number
// of concurrent callers.
func (e *TradingEngine) SubmitOrder(o *book.Order) {
	e.book.Submit(o)
}

// Book exposes the underlying book for queries.
func (e *TradingEngine) Book() book.Book { return e.book }

// Trades returns the engine's trade output feed.
func (e *TradingEngine) Trades() *TradeFeed { return e.feed }

func (e *TradingEngine) drainToJournal() {
	persist := func() {
		for _, t := range e.feed.Drain() {
			if err := e.journal.Append(t); err != nil {
				e.log.Errorw("journal_append_failed", "trade", t.ID, "err", err)
			}
		}
	}
	for {
		select {
		case <-e.quit:
			persist() // final sweep
			return
		case <-e.feed.C():
			persist()
		}
	}
}
