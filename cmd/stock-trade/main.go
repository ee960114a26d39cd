package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yhhsieh82/stock-trade/params"
	"github.com/yhhsieh82/stock-trade/pkg/api"
	"github.com/yhhsieh82/stock-trade/pkg/book"
	"github.com/yhhsieh82/stock-trade/pkg/engine"
	"github.com/yhhsieh82/stock-trade/pkg/journal"
	"github.com/yhhsieh82/stock-trade/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	opts := []engine.Option{
		engine.WithInterval(cfg.Engine.MatchInterval),
		engine.WithLogger(sugar),
	}

	var jnl *journal.Journal
	if cfg.Journal.Path != "" {
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			sugar.Fatalw("journal_open_failed", "path", cfg.Journal.Path, "err", err)
		}
		defer jnl.Close()
		opts = append(opts, engine.WithJournal(jnl))
	}

	eng, err := engine.NewFromStrategy(cfg.Engine.Strategy, cfg.Engine.Symbols, opts...)
	if err != nil {
		sugar.Fatalw("engine_init_failed", "err", err)
	}
	sugar.Infow("engine_config",
		"strategy", cfg.Engine.Strategy,
		"symbols", cfg.Engine.Symbols,
		"interval_ms", cfg.Engine.MatchInterval.Milliseconds())

	eng.Start()
	defer eng.Stop()

	server, err := api.NewServer(eng, jnl, cfg.Engine.Symbols, cfg.API.PriceTick, sugar)
	if err != nil {
		sugar.Fatalw("api_init_failed", "err", err)
	}
	go func() {
		if err := server.Start(cfg.API.Addr); err != nil {
			sugar.Errorw("api_server_failed", "err", err)
		}
	}()

	// Demonstration flow: a few submitter goroutines crossing the book
	// while the matcher runs.
	go demoOrders(eng, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("api_shutdown_failed", "err", err)
	}
	sugar.Info("shutting down")
}

func demoOrders(eng *engine.TradingEngine, sugar *zap.SugaredLogger) {
	submit := func(symbol string, side book.Side, price, qty int64) {
		o, err := book.NewOrder(symbol, side, price, qty)
		if err != nil {
			return
		}
		eng.SubmitOrder(o)
		sugar.Infow("order_submitted", "order", o.String())
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		submit("AAPL", book.Buy, 15000, 10)
		submit("MSFT", book.Buy, 25000, 5)
		submit("GOOGL", book.Buy, 200000, 2)
		submit("AAPL", book.Buy, 15100, 15)
	}()
	go func() {
		defer wg.Done()
		submit("AAPL", book.Sell, 14900, 5)
		submit("MSFT", book.Sell, 25100, 10)
		submit("GOOGL", book.Sell, 199000, 3)
		submit("AAPL", book.Sell, 14800, 8)
	}()
	go func() {
		defer wg.Done()
		time.Sleep(500 * time.Millisecond)
		submit("AAPL", book.Buy, 15200, 20)
		submit("MSFT", book.Sell, 24900, 7)
		submit("GOOGL", book.Buy, 201000, 1)
	}()

	wg.Wait()
}
