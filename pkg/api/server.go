// Package api exposes a read-only market data surface over the engine:
// REST endpoints for book depth and executed trades plus a WebSocket
// trade stream. Order entry stays in-process; nothing here mutates the
// book.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yhhsieh82/stock-trade/pkg/engine"
	"github.com/yhhsieh82/stock-trade/pkg/journal"
)

// Server handles REST API and WebSocket connections.
type Server struct {
	engine  *engine.TradingEngine
	journal *journal.Journal // optional
	symbols map[string]bool
	list    []string
	tick    decimal.Decimal
	router  *mux.Router
	hub     *Hub
	log     *zap.SugaredLogger

	httpSrv *http.Server
	quit    chan struct{}
}

// NewServer builds the market data server. journal may be nil, in which
// case /trades serves 404.
func NewServer(eng *engine.TradingEngine, jnl *journal.Journal, symbols []string, priceTick string, log *zap.SugaredLogger) (*Server, error) {
	tick, err := decimal.NewFromString(priceTick)
	if err != nil {
		return nil, fmt.Errorf("api: bad price tick %q: %w", priceTick, err)
	}

	s := &Server{
		engine:  eng,
		journal: jnl,
		symbols: make(map[string]bool, len(symbols)),
		list:    append([]string(nil), symbols...),
		tick:    tick,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		log:     log,
		quit:    make(chan struct{}),
	}
	for _, sym := range symbols {
		s.symbols[sym] = true
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/symbols", s.handleGetSymbols).Methods("GET")
	api.HandleFunc("/symbols/{symbol}/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/symbols/{symbol}/trades", s.handleGetTrades).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start serves until Shutdown. It also pumps the engine's trade feed into
// per-symbol WebSocket channels.
func (s *Server) Start(addr string) error {
	go s.hub.Run(s.quit)
	go s.pumpTrades()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.httpSrv = &http.Server{Addr: addr, Handler: c.Handler(s.router)}
	s.log.Infow("api_listening", "addr", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP listener and the hub.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.quit)
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// pumpTrades forwards executed trades to "trades:<SYMBOL>" channels. The
// subscription drops under backpressure, so the matcher is never slowed
// by a stuck socket.
func (s *Server) pumpTrades() {
	sub := s.engine.Trades().Subscribe(1024)
	for {
		select {
		case <-s.quit:
			return
		case t, ok := <-sub:
			if !ok {
				return
			}
			s.hub.BroadcastToChannel("trades:"+t.Symbol, toTradeResponse(t, s.tick))
		}
	}
}

func (s *Server) handleGetSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"symbols": s.list})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if !s.symbols[symbol] {
		writeError(w, http.StatusNotFound, "unknown symbol")
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(s.engine.Book().Depth(symbol), s.tick))
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	if !s.symbols[symbol] {
		writeError(w, http.StatusNotFound, "unknown symbol")
		return
	}
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "trade history disabled")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	// The journal mixes symbols; over-fetch and filter.
	trades, err := s.journal.Recent(limit * len(s.list))
	if err != nil {
		s.log.Errorw("journal_read_failed", "err", err)
		writeError(w, http.StatusInternalServerError, "journal read failed")
		return
	}
	out := make([]TradeResponse, 0, limit)
	for _, t := range trades {
		if t.Symbol != symbol {
			continue
		}
		out = append(out, toTradeResponse(t, s.tick))
		if len(out) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "trades": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
