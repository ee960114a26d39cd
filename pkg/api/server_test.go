package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yhhsieh82/stock-trade/pkg/book"
	"github.com/yhhsieh82/stock-trade/pkg/engine"
	"github.com/yhhsieh82/stock-trade/pkg/journal"
)

func newTestServer(t *testing.T, jnl *journal.Journal) (*Server, *engine.TradingEngine) {
	t.Helper()
	eng := engine.NewLockedEngine([]string{"AAPL", "MSFT"})
	srv, err := NewServer(eng, jnl, []string{"AAPL", "MSFT"}, "0.01", zap.NewNop().Sugar())
	require.NoError(t, err)
	return srv, eng
}

func doGet(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestBadPriceTickRejected(t *testing.T) {
	eng := engine.NewLockedEngine([]string{"AAPL"})
	_, err := NewServer(eng, nil, []string{"AAPL"}, "not-a-number", zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doGet(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetSymbols(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doGet(t, srv, "/api/v1/symbols")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Symbols []string `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"AAPL", "MSFT"}, body.Symbols)
}

func TestGetBookRendersDecimalPrices(t *testing.T) {
	srv, eng := newTestServer(t, nil)

	buy, err := book.NewOrder("AAPL", book.Buy, 15000, 10)
	require.NoError(t, err)
	sell, err := book.NewOrder("AAPL", book.Sell, 15100, 4)
	require.NoError(t, err)
	eng.SubmitOrder(buy)
	eng.SubmitOrder(sell)

	rec := doGet(t, srv, "/api/v1/symbols/AAPL/book")
	require.Equal(t, http.StatusOK, rec.Code)

	var body BookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AAPL", body.Symbol)
	require.Len(t, body.Bids, 1)
	assert.Equal(t, "150", body.Bids[0].Price)
	assert.Equal(t, int64(10), body.Bids[0].Qty)
	require.Len(t, body.Asks, 1)
	assert.Equal(t, "151", body.Asks[0].Price)
	assert.Equal(t, int64(4), body.Asks[0].Qty)
}

func TestGetBookUnknownSymbol(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doGet(t, srv, "/api/v1/symbols/TSLA/book")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTradesWithoutJournal(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doGet(t, srv, "/api/v1/symbols/AAPL/trades")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTradesFiltersBySymbol(t *testing.T) {
	jnl, err := journal.Open(filepath.Join(t.TempDir(), "trades"))
	require.NoError(t, err)
	defer jnl.Close()

	require.NoError(t, jnl.Append(book.NewTrade("AAPL", 15000, 5, 1, 2)))
	require.NoError(t, jnl.Append(book.NewTrade("MSFT", 40000, 3, 3, 4)))
	require.NoError(t, jnl.Append(book.NewTrade("AAPL", 15050, 7, 5, 6)))

	srv, _ := newTestServer(t, jnl)
	rec := doGet(t, srv, "/api/v1/symbols/AAPL/trades?limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Symbol string          `json:"symbol"`
		Trades []TradeResponse `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AAPL", body.Symbol)
	require.Len(t, body.Trades, 2)
	assert.Equal(t, "150.5", body.Trades[0].Price, "most recent first")
	assert.Equal(t, "150", body.Trades[1].Price)
	for _, tr := range body.Trades {
		assert.Equal(t, "AAPL", tr.Symbol)
	}
}
