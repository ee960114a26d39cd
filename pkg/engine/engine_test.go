package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhhsieh82/stock-trade/pkg/book"
	"github.com/yhhsieh82/stock-trade/pkg/journal"
)

func TestNewFromStrategy(t *testing.T) {
	for _, name := range []string{"locked", "lockfree"} {
		eng, err := NewFromStrategy(name, []string{"AAPL"})
		require.NoError(t, err)
		require.NotNil(t, eng)
	}

	_, err := NewFromStrategy("optimistic", []string{"AAPL"})
	assert.Error(t, err)
}

func TestEngineLifecycle(t *testing.T) {
	eng := NewLockedEngine([]string{"AAPL"}, WithInterval(time.Millisecond))

	eng.Start()
	eng.Start() // idempotent

	eng.SubmitOrder(mustOrder(t, "AAPL", book.Buy, 15000, 10))
	eng.SubmitOrder(mustOrder(t, "AAPL", book.Sell, 15000, 10))

	deadline := time.After(5 * time.Second)
	for eng.Trades().Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("no trade executed")
		case <-time.After(time.Millisecond):
		}
	}

	eng.Stop()
	eng.Stop() // idempotent

	trades := eng.Trades().Drain()
	require.Len(t, trades, 1)
	assert.Equal(t, int64(10), trades[0].Qty)
}

func TestEngineDrainsTradesToJournal(t *testing.T) {
	j, err := journal.Open(filepath.Join(t.TempDir(), "trades"))
	require.NoError(t, err)
	defer j.Close()

	eng := NewLockFreeEngine([]string{"AAPL"},
		WithInterval(time.Millisecond), WithJournal(j))
	eng.Start()

	const pairs = 20
	for i := 0; i < pairs; i++ {
		eng.SubmitOrder(mustOrder(t, "AAPL", book.Buy, 15000, 1))
		eng.SubmitOrder(mustOrder(t, "AAPL", book.Sell, 15000, 1))
	}

	deadline := time.After(5 * time.Second)
	for j.Len() < pairs {
		select {
		case <-deadline:
			t.Fatalf("journal has %d/%d trades", j.Len(), pairs)
		case <-time.After(2 * time.Millisecond):
		}
	}

	// Stop's final sweep leaves nothing behind on the feed.
	eng.Stop()
	assert.Equal(t, 0, eng.Trades().Len())

	recent, err := j.Recent(5)
	require.NoError(t, err)
	assert.Len(t, recent, 5)
	for _, tr := range recent {
		assert.Equal(t, "AAPL", tr.Symbol)
	}
}
