package book

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		side    Side
		price   int64
		qty     int64
		wantErr bool
	}{
		{name: "valid buy", symbol: "AAPL", side: Buy, price: 15000, qty: 10},
		{name: "valid sell at zero price", symbol: "AAPL", side: Sell, price: 0, qty: 1},
		{name: "empty symbol", symbol: "", side: Buy, price: 15000, qty: 10, wantErr: true},
		{name: "zero quantity", symbol: "AAPL", side: Buy, price: 15000, qty: 0, wantErr: true},
		{name: "negative quantity", symbol: "AAPL", side: Sell, price: 15000, qty: -5, wantErr: true},
		{name: "negative price", symbol: "AAPL", side: Buy, price: -1, qty: 10, wantErr: true},
		{name: "invalid side", symbol: "AAPL", side: Side(42), price: 15000, qty: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrder(tt.symbol, tt.side, tt.price, tt.qty)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, o.Symbol)
			assert.Equal(t, tt.side, o.Side)
			assert.Equal(t, tt.price, o.Price)
			assert.Equal(t, tt.qty, o.Remaining())
			assert.NotZero(t, o.CreatedAt)
		})
	}
}

func TestOrderIDsAreUniqueAndIncreasing(t *testing.T) {
	a, err := NewOrder("AAPL", Buy, 15000, 10)
	require.NoError(t, err)
	b, err := NewOrder("AAPL", Buy, 15000, 10)
	require.NoError(t, err)

	assert.Greater(t, b.ID, a.ID)
	assert.True(t, a.Equal(a))
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}

func TestReduce(t *testing.T) {
	o, err := NewOrder("AAPL", Buy, 15000, 10)
	require.NoError(t, err)

	require.NoError(t, o.Reduce(4))
	assert.Equal(t, int64(6), o.Remaining())

	require.NoError(t, o.Reduce(6))
	assert.Equal(t, int64(0), o.Remaining())
}

func TestReduceBelowZeroFails(t *testing.T) {
	o, err := NewOrder("AAPL", Buy, 15000, 10)
	require.NoError(t, err)

	err = o.Reduce(11)
	assert.ErrorIs(t, err, ErrInvalidReduction)
	assert.Equal(t, int64(10), o.Remaining(), "failed reduction must not touch the value")

	assert.Error(t, o.Reduce(0))
	assert.Error(t, o.Reduce(-1))
}

// Concurrent decrements must neither lose updates nor drive the value
// negative: exactly qty reductions of 1 succeed, all others fail.
func TestReduceConcurrent(t *testing.T) {
	const qty = 1000
	const workers = 8
	const perWorker = 200 // workers*perWorker > qty, so some must fail

	o, err := NewOrder("AAPL", Buy, 15000, qty)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var succeeded sync.Map
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			n := 0
			for i := 0; i < perWorker; i++ {
				if o.Reduce(1) == nil {
					n++
				}
			}
			succeeded.Store(w, n)
		}(w)
	}
	wg.Wait()

	total := 0
	succeeded.Range(func(_, v interface{}) bool {
		total += v.(int)
		return true
	})
	assert.Equal(t, qty, total)
	assert.Equal(t, int64(0), o.Remaining())
}
