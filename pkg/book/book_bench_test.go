package book

import (
	"testing"
)

func benchOrder(b *testing.B, symbol string, side Side, price, qty int64) *Order {
	o, err := NewOrder(symbol, side, price, qty)
	if err != nil {
		b.Fatal(err)
	}
	return o
}

func benchmarkSubmit(b *testing.B, newBook func() Book) {
	bk := newBook()
	orders := make([]*Order, b.N)
	for i := range orders {
		orders[i] = benchOrder(b, "AAPL", Buy, int64(14000+i%2000), 10)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.Submit(orders[i])
	}
}

func BenchmarkLockedSubmit(b *testing.B)   { benchmarkSubmit(b, func() Book { return NewLockedBook() }) }
func BenchmarkLockFreeSubmit(b *testing.B) { benchmarkSubmit(b, func() Book { return NewLockFreeBook() }) }

func benchmarkSubmitParallel(b *testing.B, newBook func() Book) {
	bk := newBook()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			o, err := NewOrder("AAPL", Buy, int64(14000+i%2000), 10)
			if err != nil {
				b.Fatal(err)
			}
			bk.Submit(o)
			i++
		}
	})
}

func BenchmarkLockedSubmitParallel(b *testing.B) {
	benchmarkSubmitParallel(b, func() Book { return NewLockedBook() })
}

func BenchmarkLockFreeSubmitParallel(b *testing.B) {
	benchmarkSubmitParallel(b, func() Book { return NewLockFreeBook() })
}

func benchmarkMatchCycle(b *testing.B, newBook func() Book) {
	bk := newBook()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bk.Submit(benchOrder(b, "AAPL", Buy, 15000, 10))
		bk.Submit(benchOrder(b, "AAPL", Sell, 15000, 10))
		if _, _, ok := bk.PollBestPair("AAPL"); !ok {
			b.Fatal("expected a crossing pair")
		}
	}
}

func BenchmarkLockedMatchCycle(b *testing.B) {
	benchmarkMatchCycle(b, func() Book { return NewLockedBook() })
}

func BenchmarkLockFreeMatchCycle(b *testing.B) {
	benchmarkMatchCycle(b, func() Book { return NewLockFreeBook() })
}
