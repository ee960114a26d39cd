// Package journal persists executed trades to a pebble store. It records
// engine output only: the order book itself is never persisted and the
// engine starts from an empty book regardless of journal contents.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/yhhsieh82/stock-trade/pkg/book"
)

// keys: t:<8-byte-big-endian-seq>, m:seq
func kTrade(seq uint64) []byte {
	key := make([]byte, 2+8)
	copy(key, "t:")
	binary.BigEndian.PutUint64(key[2:], seq)
	return key
}

func kLastSeq() []byte { return []byte("m:seq") }

type Journal struct {
	db      *pebble.DB
	lastSeq atomic.Uint64
}

func Open(path string) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	j := &Journal{db: db}

	val, closer, err := db.Get(kLastSeq())
	switch err {
	case nil:
		j.lastSeq.Store(binary.BigEndian.Uint64(val))
		closer.Close()
	case pebble.ErrNotFound:
	default:
		db.Close()
		return nil, fmt.Errorf("journal: read last seq: %w", err)
	}
	return j, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Append writes one trade under the next sequence number. Big-endian seq
// keys keep pebble's iteration order equal to execution order.
func (j *Journal) Append(t book.Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("journal: marshal trade %s: %w", t.ID, err)
	}

	seq := j.lastSeq.Add(1)
	batch := j.db.NewBatch()
	defer batch.Close()

	var seqVal [8]byte
	binary.BigEndian.PutUint64(seqVal[:], seq)
	if err := batch.Set(kTrade(seq), data, nil); err != nil {
		return err
	}
	if err := batch.Set(kLastSeq(), seqVal[:], nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("journal: commit trade %s: %w", t.ID, err)
	}
	return nil
}

// Len returns the number of journaled trades.
func (j *Journal) Len() uint64 { return j.lastSeq.Load() }

// Recent returns up to n trades, most recent first.
func (j *Journal) Recent(n int) ([]book.Trade, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: kTrade(0),
		UpperBound: kTrade(^uint64(0)),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	trades := make([]book.Trade, 0, n)
	for ok := iter.Last(); ok && len(trades) < n; ok = iter.Prev() {
		var t book.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("journal: decode trade at %x: %w", iter.Key(), err)
		}
		trades = append(trades, t)
	}
	return trades, iter.Error()
}
