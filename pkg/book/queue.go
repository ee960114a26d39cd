package book

import "sync/atomic"

// sealedMark terminates a drained level queue. Sealing CASes the same
// next pointer an enqueue would claim, so "still empty" and "sealed" are
// decided by a single atomic step: exactly one of a racing enqueue and a
// racing seal wins.
var sealedMark = &qnode{}

type qnode struct {
	order *Order
	next  atomic.Pointer[qnode]
}

// levelQueue is a Michael-Scott FIFO of orders resting at one price.
// Enqueue and dequeue are non-blocking; a queue observed empty can be
// sealed, after which enqueues fail permanently and the level is safe to
// unlink from its side's price mapping.
type levelQueue struct {
	price int64
	head  atomic.Pointer[qnode] // dummy node
	tail  atomic.Pointer[qnode]
}

func newLevelQueue(price int64) *levelQueue {
	q := &levelQueue{price: price}
	dummy := &qnode{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// enqueue appends o, or reports false if the queue has been sealed.
func (q *levelQueue) enqueue(o *Order) bool {
	n := &qnode{order: o}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if next == sealedMark {
			return false
		}
		if next != nil {
			// Tail lagging, help advance.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			return true
		}
	}
}

// dequeue removes and returns the earliest order, or nil if the queue is
// empty or sealed.
func (q *levelQueue) dequeue() *Order {
	for {
		head := q.head.Load()
		next := head.next.Load()
		if next == nil || next == sealedMark {
			return nil
		}
		tail := q.tail.Load()
		if head == tail {
			q.tail.CompareAndSwap(tail, next)
		}
		if q.head.CompareAndSwap(head, next) {
			return next.order
		}
	}
}

// closeIfEmpty seals the queue iff it is empty at this instant. A
// concurrent enqueue targets the same next pointer, so a successful seal
// proves no order slipped in.
func (q *levelQueue) closeIfEmpty() bool {
	head := q.head.Load()
	if head != q.tail.Load() {
		return false
	}
	if head.next.Load() != nil {
		return false
	}
	return head.next.CompareAndSwap(nil, sealedMark)
}

// snapshotQty sums remaining quantity over resting orders. Read-only and
// best-effort under concurrent mutation.
func (q *levelQueue) snapshotQty() int64 {
	var total int64
	for n := q.head.Load().next.Load(); n != nil && n != sealedMark; n = n.next.Load() {
		total += n.order.Remaining()
	}
	return total
}
