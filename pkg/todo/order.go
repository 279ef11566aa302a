package todo

import (
	"math"
	"sync"
	"time"
)

// OrderClock hands out default order values for items created without an explicit position.
// Values follow wall clock seconds but never repeat or go backwards within one process, and
// never fall at or below the floor passed by the caller.
type OrderClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewOrderClock(now func() time.Time) *OrderClock {
	if now == nil {
		now = time.Now
	}
	return &OrderClock{now: now}
}

// Next returns a value strictly greater than floor and every value previously returned. Once the
// int64 range is exhausted it returns math.MaxInt64 and ties fall back to the id order.
func (c *OrderClock) Next(floor int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.now().Unix()
	if next <= c.last {
		next = saturatingInc(c.last)
	}
	if next <= floor {
		next = saturatingInc(floor)
	}
	c.last = next
	return next
}

func saturatingInc(v int64) int64 {
	if v == math.MaxInt64 {
		return v
	}
	return v + 1
}

// MaxOrder returns the largest order among items, and false if there are none.
func MaxOrder(items []Item) (int64, bool) {
	if len(items) == 0 {
		return 0, false
	}
	m := items[0].Order
	for _, it := range items[1:] {
		if it.Order > m {
			m = it.Order
		}
	}
	return m, true
}

// Move returns a copy of items with the element at from relocated to index to. Indices are
// clamped to the slice bounds.
func Move(items []Item, from, to int) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	if len(out) == 0 {
		return out
	}
	from = clamp(from, 0, len(out)-1)
	to = clamp(to, 0, len(out)-1)
	if from == to {
		return out
	}
	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}

// Renumber assigns dense orders 1..N following the slice order and returns the matching batch.
func Renumber(items []Item) []ReorderEntry {
	entries := make([]ReorderEntry, len(items))
	for i := range items {
		items[i].Order = int64(i + 1)
		entries[i] = ReorderEntry{ID: items[i].ID, Order: items[i].Order}
	}
	return entries
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
