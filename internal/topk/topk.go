// Package topk keeps the K highest-ranked rows of an unbounded stream.
package topk

import (
	"container/heap"
	"fmt"
	"strings"

	"csvreduce/internal/parser/csv"
)

// TiePolicy decides which row survives when an incoming row ranks exactly
// equal to the current minimum of a full selector.
type TiePolicy int

const (
	// KeepFirst discards the incoming row; earlier arrivals win ties.
	KeepFirst TiePolicy = iota
	// KeepLast evicts the minimum; later arrivals win ties.
	KeepLast
)

func (p TiePolicy) String() string {
	switch p {
	case KeepFirst:
		return "keep-first"
	case KeepLast:
		return "keep-last"
	default:
		return fmt.Sprintf("TiePolicy(%d)", int(p))
	}
}

// ParseTiePolicy accepts "keep-first" and "keep-last" (case-insensitive);
// empty means KeepFirst.
func ParseTiePolicy(s string) (TiePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep-first":
		return KeepFirst, nil
	case "keep-last":
		return KeepLast, nil
	default:
		return KeepFirst, fmt.Errorf("unknown tie policy %q (use keep-first or keep-last)", s)
	}
}

// Outcome reports what Offer did with a row.
type Outcome int

const (
	Discarded Outcome = iota
	Inserted
	Replaced
)

type item struct {
	row csv.Row
	seq uint64
}

// minHeap orders by rank, then by arrival so the row the policy would give
// up first sits at the root.
type minHeap struct {
	items  []item
	policy TiePolicy
}

func (h minHeap) Len() int { return len(h.items) }
func (h minHeap) Less(i, j int) bool {
	c := h.items[i].row.Rank().Cmp(h.items[j].row.Rank())
	if c != 0 {
		return c < 0
	}
	if h.policy == KeepLast {
		return h.items[i].seq < h.items[j].seq
	}
	return h.items[i].seq > h.items[j].seq
}
func (h minHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *minHeap) Push(x any)   { h.items = append(h.items, x.(item)) }
func (h *minHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	old[n-1] = item{}
	h.items = old[:n-1]
	return x
}

// Selector is a bounded min-heap keyed on Row.Rank. It holds at most K rows
// and decides each offer in O(log K).
type Selector struct {
	k   int
	h   *minHeap
	seq uint64
}

// New returns a selector for the top k rows. k ≤ 0 yields a selector that
// discards everything.
func New(k int, policy TiePolicy) *Selector {
	if k < 0 {
		k = 0
	}
	h := &minHeap{items: make([]item, 0, k), policy: policy}
	heap.Init(h)
	return &Selector{k: k, h: h}
}

// Cap is K.
func (s *Selector) Cap() int { return s.k }

// Len is the number of rows currently held.
func (s *Selector) Len() int { return s.h.Len() }

// Offer inserts row while there is room; once full, row replaces the
// current minimum only if it ranks strictly higher (or equal under KeepLast).
func (s *Selector) Offer(row csv.Row) Outcome {
	if s.k == 0 {
		return Discarded
	}
	s.seq++
	it := item{row: row, seq: s.seq}

	if s.h.Len() < s.k {
		heap.Push(s.h, it)
		return Inserted
	}

	c := row.Rank().Cmp(s.h.items[0].row.Rank())
	if c > 0 || (c == 0 && s.h.policy == KeepLast) {
		s.h.items[0] = it
		heap.Fix(s.h, 0)
		return Replaced
	}
	return Discarded
}

// Drain removes every row and returns them by descending rank. Equal ranks
// are listed winner first: earliest arrival under KeepFirst, latest under
// KeepLast. The selector is empty afterwards.
func (s *Selector) Drain() []csv.Row {
	out := make([]csv.Row, s.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(s.h).(item).row
	}
	return out
}
