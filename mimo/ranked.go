package mimo

import "container/heap"

// A RankedConfiguration is one tested joint configuration, keyed by its
// weakest stream.
type RankedConfiguration struct {
	MinStreamSNR float64
	TxAwv        ConfigID
	RxAwv        ConfigID
}

// Key returns the joint configuration.
func (c RankedConfiguration) Key() MeasurementKey {
	return MeasurementKey{TxAwv: c.TxAwv, RxAwv: c.RxAwv}
}

// rankedBefore orders by descending minimum stream SNR, then by ascending
// transmit and receive configuration.
func rankedBefore(a, b RankedConfiguration) bool {
	if a.MinStreamSNR != b.MinStreamSNR {
		return a.MinStreamSNR > b.MinStreamSNR
	}

	if a.TxAwv != b.TxAwv {
		return a.TxAwv < b.TxAwv
	}

	return a.RxAwv < b.RxAwv
}

type rankedHeap []RankedConfiguration

func (h rankedHeap) Len() int           { return len(h) }
func (h rankedHeap) Less(i, j int) bool { return rankedBefore(h[i], h[j]) }
func (h rankedHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *rankedHeap) Push(x interface{}) {
	*h = append(*h, x.(RankedConfiguration))
}

func (h *rankedHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]

	return c
}

// A RankedSet is a max-priority ordering of configurations. Draining it
// consumes the entries.
type RankedSet struct {
	h rankedHeap
}

// NewRankedSet creates an empty set.
func NewRankedSet() *RankedSet {
	s := &RankedSet{}
	heap.Init(&s.h)

	return s
}

// Push inserts a configuration.
func (s *RankedSet) Push(c RankedConfiguration) {
	heap.Push(&s.h, c)
}

// Len returns the number of entries not yet drained.
func (s *RankedSet) Len() int {
	return s.h.Len()
}

// Peek returns the best configuration without removing it.
func (s *RankedSet) Peek() (RankedConfiguration, bool) {
	if s.h.Len() == 0 {
		return RankedConfiguration{}, false
	}

	return s.h[0], true
}

// Snapshot returns the entries in descending order without consuming them.
func (s *RankedSet) Snapshot() []RankedConfiguration {
	clone := &RankedSet{h: append(rankedHeap(nil), s.h...)}

	return clone.Drain()
}

// Drain removes and returns every entry in descending order. The set is
// empty afterwards.
func (s *RankedSet) Drain() []RankedConfiguration {
	out := make([]RankedConfiguration, 0, s.h.Len())
	for s.h.Len() > 0 {
		out = append(out, heap.Pop(&s.h).(RankedConfiguration))
	}

	return out
}
