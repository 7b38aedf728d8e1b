// Package selection searches a SISO feedback matrix for the K best joint
// transmit configurations of a multi-antenna link.
//
// A joint configuration assigns one sector to every transmit antenna
// 1..numTx. The candidate sectors of an antenna are the sectors that the
// matrix holds for it toward at least one receive antenna 1..numRx. The
// metric of a configuration is the sum, over transmit antennas t and receive
// antennas r, of the linear SNR of (t, r, sector of t); keys missing from the
// matrix add nothing.
//
// Configurations are enumerated as an odometer over the antennas in ascending
// order, antenna 1 being the most significant digit and sectors ascending.
// The result is ordered by descending metric. Ties keep enumeration order,
// which is ascending antenna then ascending sector.
package selection

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/feedback"
)

// ErrInsufficientCombinations is returned when more configurations are
// requested than the matrix can form. The request is never clamped.
var ErrInsufficientCombinations = errors.New("insufficient combinations")

// Candidates are positionally joint lists: Tx[i] and Rx[i] together form the
// i-th configuration to test.
type Candidates struct {
	// Tx[i][t-1] is the sector of transmit antenna t.
	Tx [][]codebook.SectorID

	// Rx[i][r-1] is the transmit sector of configuration i that reaches
	// receive antenna r the strongest. The receiver trains toward it with the
	// same sector number in its own codebook.
	Rx [][]codebook.SectorID

	// Metrics[i] is the aggregate linear SNR of configuration i.
	Metrics []float64
}

// Len returns the number of configurations.
func (c Candidates) Len() int {
	return len(c.Tx)
}

type space struct {
	m       *feedback.Matrix
	numTx   int
	numRx   int
	sectors [][]codebook.SectorID
	columns [][]float64
}

func newSpace(m *feedback.Matrix, numTx, numRx int) (*space, error) {
	if numTx < 1 || numRx < 1 {
		return nil, fmt.Errorf(
			"invalid antenna counts: %d tx, %d rx", numTx, numRx)
	}

	if m == nil || m.Len() == 0 {
		return nil, fmt.Errorf("%w: no measurement", feedback.ErrEmptyMatrix)
	}

	for r := 1; r <= numRx; r++ {
		if !m.HasRxAntenna(codebook.AntennaID(r)) {
			return nil, fmt.Errorf(
				"%w: no measurement for rx antenna %d",
				feedback.ErrEmptyMatrix, r)
		}
	}

	s := &space{m: m, numTx: numTx, numRx: numRx}

	for t := 1; t <= numTx; t++ {
		tx := codebook.AntennaID(t)
		sectors := make([]codebook.SectorID, 0)
		column := make([]float64, 0)

		for _, sector := range m.SectorsOf(tx) {
			sum, found := 0.0, false

			for r := 1; r <= numRx; r++ {
				v, ok := m.Value(feedback.Key{
					TxAntenna: tx,
					RxAntenna: codebook.AntennaID(r),
					TxSector:  sector,
				})
				if ok {
					sum += v
					found = true
				}
			}

			if found {
				sectors = append(sectors, sector)
				column = append(column, sum)
			}
		}

		if len(sectors) == 0 {
			return nil, fmt.Errorf(
				"%w: no measurement for tx antenna %d",
				feedback.ErrEmptyMatrix, t)
		}

		s.sectors = append(s.sectors, sectors)
		s.columns = append(s.columns, column)
	}

	return s, nil
}

// size returns the number of configurations, saturating at math.MaxInt.
func (s *space) size() int {
	n := 1
	for _, sectors := range s.sectors {
		if n > math.MaxInt/len(sectors) {
			return math.MaxInt
		}

		n *= len(sectors)
	}

	return n
}

func (s *space) metric(idx []int) float64 {
	sum := 0.0
	for t, i := range idx {
		sum += s.columns[t][i]
	}

	return sum
}

func (s *space) txVector(idx []int) []codebook.SectorID {
	v := make([]codebook.SectorID, len(idx))
	for t, i := range idx {
		v[t] = s.sectors[t][i]
	}

	return v
}

func (s *space) rxVector(tx []codebook.SectorID) []codebook.SectorID {
	v := make([]codebook.SectorID, s.numRx)

	for r := 1; r <= s.numRx; r++ {
		best := math.Inf(-1)
		v[r-1] = tx[0]

		for t := 1; t <= s.numTx; t++ {
			snr, ok := s.m.Value(feedback.Key{
				TxAntenna: codebook.AntennaID(t),
				RxAntenna: codebook.AntennaID(r),
				TxSector:  tx[t-1],
			})
			if ok && snr > best {
				best = snr
				v[r-1] = tx[t-1]
			}
		}
	}

	return v
}

// Count returns how many joint configurations the matrix can form.
func Count(m *feedback.Matrix, numTx, numRx int) (int, error) {
	s, err := newSpace(m, numTx, numRx)
	if err != nil {
		return 0, err
	}

	return s.size(), nil
}

// Select returns the k best joint configurations. It does not modify the
// matrix and returns identical results for identical inputs.
func Select(m *feedback.Matrix, k, numTx, numRx int) (Candidates, error) {
	s, err := newSpace(m, numTx, numRx)
	if err != nil {
		return Candidates{}, err
	}

	total := s.size()
	if k < 1 || k > total {
		return Candidates{}, fmt.Errorf(
			"%w: requested %d, available %d",
			ErrInsufficientCombinations, k, total)
	}

	best := s.search(k)

	c := Candidates{
		Tx:      make([][]codebook.SectorID, 0, k),
		Rx:      make([][]codebook.SectorID, 0, k),
		Metrics: make([]float64, 0, k),
	}

	for _, e := range best {
		tx := s.txVector(e.idx)
		c.Tx = append(c.Tx, tx)
		c.Rx = append(c.Rx, s.rxVector(tx))
		c.Metrics = append(c.Metrics, e.metric)
	}

	return c, nil
}

func (s *space) search(k int) []entry {
	h := &worstFirst{}
	idx := make([]int, s.numTx)

	for {
		e := entry{metric: s.metric(idx), idx: idx}

		if h.Len() < k {
			e.idx = append([]int(nil), idx...)
			heap.Push(h, e)
		} else if better(e, (*h)[0]) {
			e.idx = append([]int(nil), idx...)
			(*h)[0] = e
			heap.Fix(h, 0)
		}

		if !s.advance(idx) {
			break
		}
	}

	result := []entry(*h)
	sort.Slice(result, func(i, j int) bool {
		return better(result[i], result[j])
	})

	return result
}

// advance moves idx to the next configuration, the last antenna being the
// fastest digit. It returns false after the last configuration.
func (s *space) advance(idx []int) bool {
	for t := len(idx) - 1; t >= 0; t-- {
		idx[t]++
		if idx[t] < len(s.sectors[t]) {
			return true
		}

		idx[t] = 0
	}

	return false
}

type entry struct {
	metric float64
	idx    []int
}

// better orders by descending metric, then by ascending sector indices in
// antenna order.
func better(a, b entry) bool {
	if a.metric != b.metric {
		return a.metric > b.metric
	}

	for t := range a.idx {
		if a.idx[t] != b.idx[t] {
			return a.idx[t] < b.idx[t]
		}
	}

	return false
}

// worstFirst is a heap that keeps the worst of the kept entries on top.
type worstFirst []entry

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return better(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst) Push(x interface{}) {
	*h = append(*h, x.(entry))
}

func (h *worstFirst) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]

	return e
}
