// Package feedback collects the SNR samples of a SISO sounding window and
// turns them into the feedback matrix that candidate selection works on.
package feedback

import (
	"fmt"
	"sort"

	"github.com/sarchlab/mimobft/codebook"
)

// Key is the unit of SISO feedback: which transmit antenna, in which sector,
// was heard by which receive antenna.
type Key struct {
	TxAntenna codebook.AntennaID
	RxAntenna codebook.AntennaID
	TxSector  codebook.SectorID
}

func (k Key) String() string {
	return fmt.Sprintf("tx%d/rx%d/sec%d", k.TxAntenna, k.RxAntenna, k.TxSector)
}

func (k Key) less(o Key) bool {
	if k.TxAntenna != o.TxAntenna {
		return k.TxAntenna < o.TxAntenna
	}

	if k.RxAntenna != o.RxAntenna {
		return k.RxAntenna < o.RxAntenna
	}

	return k.TxSector < o.TxSector
}

// A Matrix maps every measured key to one SNR value, as a linear power ratio.
// A Matrix is never modified after it is created.
type Matrix struct {
	values map[Key]float64
	keys   []Key
}

// NewMatrix creates a matrix holding a copy of values.
func NewMatrix(values map[Key]float64) *Matrix {
	m := &Matrix{
		values: make(map[Key]float64, len(values)),
		keys:   make([]Key, 0, len(values)),
	}

	for k, v := range values {
		m.values[k] = v
		m.keys = append(m.keys, k)
	}

	sort.Slice(m.keys, func(i, j int) bool {
		return m.keys[i].less(m.keys[j])
	})

	return m
}

// Len returns the number of keys in the matrix.
func (m *Matrix) Len() int {
	return len(m.keys)
}

// Value returns the SNR of a key.
func (m *Matrix) Value(k Key) (float64, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Keys returns all the keys, ordered by transmit antenna, receive antenna and
// sector.
func (m *Matrix) Keys() []Key {
	keys := make([]Key, len(m.keys))
	copy(keys, m.keys)

	return keys
}

// SectorsOf returns, in ascending order, the sectors measured for a transmit
// antenna.
func (m *Matrix) SectorsOf(tx codebook.AntennaID) []codebook.SectorID {
	seen := make(map[codebook.SectorID]bool)
	sectors := make([]codebook.SectorID, 0)

	for _, k := range m.keys {
		if k.TxAntenna != tx || seen[k.TxSector] {
			continue
		}

		seen[k.TxSector] = true
		sectors = append(sectors, k.TxSector)
	}

	sort.Slice(sectors, func(i, j int) bool { return sectors[i] < sectors[j] })

	return sectors
}

// HasRxAntenna tells whether any entry was received by rx.
func (m *Matrix) HasRxAntenna(rx codebook.AntennaID) bool {
	for _, k := range m.keys {
		if k.RxAntenna == rx {
			return true
		}
	}

	return false
}
