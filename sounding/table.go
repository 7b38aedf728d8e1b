// Package sounding replays sounding exchanges for the coordinator. The SNR of
// every measurement is read from a Table, so a scenario either replays
// recorded values or derives reproducible ones from a seed.
package sounding

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/mimo"
)

// A Table tells the linear SNR a peer measures. A false return means the peer
// does not answer for that measurement.
type Table interface {
	SisoSNR(l link.Link, key feedback.Key, subBeam int) (float64, bool)
	MimoSNR(l link.Link, tx, rx mimo.Combination, stream int) (float64, bool)
}

// SeededTable derives SNR values from a seed and the identity of the
// measurement. The same seed always yields the same values.
type SeededTable struct {
	Seed uint64

	// MinDB and MaxDB bound the generated SNR.
	MinDB float64
	MaxDB float64
}

// NewSeededTable creates a SeededTable that generates SNRs between 0 and
// 30 dB.
func NewSeededTable(seed uint64) *SeededTable {
	return &SeededTable{Seed: seed, MinDB: 0, MaxDB: 30}
}

func (t *SeededTable) draw(parts ...uint64) float64 {
	h := fnv.New64a()
	buf := make([]byte, 8)

	binary.LittleEndian.PutUint64(buf, t.Seed)
	h.Write(buf)

	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf, p)
		h.Write(buf)
	}

	u := float64(h.Sum64()>>11) / float64(1<<53)
	db := t.MinDB + u*(t.MaxDB-t.MinDB)

	return feedback.DBToLinear(db)
}

// SisoSNR returns the SNR of a SISO sample.
func (t *SeededTable) SisoSNR(
	l link.Link,
	key feedback.Key,
	subBeam int,
) (float64, bool) {
	return t.draw(1,
		uint64(l.Initiator), uint64(l.Responder),
		uint64(key.TxAntenna), uint64(key.RxAntenna), uint64(key.TxSector),
		uint64(subBeam)), true
}

// MimoSNR returns the SNR of one stream of a joint configuration. The value
// only depends on the AWVs used, so the same beams measure the same SNR in
// every attempt.
func (t *SeededTable) MimoSNR(
	l link.Link,
	tx, rx mimo.Combination,
	stream int,
) (float64, bool) {
	parts := []uint64{2, uint64(l.Initiator), uint64(l.Responder)}

	for _, e := range tx.Entries {
		parts = append(parts, uint64(e.Awv))
	}

	parts = append(parts, 0)
	for _, e := range rx.Entries {
		parts = append(parts, uint64(e.Awv))
	}

	parts = append(parts, uint64(stream))

	return t.draw(parts...), true
}

type sisoEntry struct {
	link link.Link
	key  feedback.Key
}

type mimoEntry struct {
	link link.Link
	tx   mimo.ConfigID
	rx   mimo.ConfigID
}

// StaticTable replays explicit values. Measurements without a value are not
// answered.
type StaticTable struct {
	siso map[sisoEntry]float64
	mimo map[mimoEntry][]float64
}

// NewStaticTable creates an empty StaticTable.
func NewStaticTable() *StaticTable {
	return &StaticTable{
		siso: make(map[sisoEntry]float64),
		mimo: make(map[mimoEntry][]float64),
	}
}

// SetSiso sets the SNR of every sample of a key.
func (t *StaticTable) SetSiso(l link.Link, key feedback.Key, snr float64) {
	t.siso[sisoEntry{link: l, key: key}] = snr
}

// SetMimo sets the per-stream SNR of a joint configuration.
func (t *StaticTable) SetMimo(
	l link.Link,
	tx, rx mimo.ConfigID,
	streams ...float64,
) {
	t.mimo[mimoEntry{link: l, tx: tx, rx: rx}] = streams
}

// SisoSNR returns the stored SNR of a key.
func (t *StaticTable) SisoSNR(
	l link.Link,
	key feedback.Key,
	_ int,
) (float64, bool) {
	snr, ok := t.siso[sisoEntry{link: l, key: key}]
	return snr, ok
}

// MimoSNR returns the stored SNR of a stream.
func (t *StaticTable) MimoSNR(
	l link.Link,
	tx, rx mimo.Combination,
	stream int,
) (float64, bool) {
	streams, ok := t.mimo[mimoEntry{link: l, tx: tx.ID, rx: rx.ID}]
	if !ok || stream >= len(streams) {
		return 0, false
	}

	return streams[stream], true
}
