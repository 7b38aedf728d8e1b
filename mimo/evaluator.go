// Package mimo runs the MIMO phase of SU-MIMO beamforming training: it turns
// the selected candidates into joint sounding requests and ranks the measured
// configurations by their weakest spatial stream.
package mimo

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/selection"
)

// ErrMissingFeedback is returned when a requested joint configuration was not
// measured.
var ErrMissingFeedback = errors.New("missing MIMO feedback")

// ConfigID identifies a transmit or a receive combination of one attempt.
type ConfigID uint32

// MeasurementKey identifies one joint configuration.
type MeasurementKey struct {
	TxAwv ConfigID
	RxAwv ConfigID
}

// An AwvEntry is the steering of one antenna.
type AwvEntry struct {
	Antenna codebook.AntennaID
	Sector  codebook.SectorID
	Awv     codebook.AwvID
}

// A Combination steers every antenna of one side of the link.
type Combination struct {
	ID      ConfigID
	Entries []AwvEntry
}

// SoundingRequest lists the combinations of both sides. Every transmit
// combination is measured against every receive combination.
type SoundingRequest struct {
	Tx []Combination
	Rx []Combination
}

// Keys returns the joint configurations in transmit-major order.
func (r SoundingRequest) Keys() []MeasurementKey {
	keys := make([]MeasurementKey, 0, len(r.Tx)*len(r.Rx))
	for _, tx := range r.Tx {
		for _, rx := range r.Rx {
			keys = append(keys, MeasurementKey{TxAwv: tx.ID, RxAwv: rx.ID})
		}
	}

	return keys
}

// NumStreams returns the length of the SNR vector of one measurement, one
// entry per transmit antenna and receive antenna pairing.
func (r SoundingRequest) NumStreams() int {
	if len(r.Tx) == 0 || len(r.Rx) == 0 {
		return 0
	}

	return len(r.Tx[0].Entries) * len(r.Rx[0].Entries)
}

// A Measurement is the channel snapshot of one joint configuration.
type Measurement struct {
	Tx           Combination
	Rx           Combination
	StreamSNR    []float64
	MinStreamSNR float64
}

// Key returns the joint configuration that was measured.
func (m Measurement) Key() MeasurementKey {
	return MeasurementKey{TxAwv: m.Tx.ID, RxAwv: m.Rx.ID}
}

// Codebook is the part of a station codebook the evaluator needs.
type Codebook interface {
	AwvsPerSector() int
	Awv(antenna codebook.AntennaID, sector codebook.SectorID, subBeam int) (codebook.AwvID, error)
	Resolve(awv codebook.AwvID) (codebook.Location, error)
}

// Options configures the MIMO phase.
type Options struct {
	// ExpandAwvs sounds AwvsPerSector sub-beams of every candidate sector
	// instead of the sector beam only.
	ExpandAwvs bool

	// AwvsPerSector bounds the expansion. Zero uses every AWV of the sector.
	AwvsPerSector int

	// TxCombinationCap is the maximum number of transmit combinations to
	// request feedback for. Zero means no cap.
	TxCombinationCap int
}

// An Evaluator is owned by a single training attempt.
type Evaluator struct {
	candidates selection.Candidates
	opts       Options
	txBook     Codebook
	rxBook     Codebook

	request      *SoundingRequest
	measurements []Measurement
	byKey        map[MeasurementKey]int
	ranked       *RankedSet
}

// NewEvaluator creates an evaluator for the candidates of one attempt.
func NewEvaluator(
	candidates selection.Candidates,
	opts Options,
	txBook, rxBook Codebook,
) *Evaluator {
	return &Evaluator{
		candidates: candidates,
		opts:       opts,
		txBook:     txBook,
		rxBook:     rxBook,
		ranked:     NewRankedSet(),
	}
}

func (e *Evaluator) variants(book Codebook) int {
	if !e.opts.ExpandAwvs {
		return 1
	}

	if e.opts.AwvsPerSector > 0 {
		return e.opts.AwvsPerSector
	}

	return book.AwvsPerSector()
}

func buildCombinations(
	book Codebook,
	sectorLists [][]codebook.SectorID,
	variants int,
	limit int,
) ([]Combination, error) {
	combinations := make([]Combination, 0, len(sectorLists)*variants)

	for _, sectors := range sectorLists {
		for v := 0; v < variants; v++ {
			if limit > 0 && len(combinations) == limit {
				return combinations, nil
			}

			c := Combination{ID: ConfigID(len(combinations))}

			for i, sector := range sectors {
				antenna := codebook.AntennaID(i + 1)

				awv, err := book.Awv(antenna, sector, v)
				if err != nil {
					return nil, err
				}

				loc, err := book.Resolve(awv)
				if err != nil {
					return nil, err
				}

				c.Entries = append(c.Entries, AwvEntry{
					Antenna: loc.Antenna,
					Sector:  loc.Sector,
					Awv:     awv,
				})
			}

			combinations = append(combinations, c)
		}
	}

	return combinations, nil
}

// Request builds the joint sounding request. Candidate sectors are widened
// into sub-beams before sounding when expansion is enabled.
func (e *Evaluator) Request() (SoundingRequest, error) {
	if e.request != nil {
		return *e.request, nil
	}

	if e.candidates.Len() == 0 {
		return SoundingRequest{}, errors.New("no candidate to sound")
	}

	tx, err := buildCombinations(e.txBook, e.candidates.Tx,
		e.variants(e.txBook), e.opts.TxCombinationCap)
	if err != nil {
		return SoundingRequest{}, fmt.Errorf("transmit combinations: %w", err)
	}

	rx, err := buildCombinations(e.rxBook, e.candidates.Rx,
		e.variants(e.rxBook), 0)
	if err != nil {
		return SoundingRequest{}, fmt.Errorf("receive combinations: %w", err)
	}

	e.request = &SoundingRequest{Tx: tx, Rx: rx}

	return *e.request, nil
}

// Evaluate ranks every requested joint configuration by its minimum stream
// SNR and returns the best one. Every configuration of the request must have
// been measured.
func (e *Evaluator) Evaluate(
	feedback map[MeasurementKey][]float64,
) (RankedConfiguration, error) {
	if e.request == nil {
		return RankedConfiguration{}, errors.New("evaluate before request")
	}

	if e.measurements != nil {
		return RankedConfiguration{}, errors.New("feedback already evaluated")
	}

	numStreams := e.request.NumStreams()
	measurements := make([]Measurement, 0, len(e.request.Tx)*len(e.request.Rx))

	for _, tx := range e.request.Tx {
		for _, rx := range e.request.Rx {
			key := MeasurementKey{TxAwv: tx.ID, RxAwv: rx.ID}

			snr, ok := feedback[key]
			if !ok || len(snr) == 0 {
				return RankedConfiguration{}, fmt.Errorf(
					"%w: tx %d rx %d", ErrMissingFeedback, tx.ID, rx.ID)
			}

			if len(snr) != numStreams {
				return RankedConfiguration{}, fmt.Errorf(
					"%w: tx %d rx %d has %d streams, expected %d",
					ErrMissingFeedback, tx.ID, rx.ID, len(snr), numStreams)
			}

			measurements = append(measurements, Measurement{
				Tx:           tx,
				Rx:           rx,
				StreamSNR:    append([]float64(nil), snr...),
				MinStreamSNR: minOf(snr),
			})
		}
	}

	e.measurements = measurements
	e.byKey = make(map[MeasurementKey]int, len(measurements))

	for i, m := range measurements {
		e.byKey[m.Key()] = i
		e.ranked.Push(RankedConfiguration{
			MinStreamSNR: m.MinStreamSNR,
			TxAwv:        m.Tx.ID,
			RxAwv:        m.Rx.ID,
		})
	}

	best, _ := e.ranked.Peek()

	return best, nil
}

// Measurements returns the evaluated measurements in request order.
func (e *Evaluator) Measurements() []Measurement {
	return e.measurements
}

// Measurement looks up the measurement of a joint configuration.
func (e *Evaluator) Measurement(key MeasurementKey) (Measurement, bool) {
	i, ok := e.byKey[key]
	if !ok {
		return Measurement{}, false
	}

	return e.measurements[i], true
}

// Ranked returns the ranked set. Draining it consumes the ranking.
func (e *Evaluator) Ranked() *RankedSet {
	return e.ranked
}

// Combination looks up a combination of the request by side and ID.
func (e *Evaluator) Combination(
	dir codebook.Direction,
	id ConfigID,
) (Combination, bool) {
	if e.request == nil {
		return Combination{}, false
	}

	list := e.request.Tx
	if dir == codebook.Rx {
		list = e.request.Rx
	}

	if int(id) >= len(list) {
		return Combination{}, false
	}

	return list[id], true
}

func minOf(values []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		if v < m {
			m = v
		}
	}

	return m
}
