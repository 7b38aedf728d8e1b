package feedback

import (
	"errors"
	"fmt"

	"github.com/sarchlab/mimobft/sim"
)

var (
	// ErrEmptyMatrix is returned when a key that had to be measured has no
	// sample.
	ErrEmptyMatrix = errors.New("empty feedback matrix")

	// ErrWindowClosed is returned when a sample arrives after the window was
	// closed.
	ErrWindowClosed = errors.New("sounding window already closed")
)

// A Sample is one SNR measurement, as a linear power ratio.
type Sample struct {
	Key  Key
	SNR  float64
	Time sim.VTimeInSec
}

// A Reducer turns the samples of one key into the value kept in the matrix.
type Reducer func(samples []float64) float64

// ReduceMax keeps the best sample, which is what the peer reports back.
func ReduceMax(samples []float64) float64 {
	best := samples[0]
	for _, s := range samples[1:] {
		if s > best {
			best = s
		}
	}

	return best
}

// ReduceMean keeps the average of the samples.
func ReduceMean(samples []float64) float64 {
	sum := 0.0
	for _, s := range samples {
		sum += s
	}

	return sum / float64(len(samples))
}

// ReduceLast keeps the latest sample.
func ReduceLast(samples []float64) float64 {
	return samples[len(samples)-1]
}

// An Aggregator accumulates the samples of one sounding window. It is owned
// by a single training attempt and is closed exactly once.
type Aggregator struct {
	subBeamCount int
	reduce       Reducer

	requested    []Key
	requestedSet map[Key]bool
	samples      map[Key][]float64
	numSamples   int
	closed       bool
}

// NewAggregator creates an aggregator. subBeamCount is the number of
// sub-beams each key is sounded with.
func NewAggregator(subBeamCount int) *Aggregator {
	if subBeamCount < 1 {
		panic(fmt.Sprintf("invalid sub-beam count %d", subBeamCount))
	}

	return &Aggregator{
		subBeamCount: subBeamCount,
		reduce:       ReduceMax,
		requestedSet: make(map[Key]bool),
		samples:      make(map[Key][]float64),
	}
}

// WithReducer replaces the default ReduceMax.
func (a *Aggregator) WithReducer(r Reducer) *Aggregator {
	a.reduce = r
	return a
}

// Request records keys that the sounding is going to measure. Closing the
// window fails unless every requested key has at least one sample.
func (a *Aggregator) Request(keys ...Key) {
	for _, k := range keys {
		if a.requestedSet[k] {
			continue
		}

		a.requestedSet[k] = true
		a.requested = append(a.requested, k)
	}
}

// Requested returns the keys in the order they were requested.
func (a *Aggregator) Requested() []Key {
	keys := make([]Key, len(a.requested))
	copy(keys, a.requested)

	return keys
}

// Add appends a sample to its key and returns the sub-beam index of the
// sample: its 1-based position among the samples of the key divided by the
// sub-beam count.
func (a *Aggregator) Add(s Sample) (int, error) {
	if a.closed {
		return 0, ErrWindowClosed
	}

	if s.SNR < 0 {
		return 0, fmt.Errorf("negative linear SNR %g for %s", s.SNR, s.Key)
	}

	a.samples[s.Key] = append(a.samples[s.Key], s.SNR)
	a.numSamples++

	position := len(a.samples[s.Key])

	return position / a.subBeamCount, nil
}

// NumSamples returns the number of samples received so far.
func (a *Aggregator) NumSamples() int {
	return a.numSamples
}

// Closed tells whether the window has been closed.
func (a *Aggregator) Closed() bool {
	return a.closed
}

// Close ends the window and returns the matrix. The window is closed even if
// the matrix is incomplete, as a failed window is not reopened.
func (a *Aggregator) Close() (*Matrix, error) {
	if a.closed {
		return nil, ErrWindowClosed
	}

	a.closed = true

	for _, k := range a.requested {
		if len(a.samples[k]) == 0 {
			return nil, fmt.Errorf("%w: no sample for %s", ErrEmptyMatrix, k)
		}
	}

	if len(a.samples) == 0 {
		return nil, fmt.Errorf("%w: no sample received", ErrEmptyMatrix)
	}

	values := make(map[Key]float64, len(a.samples))
	for k, samples := range a.samples {
		values[k] = a.reduce(samples)
	}

	return NewMatrix(values), nil
}
