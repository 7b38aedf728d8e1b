package coordinator

import (
	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/mimo"
	"github.com/sarchlab/mimobft/sim"
)

// BestSector is the transmit antenna and sector a sector sweep found.
type BestSector struct {
	Antenna codebook.AntennaID
	Sector  codebook.SectorID
}

// SectorSweepCompletedEvent reports the outcome of a single-antenna sector
// sweep on a directed link.
type SectorSweepCompletedEvent struct {
	*sim.EventBase

	Link  link.Link
	BssID uint32
	Best  BestSector
	SNR   float64

	// Beamformed is set when the sweep happened in an access period that
	// makes the link a durable beamformed link.
	Beamformed bool
}

// NewSectorSweepCompletedEvent creates a SectorSweepCompletedEvent.
func NewSectorSweepCompletedEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	l link.Link,
) *SectorSweepCompletedEvent {
	return &SectorSweepCompletedEvent{
		EventBase: sim.NewEventBase(t, handler),
		Link:      l,
	}
}

// SisoSampleEvent delivers one SNR sample of a SISO sounding window.
type SisoSampleEvent struct {
	*sim.EventBase

	Link   link.Link
	Sample feedback.Sample
}

// NewSisoSampleEvent creates a SisoSampleEvent.
func NewSisoSampleEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	l link.Link,
	sample feedback.Sample,
) *SisoSampleEvent {
	return &SisoSampleEvent{
		EventBase: sim.NewEventBase(t, handler),
		Link:      l,
		Sample:    sample,
	}
}

// SisoSoundingCompletedEvent closes a SISO sounding window.
type SisoSoundingCompletedEvent struct {
	*sim.EventBase

	Link link.Link
}

// NewSisoSoundingCompletedEvent creates a SisoSoundingCompletedEvent. It is
// a secondary event so that it is handled after the samples of the same
// time.
func NewSisoSoundingCompletedEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	l link.Link,
) *SisoSoundingCompletedEvent {
	return &SisoSoundingCompletedEvent{
		EventBase: sim.NewSecondaryEventBase(t, handler),
		Link:      l,
	}
}

// MimoSoundingCompletedEvent delivers the feedback of a MIMO sounding. A
// configuration the peer did not answer for is absent from Feedback.
type MimoSoundingCompletedEvent struct {
	*sim.EventBase

	Link     link.Link
	Feedback map[mimo.MeasurementKey][]float64
}

// NewMimoSoundingCompletedEvent creates a MimoSoundingCompletedEvent.
func NewMimoSoundingCompletedEvent(
	t sim.VTimeInSec,
	handler sim.Handler,
	l link.Link,
	fb map[mimo.MeasurementKey][]float64,
) *MimoSoundingCompletedEvent {
	return &MimoSoundingCompletedEvent{
		EventBase: sim.NewEventBase(t, handler),
		Link:      l,
		Feedback:  fb,
	}
}

// armEvent fires when the safety margin after the second beamformed link has
// elapsed.
type armEvent struct {
	*sim.EventBase

	pair link.Pair
}

// candidatesSelectedEvent starts the MIMO phase after candidate selection.
type candidatesSelectedEvent struct {
	*sim.EventBase

	pair link.Pair
}
