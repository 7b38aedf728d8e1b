// Package coordinator drives SU-MIMO beamforming training for every link
// pair of a network. Training of a pair is armed when both directions have
// completed a beamformed sector sweep and a safety margin has elapsed. It
// then runs a SISO sounding, selects the K best candidate sector
// combinations, sounds them jointly and hands the best configuration to the
// data path.
package coordinator

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/mimo"
	"github.com/sarchlab/mimobft/sim"
)

// ErrNotArmable is returned by Rearm when the pair cannot start an attempt.
var ErrNotArmable = errors.New("link pair cannot be armed")

// SisoRequest asks the sounding collaborator for a SISO sounding window. The
// collaborator delivers SisoSampleEvents and then one
// SisoSoundingCompletedEvent to Notify.
type SisoRequest struct {
	Link       link.Link
	TxAntennas []codebook.AntennaID
	RxAntennas []codebook.AntennaID
	Sectors    []codebook.SectorID
	SubBeams   int
	Initiator  bool
	Notify     sim.Handler
}

// MimoRequest asks the sounding collaborator for a joint MIMO sounding. The
// collaborator delivers one MimoSoundingCompletedEvent to Notify.
type MimoRequest struct {
	Link    link.Link
	Request mimo.SoundingRequest
	Notify  sim.Handler
}

// Sounder transmits sounding frames and collects the peer's feedback.
type Sounder interface {
	StartSisoSounding(now sim.VTimeInSec, req SisoRequest)
	StartMimoSounding(now sim.VTimeInSec, req MimoRequest)
}

// DataPath is told when a link has completed training.
type DataPath interface {
	LinkReady(now sim.VTimeInSec, l link.Link, selected Selection)
}

// Config holds the training parameters.
type Config struct {
	K              int
	TxCombinations int
	ExpandAwvs     bool
	AwvsPerSector  int
	SpatialStreams int
	SubBeamCount   int
	SafetyMargin   sim.VTimeInSec

	// Reducer folds the samples of a SISO key. Nil keeps the strongest.
	Reducer feedback.Reducer
}

// Coordinator owns the training state of every link pair.
type Coordinator struct {
	*sim.HookableBase

	name      string
	engine    sim.EventScheduler
	sounder   Sounder
	dataPath  DataPath
	codebooks *codebook.Registry
	cfg       Config
	log       logrus.FieldLogger

	links map[link.Pair]*LinkState
}

// Name returns the name of the coordinator.
func (c *Coordinator) Name() string {
	return c.name
}

// Config returns the training parameters.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// LinkState returns the state of a link pair.
func (c *Coordinator) LinkState(pair link.Pair) (*LinkState, bool) {
	s, ok := c.links[pair]
	return s, ok
}

// Links returns the state of every known link pair, ordered by pair.
func (c *Coordinator) Links() []*LinkState {
	return sortedStates(c.links)
}

// Handle processes the events of the coordinator.
func (c *Coordinator) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *SectorSweepCompletedEvent:
		c.handleSectorSweep(e)
	case *armEvent:
		c.handleArm(e)
	case *SisoSampleEvent:
		c.handleSisoSample(e)
	case *SisoSoundingCompletedEvent:
		c.handleSisoCompleted(e)
	case *candidatesSelectedEvent:
		c.handleCandidatesSelected(e)
	case *MimoSoundingCompletedEvent:
		c.handleMimoCompleted(e)
	default:
		return fmt.Errorf("coordinator %s cannot handle event %T", c.name, e)
	}

	return nil
}

// Rearm schedules a new attempt for a pair that is idle and has both
// directions beamformed. The attempt does not start before the safety margin
// after the second beamformed sweep.
func (c *Coordinator) Rearm(now sim.VTimeInSec, pair link.Pair) error {
	s, ok := c.links[pair]
	if !ok {
		return fmt.Errorf("%w: unknown pair %s", ErrNotArmable, pair)
	}

	if s.State != Idle || s.armPending {
		return fmt.Errorf("%w: pair %s is %s", ErrNotArmable, pair, s.State)
	}

	if len(s.beamformed) < 2 {
		return fmt.Errorf("%w: pair %s has %d beamformed directions",
			ErrNotArmable, pair, len(s.beamformed))
	}

	at := s.SecondBeamformedAt + c.cfg.SafetyMargin
	if at < now {
		at = now
	}

	c.scheduleArm(at, s)

	return nil
}

func (c *Coordinator) stateOf(pair link.Pair) *LinkState {
	s, ok := c.links[pair]
	if !ok {
		s = newLinkState(pair)
		c.links[pair] = s
	}

	return s
}

func (c *Coordinator) scheduleArm(at sim.VTimeInSec, s *LinkState) {
	s.armPending = true
	c.engine.Schedule(&armEvent{
		EventBase: sim.NewEventBase(at, c),
		pair:      s.Pair,
	})
}

func (c *Coordinator) stationBook(
	station link.StationID,
	dir codebook.Direction,
) (stationBook, error) {
	book, err := c.codebooks.Lookup(station, dir)
	if err != nil {
		return stationBook{}, err
	}

	return stationBook{
		Codebook: book,
		registry: c.codebooks,
		station:  station,
		dir:      dir,
	}, nil
}

func (c *Coordinator) hook(
	now sim.VTimeInSec,
	pos *sim.HookPos,
	item interface{},
) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Now:    now,
		Pos:    pos,
		Item:   item,
	})
}

func (c *Coordinator) logFor(l link.Link) logrus.FieldLogger {
	return c.log.WithField("link", l.String())
}
