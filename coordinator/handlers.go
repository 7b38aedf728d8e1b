package coordinator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/mimo"
	"github.com/sarchlab/mimobft/selection"
	"github.com/sarchlab/mimobft/sim"
)

func (c *Coordinator) handleSectorSweep(e *SectorSweepCompletedEvent) {
	now := e.Time()
	s := c.stateOf(e.Link.Pair())

	if e.Beamformed && len(s.beamformed) == 0 {
		s.Link = e.Link
	}

	c.hook(now, HookPosSectorSweep, SectorSweepRecord{
		TraceIdx: s.NumSectorSweeps,
		Role:     s.trainingLink().RoleOf(e.Link.Initiator),
		Event:    e,
	})
	s.NumSectorSweeps++

	if !e.Beamformed {
		return
	}

	if s.State == Completed || s.beamformed[e.Link] {
		return
	}

	s.beamformed[e.Link] = true
	if len(s.beamformed) < 2 {
		return
	}

	s.SecondBeamformedAt = now

	if s.State != Idle || s.armPending {
		return
	}

	c.logFor(s.Link).WithFields(logrus.Fields{
		"vtime":  float64(now),
		"arm_at": float64(now + c.cfg.SafetyMargin),
	}).Debug("both directions beamformed")

	c.scheduleArm(now+c.cfg.SafetyMargin, s)
}

func (c *Coordinator) handleArm(e *armEvent) {
	s := c.stateOf(e.pair)
	s.armPending = false

	if s.State != Idle {
		return
	}

	c.startAttempt(e.Time(), s)
}

func (c *Coordinator) startAttempt(now sim.VTimeInSec, s *LinkState) {
	s.Attempts++

	a := &attempt{
		index: s.Attempts - 1,
		link:  s.Link,
	}
	s.attempt = a
	s.State = SisoSounding

	c.hook(now, HookPosAttemptStarted, AttemptRecord{
		Link:     a.link,
		TraceIdx: a.index,
		State:    s.State,
	})

	txBook, err := c.stationBook(a.link.Initiator, codebook.Tx)
	if err != nil {
		c.abort(now, s, err)
		return
	}

	rxBook, err := c.stationBook(a.link.Responder, codebook.Rx)
	if err != nil {
		c.abort(now, s, err)
		return
	}

	a.txBook = txBook
	a.rxBook = rxBook
	a.numTx = min(c.cfg.SpatialStreams, txBook.NumAntennas())
	a.numRx = min(c.cfg.SpatialStreams, rxBook.NumAntennas())

	a.aggregator = feedback.NewAggregator(c.cfg.SubBeamCount)
	if c.cfg.Reducer != nil {
		a.aggregator.WithReducer(c.cfg.Reducer)
	}

	a.aggregator.Request(a.requestedKeys()...)

	c.logFor(a.link).WithFields(logrus.Fields{
		"vtime":   float64(now),
		"attempt": a.index,
		"num_tx":  a.numTx,
		"num_rx":  a.numRx,
	}).Info("SISO sounding started")

	c.sounder.StartSisoSounding(now, SisoRequest{
		Link:       a.link,
		TxAntennas: antennaRange(a.numTx),
		RxAntennas: antennaRange(a.numRx),
		Sectors:    txBook.Sectors(),
		SubBeams:   c.cfg.SubBeamCount,
		Initiator:  true,
		Notify:     c,
	})
}

// current tells whether the pair is running an attempt in the given phase.
// Events that do not match belong to an attempt that has ended.
func (c *Coordinator) current(
	e sim.Event,
	label string,
	s *LinkState,
	phase State,
) bool {
	if s != nil && s.State == phase && s.attempt != nil {
		return true
	}

	c.log.WithFields(logrus.Fields{
		"vtime": float64(e.Time()),
		"link":  label,
		"event": fmt.Sprintf("%T", e),
	}).Debug("stale event dropped")

	return false
}

func (c *Coordinator) handleSisoSample(e *SisoSampleEvent) {
	s := c.links[e.Link.Pair()]
	if !c.current(e, e.Link.String(), s, SisoSounding) || s.attempt.link != e.Link {
		return
	}

	a := s.attempt

	subBeam, err := a.aggregator.Add(e.Sample)
	if err != nil {
		c.abort(e.Time(), s, err)
		return
	}

	c.hook(e.Time(), HookPosSisoSample, SisoSampleRecord{
		Link:     a.link,
		TraceIdx: a.index,
		Sample:   e.Sample,
		SubBeam:  subBeam,
	})
}

func (c *Coordinator) handleSisoCompleted(e *SisoSoundingCompletedEvent) {
	now := e.Time()

	s := c.links[e.Link.Pair()]
	if !c.current(e, e.Link.String(), s, SisoSounding) || s.attempt.link != e.Link {
		return
	}

	a := s.attempt

	m, err := a.aggregator.Close()
	if err != nil {
		c.abort(now, s, err)
		return
	}

	a.matrix = m
	a.aggregator = nil
	s.State = CandidateSelection

	c.hook(now, HookPosSisoCompleted, SisoResultRecord{
		Link:     a.link,
		TraceIdx: a.index,
		Matrix:   m,
	})

	cands, err := selection.Select(m, c.cfg.K, a.numTx, a.numRx)
	if err != nil {
		c.abort(now, s, err)
		return
	}

	a.candidates = cands

	c.hook(now, HookPosCandidatesSelected, CandidatesRecord{
		Link:       a.link,
		TraceIdx:   a.index,
		Candidates: cands,
	})

	c.engine.Schedule(&candidatesSelectedEvent{
		EventBase: sim.NewEventBase(now, c),
		pair:      s.Pair,
	})
}

func (c *Coordinator) handleCandidatesSelected(e *candidatesSelectedEvent) {
	now := e.Time()

	s := c.links[e.pair]
	if !c.current(e, e.pair.String(), s, CandidateSelection) {
		return
	}

	a := s.attempt
	a.evaluator = mimo.NewEvaluator(a.candidates, mimo.Options{
		ExpandAwvs:       c.cfg.ExpandAwvs,
		AwvsPerSector:    c.cfg.AwvsPerSector,
		TxCombinationCap: c.cfg.TxCombinations,
	}, a.txBook, a.rxBook)

	req, err := a.evaluator.Request()
	if err != nil {
		c.abort(now, s, err)
		return
	}

	a.matrix = nil
	s.State = MimoSounding

	c.logFor(a.link).WithFields(logrus.Fields{
		"vtime":   float64(now),
		"attempt": a.index,
		"tx":      len(req.Tx),
		"rx":      len(req.Rx),
	}).Info("MIMO sounding started")

	c.sounder.StartMimoSounding(now, MimoRequest{
		Link:    a.link,
		Request: req,
		Notify:  c,
	})
}

func (c *Coordinator) handleMimoCompleted(e *MimoSoundingCompletedEvent) {
	now := e.Time()

	s := c.links[e.Link.Pair()]
	if !c.current(e, e.Link.String(), s, MimoSounding) || s.attempt.link != e.Link {
		return
	}

	a := s.attempt

	best, err := a.evaluator.Evaluate(e.Feedback)
	if err != nil {
		c.abort(now, s, err)
		return
	}

	report := a.evaluator.Ranked().Drain()

	for _, r := range report {
		m, _ := a.evaluator.Measurement(r.Key())
		c.hook(now, HookPosMimoMeasured, MeasurementRecord{
			Link:        a.link,
			TraceIdx:    a.index,
			Measurement: m,
		})
	}

	tx, _ := a.evaluator.Combination(codebook.Tx, best.TxAwv)
	rx, _ := a.evaluator.Combination(codebook.Rx, best.RxAwv)
	selected := Selection{Config: best, Tx: tx, Rx: rx}

	s.State = Completed
	s.Selected = &selected
	s.LastError = nil
	s.attempt = nil

	c.logFor(a.link).WithFields(logrus.Fields{
		"vtime":          float64(now),
		"attempt":        a.index,
		"min_stream_snr": best.MinStreamSNR,
		"tx_awv":         best.TxAwv,
		"rx_awv":         best.RxAwv,
	}).Info("SU-MIMO training completed")

	c.hook(now, HookPosAttemptCompleted, AttemptRecord{
		Link:      a.link,
		TraceIdx:  a.index,
		State:     Completed,
		Selection: &selected,
		Report:    report,
	})

	c.dataPath.LinkReady(now, a.link, selected)
}

func (c *Coordinator) abort(now sim.VTimeInSec, s *LinkState, err error) {
	a := s.attempt
	phase := s.State

	s.attempt = nil
	s.State = Idle
	s.LastError = err
	s.Aborts++

	c.logFor(a.link).WithFields(logrus.Fields{
		"vtime":   float64(now),
		"attempt": a.index,
		"phase":   phase.String(),
	}).WithError(err).Warn("SU-MIMO training aborted")

	c.hook(now, HookPosAttemptAborted, AttemptRecord{
		Link:     a.link,
		TraceIdx: a.index,
		State:    phase,
		Err:      err,
	})
}
