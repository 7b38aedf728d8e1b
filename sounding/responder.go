package sounding

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/mimo"
	"github.com/sarchlab/mimobft/sim"
)

// A Responder plays the peer of every sounding exchange. It answers SISO and
// MIMO soundings with the values of its table, one frame after another.
type Responder struct {
	engine sim.EventScheduler
	table  Table

	sampleAirtime      sim.VTimeInSec
	measurementAirtime sim.VTimeInSec

	numSisoFrames int
	numMimoFrames int
}

// NewResponder creates a Responder.
func NewResponder(
	engine sim.EventScheduler,
	table Table,
	sampleAirtime, measurementAirtime sim.VTimeInSec,
) *Responder {
	if sampleAirtime <= 0 || measurementAirtime <= 0 {
		panic("airtime must be positive")
	}

	return &Responder{
		engine:             engine,
		table:              table,
		sampleAirtime:      sampleAirtime,
		measurementAirtime: measurementAirtime,
	}
}

// NumSisoFrames returns how many SISO frames have been answered.
func (r *Responder) NumSisoFrames() int {
	return r.numSisoFrames
}

// NumMimoFrames returns how many MIMO configurations have been sounded.
func (r *Responder) NumMimoFrames() int {
	return r.numMimoFrames
}

// StartSisoSounding schedules one sample per antenna pair, sector and
// sub-beam, followed by the end of the window.
func (r *Responder) StartSisoSounding(
	now sim.VTimeInSec,
	req coordinator.SisoRequest,
) {
	t := now
	subBeams := max(req.SubBeams, 1)

	for _, tx := range req.TxAntennas {
		for _, rx := range req.RxAntennas {
			for _, sector := range req.Sectors {
				key := feedback.Key{
					TxAntenna: tx,
					RxAntenna: rx,
					TxSector:  sector,
				}

				for v := 0; v < subBeams; v++ {
					t += r.sampleAirtime

					snr, ok := r.table.SisoSNR(req.Link, key, v)
					if !ok {
						continue
					}

					r.numSisoFrames++
					r.engine.Schedule(coordinator.NewSisoSampleEvent(
						t, req.Notify, req.Link,
						feedback.Sample{Key: key, SNR: snr, Time: t}))
				}
			}
		}
	}

	r.engine.Schedule(
		coordinator.NewSisoSoundingCompletedEvent(t, req.Notify, req.Link))
}

// StartMimoSounding sounds every joint configuration of the request and
// delivers the collected feedback at the end. A configuration with an
// unanswered stream is left out of the feedback.
func (r *Responder) StartMimoSounding(
	now sim.VTimeInSec,
	req coordinator.MimoRequest,
) {
	fb := make(map[mimo.MeasurementKey][]float64)
	numStreams := req.Request.NumStreams()
	t := now

	for _, tx := range req.Request.Tx {
		for _, rx := range req.Request.Rx {
			t += r.measurementAirtime
			r.numMimoFrames++

			snr, ok := r.measure(req, tx, rx, numStreams)
			if !ok {
				logrus.WithFields(logrus.Fields{
					"link": req.Link.String(),
					"tx":   tx.ID,
					"rx":   rx.ID,
				}).Debug("configuration not answered")

				continue
			}

			fb[mimo.MeasurementKey{TxAwv: tx.ID, RxAwv: rx.ID}] = snr
		}
	}

	r.engine.Schedule(coordinator.NewMimoSoundingCompletedEvent(
		t, req.Notify, req.Link, fb))
}

func (r *Responder) measure(
	req coordinator.MimoRequest,
	tx, rx mimo.Combination,
	numStreams int,
) ([]float64, bool) {
	snr := make([]float64, numStreams)

	for i := range snr {
		v, ok := r.table.MimoSNR(req.Link, tx, rx, i)
		if !ok {
			return nil, false
		}

		snr[i] = v
	}

	return snr, true
}
