package sounding

import (
	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/sim"
)

// A SectorSweeper replays single-antenna sector sweeps. The best sector of a
// sweep is the strongest one of the table toward the first receive antenna.
type SectorSweeper struct {
	engine    sim.EventScheduler
	table     Table
	codebooks *codebook.Registry
	notify    sim.Handler

	// ReportDB reports the sweep SNR in dB instead of linear.
	ReportDB bool
}

// NewSectorSweeper creates a SectorSweeper that reports to notify.
func NewSectorSweeper(
	engine sim.EventScheduler,
	table Table,
	codebooks *codebook.Registry,
	notify sim.Handler,
) *SectorSweeper {
	return &SectorSweeper{
		engine:    engine,
		table:     table,
		codebooks: codebooks,
		notify:    notify,
	}
}

// Sweep schedules the completion of a sector sweep of l at time t.
func (s *SectorSweeper) Sweep(
	t sim.VTimeInSec,
	l link.Link,
	bssID uint32,
	beamformed bool,
) error {
	book, err := s.codebooks.Lookup(l.Initiator, codebook.Tx)
	if err != nil {
		return err
	}

	e := coordinator.NewSectorSweepCompletedEvent(t, s.notify, l)
	e.BssID = bssID
	e.Beamformed = beamformed
	e.Best, e.SNR = s.best(l, book)

	if s.ReportDB {
		e.SNR = feedback.LinearToDB(e.SNR)
	}

	s.engine.Schedule(e)

	return nil
}

func (s *SectorSweeper) best(
	l link.Link,
	book *codebook.Codebook,
) (coordinator.BestSector, float64) {
	best := coordinator.BestSector{Antenna: 1, Sector: 1}
	bestSNR := -1.0

	for _, a := range book.Antennas() {
		for _, sector := range book.Sectors() {
			snr, ok := s.table.SisoSNR(l, feedback.Key{
				TxAntenna: a,
				RxAntenna: 1,
				TxSector:  sector,
			}, 0)
			if !ok || snr <= bestSNR {
				continue
			}

			best = coordinator.BestSector{Antenna: a, Sector: sector}
			bestSNR = snr
		}
	}

	if bestSNR < 0 {
		return best, 0
	}

	return best, bestSNR
}
