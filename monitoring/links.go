package monitoring

import (
	"sort"
	"sync"

	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/sim"
)

// LinkSummary is what the monitor shows about a link pair.
type LinkSummary struct {
	A              link.StationID `json:"a"`
	B              link.StationID `json:"b"`
	Pair           string         `json:"pair"`
	Link           string         `json:"link,omitempty"`
	State          string         `json:"state"`
	SectorSweeps   int            `json:"sector_sweeps"`
	Attempts       int            `json:"attempts"`
	Aborts         int            `json:"aborts"`
	SisoSamples    int            `json:"siso_samples"`
	Candidates     int            `json:"candidates"`
	Measurements   int            `json:"measurements"`
	MinStreamSNRDB *float64       `json:"min_stream_snr_db,omitempty"`
	TxConfig       *uint32        `json:"tx_config,omitempty"`
	RxConfig       *uint32        `json:"rx_config,omitempty"`
	LastError      string         `json:"last_error,omitempty"`
	UpdatedAt      float64        `json:"updated_at"`
}

// linkBoard keeps the summaries of every link pair. It is updated from the
// engine as a hook and read from the HTTP handlers.
type linkBoard struct {
	lock  sync.Mutex
	links map[link.Pair]*LinkSummary
}

func newLinkBoard() *linkBoard {
	return &linkBoard{links: make(map[link.Pair]*LinkSummary)}
}

func (b *linkBoard) entry(l link.Link) *LinkSummary {
	pair := l.Pair()

	s, ok := b.links[pair]
	if !ok {
		s = &LinkSummary{
			A:     pair.A,
			B:     pair.B,
			Pair:  pair.String(),
			State: coordinator.Idle.String(),
		}
		b.links[pair] = s
	}

	return s
}

func (b *linkBoard) Func(ctx sim.HookCtx) {
	b.lock.Lock()
	defer b.lock.Unlock()

	switch ctx.Pos {
	case coordinator.HookPosSectorSweep:
		r := ctx.Item.(coordinator.SectorSweepRecord)
		s := b.entry(r.Event.Link)
		s.SectorSweeps++
		s.UpdatedAt = float64(ctx.Now)
	case coordinator.HookPosSisoSample:
		r := ctx.Item.(coordinator.SisoSampleRecord)
		s := b.entry(r.Link)
		s.SisoSamples++
		s.UpdatedAt = float64(ctx.Now)
	case coordinator.HookPosCandidatesSelected:
		r := ctx.Item.(coordinator.CandidatesRecord)
		s := b.entry(r.Link)
		s.State = coordinator.CandidateSelection.String()
		s.Candidates = r.Candidates.Len()
		s.UpdatedAt = float64(ctx.Now)
	case coordinator.HookPosMimoMeasured:
		r := ctx.Item.(coordinator.MeasurementRecord)
		s := b.entry(r.Link)
		s.Measurements++
		s.UpdatedAt = float64(ctx.Now)
	case coordinator.HookPosAttemptStarted,
		coordinator.HookPosAttemptCompleted,
		coordinator.HookPosAttemptAborted:
		b.attempt(ctx)
	}
}

func (b *linkBoard) attempt(ctx sim.HookCtx) {
	r := ctx.Item.(coordinator.AttemptRecord)
	s := b.entry(r.Link)
	s.Link = r.Link.String()
	s.UpdatedAt = float64(ctx.Now)

	switch ctx.Pos {
	case coordinator.HookPosAttemptStarted:
		s.Attempts++
		s.State = r.State.String()
		s.SisoSamples = 0
		s.Candidates = 0
		s.Measurements = 0
	case coordinator.HookPosAttemptCompleted:
		s.State = coordinator.Completed.String()
		s.LastError = ""

		if r.Selection != nil {
			snr := feedback.LinearToDB(r.Selection.Config.MinStreamSNR)
			tx := uint32(r.Selection.Config.TxAwv)
			rx := uint32(r.Selection.Config.RxAwv)
			s.MinStreamSNRDB = &snr
			s.TxConfig = &tx
			s.RxConfig = &rx
		}
	case coordinator.HookPosAttemptAborted:
		s.State = coordinator.Idle.String()
		s.Aborts++

		if r.Err != nil {
			s.LastError = r.Err.Error()
		}
	}
}

func (b *linkBoard) list() []LinkSummary {
	b.lock.Lock()
	defer b.lock.Unlock()

	list := make([]LinkSummary, 0, len(b.links))
	for _, s := range b.links {
		list = append(list, *s)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].A != list[j].A {
			return list[i].A < list[j].A
		}

		return list[i].B < list[j].B
	})

	return list
}

func (b *linkBoard) get(pair link.Pair) (LinkSummary, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	s, ok := b.links[pair]
	if !ok {
		return LinkSummary{}, false
	}

	return *s, true
}
