package tracing

import (
	"fmt"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/mimo"
	"github.com/sarchlab/mimobft/sim"
)

// Attempt outcomes.
const (
	OutcomeStarted   = "started"
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
)

// CollectTrace lets the writer collect the traces of a coordinator.
func CollectTrace(domain sim.Hookable, writer TraceWriter) {
	domain.AcceptHook(NewTraceHook(writer))
}

// A TraceHook converts coordinator hook items into trace entries.
type TraceHook struct {
	w TraceWriter
}

// NewTraceHook creates a TraceHook that writes into w.
func NewTraceHook(w TraceWriter) *TraceHook {
	return &TraceHook{w: w}
}

// Func writes the entries of the hook item.
func (h *TraceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case coordinator.HookPosSectorSweep:
		h.sls(ctx.Now, ctx.Item.(coordinator.SectorSweepRecord))
	case coordinator.HookPosSisoSample:
		h.siso(ctx.Item.(coordinator.SisoSampleRecord))
	case coordinator.HookPosSisoCompleted:
		h.sisoResult(ctx.Now, ctx.Item.(coordinator.SisoResultRecord))
	case coordinator.HookPosCandidatesSelected:
		h.candidates(ctx.Item.(coordinator.CandidatesRecord))
	case coordinator.HookPosMimoMeasured:
		h.mimo(ctx.Item.(coordinator.MeasurementRecord))
	case coordinator.HookPosAttemptStarted:
		h.attempt(ctx.Now, OutcomeStarted, ctx.Item.(coordinator.AttemptRecord))
	case coordinator.HookPosAttemptCompleted:
		h.attempt(ctx.Now, OutcomeCompleted, ctx.Item.(coordinator.AttemptRecord))
	case coordinator.HookPosAttemptAborted:
		h.attempt(ctx.Now, OutcomeAborted, ctx.Item.(coordinator.AttemptRecord))
	}
}

func ends(l link.Link) (uint32, uint32) {
	return uint32(l.Initiator), uint32(l.Responder)
}

func (h *TraceHook) sls(now sim.VTimeInSec, r coordinator.SectorSweepRecord) {
	e := r.Event
	src, dst := ends(e.Link)

	h.w.WriteSls(SlsEntry{
		SrcID:       src,
		DstID:       dst,
		TraceIdx:    r.TraceIdx,
		AntennaID:   uint8(e.Best.Antenna),
		SectorID:    uint8(e.Best.Sector),
		Role:        r.Role.String(),
		BssID:       e.BssID,
		SNR:         e.SNR,
		TimestampNs: now.Nanoseconds(),
	})
}

func (h *TraceHook) siso(r coordinator.SisoSampleRecord) {
	src, dst := ends(r.Link)

	h.w.WriteSiso(SisoEntry{
		SrcID:       src,
		DstID:       dst,
		TraceIdx:    r.TraceIdx,
		RxAntennaID: uint8(r.Sample.Key.RxAntenna),
		TxAntennaID: uint8(r.Sample.Key.TxAntenna),
		TxSectorID:  uint8(r.Sample.Key.TxSector),
		SubBeam:     r.SubBeam,
		SnrDB:       feedback.LinearToDB(r.Sample.SNR),
		TimestampNs: r.Sample.Time.Nanoseconds(),
	})
}

func (h *TraceHook) sisoResult(
	now sim.VTimeInSec,
	r coordinator.SisoResultRecord,
) {
	src, dst := ends(r.Link)

	for _, k := range r.Matrix.Keys() {
		v, _ := r.Matrix.Value(k)

		h.w.WriteSisoResult(SisoEntry{
			SrcID:       src,
			DstID:       dst,
			TraceIdx:    r.TraceIdx,
			RxAntennaID: uint8(k.RxAntenna),
			TxAntennaID: uint8(k.TxAntenna),
			TxSectorID:  uint8(k.TxSector),
			SnrDB:       feedback.LinearToDB(v),
			TimestampNs: now.Nanoseconds(),
		})
	}
}

func sectorBeams(sectors []codebook.SectorID) []Beam {
	beams := make([]Beam, len(sectors))
	for i, s := range sectors {
		beams[i] = Beam{AntennaID: uint8(i + 1), SectorID: uint8(s)}
	}

	return beams
}

func (h *TraceHook) candidates(r coordinator.CandidatesRecord) {
	src, dst := ends(r.Link)

	for i := 0; i < r.Candidates.Len(); i++ {
		h.w.WriteCandidate(CandidateEntry{
			SrcID: src, DstID: dst, TraceIdx: r.TraceIdx,
			Side: codebook.Tx, Rank: i,
			Beams: sectorBeams(r.Candidates.Tx[i]),
		})
	}

	for i := 0; i < r.Candidates.Len(); i++ {
		h.w.WriteCandidate(CandidateEntry{
			SrcID: src, DstID: dst, TraceIdx: r.TraceIdx,
			Side: codebook.Rx, Rank: i,
			Beams: sectorBeams(r.Candidates.Rx[i]),
		})
	}
}

func awvBeams(c mimo.Combination) []Beam {
	beams := make([]Beam, len(c.Entries))
	for i, e := range c.Entries {
		beams[i] = Beam{
			AntennaID: uint8(e.Antenna),
			SectorID:  uint8(e.Sector),
			Awv:       uint32(e.Awv),
		}
	}

	return beams
}

func (h *TraceHook) mimo(r coordinator.MeasurementRecord) {
	src, dst := ends(r.Link)
	m := r.Measurement

	snr := make([]float64, len(m.StreamSNR))
	for i, v := range m.StreamSNR {
		snr[i] = feedback.LinearToDB(v)
	}

	h.w.WriteMimo(MimoEntry{
		SrcID:          src,
		DstID:          dst,
		TraceIdx:       r.TraceIdx,
		TxConfig:       uint32(m.Tx.ID),
		RxConfig:       uint32(m.Rx.ID),
		Tx:             awvBeams(m.Tx),
		Rx:             awvBeams(m.Rx),
		SnrDB:          snr,
		MinStreamSnrDB: feedback.LinearToDB(m.MinStreamSNR),
	})
}

func (h *TraceHook) attempt(
	now sim.VTimeInSec,
	outcome string,
	r coordinator.AttemptRecord,
) {
	src, dst := ends(r.Link)

	e := AttemptEntry{
		SrcID:       src,
		DstID:       dst,
		TraceIdx:    r.TraceIdx,
		Outcome:     outcome,
		Phase:       r.State.String(),
		TimestampNs: now.Nanoseconds(),
	}

	if r.Err != nil {
		e.Reason = r.Err.Error()
	}

	if r.Selection != nil {
		e.Reason = fmt.Sprintf("tx %d rx %d min stream snr %.2f dB",
			r.Selection.Config.TxAwv, r.Selection.Config.RxAwv,
			feedback.LinearToDB(r.Selection.Config.MinStreamSNR))
	}

	h.w.WriteAttempt(e)
}
