package coordinator

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/mimo"
	"github.com/sarchlab/mimobft/selection"
	"github.com/sarchlab/mimobft/sim"
)

// strongDiagonal favors sector t+1 on transmit antenna t.
func strongDiagonal(k feedback.Key) float64 {
	if int(k.TxSector) == int(k.TxAntenna)+1 {
		return 100
	}

	return 5
}

type sisoReplay struct {
	engine  sim.Engine
	snr     func(feedback.Key) float64
	skip    bool
	samples int
}

func (r *sisoReplay) start(now sim.VTimeInSec, req SisoRequest) {
	if !r.skip {
		for _, t := range req.TxAntennas {
			for _, rx := range req.RxAntennas {
				for _, s := range req.Sectors {
					key := feedback.Key{TxAntenna: t, RxAntenna: rx, TxSector: s}
					for v := 0; v < max(req.SubBeams, 1); v++ {
						r.engine.Schedule(NewSisoSampleEvent(now+0.1, req.Notify,
							req.Link, feedback.Sample{
								Key:  key,
								SNR:  r.snr(key),
								Time: now + 0.1,
							}))
						r.samples++
					}
				}
			}
		}
	}

	r.engine.Schedule(
		NewSisoSoundingCompletedEvent(now+0.1, req.Notify, req.Link))
}

type mimoReplay struct {
	engine sim.Engine
	omit   bool

	// ascending gives the n-th requested configuration the SNR n+1.
	ascending bool
}

func (r *mimoReplay) start(now sim.VTimeInSec, req MimoRequest) {
	fb := make(map[mimo.MeasurementKey][]float64)

	if !r.omit {
		for n, k := range req.Request.Keys() {
			snr := make([]float64, req.Request.NumStreams())
			for i := range snr {
				snr[i] = 3
				if k.TxAwv == 0 && k.RxAwv == 0 {
					snr[i] = 10
				}

				if r.ascending {
					snr[i] = float64(n + 1)
				}
			}

			fb[k] = snr
		}
	}

	r.engine.Schedule(
		NewMimoSoundingCompletedEvent(now+0.2, req.Notify, req.Link, fb))
}

type hookRecorder struct {
	positions []*sim.HookPos
	items     []interface{}
}

func (h *hookRecorder) Func(ctx sim.HookCtx) {
	h.positions = append(h.positions, ctx.Pos)
	h.items = append(h.items, ctx.Item)
}

func (h *hookRecorder) itemsAt(pos *sim.HookPos) []interface{} {
	var items []interface{}

	for i, p := range h.positions {
		if p == pos {
			items = append(items, h.items[i])
		}
	}

	return items
}

var _ = Describe("Coordinator", func() {
	var (
		mockCtrl  *gomock.Controller
		engine    *sim.SerialEngine
		sounder   *MockSounder
		dataPath  *MockDataPath
		registry  *codebook.Registry
		cfg       Config
		c         *Coordinator
		siso      *sisoReplay
		mimoSound *mimoReplay
		forward   link.Link
		pair      link.Pair
	)

	sweep := func(t sim.VTimeInSec, l link.Link, beamformed bool) {
		e := NewSectorSweepCompletedEvent(t, c, l)
		e.Best = BestSector{Antenna: 1, Sector: 2}
		e.SNR = 12.5
		e.Beamformed = beamformed
		engine.Schedule(e)
	}

	build := func() {
		c = MakeBuilder().
			WithEngine(engine).
			WithSounder(sounder).
			WithDataPath(dataPath).
			WithCodebooks(registry).
			WithConfig(cfg).
			Build("Coordinator")
	}

	stateOf := func() *LinkState {
		s, ok := c.LinkState(pair)
		Expect(ok).To(BeTrue())

		return s
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		sounder = NewMockSounder(mockCtrl)
		dataPath = NewMockDataPath(mockCtrl)

		registry = codebook.NewRegistry()
		registry.Register(1, codebook.NewUniform(2, 4, 1), nil)
		registry.Register(2, codebook.NewUniform(2, 4, 1), nil)

		cfg = Config{
			K:              2,
			SpatialStreams: 2,
			SubBeamCount:   1,
			SafetyMargin:   0.5,
		}

		siso = &sisoReplay{engine: engine, snr: strongDiagonal}
		mimoSound = &mimoReplay{engine: engine}
		forward = link.New(1, 2)
		pair = forward.Pair()

		build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not sound before the safety margin has elapsed", func() {
		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(func(now sim.VTimeInSec, req SisoRequest) {
				Expect(now).To(Equal(sim.VTimeInSec(2.5)))
				Expect(req.Link).To(Equal(forward))
				Expect(req.TxAntennas).To(Equal(
					[]codebook.AntennaID{1, 2}))
				Expect(req.RxAntennas).To(Equal(
					[]codebook.AntennaID{1, 2}))
				Expect(req.Sectors).To(HaveLen(4))
				Expect(req.Initiator).To(BeTrue())
				Expect(req.Notify).To(BeIdenticalTo(c))
				siso.start(now, req)
			})
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)
		dataPath.EXPECT().
			LinkReady(gomock.Any(), forward, gomock.Any()).
			DoAndReturn(func(now sim.VTimeInSec, l link.Link, sel Selection) {
				Expect(float64(now)).To(BeNumerically("~", 2.8, 1e-9))
			})

		Expect(engine.Run()).To(Succeed())

		s := stateOf()
		Expect(s.State).To(Equal(Completed))
		Expect(s.SecondBeamformedAt).To(Equal(sim.VTimeInSec(2)))
		Expect(s.Attempts).To(Equal(1))
		Expect(s.NumSectorSweeps).To(Equal(2))
	})

	It("should hand the best configuration to the data path", func() {
		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		var selected Selection

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(func(now sim.VTimeInSec, req MimoRequest) {
				Expect(req.Request.Tx).To(HaveLen(2))
				Expect(req.Request.Rx).To(HaveLen(2))
				mimoSound.start(now, req)
			})
		dataPath.EXPECT().
			LinkReady(gomock.Any(), forward, gomock.Any()).
			DoAndReturn(func(_ sim.VTimeInSec, _ link.Link, sel Selection) {
				selected = sel
			})

		Expect(engine.Run()).To(Succeed())

		Expect(selected.Config.MinStreamSNR).To(Equal(10.0))
		Expect(selected.Config.TxAwv).To(Equal(mimo.ConfigID(0)))
		Expect(selected.Config.RxAwv).To(Equal(mimo.ConfigID(0)))
		Expect(selected.Tx.Entries).To(HaveLen(2))
		Expect(selected.Tx.Entries[0].Sector).To(Equal(codebook.SectorID(2)))
		Expect(selected.Tx.Entries[1].Sector).To(Equal(codebook.SectorID(3)))
		Expect(selected.Rx.Entries[0].Sector).To(Equal(codebook.SectorID(2)))
		Expect(selected.Rx.Entries[1].Sector).To(Equal(codebook.SectorID(2)))
		Expect(stateOf().Selected).To(Equal(&selected))
		Expect(siso.samples).To(Equal(16))
	})

	It("should not arm with a single beamformed direction", func() {
		sweep(1, forward, true)
		sweep(2, forward, true)
		sweep(3, forward.Reverse(), false)

		Expect(engine.Run()).To(Succeed())

		s := stateOf()
		Expect(s.State).To(Equal(Idle))
		Expect(s.BeamformedDirections()).To(Equal(1))
		Expect(s.NumSectorSweeps).To(Equal(3))
		Expect(s.ArmPending()).To(BeFalse())
	})

	It("should ignore beamformed sweeps while an attempt is running", func() {
		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)
		sweep(2.55, forward.Reverse(), true)
		sweep(2.56, forward, true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start).
			Times(1)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start).
			Times(1)
		dataPath.EXPECT().LinkReady(gomock.Any(), gomock.Any(), gomock.Any())

		Expect(engine.Run()).To(Succeed())

		s := stateOf()
		Expect(s.Attempts).To(Equal(1))
		Expect(s.NumSectorSweeps).To(Equal(4))
	})

	It("should keep a completed pair completed", func() {
		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)
		sweep(10, forward, true)
		sweep(11, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)
		dataPath.EXPECT().LinkReady(gomock.Any(), gomock.Any(), gomock.Any())

		Expect(engine.Run()).To(Succeed())

		s := stateOf()
		Expect(s.State).To(Equal(Completed))
		Expect(s.Attempts).To(Equal(1))
		Expect(c.Rearm(12, pair)).To(MatchError(ErrNotArmable))
	})

	It("should abort when K exceeds the combination count", func() {
		cfg.K = 100
		build()

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)

		Expect(engine.Run()).To(Succeed())

		s := stateOf()
		Expect(s.State).To(Equal(Idle))
		Expect(s.Aborts).To(Equal(1))
		Expect(errors.Is(s.LastError,
			selection.ErrInsufficientCombinations)).To(BeTrue())
		Expect(s.Selected).To(BeNil())
	})

	It("should abort on an empty SISO window", func() {
		siso.skip = true

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)

		Expect(engine.Run()).To(Succeed())

		s := stateOf()
		Expect(s.State).To(Equal(Idle))
		Expect(errors.Is(s.LastError, feedback.ErrEmptyMatrix)).To(BeTrue())
	})

	It("should abort on missing MIMO feedback", func() {
		mimoSound.omit = true

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)

		Expect(engine.Run()).To(Succeed())

		s := stateOf()
		Expect(s.State).To(Equal(Idle))
		Expect(errors.Is(s.LastError, mimo.ErrMissingFeedback)).To(BeTrue())
	})

	It("should abort when a station has no codebook", func() {
		stranger := link.New(1, 9)
		sweep(1, stranger, true)
		sweep(2, stranger.Reverse(), true)

		Expect(engine.Run()).To(Succeed())

		s, ok := c.LinkState(stranger.Pair())
		Expect(ok).To(BeTrue())
		Expect(s.State).To(Equal(Idle))
		Expect(s.Aborts).To(Equal(1))
		Expect(s.LastError).To(HaveOccurred())
	})

	It("should start a new attempt after rearm", func() {
		mimoSound.omit = true

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start).
			Times(2)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start).
			Times(2)

		Expect(engine.Run()).To(Succeed())
		Expect(stateOf().State).To(Equal(Idle))

		mimoSound.omit = false
		dataPath.EXPECT().LinkReady(gomock.Any(), forward, gomock.Any())

		Expect(c.Rearm(engine.CurrentTime(), pair)).To(Succeed())
		Expect(c.Rearm(engine.CurrentTime(), pair)).
			To(MatchError(ErrNotArmable))
		Expect(engine.Run()).To(Succeed())

		s := stateOf()
		Expect(s.State).To(Equal(Completed))
		Expect(s.Attempts).To(Equal(2))
		Expect(s.Aborts).To(Equal(1))
		Expect(s.LastError).NotTo(HaveOccurred())
	})

	It("should refuse to rearm an unknown pair", func() {
		Expect(c.Rearm(0, pair)).To(MatchError(ErrNotArmable))
	})

	It("should drop events of an ended attempt", func() {
		engine.Schedule(NewSisoSampleEvent(1, c, forward, feedback.Sample{
			Key: feedback.Key{TxAntenna: 1, RxAntenna: 1, TxSector: 1},
			SNR: 3,
		}))
		engine.Schedule(NewMimoSoundingCompletedEvent(1, c, forward, nil))

		Expect(engine.Run()).To(Succeed())
		Expect(engine.HandlerErrors()).To(Equal(0))
		Expect(c.Links()).To(BeEmpty())
	})

	It("should reject unknown events", func() {
		evt := sim.NewEventBase(1, c)
		Expect(c.Handle(evt)).NotTo(Succeed())
	})

	It("should invoke hooks through the attempt", func() {
		hooks := &hookRecorder{}
		c.AcceptHook(hooks)

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)
		dataPath.EXPECT().LinkReady(gomock.Any(), gomock.Any(), gomock.Any())

		Expect(engine.Run()).To(Succeed())

		count := map[*sim.HookPos]int{}
		for _, p := range hooks.positions {
			count[p]++
		}

		Expect(count[HookPosSectorSweep]).To(Equal(2))
		Expect(count[HookPosAttemptStarted]).To(Equal(1))
		Expect(count[HookPosSisoSample]).To(Equal(16))
		Expect(count[HookPosSisoCompleted]).To(Equal(1))
		Expect(count[HookPosCandidatesSelected]).To(Equal(1))
		Expect(count[HookPosMimoMeasured]).To(Equal(4))
		Expect(count[HookPosAttemptCompleted]).To(Equal(1))
		Expect(hooks.positions[len(hooks.positions)-1]).
			To(BeIdenticalTo(HookPosAttemptCompleted))

		done := hooks.items[len(hooks.items)-1].(AttemptRecord)
		Expect(done.Report).To(HaveLen(4))
		Expect(done.Report[0].MinStreamSNR).To(Equal(10.0))
	})

	It("should report measurements from the strongest weakest stream down", func() {
		hooks := &hookRecorder{}
		c.AcceptHook(hooks)
		mimoSound.ascending = true

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		var selected Selection

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)
		dataPath.EXPECT().
			LinkReady(gomock.Any(), forward, gomock.Any()).
			DoAndReturn(func(_ sim.VTimeInSec, _ link.Link, sel Selection) {
				selected = sel
			})

		Expect(engine.Run()).To(Succeed())

		var order []float64
		var keys []mimo.MeasurementKey
		for _, item := range hooks.itemsAt(HookPosMimoMeasured) {
			m := item.(MeasurementRecord).Measurement
			order = append(order, m.MinStreamSNR)
			keys = append(keys, m.Key())
		}

		Expect(order).To(Equal([]float64{4, 3, 2, 1}))
		Expect(keys[0]).To(Equal(mimo.MeasurementKey{TxAwv: 1, RxAwv: 1}))
		Expect(keys[3]).To(Equal(mimo.MeasurementKey{TxAwv: 0, RxAwv: 0}))
		Expect(selected.Config.Key()).To(Equal(keys[0]))

		done := hooks.itemsAt(HookPosAttemptCompleted)
		Expect(done).To(HaveLen(1))
		report := done[0].(AttemptRecord).Report
		Expect(report).To(HaveLen(4))
		for i, r := range report {
			Expect(r.Key()).To(Equal(keys[i]))
			Expect(r.MinStreamSNR).To(Equal(order[i]))
		}
	})

	It("should hand the closed SISO window to hooks before selection", func() {
		hooks := &hookRecorder{}
		c.AcceptHook(hooks)

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)
		dataPath.EXPECT().LinkReady(gomock.Any(), gomock.Any(), gomock.Any())

		Expect(engine.Run()).To(Succeed())

		closed := -1
		selected := -1
		for i, p := range hooks.positions {
			switch p {
			case HookPosSisoCompleted:
				closed = i
			case HookPosCandidatesSelected:
				selected = i
			}
		}
		Expect(closed).To(BeNumerically(">=", 0))
		Expect(closed).To(BeNumerically("<", selected))

		r := hooks.items[closed].(SisoResultRecord)
		Expect(r.Link).To(Equal(forward))
		Expect(r.TraceIdx).To(Equal(0))
		Expect(r.Matrix.Len()).To(Equal(16))

		v, ok := r.Matrix.Value(
			feedback.Key{TxAntenna: 1, RxAntenna: 2, TxSector: 2})
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(100.0))
	})

	It("should not report a SISO window that fails to close", func() {
		hooks := &hookRecorder{}
		c.AcceptHook(hooks)
		siso.skip = true

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)

		Expect(engine.Run()).To(Succeed())
		Expect(hooks.itemsAt(HookPosSisoCompleted)).To(BeEmpty())
	})

	It("should attribute SISO samples to their sub-beam", func() {
		cfg.SubBeamCount = 2
		build()

		hooks := &hookRecorder{}
		c.AcceptHook(hooks)

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(func(now sim.VTimeInSec, req SisoRequest) {
				Expect(req.SubBeams).To(Equal(2))
				siso.start(now, req)
			})
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)
		dataPath.EXPECT().LinkReady(gomock.Any(), gomock.Any(), gomock.Any())

		Expect(engine.Run()).To(Succeed())

		key := feedback.Key{TxAntenna: 2, RxAntenna: 1, TxSector: 4}
		var subBeams []int
		for _, item := range hooks.itemsAt(HookPosSisoSample) {
			r := item.(SisoSampleRecord)
			if r.Sample.Key == key {
				subBeams = append(subBeams, r.SubBeam)
			}
		}

		Expect(subBeams).To(Equal([]int{0, 1}))
		Expect(hooks.itemsAt(HookPosSisoSample)).To(HaveLen(32))
	})

	It("should give sweeps the role of their station in the training", func() {
		hooks := &hookRecorder{}
		c.AcceptHook(hooks)

		sweep(1, forward.Reverse(), false)
		sweep(2, forward.Reverse(), true)
		sweep(3, forward, false)

		Expect(engine.Run()).To(Succeed())

		var roles []link.Role
		for _, item := range hooks.itemsAt(HookPosSectorSweep) {
			roles = append(roles, item.(SectorSweepRecord).Role)
		}

		Expect(roles).To(Equal([]link.Role{
			link.Responder, link.Initiator, link.Responder,
		}))
		Expect(stateOf().Link).To(Equal(forward.Reverse()))
	})

	It("should log virtual time without clashing with the entry time", func() {
		logger, logs := test.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)

		c = MakeBuilder().
			WithEngine(engine).
			WithSounder(sounder).
			WithDataPath(dataPath).
			WithCodebooks(registry).
			WithConfig(cfg).
			WithLogger(logger).
			Build("Coordinator")

		sweep(1, forward, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)
		dataPath.EXPECT().LinkReady(gomock.Any(), gomock.Any(), gomock.Any())

		Expect(engine.Run()).To(Succeed())

		Expect(logs.Entries).NotTo(BeEmpty())
		for _, entry := range logs.AllEntries() {
			Expect(entry.Data).To(HaveKey("vtime"))
			Expect(entry.Data).NotTo(HaveKey("time"))

			line, err := entry.String()
			Expect(err).NotTo(HaveOccurred())
			Expect(line).NotTo(ContainSubstring("fields."))
		}

		Expect(logs.LastEntry().Message).To(Equal("SU-MIMO training completed"))
	})

	It("should resolve AWVs through the registry", func() {
		book, err := c.stationBook(2, codebook.Rx)
		Expect(err).NotTo(HaveOccurred())

		loc, err := book.Resolve(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(loc.Antenna).To(Equal(codebook.AntennaID(2)))
		Expect(loc.Sector).To(Equal(codebook.SectorID(2)))

		_, err = book.Resolve(8)
		Expect(errors.Is(err, codebook.ErrMalformedAwvID)).To(BeTrue())

		_, err = c.stationBook(9, codebook.Tx)
		Expect(err).To(HaveOccurred())
	})

	It("should run link pairs independently", func() {
		other := link.New(2, 3)
		registry.Register(3, codebook.NewUniform(2, 4, 1), nil)

		sweep(1, forward, true)
		sweep(1, other, true)
		sweep(2, forward.Reverse(), true)

		sounder.EXPECT().
			StartSisoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(siso.start)
		sounder.EXPECT().
			StartMimoSounding(gomock.Any(), gomock.Any()).
			DoAndReturn(mimoSound.start)
		dataPath.EXPECT().LinkReady(gomock.Any(), forward, gomock.Any())

		Expect(engine.Run()).To(Succeed())

		links := c.Links()
		Expect(links).To(HaveLen(2))
		Expect(links[0].Pair).To(Equal(pair))
		Expect(links[0].State).To(Equal(Completed))
		Expect(links[1].Pair).To(Equal(other.Pair()))
		Expect(links[1].State).To(Equal(Idle))
	})
})

var _ = Describe("State", func() {
	It("should name states", func() {
		Expect(MimoSounding.String()).To(Equal("MimoSounding"))
		Expect(State(42).String()).To(Equal("State(42)"))
		Expect(CandidateSelection.InFlight()).To(BeTrue())
		Expect(Completed.InFlight()).To(BeFalse())
	})
})
