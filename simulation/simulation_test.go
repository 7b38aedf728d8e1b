package simulation

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/config"
	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/sounding"
	"github.com/sarchlab/mimobft/tracing"
)

func scenario() *config.Config {
	cfg := config.Default()
	cfg.Stations = []config.Station{
		{ID: 1, Tx: config.Codebook{Antennas: 2, Sectors: 4, AwvsPerSector: 1}},
		{ID: 2, Tx: config.Codebook{Antennas: 2, Sectors: 4, AwvsPerSector: 1}},
	}
	cfg.Links = []config.Link{
		{
			Initiator: 1,
			Responder: 2,
			BssID:     3,
			Sweeps: []config.Sweep{
				{Time: 0.001, Beamformed: true},
				{Time: 0.002, Reverse: true, Beamformed: true},
			},
		},
	}

	return &cfg
}

func readTrace(path string) [][]string {
	file, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	Expect(err).NotTo(HaveOccurred())

	return rows
}

func mustParse(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	Expect(err).NotTo(HaveOccurred())

	return v
}

var _ = Describe("Simulation", func() {
	var (
		cfg        *config.Config
		simulation *Simulation
	)

	BeforeEach(func() {
		cfg = scenario()
		cfg.Trace.Dir = GinkgoT().TempDir()
	})

	AfterEach(func() {
		if simulation != nil {
			Expect(simulation.Terminate()).To(Succeed())
			simulation = nil
		}
	})

	build := func(b Builder) {
		var err error
		simulation, err = b.WithConfig(cfg).Build()
		Expect(err).NotTo(HaveOccurred())
	}

	It("should train a link pair swept in both directions", func() {
		build(MakeBuilder())

		Expect(simulation.Run()).To(Succeed())

		results := simulation.Results()
		Expect(results).To(HaveLen(1))

		r := results[0]
		Expect(r.Pair).To(Equal(link.New(1, 2).Pair()))
		Expect(r.State).To(Equal(coordinator.Completed))
		Expect(r.Attempts).To(Equal(1))
		Expect(r.Err).NotTo(HaveOccurred())
		Expect(r.Selection).NotTo(BeNil())
		Expect(r.Ready).NotTo(BeNil())
		Expect(r.Ready.Link).To(Equal(link.New(1, 2)))
		Expect(float64(r.Ready.Time)).To(BeNumerically(">=", 0.003-1e-9))
		Expect(r.Ready.Selection).To(Equal(*r.Selection))

		Expect(simulation.GetResponder().NumSisoFrames()).To(Equal(16))
		Expect(simulation.GetResponder().NumMimoFrames()).To(BeNumerically(">", 0))
		Expect(simulation.GetDataPath().Len()).To(Equal(1))
		Expect(simulation.GetEngine().HandlerErrors()).To(Equal(0))
	})

	It("should be reproducible for the same seed", func() {
		build(MakeBuilder())
		Expect(simulation.Run()).To(Succeed())
		first := simulation.Results()[0].Selection.Config
		Expect(simulation.Terminate()).To(Succeed())

		build(MakeBuilder())
		Expect(simulation.Run()).To(Succeed())
		second := simulation.Results()[0].Selection.Config

		Expect(second).To(Equal(first))
	})

	It("should not train a pair swept in one direction", func() {
		cfg.Links[0].Sweeps = cfg.Links[0].Sweeps[:1]
		build(MakeBuilder())

		Expect(simulation.Run()).To(Succeed())

		r := simulation.Results()[0]
		Expect(r.State).To(Equal(coordinator.Idle))
		Expect(r.Attempts).To(Equal(0))
		Expect(r.Ready).To(BeNil())
	})

	It("should report a pair that was never swept as idle", func() {
		cfg.Links[0].Sweeps = nil
		build(MakeBuilder())

		Expect(simulation.Run()).To(Succeed())

		r := simulation.Results()[0]
		Expect(r.State).To(Equal(coordinator.Idle))
		Expect(r.Selection).To(BeNil())
	})

	It("should abort when the peer never answers", func() {
		build(MakeBuilder().WithTable(sounding.NewStaticTable()))

		Expect(simulation.Run()).To(Succeed())

		r := simulation.Results()[0]
		Expect(r.State).To(Equal(coordinator.Idle))
		Expect(r.Aborts).To(Equal(1))
		Expect(r.Err).To(MatchError(feedback.ErrEmptyMatrix))
		Expect(r.Ready).To(BeNil())
	})

	It("should write CSV traces", func() {
		cfg.Trace.Format = config.TraceCSV
		build(MakeBuilder().WithOutputPrefix("run"))

		Expect(simulation.Run()).To(Succeed())
		Expect(simulation.Terminate()).To(Succeed())

		prefix := filepath.Join(cfg.Trace.Dir, "run")
		Expect(simulation.OutputPath()).To(Equal(prefix))

		for _, trace := range []string{
			tracing.SlsTrace,
			tracing.SisoTrace,
			tracing.SisoResultTrace,
			tracing.TxCandidatesTrace,
			tracing.MimoTrace,
			tracing.AttemptTrace,
		} {
			Expect(prefix + "_" + trace + ".csv").To(BeAnExistingFile())
		}

		sls := readTrace(prefix + "_" + tracing.SlsTrace + ".csv")
		Expect(sls).To(HaveLen(3))
		Expect(sls[1][5]).To(Equal("initiator"))
		Expect(sls[2][5]).To(Equal("responder"))

		mimoRows := readTrace(prefix + "_" + tracing.MimoTrace + ".csv")
		Expect(len(mimoRows)).To(BeNumerically(">", 2))
		last := len(mimoRows[0]) - 1
		Expect(mimoRows[0][last]).To(Equal("min_stream_snr_db"))

		for i := 2; i < len(mimoRows); i++ {
			Expect(mustParse(mimoRows[i][last])).To(
				BeNumerically("<=", mustParse(mimoRows[i-1][last])))
		}

		simulation = nil
	})

	It("should record traces into SQLite", func() {
		cfg.Trace.Format = config.TraceSQLite
		cfg.Trace.Prefix = "recording"
		build(MakeBuilder())

		Expect(simulation.GetDataRecorder()).NotTo(BeNil())
		Expect(simulation.GetDataRecorder().ListTables()).To(
			ContainElement(tracing.AttemptTable))

		Expect(simulation.Run()).To(Succeed())
		Expect(simulation.Terminate()).To(Succeed())

		path := filepath.Join(cfg.Trace.Dir, "recording.sqlite3")
		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size()).To(BeNumerically(">", 0))

		simulation = nil
	})

	It("should start the monitor when the scenario enables it", func() {
		cfg.Monitor.Enabled = true
		build(MakeBuilder())

		Expect(simulation.GetMonitor()).NotTo(BeNil())
		Expect(simulation.MonitorURL()).To(HavePrefix("http://localhost:"))
	})

	It("should not start the monitor when disabled by the builder", func() {
		cfg.Monitor.Enabled = true
		build(MakeBuilder().WithoutMonitoring())

		Expect(simulation.GetMonitor()).To(BeNil())
		Expect(simulation.MonitorURL()).To(BeEmpty())
	})

	It("should reject a monitor port without monitoring", func() {
		_, err := MakeBuilder().
			WithConfig(cfg).
			WithoutMonitoring().
			WithMonitorPort(8080).
			Build()

		Expect(err).To(HaveOccurred())
	})

	It("should reject a missing configuration", func() {
		_, err := MakeBuilder().Build()

		Expect(err).To(HaveOccurred())
	})

	It("should reject an invalid configuration", func() {
		cfg.BFT.K = 0

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ReadyTable", func() {
	It("should keep the latest selection per pair in first-ready order", func() {
		t := NewReadyTable(logrus.StandardLogger())

		first := coordinator.Selection{}
		first.Config.MinStreamSNR = 1
		second := coordinator.Selection{}
		second.Config.MinStreamSNR = 2

		t.LinkReady(1, link.New(3, 4), first)
		t.LinkReady(2, link.New(1, 2), first)
		t.LinkReady(3, link.New(4, 3), second)

		Expect(t.Len()).To(Equal(2))

		list := t.List()
		Expect(list[0].Link).To(Equal(link.New(4, 3)))
		Expect(list[0].Selection).To(Equal(second))
		Expect(list[1].Link).To(Equal(link.New(1, 2)))

		_, ok := t.Get(link.New(5, 6).Pair())
		Expect(ok).To(BeFalse())
	})
})
