package simulation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/config"
	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/datarecording"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/monitoring"
	"github.com/sarchlab/mimobft/sim"
	"github.com/sarchlab/mimobft/sounding"
	"github.com/sarchlab/mimobft/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	cfg          *config.Config
	table        sounding.Table
	log          logrus.FieldLogger
	monitorOff   bool
	monitorPort  int
	outputPrefix string
	eventLogging bool
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		log: logrus.StandardLogger(),
	}
}

// WithConfig sets the scenario to simulate.
func (b Builder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

// WithTable replaces the seeded measurement table of the scenario.
func (b Builder) WithTable(table sounding.Table) Builder {
	b.table = table
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(log logrus.FieldLogger) Builder {
	b.log = log
	return b
}

// WithoutMonitoring turns off the monitor even if the scenario enables it.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOff = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputPrefix sets the file prefix of the traces, overriding the one of
// the scenario.
func (b Builder) WithOutputPrefix(prefix string) Builder {
	b.outputPrefix = prefix
	return b
}

// WithEventLogging logs every event at debug level.
func (b Builder) WithEventLogging() Builder {
	b.eventLogging = true
	return b
}

func (b Builder) parametersMustBeValid() error {
	if b.cfg == nil {
		return errors.New("simulation requires a configuration")
	}

	if b.monitorOff && b.monitorPort != 0 {
		return errors.New(
			"monitor port cannot be set when monitoring is disabled")
	}

	return b.cfg.Validate()
}

// Build builds the simulation and schedules the sector sweeps of the
// scenario.
func (b Builder) Build() (*Simulation, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:  xid.New().String(),
		cfg: b.cfg,
		log: b.log,
	}

	s.engine = sim.NewSerialEngine()
	if b.eventLogging {
		s.engine.AcceptHook(sim.NewEventLogger(b.log))
	}

	s.codebooks = b.cfg.Codebooks()
	s.table = b.measurementTable()
	s.responder = sounding.NewResponder(
		s.engine,
		s.table,
		sim.VTimeInSec(b.cfg.Channel.SampleAirtime),
		sim.VTimeInSec(b.cfg.Channel.MeasurementAirtime),
	)
	s.dataPath = NewReadyTable(b.log)

	s.coordinator = coordinator.MakeBuilder().
		WithEngine(s.engine).
		WithSounder(s.responder).
		WithDataPath(s.dataPath).
		WithCodebooks(s.codebooks).
		WithConfig(b.cfg.Coordinator()).
		WithLogger(b.log).
		Build("Coordinator")

	s.sweeper = sounding.NewSectorSweeper(
		s.engine, s.table, s.codebooks, s.coordinator)
	s.sweeper.ReportDB = b.cfg.Channel.SweepSNRInDB

	if err := b.buildTracer(s); err != nil {
		return nil, err
	}

	if err := b.buildMonitor(s); err != nil {
		return nil, err
	}

	if err := b.scheduleSweeps(s); err != nil {
		return nil, err
	}

	return s, nil
}

func (b Builder) measurementTable() sounding.Table {
	if b.table != nil {
		return b.table
	}

	t := sounding.NewSeededTable(b.cfg.Channel.Seed)
	t.MinDB = b.cfg.Channel.MinDB
	t.MaxDB = b.cfg.Channel.MaxDB

	return t
}

func (b Builder) outputPath(id string) (string, error) {
	prefix := b.outputPrefix
	if prefix == "" {
		prefix = b.cfg.Trace.Prefix
	}

	if prefix == "" {
		prefix = "mimobft_" + id
	}

	dir := b.cfg.Trace.Dir
	if dir == "" {
		return prefix, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating trace dir '%s': %w", dir, err)
	}

	return filepath.Join(dir, prefix), nil
}

func (b Builder) buildTracer(s *Simulation) error {
	if b.cfg.Trace.Format == config.TraceNone || b.cfg.Trace.Format == "" {
		return nil
	}

	path, err := b.outputPath(s.id)
	if err != nil {
		return err
	}

	switch b.cfg.Trace.Format {
	case config.TraceCSV:
		s.traceWriter = tracing.NewCSVTraceWriter(path)
	case config.TraceSQLite:
		s.dataRecorder = datarecording.New(path)
		s.traceWriter = tracing.NewDBTraceWriter(s.dataRecorder)
	}

	s.outputPath = path
	s.traceWriter.Init()
	tracing.CollectTrace(s.coordinator, s.traceWriter)
	s.engine.RegisterSimulationEndHandler(traceFlusher{w: s.traceWriter})

	return nil
}

func (b Builder) buildMonitor(s *Simulation) error {
	if b.monitorOff || !b.cfg.Monitor.Enabled {
		return nil
	}

	port := b.cfg.Monitor.Port
	if b.monitorPort != 0 {
		port = b.monitorPort
	}

	s.monitor = monitoring.NewMonitor().WithPortNumber(port)
	s.monitor.RegisterEngine(s.engine)
	s.monitor.RegisterCoordinator(s.coordinator, len(b.cfg.Links))

	url, err := s.monitor.StartServer()
	if err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}

	s.monitorURL = url

	return nil
}

func (b Builder) scheduleSweeps(s *Simulation) error {
	for _, l := range b.cfg.Links {
		forward := link.New(l.Initiator, l.Responder)

		for _, sweep := range l.Sweeps {
			dir := forward
			if sweep.Reverse {
				dir = forward.Reverse()
			}

			err := s.sweeper.Sweep(
				sim.VTimeInSec(sweep.Time), dir, l.BssID, sweep.Beamformed)
			if err != nil {
				return fmt.Errorf("scheduling sweep of %s: %w", dir, err)
			}
		}
	}

	return nil
}
