// Package simulation wires a training scenario into a runnable simulation.
package simulation

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/config"
	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/datarecording"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/monitoring"
	"github.com/sarchlab/mimobft/sim"
	"github.com/sarchlab/mimobft/sounding"
	"github.com/sarchlab/mimobft/tracing"
)

// A Simulation holds the components of a training scenario.
type Simulation struct {
	id  string
	cfg *config.Config
	log logrus.FieldLogger

	engine      *sim.SerialEngine
	codebooks   *codebook.Registry
	table       sounding.Table
	responder   *sounding.Responder
	sweeper     *sounding.SectorSweeper
	coordinator *coordinator.Coordinator
	dataPath    *ReadyTable

	outputPath   string
	traceWriter  tracing.TraceWriter
	dataRecorder datarecording.DataRecorder

	monitor    *monitoring.Monitor
	monitorURL string
}

// Result is the outcome of the training of one configured link pair.
type Result struct {
	Pair      link.Pair
	State     coordinator.State
	Attempts  int
	Aborts    int
	Err       error
	Selection *coordinator.Selection
	Ready     *ReadyLink
}

// ID returns the ID of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() *sim.SerialEngine {
	return s.engine
}

// GetCoordinator returns the coordinator that trains the links.
func (s *Simulation) GetCoordinator() *coordinator.Coordinator {
	return s.coordinator
}

// GetResponder returns the sounding responder.
func (s *Simulation) GetResponder() *sounding.Responder {
	return s.responder
}

// GetDataPath returns the table of links that completed training.
func (s *Simulation) GetDataPath() *ReadyTable {
	return s.dataPath
}

// GetDataRecorder returns the data recorder used in the simulation. It is nil
// unless traces go to SQLite.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor used in the simulation, or nil.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server, if any.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// OutputPath returns the path prefix of the traces, if any.
func (s *Simulation) OutputPath() string {
	return s.outputPath
}

// Run processes the scenario until no events are left.
func (s *Simulation) Run() error {
	err := s.engine.Run()
	s.engine.Finished()

	if n := s.engine.HandlerErrors(); n > 0 {
		s.log.WithField("count", n).Warn("events failed during the run")
	}

	return err
}

// Results returns the outcome of every configured link pair, in the order of
// the configuration.
func (s *Simulation) Results() []Result {
	results := make([]Result, 0, len(s.cfg.Links))

	for _, l := range s.cfg.Links {
		pair := link.New(l.Initiator, l.Responder).Pair()
		r := Result{Pair: pair}

		if state, ok := s.coordinator.LinkState(pair); ok {
			r.State = state.State
			r.Attempts = state.Attempts
			r.Aborts = state.Aborts
			r.Err = state.LastError
			r.Selection = state.Selected
		}

		if ready, ok := s.dataPath.Get(pair); ok {
			r.Ready = &ready
		}

		results = append(results, r)
	}

	return results
}

// traceFlusher writes the buffered trace rows once the run is over.
type traceFlusher struct {
	w tracing.TraceWriter
}

func (f traceFlusher) Handle(sim.VTimeInSec) {
	f.w.Flush()
}

// Terminate flushes the traces and shuts down the monitor.
func (s *Simulation) Terminate() error {
	var errs []error

	if closer, ok := s.traceWriter.(io.Closer); ok {
		errs = append(errs, closer.Close())
	} else if s.traceWriter != nil {
		s.traceWriter.Flush()
	}

	if s.dataRecorder != nil {
		errs = append(errs, s.dataRecorder.Close())
	}

	if s.monitor != nil {
		errs = append(errs, s.monitor.StopServer())
	}

	return errors.Join(errs...)
}
