package coordinator

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/sim"
)

// A Builder can build coordinators.
type Builder struct {
	engine    sim.EventScheduler
	sounder   Sounder
	dataPath  DataPath
	codebooks *codebook.Registry
	cfg       Config
	log       logrus.FieldLogger
}

// MakeBuilder creates a builder with default training parameters.
func MakeBuilder() Builder {
	return Builder{
		cfg: Config{
			K:              4,
			SpatialStreams: 2,
			SubBeamCount:   1,
			SafetyMargin:   0.001,
		},
		log: logrus.StandardLogger(),
	}
}

// WithEngine sets the engine that the coordinator schedules events on.
func (b Builder) WithEngine(engine sim.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithSounder sets the sounding collaborator.
func (b Builder) WithSounder(sounder Sounder) Builder {
	b.sounder = sounder
	return b
}

// WithDataPath sets the component that is told about trained links.
func (b Builder) WithDataPath(dataPath DataPath) Builder {
	b.dataPath = dataPath
	return b
}

// WithCodebooks sets the codebooks of the stations.
func (b Builder) WithCodebooks(codebooks *codebook.Registry) Builder {
	b.codebooks = codebooks
	return b
}

// WithConfig sets the training parameters.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(log logrus.FieldLogger) Builder {
	b.log = log
	return b
}

// Build creates a coordinator.
func (b Builder) Build(name string) *Coordinator {
	switch {
	case b.engine == nil:
		panic("coordinator requires an engine")
	case b.sounder == nil:
		panic("coordinator requires a sounder")
	case b.dataPath == nil:
		panic("coordinator requires a data path")
	case b.codebooks == nil:
		panic("coordinator requires codebooks")
	case b.cfg.SubBeamCount < 1:
		panic("sub-beam count must be at least 1")
	case b.cfg.SpatialStreams < 1:
		panic("spatial streams must be at least 1")
	case b.cfg.SafetyMargin < 0:
		panic("safety margin must not be negative")
	}

	return &Coordinator{
		HookableBase: sim.NewHookableBase(),
		name:         name,
		engine:       b.engine,
		sounder:      b.sounder,
		dataPath:     b.dataPath,
		codebooks:    b.codebooks,
		cfg:          b.cfg,
		log:          b.log.WithField("component", name),
		links:        make(map[link.Pair]*LinkState),
	}
}
