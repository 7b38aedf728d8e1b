// Package config loads the scenario of a training run from YAML and lets
// environment variables override where the outputs go.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/sim"
)

// Environment variables that override the configuration file.
const (
	EnvTraceDir    = "MIMOBFT_TRACE_DIR"
	EnvTraceFormat = "MIMOBFT_TRACE_FORMAT"
	EnvLogLevel    = "MIMOBFT_LOG_LEVEL"
	EnvMonitorPort = "MIMOBFT_MONITOR_PORT"
)

// Trace formats.
const (
	TraceNone   = "none"
	TraceCSV    = "csv"
	TraceSQLite = "sqlite"
)

// BFT holds the training parameters.
type BFT struct {
	K              int     `yaml:"k"`
	TxCombinations int     `yaml:"tx_combinations"`
	ExpandAwvs     bool    `yaml:"expand_awvs"`
	AwvsPerSector  int     `yaml:"awvs_per_sector"`
	SpatialStreams int     `yaml:"spatial_streams"`
	SubBeamCount   int     `yaml:"sub_beam_count"`
	SafetyMargin   float64 `yaml:"safety_margin"`
	Reducer        string  `yaml:"reducer"`
}

// Codebook is the shape of a uniform codebook.
type Codebook struct {
	Antennas      int `yaml:"antennas"`
	Sectors       int `yaml:"sectors"`
	AwvsPerSector int `yaml:"awvs_per_sector"`
}

// Station is a wireless station and its codebooks. A station without a
// receive codebook receives with its transmit codebook.
type Station struct {
	ID link.StationID `yaml:"id"`
	Tx Codebook       `yaml:"tx"`
	Rx *Codebook      `yaml:"rx"`
}

// Sweep is one sector sweep of a link. Reverse sweeps run from the responder
// to the initiator.
type Sweep struct {
	Time       float64 `yaml:"time"`
	Reverse    bool    `yaml:"reverse"`
	Beamformed bool    `yaml:"beamformed"`
}

// Link is a link pair and the sweeps that run on it.
type Link struct {
	Initiator link.StationID `yaml:"initiator"`
	Responder link.StationID `yaml:"responder"`
	BssID     uint32         `yaml:"bss_id"`
	Sweeps    []Sweep        `yaml:"sweeps"`
}

// Channel configures the replayed measurements.
type Channel struct {
	Seed               uint64  `yaml:"seed"`
	MinDB              float64 `yaml:"min_db"`
	MaxDB              float64 `yaml:"max_db"`
	SampleAirtime      float64 `yaml:"sample_airtime"`
	MeasurementAirtime float64 `yaml:"measurement_airtime"`
	SweepSNRInDB       bool    `yaml:"sweep_snr_in_db"`
}

// Trace configures where the traces go.
type Trace struct {
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// Monitor configures the monitoring server.
type Monitor struct {
	Enabled     bool `yaml:"enabled"`
	Port        int  `yaml:"port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// Config is the scenario of a training run.
type Config struct {
	LogLevel string    `yaml:"log_level"`
	BFT      BFT       `yaml:"bft"`
	Stations []Station `yaml:"stations"`
	Links    []Link    `yaml:"links"`
	Channel  Channel   `yaml:"channel"`
	Trace    Trace     `yaml:"trace"`
	Monitor  Monitor   `yaml:"monitor"`
}

// Default returns the configuration that a file overrides.
func Default() Config {
	return Config{
		LogLevel: "info",
		BFT: BFT{
			K:              4,
			SpatialStreams: 2,
			SubBeamCount:   1,
			SafetyMargin:   0.001,
			Reducer:        "max",
		},
		Channel: Channel{
			Seed:               1,
			MinDB:              0,
			MaxDB:              30,
			SampleAirtime:      1e-6,
			MeasurementAirtime: 1e-5,
		},
		Trace: Trace{Format: TraceNone},
	}
}

// Parse decodes a configuration. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err := decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// Load reads and decodes a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file '%s': %w", path, err)
	}

	return Parse(data)
}

// LoadEnvFiles loads the given dotenv files into the environment. Files that
// do not exist are skipped. Variables already set are kept.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading env file '%s': %w", f, err)
		}
	}

	return nil
}

// ApplyEnv overrides the configuration with the environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvTraceDir); ok {
		c.Trace.Dir = v
	}

	if v, ok := os.LookupEnv(EnvTraceFormat); ok {
		c.Trace.Format = v
	}

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}

	if v, ok := os.LookupEnv(EnvMonitorPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}

		c.Monitor.Enabled = true
		c.Monitor.Port = port
	}

	return nil
}

var reducers = map[string]feedback.Reducer{
	"max":  feedback.ReduceMax,
	"mean": feedback.ReduceMean,
	"last": feedback.ReduceLast,
}

var traceFormats = map[string]bool{
	TraceNone:   true,
	TraceCSV:    true,
	TraceSQLite: true,
}

// Coordinator returns the training parameters of the coordinator.
func (c *Config) Coordinator() coordinator.Config {
	return coordinator.Config{
		K:              c.BFT.K,
		TxCombinations: c.BFT.TxCombinations,
		ExpandAwvs:     c.BFT.ExpandAwvs,
		AwvsPerSector:  c.BFT.AwvsPerSector,
		SpatialStreams: c.BFT.SpatialStreams,
		SubBeamCount:   c.BFT.SubBeamCount,
		SafetyMargin:   sim.VTimeInSec(c.BFT.SafetyMargin),
		Reducer:        reducers[c.BFT.Reducer],
	}
}

// Codebooks builds the codebook registry of the stations.
func (c *Config) Codebooks() *codebook.Registry {
	r := codebook.NewRegistry()

	for _, s := range c.Stations {
		tx := codebook.NewUniform(s.Tx.Antennas, s.Tx.Sectors, s.Tx.AwvsPerSector)

		var rx *codebook.Codebook
		if s.Rx != nil {
			rx = codebook.NewUniform(
				s.Rx.Antennas, s.Rx.Sectors, s.Rx.AwvsPerSector)
		}

		r.Register(s.ID, tx, rx)
	}

	return r
}
