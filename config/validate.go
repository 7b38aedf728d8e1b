package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/link"
)

// Validate checks that the configuration describes a runnable scenario.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if err := c.BFT.validate(); err != nil {
		return err
	}

	stations, err := c.validateStations()
	if err != nil {
		return err
	}

	if err := c.validateLinks(stations); err != nil {
		return err
	}

	if err := c.Channel.validate(); err != nil {
		return err
	}

	if !traceFormats[c.Trace.Format] {
		return fmt.Errorf("trace.format: unknown format %q; valid: %s",
			c.Trace.Format, keys(traceFormats))
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > math.MaxUint16 {
		return fmt.Errorf("monitor.port: %d is out of range", c.Monitor.Port)
	}

	return nil
}

func keys[V any](m map[string]V) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}

	sort.Strings(names)

	return strings.Join(names, ", ")
}

func (b BFT) validate() error {
	switch {
	case b.K < 1:
		return fmt.Errorf("bft.k must be at least 1, got %d", b.K)
	case b.TxCombinations < 0:
		return fmt.Errorf("bft.tx_combinations must not be negative, got %d",
			b.TxCombinations)
	case b.AwvsPerSector < 0:
		return fmt.Errorf("bft.awvs_per_sector must not be negative, got %d",
			b.AwvsPerSector)
	case b.SpatialStreams < 1:
		return fmt.Errorf("bft.spatial_streams must be at least 1, got %d",
			b.SpatialStreams)
	case b.SubBeamCount < 1:
		return fmt.Errorf("bft.sub_beam_count must be at least 1, got %d",
			b.SubBeamCount)
	case b.SafetyMargin < 0 || math.IsNaN(b.SafetyMargin):
		return fmt.Errorf("bft.safety_margin must not be negative, got %g",
			b.SafetyMargin)
	}

	if _, ok := reducers[b.Reducer]; !ok {
		return fmt.Errorf("bft.reducer: unknown reducer %q; valid: %s",
			b.Reducer, keys(reducers))
	}

	return nil
}

func (cb Codebook) validate(prefix string) error {
	switch {
	case cb.Antennas < 1 || cb.Antennas > math.MaxUint8:
		return fmt.Errorf("%s.antennas must be in [1, 255], got %d",
			prefix, cb.Antennas)
	case cb.Sectors < 1 || cb.Sectors > math.MaxUint8:
		return fmt.Errorf("%s.sectors must be in [1, 255], got %d",
			prefix, cb.Sectors)
	case cb.AwvsPerSector < 1:
		return fmt.Errorf("%s.awvs_per_sector must be at least 1, got %d",
			prefix, cb.AwvsPerSector)
	}

	return nil
}

func (c *Config) validateStations() (map[link.StationID]bool, error) {
	if len(c.Stations) == 0 {
		return nil, fmt.Errorf("no station found in configuration")
	}

	seen := make(map[link.StationID]bool)

	for i, s := range c.Stations {
		prefix := fmt.Sprintf("stations[%d]", i)

		if seen[s.ID] {
			return nil, fmt.Errorf("%s: duplicated station id %d", prefix, s.ID)
		}

		seen[s.ID] = true

		if err := s.Tx.validate(prefix + ".tx"); err != nil {
			return nil, err
		}

		if s.Rx != nil {
			if err := s.Rx.validate(prefix + ".rx"); err != nil {
				return nil, err
			}
		}
	}

	return seen, nil
}

func (c *Config) validateLinks(stations map[link.StationID]bool) error {
	pairs := make(map[link.Pair]bool)

	for i, l := range c.Links {
		prefix := fmt.Sprintf("links[%d]", i)

		switch {
		case !stations[l.Initiator]:
			return fmt.Errorf("%s: unknown initiator %d", prefix, l.Initiator)
		case !stations[l.Responder]:
			return fmt.Errorf("%s: unknown responder %d", prefix, l.Responder)
		case l.Initiator == l.Responder:
			return fmt.Errorf("%s: a station cannot link to itself", prefix)
		}

		pair := link.New(l.Initiator, l.Responder).Pair()
		if pairs[pair] {
			return fmt.Errorf("%s: duplicated link pair %s", prefix, pair)
		}

		pairs[pair] = true

		for j, s := range l.Sweeps {
			if s.Time < 0 || math.IsNaN(s.Time) {
				return fmt.Errorf("%s.sweeps[%d]: time must not be negative, got %g",
					prefix, j, s.Time)
			}
		}
	}

	return nil
}

func (ch Channel) validate() error {
	switch {
	case ch.MaxDB < ch.MinDB:
		return fmt.Errorf("channel.max_db %g is below channel.min_db %g",
			ch.MaxDB, ch.MinDB)
	case ch.SampleAirtime <= 0:
		return fmt.Errorf("channel.sample_airtime must be positive, got %g",
			ch.SampleAirtime)
	case ch.MeasurementAirtime <= 0:
		return fmt.Errorf("channel.measurement_airtime must be positive, got %g",
			ch.MeasurementAirtime)
	}

	return nil
}
