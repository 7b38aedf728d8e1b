// Package codebook describes the steering configurations available on a
// station: antennas (RF chains), the sectors of each antenna, and the antenna
// weight vectors (AWVs) that refine each sector.
package codebook

import (
	"errors"
	"fmt"
)

// AntennaID identifies an antenna of a station, starting from 1.
type AntennaID uint8

// SectorID identifies a sector of an antenna, starting from 1.
type SectorID uint8

// AwvID is the flat index of an AWV within a codebook.
type AwvID uint32

// Direction selects the transmit or the receive codebook of a station.
type Direction int

// Codebook directions.
const (
	Tx Direction = iota
	Rx
)

func (d Direction) String() string {
	if d == Rx {
		return "rx"
	}

	return "tx"
}

// ErrMalformedAwvID is returned when an AWV lookup is out of range.
var ErrMalformedAwvID = errors.New("malformed AWV id")

// Location is the position of an AWV in a codebook. SubBeam 0 is the sector's
// own beam.
type Location struct {
	Antenna AntennaID
	Sector  SectorID
	SubBeam int
}

// A Codebook where every antenna has the same number of sectors and every
// sector the same number of AWVs.
type Codebook struct {
	numAntennas   int
	numSectors    int
	awvsPerSector int
}

// NewUniform creates a uniform codebook.
func NewUniform(numAntennas, numSectors, awvsPerSector int) *Codebook {
	if numAntennas < 1 || numAntennas > 255 {
		panic(fmt.Sprintf("invalid number of antennas %d", numAntennas))
	}

	if numSectors < 1 || numSectors > 255 {
		panic(fmt.Sprintf("invalid number of sectors %d", numSectors))
	}

	if awvsPerSector < 1 {
		panic(fmt.Sprintf("invalid number of AWVs per sector %d", awvsPerSector))
	}

	return &Codebook{
		numAntennas:   numAntennas,
		numSectors:    numSectors,
		awvsPerSector: awvsPerSector,
	}
}

// NumAntennas returns the number of antennas.
func (c *Codebook) NumAntennas() int {
	return c.numAntennas
}

// NumSectors returns the number of sectors per antenna.
func (c *Codebook) NumSectors() int {
	return c.numSectors
}

// AwvsPerSector returns the number of AWVs that refine one sector.
func (c *Codebook) AwvsPerSector() int {
	return c.awvsPerSector
}

// Antennas lists the antenna IDs in ascending order.
func (c *Codebook) Antennas() []AntennaID {
	ids := make([]AntennaID, c.numAntennas)
	for i := range ids {
		ids[i] = AntennaID(i + 1)
	}

	return ids
}

// Sectors lists the sector IDs of one antenna in ascending order.
func (c *Codebook) Sectors() []SectorID {
	ids := make([]SectorID, c.numSectors)
	for i := range ids {
		ids[i] = SectorID(i + 1)
	}

	return ids
}

// Awv returns the ID of a sub-beam of a sector.
func (c *Codebook) Awv(
	antenna AntennaID,
	sector SectorID,
	subBeam int,
) (AwvID, error) {
	if antenna < 1 || int(antenna) > c.numAntennas ||
		sector < 1 || int(sector) > c.numSectors ||
		subBeam < 0 || subBeam >= c.awvsPerSector {
		return 0, fmt.Errorf(
			"%w: antenna %d sector %d sub-beam %d",
			ErrMalformedAwvID, antenna, sector, subBeam)
	}

	flat := (int(antenna)-1)*c.numSectors + int(sector) - 1
	flat = flat*c.awvsPerSector + subBeam

	return AwvID(flat), nil
}

// AwvsOf lists all the AWVs of a sector, the sector's own beam first.
func (c *Codebook) AwvsOf(antenna AntennaID, sector SectorID) ([]AwvID, error) {
	awvs := make([]AwvID, 0, c.awvsPerSector)

	for v := 0; v < c.awvsPerSector; v++ {
		awv, err := c.Awv(antenna, sector, v)
		if err != nil {
			return nil, err
		}

		awvs = append(awvs, awv)
	}

	return awvs, nil
}

// Resolve returns where an AWV sits in the codebook.
func (c *Codebook) Resolve(awv AwvID) (Location, error) {
	total := c.numAntennas * c.numSectors * c.awvsPerSector
	if int(awv) >= total {
		return Location{}, fmt.Errorf(
			"%w: %d is beyond the %d AWVs of the codebook",
			ErrMalformedAwvID, awv, total)
	}

	subBeam := int(awv) % c.awvsPerSector
	sectorIdx := int(awv) / c.awvsPerSector

	return Location{
		Antenna: AntennaID(sectorIdx/c.numSectors + 1),
		Sector:  SectorID(sectorIdx%c.numSectors + 1),
		SubBeam: subBeam,
	}, nil
}
