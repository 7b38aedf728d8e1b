// Package tracing records the training exchanges of the coordinator. A trace
// hook turns hook items into flat entries, and a TraceWriter stores them as
// CSV files or into a database.
package tracing

import (
	"github.com/sarchlab/mimobft/codebook"
)

// SlsEntry is one sector sweep outcome. SNR is linear or in dB, depending on
// how the sweep reports it.
type SlsEntry struct {
	SrcID       uint32
	DstID       uint32
	TraceIdx    int
	AntennaID   uint8
	SectorID    uint8
	Role        string
	BssID       uint32
	SNR         float64
	TimestampNs int64
}

// SisoEntry is one SISO feedback sample, or one value of a closed SISO
// window. SubBeam is the steering variant a sample is attributed to. Values
// of a closed window reduce every sub-beam of their key and leave it zero.
type SisoEntry struct {
	SrcID       uint32
	DstID       uint32
	TraceIdx    int
	RxAntennaID uint8
	TxAntennaID uint8
	TxSectorID  uint8
	SubBeam     int
	SnrDB       float64
	TimestampNs int64
}

// Beam is the sector and AWV used on one antenna. Awv is zero for candidate
// sector combinations.
type Beam struct {
	AntennaID uint8
	SectorID  uint8
	Awv       uint32
}

// CandidateEntry is one candidate sector combination of one side.
type CandidateEntry struct {
	SrcID    uint32
	DstID    uint32
	TraceIdx int
	Side     codebook.Direction
	Rank     int
	Beams    []Beam
}

// MimoEntry is the measurement of one joint configuration.
type MimoEntry struct {
	SrcID          uint32
	DstID          uint32
	TraceIdx       int
	TxConfig       uint32
	RxConfig       uint32
	Tx             []Beam
	Rx             []Beam
	SnrDB          []float64
	MinStreamSnrDB float64
}

// AttemptEntry is the outcome of one training attempt.
type AttemptEntry struct {
	SrcID       uint32
	DstID       uint32
	TraceIdx    int
	Outcome     string
	Phase       string
	Reason      string
	TimestampNs int64
}

// A TraceWriter stores trace entries.
type TraceWriter interface {
	Init()
	WriteSls(e SlsEntry)
	WriteSiso(e SisoEntry)
	WriteSisoResult(e SisoEntry)
	WriteCandidate(e CandidateEntry)
	WriteMimo(e MimoEntry)
	WriteAttempt(e AttemptEntry)
	Flush()
}
