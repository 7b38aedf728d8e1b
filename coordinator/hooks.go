package coordinator

import (
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/mimo"
	"github.com/sarchlab/mimobft/selection"
	"github.com/sarchlab/mimobft/sim"
)

// Hook positions invoked by the coordinator.
var (
	HookPosSectorSweep        = &sim.HookPos{Name: "SectorSweep"}
	HookPosAttemptStarted     = &sim.HookPos{Name: "AttemptStarted"}
	HookPosSisoSample         = &sim.HookPos{Name: "SisoSample"}
	HookPosSisoCompleted      = &sim.HookPos{Name: "SisoCompleted"}
	HookPosCandidatesSelected = &sim.HookPos{Name: "CandidatesSelected"}
	HookPosMimoMeasured       = &sim.HookPos{Name: "MimoMeasured"}
	HookPosAttemptCompleted   = &sim.HookPos{Name: "AttemptCompleted"}
	HookPosAttemptAborted     = &sim.HookPos{Name: "AttemptAborted"}
)

// SectorSweepRecord is the hook item of HookPosSectorSweep. TraceIdx counts
// the sweeps of the link pair from zero. Role is the part the sweeping
// station plays in the training of the pair.
type SectorSweepRecord struct {
	TraceIdx int
	Role     link.Role
	Event    *SectorSweepCompletedEvent
}

// AttemptRecord is the hook item of the attempt lifecycle positions.
type AttemptRecord struct {
	Link     link.Link
	TraceIdx int

	// State is the phase the attempt was in when it ended.
	State State
	Err   error

	Selection *Selection
	Report    []mimo.RankedConfiguration
}

// SisoSampleRecord is the hook item of HookPosSisoSample.
type SisoSampleRecord struct {
	Link     link.Link
	TraceIdx int
	Sample   feedback.Sample
	SubBeam  int
}

// SisoResultRecord is the hook item of HookPosSisoCompleted. Matrix holds
// one reduced value per key of the closed window.
type SisoResultRecord struct {
	Link     link.Link
	TraceIdx int
	Matrix   *feedback.Matrix
}

// CandidatesRecord is the hook item of HookPosCandidatesSelected.
type CandidatesRecord struct {
	Link       link.Link
	TraceIdx   int
	Candidates selection.Candidates
}

// MeasurementRecord is the hook item of HookPosMimoMeasured. Records come in
// descending order of the minimum stream SNR, so the first one is the
// selected configuration.
type MeasurementRecord struct {
	Link        link.Link
	TraceIdx    int
	Measurement mimo.Measurement
}
