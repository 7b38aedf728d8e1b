package coordinator

import (
	"fmt"
	"sort"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/mimo"
	"github.com/sarchlab/mimobft/selection"
	"github.com/sarchlab/mimobft/sim"
)

// State is the phase a link pair is in.
type State int

// The phases of SU-MIMO beamforming training.
const (
	Idle State = iota
	SisoSounding
	CandidateSelection
	MimoSounding
	Completed
)

var stateNames = map[State]string{
	Idle:               "Idle",
	SisoSounding:       "SisoSounding",
	CandidateSelection: "CandidateSelection",
	MimoSounding:       "MimoSounding",
	Completed:          "Completed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// InFlight tells whether an attempt is running in this state.
func (s State) InFlight() bool {
	return s != Idle && s != Completed
}

// Selection is the operating configuration chosen for a link.
type Selection struct {
	Config mimo.RankedConfiguration
	Tx     mimo.Combination
	Rx     mimo.Combination
}

// LinkState is everything the coordinator knows about one link pair. It is
// only touched by the coordinator's event handlers.
type LinkState struct {
	Pair  link.Pair
	Link  link.Link
	State State

	NumSectorSweeps    int
	SecondBeamformedAt sim.VTimeInSec
	Attempts           int
	Aborts             int
	LastError          error
	Selected           *Selection

	beamformed map[link.Link]bool
	armPending bool
	attempt    *attempt
}

func newLinkState(pair link.Pair) *LinkState {
	return &LinkState{
		Pair:       pair,
		beamformed: make(map[link.Link]bool),
	}
}

// BeamformedDirections returns how many directions of the pair completed a
// qualifying sector sweep.
func (s *LinkState) BeamformedDirections() int {
	return len(s.beamformed)
}

// ArmPending tells whether an arm event is scheduled.
func (s *LinkState) ArmPending() bool {
	return s.armPending
}

// trainingLink is the direction the pair trains on. Until a direction has
// beamformed, it is the direction from the smaller station ID.
func (s *LinkState) trainingLink() link.Link {
	if s.Link == (link.Link{}) {
		return s.Pair.Forward()
	}

	return s.Link
}

// attempt owns the measurement state of one training attempt. It moves from
// phase to phase and is dropped when the attempt completes or aborts.
type attempt struct {
	index int
	link  link.Link
	numTx int
	numRx int

	txBook stationBook
	rxBook stationBook

	aggregator *feedback.Aggregator
	matrix     *feedback.Matrix
	candidates selection.Candidates
	evaluator  *mimo.Evaluator
}

func (a *attempt) requestedKeys() []feedback.Key {
	keys := make([]feedback.Key, 0)

	for t := 1; t <= a.numTx; t++ {
		for r := 1; r <= a.numRx; r++ {
			for _, s := range a.txBook.Sectors() {
				keys = append(keys, feedback.Key{
					TxAntenna: codebook.AntennaID(t),
					RxAntenna: codebook.AntennaID(r),
					TxSector:  s,
				})
			}
		}
	}

	return keys
}

// stationBook is the codebook a station uses in one direction. AWVs are
// resolved through the registry, so a combination only steers with beams the
// station registered.
type stationBook struct {
	*codebook.Codebook

	registry *codebook.Registry
	station  link.StationID
	dir      codebook.Direction
}

func (b stationBook) Resolve(awv codebook.AwvID) (codebook.Location, error) {
	return b.registry.ResolveAwv(awv, b.station, b.dir)
}

func antennaRange(n int) []codebook.AntennaID {
	ids := make([]codebook.AntennaID, n)
	for i := range ids {
		ids[i] = codebook.AntennaID(i + 1)
	}

	return ids
}

func sortedStates(m map[link.Pair]*LinkState) []*LinkState {
	states := make([]*LinkState, 0, len(m))
	for _, s := range m {
		states = append(states, s)
	}

	sort.Slice(states, func(i, j int) bool {
		if states[i].Pair.A != states[j].Pair.A {
			return states[i].Pair.A < states[j].Pair.A
		}

		return states[i].Pair.B < states[j].Pair.B
	})

	return states
}
