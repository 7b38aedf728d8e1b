package codebook

import (
	"fmt"

	"github.com/sarchlab/mimobft/link"
)

type stationBooks struct {
	tx *Codebook
	rx *Codebook
}

// A Registry holds the transmit and receive codebooks of every station.
type Registry struct {
	books map[link.StationID]stationBooks
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{books: make(map[link.StationID]stationBooks)}
}

// Register sets the codebooks of a station. A nil rx codebook means the
// station receives with its transmit codebook.
func (r *Registry) Register(station link.StationID, tx, rx *Codebook) {
	if tx == nil {
		panic("transmit codebook must not be nil")
	}

	if rx == nil {
		rx = tx
	}

	r.books[station] = stationBooks{tx: tx, rx: rx}
}

// Lookup returns the codebook a station uses in a direction.
func (r *Registry) Lookup(
	station link.StationID,
	dir Direction,
) (*Codebook, error) {
	b, ok := r.books[station]
	if !ok {
		return nil, fmt.Errorf("station %d has no codebook", station)
	}

	if dir == Rx {
		return b.rx, nil
	}

	return b.tx, nil
}

// ResolveAwv looks up an AWV of the given station in the given direction.
func (r *Registry) ResolveAwv(
	awv AwvID,
	peer link.StationID,
	dir Direction,
) (Location, error) {
	book, err := r.Lookup(peer, dir)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrMalformedAwvID, err)
	}

	return book.Resolve(awv)
}
