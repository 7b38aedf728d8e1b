// Package link identifies the wireless stations and the directed links that
// beamforming training runs on.
package link

import "fmt"

// StationID identifies a wireless station.
type StationID uint32

// Role is the part a station plays in a training exchange.
type Role int

// The roles of a training exchange.
const (
	Initiator Role = iota
	Responder
)

func (r Role) String() string {
	switch r {
	case Initiator:
		return "initiator"
	case Responder:
		return "responder"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// A Link is an ordered pair of stations. It holds identity only, never
// measurement state.
type Link struct {
	Initiator StationID
	Responder StationID
}

// New creates a link from initiator to responder.
func New(initiator, responder StationID) Link {
	return Link{Initiator: initiator, Responder: responder}
}

// Reverse returns the link in the opposite direction.
func (l Link) Reverse() Link {
	return Link{Initiator: l.Responder, Responder: l.Initiator}
}

// Pair returns the unordered pair the link belongs to.
func (l Link) Pair() Pair {
	if l.Initiator <= l.Responder {
		return Pair{A: l.Initiator, B: l.Responder}
	}

	return Pair{A: l.Responder, B: l.Initiator}
}

// RoleOf returns the role s plays on the link.
func (l Link) RoleOf(s StationID) Role {
	if s == l.Initiator {
		return Initiator
	}

	return Responder
}

func (l Link) String() string {
	return fmt.Sprintf("%d->%d", l.Initiator, l.Responder)
}

// A Pair is the unordered pair of stations that both directions of a link
// share. A is always the smaller station ID.
type Pair struct {
	A StationID
	B StationID
}

// Forward returns the link from A to B.
func (p Pair) Forward() Link {
	return Link{Initiator: p.A, Responder: p.B}
}

func (p Pair) String() string {
	return fmt.Sprintf("%d<->%d", p.A, p.B)
}
