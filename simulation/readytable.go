package simulation

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/mimobft/coordinator"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/sim"
)

// A ReadyLink is a link whose data path runs on the trained configuration.
type ReadyLink struct {
	Link      link.Link
	Time      sim.VTimeInSec
	Selection coordinator.Selection
}

// A ReadyTable is the data path of a simulation. It keeps the last
// configuration handed over for every pair.
type ReadyTable struct {
	log   logrus.FieldLogger
	links map[link.Pair]ReadyLink
	order []link.Pair
}

// NewReadyTable creates an empty ReadyTable.
func NewReadyTable(log logrus.FieldLogger) *ReadyTable {
	return &ReadyTable{
		log:   log,
		links: make(map[link.Pair]ReadyLink),
	}
}

// LinkReady records that l switched to the selected configuration.
func (t *ReadyTable) LinkReady(
	now sim.VTimeInSec,
	l link.Link,
	selected coordinator.Selection,
) {
	pair := l.Pair()
	if _, ok := t.links[pair]; !ok {
		t.order = append(t.order, pair)
	}

	t.links[pair] = ReadyLink{Link: l, Time: now, Selection: selected}

	t.log.WithFields(logrus.Fields{
		"link":    l.String(),
		"vtime":   float64(now),
		"tx_awv":  selected.Config.TxAwv,
		"rx_awv":  selected.Config.RxAwv,
		"min_snr": selected.Config.MinStreamSNR,
	}).Debug("data path switched")
}

// Get returns the ready link of a pair.
func (t *ReadyTable) Get(pair link.Pair) (ReadyLink, bool) {
	r, ok := t.links[pair]
	return r, ok
}

// List returns the ready links in the order they first became ready.
func (t *ReadyTable) List() []ReadyLink {
	list := make([]ReadyLink, 0, len(t.order))
	for _, p := range t.order {
		list = append(list, t.links[p])
	}

	return list
}

// Len returns the number of ready pairs.
func (t *ReadyTable) Len() int {
	return len(t.order)
}
