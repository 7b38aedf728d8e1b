package tracing

import (
	"github.com/sarchlab/mimobft/datarecording"
)

type sisoResultRow struct {
	SrcID       uint32
	DstID       uint32
	TraceIdx    int
	RxAntennaID uint8
	TxAntennaID uint8
	TxSectorID  uint8
	SnrDB       float64
	TimestampNs int64
}

type candidateRow struct {
	SrcID     uint32
	DstID     uint32
	TraceIdx  int
	Side      string
	Rank      int
	AntennaID uint8
	SectorID  uint8
}

type mimoStreamRow struct {
	SrcID          uint32
	DstID          uint32
	TraceIdx       int
	TxConfig       uint32
	RxConfig       uint32
	Stream         int
	SnrDB          float64
	MinStreamSnrDB float64
}

type mimoBeamRow struct {
	SrcID     uint32
	DstID     uint32
	TraceIdx  int
	TxConfig  uint32
	RxConfig  uint32
	Side      string
	AntennaID uint8
	SectorID  uint8
	Awv       uint32
}

// Table names of the database trace.
const (
	SlsTable        = "sls"
	SisoTable       = "siso"
	SisoResultTable = "siso_results"
	CandidatesTable = "mimo_candidates"
	MimoTable       = "mimo_streams"
	MimoBeamTable   = "mimo_beams"
	AttemptTable    = "attempts"
)

// DBTraceWriter stores traces into a database. Variable-width rows are
// stored one value per row.
type DBTraceWriter struct {
	backend datarecording.DataRecorder
}

// NewDBTraceWriter creates a DBTraceWriter on top of a data recorder.
func NewDBTraceWriter(backend datarecording.DataRecorder) *DBTraceWriter {
	return &DBTraceWriter{backend: backend}
}

// Init creates the tables.
func (w *DBTraceWriter) Init() {
	w.backend.CreateTable(SlsTable, SlsEntry{})
	w.backend.CreateTable(SisoTable, SisoEntry{})
	w.backend.CreateTable(SisoResultTable, sisoResultRow{})
	w.backend.CreateTable(CandidatesTable, candidateRow{})
	w.backend.CreateTable(MimoTable, mimoStreamRow{})
	w.backend.CreateTable(MimoBeamTable, mimoBeamRow{})
	w.backend.CreateTable(AttemptTable, AttemptEntry{})
}

// WriteSls writes a sector sweep row.
func (w *DBTraceWriter) WriteSls(e SlsEntry) {
	w.backend.InsertData(SlsTable, e)
}

// WriteSiso writes a SISO feedback row.
func (w *DBTraceWriter) WriteSiso(e SisoEntry) {
	w.backend.InsertData(SisoTable, e)
}

// WriteSisoResult writes a row of a closed SISO window.
func (w *DBTraceWriter) WriteSisoResult(e SisoEntry) {
	w.backend.InsertData(SisoResultTable, sisoResultRow{
		SrcID:       e.SrcID,
		DstID:       e.DstID,
		TraceIdx:    e.TraceIdx,
		RxAntennaID: e.RxAntennaID,
		TxAntennaID: e.TxAntennaID,
		TxSectorID:  e.TxSectorID,
		SnrDB:       e.SnrDB,
		TimestampNs: e.TimestampNs,
	})
}

// WriteCandidate writes one row per antenna of the candidate.
func (w *DBTraceWriter) WriteCandidate(e CandidateEntry) {
	for _, b := range e.Beams {
		w.backend.InsertData(CandidatesTable, candidateRow{
			SrcID:     e.SrcID,
			DstID:     e.DstID,
			TraceIdx:  e.TraceIdx,
			Side:      e.Side.String(),
			Rank:      e.Rank,
			AntennaID: b.AntennaID,
			SectorID:  b.SectorID,
		})
	}
}

// WriteMimo writes one row per stream and one row per beam.
func (w *DBTraceWriter) WriteMimo(e MimoEntry) {
	for n, snr := range e.SnrDB {
		w.backend.InsertData(MimoTable, mimoStreamRow{
			SrcID:          e.SrcID,
			DstID:          e.DstID,
			TraceIdx:       e.TraceIdx,
			TxConfig:       e.TxConfig,
			RxConfig:       e.RxConfig,
			Stream:         n,
			SnrDB:          snr,
			MinStreamSnrDB: e.MinStreamSnrDB,
		})
	}

	w.writeBeams(e, "tx", e.Tx)
	w.writeBeams(e, "rx", e.Rx)
}

func (w *DBTraceWriter) writeBeams(e MimoEntry, side string, beams []Beam) {
	for _, b := range beams {
		w.backend.InsertData(MimoBeamTable, mimoBeamRow{
			SrcID:     e.SrcID,
			DstID:     e.DstID,
			TraceIdx:  e.TraceIdx,
			TxConfig:  e.TxConfig,
			RxConfig:  e.RxConfig,
			Side:      side,
			AntennaID: b.AntennaID,
			SectorID:  b.SectorID,
			Awv:       b.Awv,
		})
	}
}

// WriteAttempt writes an attempt outcome row.
func (w *DBTraceWriter) WriteAttempt(e AttemptEntry) {
	w.backend.InsertData(AttemptTable, e)
}

// Flush writes the buffered rows to the database.
func (w *DBTraceWriter) Flush() {
	w.backend.Flush()
}
