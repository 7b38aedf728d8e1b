package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/xid"
	"github.com/sarchlab/mimobft/codebook"
	"github.com/tebeka/atexit"
)

// Names of the trace files.
const (
	SlsTrace          = "sls"
	SisoTrace         = "siso"
	SisoResultTrace   = "siso_results"
	TxCandidatesTrace = "mimo_candidates_tx"
	RxCandidatesTrace = "mimo_candidates_rx"
	MimoTrace         = "mimo"
	AttemptTrace      = "attempts"
)

type csvFile struct {
	path   string
	header []string
	file   *os.File
	w      *csv.Writer
}

// CSVTraceWriter stores each kind of trace in its own CSV file. A file is
// created with its header when its first row is written, as the width of the
// MIMO traces depends on the number of antennas.
type CSVTraceWriter struct {
	prefix     string
	bufferSize int

	files    map[string]*csvFile
	order    []string
	rows     map[string][][]string
	numRows  int
	shutdown bool
}

// NewCSVTraceWriter creates a new CSVTraceWriter. Files are named
// prefix_<trace>.csv.
func NewCSVTraceWriter(prefix string) *CSVTraceWriter {
	return &CSVTraceWriter{
		prefix:     prefix,
		bufferSize: 1000,
		files:      make(map[string]*csvFile),
		rows:       make(map[string][][]string),
	}
}

// Init picks a file prefix if none is given and registers the final flush.
func (t *CSVTraceWriter) Init() {
	if t.prefix == "" {
		t.prefix = "mimobft_trace_" + xid.New().String()
	}

	atexit.Register(func() {
		err := t.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Files returns the paths of the files created so far.
func (t *CSVTraceWriter) Files() []string {
	paths := make([]string, 0, len(t.order))
	for _, name := range t.order {
		paths = append(paths, t.files[name].path)
	}

	return paths
}

// fileFor returns the file that stores rows with the given header. Rows that
// do not fit the header of the first file of a trace go to a file named after
// their width.
func (t *CSVTraceWriter) fileFor(trace string, header []string) string {
	name := trace
	if f, ok := t.files[name]; ok && !sameHeader(f.header, header) {
		name = trace + "_" + strconv.Itoa(len(header))
	}

	if _, ok := t.files[name]; ok {
		return name
	}

	path := t.prefix + "_" + name + ".csv"

	_, err := os.Stat(path)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", path))
	}

	file, err := os.Create(path)
	if err != nil {
		panic(err)
	}

	f := &csvFile{path: path, header: header, file: file, w: csv.NewWriter(file)}
	if err := f.w.Write(header); err != nil {
		panic(err)
	}

	t.files[name] = f
	t.order = append(t.order, name)

	return name
}

func sameHeader(a, b []string) bool {
	return strings.Join(a, ",") == strings.Join(b, ",")
}

func (t *CSVTraceWriter) write(trace string, header, row []string) {
	name := t.fileFor(trace, header)

	t.rows[name] = append(t.rows[name], row)
	t.numRows++

	if t.numRows >= t.bufferSize {
		t.Flush()
	}
}

func uintCol(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func intCol(v int64) string {
	return strconv.FormatInt(v, 10)
}

func floatCol(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func keyCols(src, dst uint32, traceIdx int) []string {
	return []string{
		uintCol(uint64(src)), uintCol(uint64(dst)), intCol(int64(traceIdx)),
	}
}

func beamCols(b Beam) []string {
	return []string{
		uintCol(uint64(b.AntennaID)),
		uintCol(uint64(b.SectorID)),
		uintCol(uint64(b.Awv)),
	}
}

var keyHeader = []string{"src_id", "dst_id", "trace_idx"}

func withKeyHeader(cols ...string) []string {
	return append(append([]string{}, keyHeader...), cols...)
}

// WriteSls writes a sector sweep row.
func (t *CSVTraceWriter) WriteSls(e SlsEntry) {
	t.write(SlsTrace,
		withKeyHeader("antenna_id", "sector_id", "role", "bss_id",
			"snr_linear_or_db", "timestamp_ns"),
		append(keyCols(e.SrcID, e.DstID, e.TraceIdx),
			uintCol(uint64(e.AntennaID)), uintCol(uint64(e.SectorID)),
			e.Role, uintCol(uint64(e.BssID)),
			floatCol(e.SNR), intCol(e.TimestampNs)))
}

// WriteSiso writes a SISO feedback row. The sub-beam of the sample follows
// the sector it steers.
func (t *CSVTraceWriter) WriteSiso(e SisoEntry) {
	t.write(SisoTrace, sisoHeader,
		append(keyCols(e.SrcID, e.DstID, e.TraceIdx),
			uintCol(uint64(e.RxAntennaID)), uintCol(uint64(e.TxAntennaID)),
			uintCol(uint64(e.TxSectorID)), intCol(int64(e.SubBeam)),
			floatCol(e.SnrDB), intCol(e.TimestampNs)))
}

// WriteSisoResult writes a row of a closed SISO window. The row has no
// sub-beam column, as the value reduces all of them.
func (t *CSVTraceWriter) WriteSisoResult(e SisoEntry) {
	t.write(SisoResultTrace, sisoResultHeader,
		append(keyCols(e.SrcID, e.DstID, e.TraceIdx),
			uintCol(uint64(e.RxAntennaID)), uintCol(uint64(e.TxAntennaID)),
			uintCol(uint64(e.TxSectorID)),
			floatCol(e.SnrDB), intCol(e.TimestampNs)))
}

// WriteCandidate writes a candidate row into the file of its side.
func (t *CSVTraceWriter) WriteCandidate(e CandidateEntry) {
	header := withKeyHeader()
	row := keyCols(e.SrcID, e.DstID, e.TraceIdx)

	for n, b := range e.Beams {
		k := strconv.Itoa(n + 1)
		header = append(header, "antenna_id_"+k, "sector_id_"+k)
		row = append(row, beamCols(b)[:2]...)
	}

	trace := TxCandidatesTrace
	if e.Side == codebook.Rx {
		trace = RxCandidatesTrace
	}

	t.write(trace, header, row)
}

// WriteMimo writes a joint measurement row.
func (t *CSVTraceWriter) WriteMimo(e MimoEntry) {
	header := withKeyHeader()
	row := keyCols(e.SrcID, e.DstID, e.TraceIdx)

	for n, b := range e.Tx {
		k := strconv.Itoa(n + 1)
		header = append(header, "tx_antenna_"+k, "tx_sector_"+k, "tx_awv_"+k)
		row = append(row, beamCols(b)...)
	}

	for n, b := range e.Rx {
		k := strconv.Itoa(n + 1)
		header = append(header, "rx_antenna_"+k, "rx_sector_"+k, "rx_awv_"+k)
		row = append(row, beamCols(b)...)
	}

	for n, snr := range e.SnrDB {
		header = append(header, "snr_db_"+strconv.Itoa(n+1))
		row = append(row, floatCol(snr))
	}

	header = append(header, "min_stream_snr_db")
	row = append(row, floatCol(e.MinStreamSnrDB))

	t.write(MimoTrace, header, row)
}

// WriteAttempt writes an attempt outcome row.
func (t *CSVTraceWriter) WriteAttempt(e AttemptEntry) {
	t.write(AttemptTrace,
		withKeyHeader("outcome", "phase", "reason", "timestamp_ns"),
		append(keyCols(e.SrcID, e.DstID, e.TraceIdx),
			e.Outcome, e.Phase, e.Reason, intCol(e.TimestampNs)))
}

// Flush writes the buffered rows to the files.
func (t *CSVTraceWriter) Flush() {
	for _, name := range t.order {
		file := t.files[name]

		for _, row := range t.rows[name] {
			if err := file.w.Write(row); err != nil {
				panic(err)
			}
		}

		file.w.Flush()
		if err := file.w.Error(); err != nil {
			panic(err)
		}

		t.rows[name] = nil
	}

	t.numRows = 0
}

// Close flushes the rows and closes the files.
func (t *CSVTraceWriter) Close() error {
	if t.shutdown {
		return nil
	}

	t.Flush()
	t.shutdown = true

	for _, name := range t.order {
		if err := t.files[name].file.Close(); err != nil {
			return err
		}
	}

	return nil
}
