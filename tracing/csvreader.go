package tracing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	sisoHeader = withKeyHeader("rx_antenna_id", "tx_antenna_id",
		"tx_sector_id", "sub_beam", "snr_db", "timestamp_ns")
	sisoResultHeader = withKeyHeader("rx_antenna_id", "tx_antenna_id",
		"tx_sector_id", "snr_db", "timestamp_ns")
)

// ReadSisoCSV reads the rows of a SISO trace file. Both the sample trace and
// the trace of closed windows are accepted.
func ReadSisoCSV(r io.Reader) ([]SisoEntry, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var parse func([]string) (SisoEntry, error)

	switch {
	case sameHeader(header, sisoHeader):
		parse = parseSisoRecord
	case sameHeader(header, sisoResultHeader):
		parse = parseSisoResultRecord
	default:
		return nil, fmt.Errorf("not a SISO trace, header %v", header)
	}

	var entries []SisoEntry

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}

		if err != nil {
			return nil, err
		}

		e, err := parse(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		entries = append(entries, e)
	}
}

type recordParser struct {
	record []string
	err    error
}

func (p *recordParser) uint(i, bits int) uint64 {
	if p.err != nil {
		return 0
	}

	var v uint64
	v, p.err = strconv.ParseUint(p.record[i], 10, bits)

	return v
}

func (p *recordParser) int(i int) int64 {
	if p.err != nil {
		return 0
	}

	var v int64
	v, p.err = strconv.ParseInt(p.record[i], 10, 64)

	return v
}

func (p *recordParser) float(i int) float64 {
	if p.err != nil {
		return 0
	}

	var v float64
	v, p.err = strconv.ParseFloat(p.record[i], 64)

	return v
}

func parseSisoRecord(record []string) (SisoEntry, error) {
	p := &recordParser{record: record}

	e := SisoEntry{
		SrcID:       uint32(p.uint(0, 32)),
		DstID:       uint32(p.uint(1, 32)),
		TraceIdx:    int(p.int(2)),
		RxAntennaID: uint8(p.uint(3, 8)),
		TxAntennaID: uint8(p.uint(4, 8)),
		TxSectorID:  uint8(p.uint(5, 8)),
		SubBeam:     int(p.int(6)),
		SnrDB:       p.float(7),
		TimestampNs: p.int(8),
	}

	return e, p.err
}

func parseSisoResultRecord(record []string) (SisoEntry, error) {
	p := &recordParser{record: record}

	e := SisoEntry{
		SrcID:       uint32(p.uint(0, 32)),
		DstID:       uint32(p.uint(1, 32)),
		TraceIdx:    int(p.int(2)),
		RxAntennaID: uint8(p.uint(3, 8)),
		TxAntennaID: uint8(p.uint(4, 8)),
		TxSectorID:  uint8(p.uint(5, 8)),
		SnrDB:       p.float(6),
		TimestampNs: p.int(7),
	}

	return e, p.err
}
