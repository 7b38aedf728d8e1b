package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/mimobft/codebook"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/link"
	"github.com/sarchlab/mimobft/selection"
	"github.com/sarchlab/mimobft/tracing"
)

type selectOptions struct {
	file     string
	k        int
	src      uint32
	dst      uint32
	traceIdx int
	numTx    int
	numRx    int
}

var selectOpts selectOptions

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the K best sector combinations of a SISO trace.",
	Long: "`select -f trace_siso.csv -k 4` rebuilds the SISO feedback matrix " +
		"of one attempt from a trace and prints the candidates the " +
		"coordinator would sound.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, err := os.Open(selectOpts.file)
		if err != nil {
			return err
		}
		defer file.Close()

		entries, err := tracing.ReadSisoCSV(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", selectOpts.file, err)
		}

		return selectCandidates(cmd.OutOrStdout(), entries, selectOpts)
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)

	flags := selectCmd.Flags()
	flags.StringVarP(&selectOpts.file, "file", "f", "", "SISO trace file (CSV)")
	flags.IntVarP(&selectOpts.k, "k", "k", 4,
		"Number of candidates, 0 ranks every combination")
	flags.Uint32Var(&selectOpts.src, "src", 0,
		"Initiator of the attempt, defaults to the first row")
	flags.Uint32Var(&selectOpts.dst, "dst", 0,
		"Responder of the attempt, defaults to the first row")
	flags.IntVar(&selectOpts.traceIdx, "trace-idx", -1,
		"Attempt index, defaults to the last attempt of the link")
	flags.IntVar(&selectOpts.numTx, "tx-antennas", 0,
		"Transmit antennas, defaults to the antennas in the trace")
	flags.IntVar(&selectOpts.numRx, "rx-antennas", 0,
		"Receive antennas, defaults to the antennas in the trace")

	_ = selectCmd.MarkFlagRequired("file")
}

// sisoWindow is the feedback of one attempt of a trace.
type sisoWindow struct {
	link     link.Link
	traceIdx int
	matrix   *feedback.Matrix
	numTx    int
	numRx    int
}

// buildWindow picks the rows of one attempt. Repeated keys are sub-beams and
// keep their strongest sample.
func buildWindow(entries []tracing.SisoEntry, opts selectOptions) (sisoWindow, error) {
	if len(entries) == 0 {
		return sisoWindow{}, fmt.Errorf("%w: trace has no row",
			feedback.ErrEmptyMatrix)
	}

	src, dst := opts.src, opts.dst
	if src == 0 && dst == 0 {
		src, dst = entries[0].SrcID, entries[0].DstID
	}

	traceIdx := opts.traceIdx
	if traceIdx < 0 {
		for _, e := range entries {
			if e.SrcID == src && e.DstID == dst {
				traceIdx = max(traceIdx, e.TraceIdx)
			}
		}
	}

	w := sisoWindow{
		link:     link.New(link.StationID(src), link.StationID(dst)),
		traceIdx: traceIdx,
	}

	samples := make(map[feedback.Key][]float64)

	for _, e := range entries {
		if e.SrcID != src || e.DstID != dst || e.TraceIdx != traceIdx {
			continue
		}

		k := feedback.Key{
			TxAntenna: codebook.AntennaID(e.TxAntennaID),
			RxAntenna: codebook.AntennaID(e.RxAntennaID),
			TxSector:  codebook.SectorID(e.TxSectorID),
		}
		samples[k] = append(samples[k], feedback.DBToLinear(e.SnrDB))

		w.numTx = max(w.numTx, int(e.TxAntennaID))
		w.numRx = max(w.numRx, int(e.RxAntennaID))
	}

	if len(samples) == 0 {
		return sisoWindow{}, fmt.Errorf("%w: no row for %s attempt %d",
			feedback.ErrEmptyMatrix, w.link, traceIdx)
	}

	values := make(map[feedback.Key]float64, len(samples))
	for k, s := range samples {
		values[k] = feedback.ReduceMax(s)
	}

	w.matrix = feedback.NewMatrix(values)

	if opts.numTx > 0 {
		w.numTx = opts.numTx
	}

	if opts.numRx > 0 {
		w.numRx = opts.numRx
	}

	return w, nil
}

func selectCandidates(
	out io.Writer,
	entries []tracing.SisoEntry,
	opts selectOptions,
) error {
	w, err := buildWindow(entries, opts)
	if err != nil {
		return err
	}

	total, err := selection.Count(w.matrix, w.numTx, w.numRx)
	if err != nil {
		return err
	}

	k := opts.k
	if k == 0 {
		k = total
	}

	cands, err := selection.Select(w.matrix, k, w.numTx, w.numRx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out,
		"%s attempt %d: %d samples, %d tx, %d rx antennas, %d combinations\n",
		w.link, w.traceIdx, w.matrix.Len(), w.numTx, w.numRx, total)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTX_SECTORS\tRX_SECTORS\tMETRIC_DB")

	for i := 0; i < cands.Len(); i++ {
		fmt.Fprintf(tw, "%d\t%v\t%v\t%.2f\n",
			i+1, cands.Tx[i], cands.Rx[i],
			feedback.LinearToDB(cands.Metrics[i]))
	}

	return tw.Flush()
}
