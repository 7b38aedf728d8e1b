package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mimobft/config"
	"github.com/sarchlab/mimobft/feedback"
	"github.com/sarchlab/mimobft/sim"
	"github.com/sarchlab/mimobft/simulation"
)

type runOptions struct {
	configFile  string
	envFiles    []string
	traceFormat string
	traceDir    string
	monitor     bool
	monitorPort int
	monitorOpen bool
	logEvents   bool
	uniqueIDs   bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the training of a scenario.",
	Long: "`run -c scenario.yaml` replays the sector sweeps of the scenario, " +
		"trains every link pair swept in both directions, and prints the " +
		"configuration each pair settles on.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadScenario(cmd, runOpts)
		if err != nil {
			return err
		}

		return runScenario(cmd.OutOrStdout(), cfg, runOpts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringVarP(&runOpts.configFile, "config", "c", "",
		"Scenario file (YAML)")
	flags.StringSliceVar(&runOpts.envFiles, "env-file", []string{".env"},
		"Dotenv files to load before reading the environment")
	flags.StringVar(&runOpts.traceFormat, "trace-format", "",
		"Trace format (none, csv, sqlite), overrides the scenario")
	flags.StringVar(&runOpts.traceDir, "trace-dir", "",
		"Directory of the trace files, overrides the scenario")
	flags.BoolVar(&runOpts.monitor, "monitor", false,
		"Serve the monitoring page during the run")
	flags.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"Port of the monitoring server")
	flags.BoolVar(&runOpts.monitorOpen, "monitor-open", false,
		"Open the monitoring page in the browser")
	flags.BoolVar(&runOpts.logEvents, "log-events", false,
		"Log every simulation event at debug level")
	flags.BoolVar(&runOpts.uniqueIDs, "unique-ids", false,
		"Give events globally unique IDs instead of sequential ones")

	_ = runCmd.MarkFlagRequired("config")
}

// loadScenario reads the scenario and applies, in order, the environment and
// the flags given on the command line.
func loadScenario(cmd *cobra.Command, opts runOptions) (*config.Config, error) {
	if err := config.LoadEnvFiles(opts.envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("trace-format") {
		cfg.Trace.Format = opts.traceFormat
	}

	if flags.Changed("trace-dir") {
		cfg.Trace.Dir = opts.traceDir
	}

	if opts.monitor || opts.monitorOpen || flags.Changed("monitor-port") {
		cfg.Monitor.Enabled = true
	}

	if flags.Changed("monitor-port") {
		cfg.Monitor.Port = opts.monitorPort
	}

	if opts.monitorOpen {
		cfg.Monitor.OpenBrowser = true
	}

	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, setLogLevel(cfg.LogLevel)
}

func runScenario(out io.Writer, cfg *config.Config, opts runOptions) error {
	if opts.uniqueIDs {
		sim.UseParallelIDGenerator()
	}

	b := simulation.MakeBuilder().WithConfig(cfg)
	if opts.logEvents {
		b = b.WithEventLogging()
	}

	s, err := b.Build()
	if err != nil {
		return err
	}

	if s.GetMonitor() != nil && cfg.Monitor.OpenBrowser {
		if err := s.GetMonitor().OpenBrowser(s.MonitorURL()); err != nil {
			logrus.WithError(err).Warn("cannot open the monitoring page")
		}
	}

	runErr := s.Run()

	printResults(out, s.Results())

	if err := s.Terminate(); err != nil {
		return err
	}

	if s.OutputPath() != "" {
		logrus.WithField("prefix", s.OutputPath()).Info("traces written")
	}

	return runErr
}

func printResults(out io.Writer, results []simulation.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w,
		"PAIR\tSTATE\tATTEMPTS\tABORTS\tTX_AWV\tRX_AWV\tMIN_SNR_DB\tREADY_AT\tERROR")

	for _, r := range results {
		txAwv, rxAwv, snr, readyAt, errText := "-", "-", "-", "-", "-"

		if r.Selection != nil {
			txAwv = fmt.Sprint(r.Selection.Config.TxAwv)
			rxAwv = fmt.Sprint(r.Selection.Config.RxAwv)
			snr = fmt.Sprintf("%.2f",
				feedback.LinearToDB(r.Selection.Config.MinStreamSNR))
		}

		if r.Ready != nil {
			readyAt = fmt.Sprintf("%.6f", float64(r.Ready.Time))
		}

		if r.Err != nil {
			errText = r.Err.Error()
		}

		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			r.Pair, r.State, r.Attempts, r.Aborts,
			txAwv, rxAwv, snr, readyAt, errText)
	}

	w.Flush()
}
