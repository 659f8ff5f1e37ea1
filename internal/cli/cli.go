package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/xlatombet/abt/internal/config"
	"github.com/xlatombet/abt/internal/fetch"
	"github.com/xlatombet/abt/internal/logger"
	"github.com/xlatombet/abt/internal/metrics"
	"github.com/xlatombet/abt/internal/storage"
	"go.uber.org/zap/zapcore"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

type options struct {
	envFile     string
	dataDir     string
	format      string
	saveFormat  string
	metricsFile string
	save        bool
	verbose     bool
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	opts options

	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Recorder
	fetcher fetch.Fetcher
	format  OutputFormat

	// saveFormat is the file format for --save and load.
	saveFormat storage.Format

	out    io.Writer
	errOut io.Writer

	// fixed replaces the HTTP client, for tests.
	fixed fetch.Fetcher
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{out: os.Stdout, errOut: os.Stderr})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abt",
		Short: "Extract JRA and netkeiba race data",
		Long: `A CLI tool to extract race schedules, going, race cards with odds and
payouts from the JRA and netkeiba websites into tables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	// Define flags
	f := cmd.PersistentFlags()
	f.StringVar(&a.opts.envFile, "env-file", ".env", "Environment file to load")
	f.StringVar(&a.opts.dataDir, "data-dir", "", "Data directory for saved tables (env: ABT_DATA_DIR)")
	f.StringVar(&a.opts.format, "format", "text", "Output format: text, json or csv")
	f.StringVar(&a.opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	f.BoolVar(&a.opts.save, "save", false, "Save the table to the data directory")
	f.StringVar(&a.opts.saveFormat, "save-format", "", "File format for --save and load: csv or json (default csv, json with --format json)")
	f.BoolVar(&a.opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newScheduleCmd(a),
		newGroundCmd(a),
		newCardCmd(a),
		newResultCmd(a),
		newRaceIDCmd(a),
		newLoadCmd(a),
	)
	return cmd
}

// setup loads configuration and builds the logger, metrics and fetcher.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	format, err := ParseOutputFormat(a.opts.format)
	if err != nil {
		return err
	}
	a.format = format

	a.saveFormat = storage.FormatCSV
	if format == FormatJSON {
		a.saveFormat = storage.FormatJSON
	}
	if a.opts.saveFormat != "" {
		if a.saveFormat, err = storage.ParseFormat(a.opts.saveFormat); err != nil {
			return err
		}
	}

	cfg, err := config.Load(a.opts.envFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = a.opts.dataDir
	}
	a.cfg = cfg

	level := logger.LevelWarn
	if a.opts.verbose || cfg.Debug {
		level = logger.LevelDebug
	}
	a.log = logger.New(level, zapcore.AddSync(a.errOut))
	logger.SetDefault(a.log)

	a.metrics = metrics.New()

	if a.fixed != nil {
		a.fetcher = a.fixed
	} else {
		a.fetcher = fetch.New(
			fetch.WithTimeout(cfg.Timeout),
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithLogger(a.log),
			fetch.WithMetrics(a.metrics),
		)
	}
	if cfg.CacheTTL > 0 {
		a.fetcher = fetch.NewCache(a.fetcher, cfg.CacheTTL)
	}

	a.log.Debug("configuration loaded", logger.Fields{
		"data_dir": cfg.DataDir,
		"format":   string(format),
		"timeout":  cfg.Timeout.String(),
		"cache":    cfg.CacheTTL.String(),
		"rank":     cfg.Rank.String(),
	})
	return nil
}

// run wraps a command body with output, saving and metrics export.
func (a *app) run(name string, body func(ctx context.Context, args []string) (*OutputResult, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if c, ok := a.fetcher.(*fetch.Cache); ok {
				a.log.Debug("page cache", logger.Fields{"command": name, "pages": c.Size()})
			}
			if mErr := a.writeMetrics(); mErr != nil && err == nil {
				err = mErr
			}
		}()

		result, err := body(cmd.Context(), args)
		if err != nil {
			a.log.Error("command failed", logger.Fields{"command": name}, err)
			return err
		}
		a.metrics.AddRows(name, result.Table.Nrow())

		if a.opts.save {
			if err := a.save(result); err != nil {
				return err
			}
		}

		if err := WriteOutput(a.out, result, a.format); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}
}

func (a *app) save(result *OutputResult) error {
	store, err := storage.New(a.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	path, err := store.SaveTable(result.Name, result.Table, a.saveFormat)
	if err != nil {
		return fmt.Errorf("saving table: %w", err)
	}
	a.log.Info("saved table", logger.Fields{"path": path, "rows": result.Table.Nrow()})
	return nil
}

func (a *app) writeMetrics() error {
	if a.opts.metricsFile == "" || a.metrics == nil {
		return nil
	}
	if err := a.metrics.WriteFile(a.opts.metricsFile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	err := NewRootCmd().Execute()
	_ = logger.Default().Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
