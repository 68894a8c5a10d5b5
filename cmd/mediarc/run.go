package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mediarc-hq/mediarc/pkg/cli"
	"mediarc-hq/mediarc/pkg/config"
	"mediarc-hq/mediarc/pkg/engine"
	"mediarc-hq/mediarc/pkg/history"
	"mediarc-hq/mediarc/pkg/plan"
	"mediarc-hq/mediarc/pkg/policy"
	"mediarc-hq/mediarc/pkg/schedule"
	"mediarc-hq/mediarc/pkg/telemetry/logging"
	"mediarc-hq/mediarc/pkg/telemetry/metrics"
)

var runFlags struct {
	source        string
	archive       string
	mode          string
	order         string
	sizeLimit     string
	keepNewerThan string
	keptDBs       int
	dryRun        bool
	anyLayout     bool
	output        string
	scheduleExpr  string
	metricsListen string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation pass (or schedule repeated passes)",
	Long: `Run the backup/trim/sync engine once, or repeatedly on a cron schedule.

Modes:
  backup  copy files missing from the archive; change nothing else
  trim    backup, then delete source files until under the size limit
  sync    trim, then restore archived media to the source within the limit

Examples:
  # One-shot trim with a 512MiB budget
  mediarc run -s /sdcard/WhatsApp -a /backup/wa --mode trim --size-limit 512MiB

  # Protect the last two weeks and preview the plan
  mediarc run -s /sdcard/WhatsApp -a /backup/wa --mode trim \
      --size-limit 512MiB --keep-newer-than 14d --dry-run

  # Nightly run at 3 AM with metrics
  mediarc run --config mediarc.yaml --schedule "0 3 * * *" \
      --metrics-listen 127.0.0.1:9464`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.source, "source", "s", "", "media folder to back up")
	runCmd.Flags().StringVarP(&runFlags.archive, "archive", "a", "", "archive folder")
	runCmd.Flags().StringVarP(&runFlags.mode, "mode", "M", "", "mode of operation (backup, trim, sync)")
	runCmd.Flags().StringVarP(&runFlags.order, "order", "o", "", "which files to prefer keeping (newer, smaller, smaller_newer)")
	runCmd.Flags().StringVarP(&runFlags.sizeLimit, "size-limit", "l", "", "source folder size budget, e.g. 512MiB")
	runCmd.Flags().StringVar(&runFlags.keepNewerThan, "keep-newer-than", "", "never delete files newer than this, e.g. 14d")
	runCmd.Flags().IntVarP(&runFlags.keptDBs, "kept-dbs", "k", 0, "number of message database backups to retain")
	runCmd.Flags().BoolVarP(&runFlags.dryRun, "dry-run", "n", false, "print actions without modifying the filesystem")
	runCmd.Flags().BoolVar(&runFlags.anyLayout, "any-layout", false, "skip the media-folder layout check on the source")
	runCmd.Flags().StringVar(&runFlags.output, "output", "text", "output format (text, json)")
	runCmd.Flags().StringVar(&runFlags.scheduleExpr, "schedule", "", "run repeatedly on this cron schedule instead of once")
	runCmd.Flags().StringVar(&runFlags.metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address (scheduled mode)")
}

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return err
	}
	if err := config.ValidateRun(cfg); err != nil {
		return err
	}
	engCfg, err := engineConfig(cfg)
	if err != nil {
		return err
	}

	var journal *history.Journal
	if cfg.Journal.Enabled {
		journal, err = history.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	ctx := cli.SetupSignalHandler()

	if cfg.Schedule.Cron != "" {
		return runScheduled(ctx, cfg, engCfg, journal)
	}

	report, err := engine.Run(ctx, engCfg)
	if err != nil {
		return err
	}
	recordRun(ctx, journal, report)

	formatter := cli.NewFormatter(cli.OutputFormat(runFlags.output))
	return formatter.FormatTo(os.Stdout, report)
}

// runScheduled daemonizes: engine runs fire on the cron schedule until
// interrupted, with optional Prometheus metrics.
func runScheduled(ctx context.Context, cfg *config.Config, engCfg engine.Config, journal *history.Journal) error {
	collector := metrics.NewCollector()
	if cfg.Schedule.MetricsListen != "" {
		serveMetrics(cfg.Schedule.MetricsListen, collector)
	}

	runner := makeRunner(engCfg, collector, journal)
	sched := schedule.New(cfg.Schedule.Cron, runner)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}

// makeRunner wraps one engine pass for daemon modes: outcomes go to the
// journal, metrics, and the log rather than stdout.
func makeRunner(engCfg engine.Config, collector *metrics.Collector, journal *history.Journal) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		report, err := engine.Run(ctx, engCfg)
		if err != nil {
			return err
		}
		if collector != nil {
			collector.RecordRun(report)
		}
		recordRun(ctx, journal, report)
		slog.Info("run completed",
			"run_id", report.RunID,
			"failed", report.FailedTotal(),
			"bytes_copied", report.BytesCopied,
			"bytes_freed", report.BytesFreed,
			"source_size", report.SourceSizeAfter,
			"budget_met", report.BudgetMet,
		)
		return nil
	}
}

func recordRun(ctx context.Context, journal *history.Journal, report *engine.RunReport) {
	if journal == nil {
		return
	}
	if err := journal.Record(ctx, report); err != nil {
		slog.Warn("unable to record run in journal", "error", err)
	}
}

func serveMetrics(addr string, collector *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	go func() {
		slog.Info("metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server failed", "error", err)
		}
	}()
}

// loadRunConfig merges the config file (if any), MEDIARC_* environment
// overrides, and explicit flags, with flags winning.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadWithEnvOverrides(cfgFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if runFlags.source != "" {
		cfg.Run.Source = runFlags.source
	}
	if runFlags.archive != "" {
		cfg.Run.Archive = runFlags.archive
	}
	if runFlags.mode != "" {
		cfg.Run.Mode = runFlags.mode
	}
	if runFlags.order != "" {
		cfg.Run.Order = runFlags.order
	}
	if runFlags.sizeLimit != "" {
		v, err := config.ParseSize(runFlags.sizeLimit)
		if err != nil {
			return nil, cli.NewConfigError("size-limit", err.Error())
		}
		cfg.Run.SizeLimit = v
	}
	if runFlags.keepNewerThan != "" {
		v, err := config.ParseDuration(runFlags.keepNewerThan)
		if err != nil {
			return nil, cli.NewConfigError("keep-newer-than", err.Error())
		}
		cfg.Run.KeepNewerThan = v
	}
	if flags.Changed("kept-dbs") {
		cfg.Run.KeptDBs = runFlags.keptDBs
	}
	if runFlags.dryRun {
		cfg.Run.DryRun = true
	}
	if runFlags.anyLayout {
		cfg.Run.SkipSourceCheck = true
	}
	if runFlags.scheduleExpr != "" {
		cfg.Schedule.Cron = runFlags.scheduleExpr
	}
	if runFlags.metricsListen != "" {
		cfg.Schedule.MetricsListen = runFlags.metricsListen
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// engineConfig translates validated file/flag configuration into typed
// engine inputs.
func engineConfig(cfg *config.Config) (engine.Config, error) {
	mode, err := plan.ParseMode(cfg.Run.Mode)
	if err != nil {
		return engine.Config{}, err
	}
	order, err := policy.ParseOrder(cfg.Run.Order)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		SourceRoot:      cfg.Run.Source,
		ArchiveRoot:     cfg.Run.Archive,
		Mode:            mode,
		Order:           order,
		SizeLimit:       int64(cfg.Run.SizeLimit),
		KeepNewerThan:   time.Duration(cfg.Run.KeepNewerThan),
		NumKeptDBs:      cfg.Run.KeptDBs,
		DryRun:          cfg.Run.DryRun,
		SkipSourceCheck: cfg.Run.SkipSourceCheck,
	}, nil
}
