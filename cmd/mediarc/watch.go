package main

import (
	"github.com/spf13/cobra"

	"mediarc-hq/mediarc/pkg/cli"
	"mediarc-hq/mediarc/pkg/config"
	"mediarc-hq/mediarc/pkg/history"
	"mediarc-hq/mediarc/pkg/telemetry/logging"
	"mediarc-hq/mediarc/pkg/telemetry/metrics"
	"mediarc-hq/mediarc/pkg/watch"
)

var watchFlags struct {
	debounce string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run whenever the source folder changes",
	Long: `Watch the source folder and run the engine after each burst of changes.

A run triggers only once the tree has stayed quiet for the debounce
interval, so receiving fifty photos causes one run, not fifty. All run
flags of "mediarc run" apply; results go to the log, the journal, and the
optional metrics endpoint.

Example:
  mediarc watch -s /sdcard/WhatsApp -a /backup/wa --mode trim \
      --size-limit 512MiB --debounce 1m`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	// Engine flags shared with "run".
	watchCmd.Flags().AddFlagSet(runCmd.Flags())
	watchCmd.Flags().StringVar(&watchFlags.debounce, "debounce", "", "quiet period before a run triggers, e.g. 30s")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if watchFlags.debounce != "" {
		v, err := config.ParseDuration(watchFlags.debounce)
		if err != nil {
			return cli.NewConfigError("debounce", err.Error())
		}
		cfg.Watch.Debounce = v
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

	collector := metrics.NewCollector()
	if cfg.Watch.MetricsListen != "" {
		serveMetrics(cfg.Watch.MetricsListen, collector)
	}

	watcher, err := watch.New(cfg.Run.Source, cfg.Watch.Debounce.Std())
	if err != nil {
		return err
	}
	ctx := cli.SetupSignalHandler()
	return watcher.Watch(ctx, makeRunner(engCfg, collector, journal))
}
