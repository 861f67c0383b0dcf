// xrs-ingest - Synthesize GOES XRS fluxes from DEM documents into ClickHouse
//
// Input documents (.yaml/.yml/.parquet, optionally .gz or .zst) are processed
// by a bounded worker pool. Each sample or point becomes one row.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/xrs-ingest ./cmd/xrs-ingest

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KI7MT/goes-xrs-synth/internal/common"
	"github.com/KI7MT/goes-xrs-synth/internal/demio"
	"github.com/KI7MT/goes-xrs-synth/internal/fetch"
	"github.com/KI7MT/goes-xrs-synth/internal/pipeline"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
	"github.com/KI7MT/goes-xrs-synth/internal/store"
	"github.com/KI7MT/goes-xrs-synth/internal/synth"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

var (
	configPath string
	tablePath  string
	driver     string
	workers    int
	satellite  int
	abundance  string
	truncate   bool
	dryRun     bool
	silent     bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:          "xrs-ingest [files or directories...]",
	Short:        "Synthesize GOES XRS fluxes from DEM documents into ClickHouse",
	Version:      Version,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file")
	f.StringVar(&tablePath, "table", "", "Local response table instead of the cached download")
	f.StringVar(&driver, "driver", "native", "ClickHouse driver: native (ch-go) or std (clickhouse-go)")
	f.IntVar(&workers, "workers", pipeline.DefaultWorkers, "Number of parallel document workers")
	f.IntVar(&satellite, "satellite", response.DefaultSatellite, "GOES satellite for documents that do not name one")
	f.StringVar(&abundance, "abundance", "coronal", "Abundance set (coronal, photospheric)")
	f.BoolVar(&truncate, "truncate", false, "Truncate table before insert")
	f.BoolVar(&dryRun, "dry-run", false, "Synthesize without writing to ClickHouse")
	f.BoolVar(&silent, "silent", false, "Suppress progress output")
	f.StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error)")
}

func run(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", logLevel)
	}
	logrus.SetLevel(level)

	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("satellite") {
		satellite = cfg.Satellite
	}
	ab, err := response.ParseAbundance(abundance)
	if err != nil {
		return err
	}

	logrus.Info("=========================================================")
	logrus.Infof("XRS Ingest v%s", Version)
	logrus.Info("=========================================================")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := discover(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents to process")
	}
	logrus.Infof("Found %d document(s)", len(files))

	var load response.Loader
	if tablePath != "" {
		load = response.FileLoader(tablePath)
	} else {
		d := fetch.NewDownloader(cfg.DataDir, fetch.DefaultTimeout, logrus.WithField("component", "fetch"))
		load = response.FetchLoader(d, cfg.ResponseQuery())
	}
	provider := response.NewProvider(load)
	// Load once up front so a bad table fails before any insert.
	if _, err := provider.Table(ctx); err != nil {
		return err
	}

	w, err := openWriter(ctx, cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.EnsureTable(ctx); err != nil {
		return err
	}
	if truncate {
		if err := w.Truncate(ctx); err != nil {
			logrus.WithError(err).Warn("truncate failed")
		}
	}

	stats := common.NewStats(logrus.WithField("component", "stats"))
	stats.SetSilent(silent)
	stats.StartReporter()

	r := &pipeline.Runner{
		Synth:     synth.New(provider.With(ab)),
		Writer:    w,
		Stats:     stats,
		Satellite: satellite,
		Workers:   workers,
		Log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	sum := r.Run(ctx, files)
	stats.StopReporter()

	logrus.Info("=========================================================")
	logrus.Info("Final Statistics")
	logrus.Info("=========================================================")
	logrus.Infof("Documents:     %d (%d failed)", sum.Files, sum.Failed)
	logrus.Infof("Total Rows:    %d", sum.Records)
	logrus.Infof("Total Size:    %.2f MB", float64(stats.GetTotalBytes())/1024/1024)
	logrus.Infof("Elapsed:       %v", sum.Elapsed.Round(time.Millisecond))
	if secs := sum.Elapsed.Seconds(); secs > 0 {
		logrus.Infof("Rate:          %.0f rows/sec", float64(sum.Records)/secs)
	}
	logrus.Info("=========================================================")

	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", sum.Failed, sum.Files)
	}
	return ctx.Err()
}

func openWriter(ctx context.Context, cfg *common.Config) (store.Writer, error) {
	if dryRun {
		logrus.Info("Dry run: nothing will be written")
		return store.NewDryRunWriter(logrus.WithField("component", "store")), nil
	}

	opts := store.Options{
		Addr:     cfg.ClickHouseAddr(),
		Database: cfg.ClickHouseDatabase,
		User:     cfg.ClickHouseUser,
		Password: cfg.ClickHousePassword,
		Table:    cfg.Table,
	}
	log := logrus.WithField("component", "store")
	logrus.Infof("Connecting to ClickHouse at %s (%s driver)...", opts.Addr, driver)
	logrus.Infof("Table: %s", opts.TableFQN())

	switch driver {
	case "native":
		return store.DialNative(ctx, opts, log)
	case "std":
		return store.OpenBatch(ctx, opts, workers, log)
	}
	return nil, fmt.Errorf("unknown driver %q (want native or std)", driver)
}

// discover expands directories into the documents they contain, sorted.
func discover(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if format, _ := demio.DetectFormat(path); format != demio.FormatUnknown {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
