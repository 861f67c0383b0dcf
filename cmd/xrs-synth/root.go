package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KI7MT/goes-xrs-synth/internal/common"
	"github.com/KI7MT/goes-xrs-synth/internal/fetch"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
	"github.com/KI7MT/goes-xrs-synth/internal/synth"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	tablePath  string
	satellite  int
	abundance  string
	timeout    time.Duration
	logLevel   string

	cfg      *common.Config
	provider *response.Provider
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "xrs-synth",
		Short:         "Synthesize GOES XRS fluxes from isothermal plasma or a DEM",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&opts.tablePath, "table", "", "Local response table (.fits, .fits.gz, .parquet) instead of the cached download")
	pf.IntVar(&opts.satellite, "satellite", response.DefaultSatellite, "GOES satellite number")
	pf.StringVar(&opts.abundance, "abundance", "coronal", "Abundance set (coronal, photospheric)")
	pf.DurationVar(&opts.timeout, "timeout", fetch.DefaultTimeout, "HTTP timeout for the table download")
	pf.StringVar(&opts.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newResponseCmd(opts),
		newIsothermalCmd(opts),
		newDEMCmd(opts),
		newClassCmd(),
		newFluxCmd(),
		newExportCmd(opts),
	)
	return root
}

func (o *options) setup(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", o.logLevel)
	}
	logrus.SetLevel(level)

	cfg, err := common.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("satellite") {
		o.satellite = cfg.Satellite
	}
	o.cfg = cfg

	var load response.Loader
	if o.tablePath != "" {
		load = response.FileLoader(o.tablePath)
	} else {
		d := fetch.NewDownloader(cfg.DataDir, o.timeout, logrus.WithField("component", "fetch"))
		load = response.FetchLoader(d, cfg.ResponseQuery())
	}
	o.provider = response.NewProvider(load)
	return nil
}

func (o *options) synthesizer() (*synth.Synthesizer, error) {
	ab, err := response.ParseAbundance(o.abundance)
	if err != nil {
		return nil, err
	}
	return synth.New(o.provider.With(ab)), nil
}
