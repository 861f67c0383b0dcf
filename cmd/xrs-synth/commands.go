package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/KI7MT/goes-xrs-synth/internal/demio"
	"github.com/KI7MT/goes-xrs-synth/internal/ndarray"
	"github.com/KI7MT/goes-xrs-synth/internal/pipeline"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
	"github.com/KI7MT/goes-xrs-synth/internal/solar"
)

func newResponseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "response",
		Short: "Print the satellite's response per 1e49 cm^-3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ab, err := response.ParseAbundance(opts.abundance)
			if err != nil {
				return err
			}
			r, err := opts.provider.ResponseFor(cmd.Context(), opts.satellite, ab)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# GOES-%d %s response, W m^-2 per 1e49 cm^-3\n", opts.satellite, ab)
			fmt.Fprintf(out, "%-12s %-14s %-14s\n", "TEMP_MK", "LONG", "SHORT")
			temp, long, short := r.Temp(), r.Long(), r.Short()
			for i := range temp {
				fmt.Fprintf(out, "%-12.5g %-14.6e %-14.6e\n", temp[i], long[i], short[i])
			}
			return nil
		},
	}
}

func newIsothermalCmd(opts *options) *cobra.Command {
	var temps, ems []float64

	cmd := &cobra.Command{
		Use:   "isothermal",
		Short: "Flux of isothermal plasma at temperature T [K] with emission measure EM [cm^-3]",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.synthesizer()
			if err != nil {
				return err
			}
			flux, err := s.Isothermal(cmd.Context(), ndarray.Vector(temps), ndarray.Vector(ems), opts.satellite)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s %-12s %-14s %-14s %s\n", "TEMP_K", "EM", "LONG", "SHORT", "CLASS")
			long, short := flux.Long.Raw(), flux.Short.Raw()
			for i := range long {
				fmt.Fprintf(out, "%-12.4g %-12.4g %-14.6e %-14.6e %s\n",
					temps[i], ems[i], long[i], short[i], solar.FluxToFlareClass(long[i]))
			}
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&temps, "temp", nil, "Temperatures in K (comma separated)")
	cmd.Flags().Float64SliceVar(&ems, "em", nil, "Emission measures in cm^-3, one per temperature")
	cmd.MarkFlagRequired("temp")
	cmd.MarkFlagRequired("em")
	return cmd
}

func newDEMCmd(opts *options) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "dem",
		Short: "Flux of every sample and point in a DEM document (.yaml, .parquet, optionally .gz/.zst)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := demio.Open(input)
			if err != nil {
				return err
			}
			s, err := opts.synthesizer()
			if err != nil {
				return err
			}
			records, err := pipeline.Synthesize(cmd.Context(), s, doc, opts.satellite)
			if err != nil {
				return err
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Input document")
	cmd.MarkFlagRequired("input")
	return cmd
}

func printRecords(out io.Writer, records []solar.FluxRecord) {
	fmt.Fprintf(out, "%-24s %-4s %-14s %-14s %s\n", "TIME", "SAT", "LONG", "SHORT", "CLASS")
	for _, r := range records {
		fmt.Fprintf(out, "%-24s %-4d %-14.6e %-14.6e %s\n",
			r.Time.Format(time.RFC3339), r.Satellite, r.Long, r.Short, r.Class)
	}
}

func newClassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "class CLASS...",
		Short: "Convert flare classes (e.g. C3.2) to peak flux in W m^-2",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				f, err := solar.FlareClassToFlux(a)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.3e\n", a, f)
			}
			return nil
		},
	}
}

func newFluxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flux FLUX...",
		Short: "Convert peak flux in W m^-2 to flare classes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid flux %q: %w", a, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a, solar.FluxToFlareClass(f))
			}
			return nil
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the raw response table to a zstd Parquet file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.provider.Table(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := response.WriteParquet(f, t); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", t.NumRows(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "goes_xrs_response.parquet", "Output Parquet file")
	return cmd
}
