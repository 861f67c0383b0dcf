// xrs-synth - Synthesize GOES XRS fluxes from isothermal plasma or a DEM
//
// Subcommands:
//   - response:   print a satellite's temperature response
//   - isothermal: flux of isothermal plasma (T, EM)
//   - dem:        flux of every sample in a DEM document
//   - class/flux: flare class conversions
//   - export:     write the raw response table to Parquet
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/xrs-synth ./cmd/xrs-synth

package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
