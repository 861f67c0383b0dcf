// Package solar provides GOES X-ray flare classification and the
// synthesized flux record written to ClickHouse.
package solar

import (
	"time"
)

// FluxRecord represents one synthesized GOES XRS flux sample.
type FluxRecord struct {
	Time      time.Time `ch:"time"`       // Sample time UTC
	Satellite uint8     `ch:"satellite"`  // GOES spacecraft number
	Long      float64   `ch:"xray_long"`  // 1-8 A flux W/m^2
	Short     float64   `ch:"xray_short"` // 0.5-4 A flux W/m^2
	Class     string    `ch:"class"`      // Flare class of the long channel
	Source    string    `ch:"source"`     // Input document name
}

// NewFluxRecord fills Class from the long-channel flux.
func NewFluxRecord(ts time.Time, satellite int, long, short float64, source string) FluxRecord {
	return FluxRecord{
		Time:      ts.UTC(),
		Satellite: uint8(satellite),
		Long:      long,
		Short:     short,
		Class:     FluxToFlareClass(long),
		Source:    source,
	}
}

// SchemaVersion is the current flux schema version.
const SchemaVersion = 1
