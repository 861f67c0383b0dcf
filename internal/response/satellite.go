package response

import (
	"errors"
	"fmt"
)

// DefaultSatellite is the GOES spacecraft used when callers do not pick one.
const DefaultSatellite = 17

// SecondaryChannelOffset selects among the detector rows that GOES-R series
// spacecraft share within one generation block. Only the primary row is used.
const SecondaryChannelOffset = 0

// lastSingleRowSatellite is the highest satellite number with one table row.
const lastSingleRowSatellite = 15

// rowsPerSatelliteGOESR is the number of rows reserved per GOES-16+ spacecraft.
const rowsPerSatelliteGOESR = 4

// ErrUnknownSatellite is returned when a satellite number has no table row.
var ErrUnknownSatellite = errors.New("unknown satellite")

// SatelliteIndex maps a public GOES number to its row in the response table.
//
// GOES-1..15 occupy rows 0..14. From GOES-16 on, each spacecraft owns a block
// of four rows starting at row 15; SecondaryChannelOffset picks within it.
func SatelliteIndex(satellite int) int {
	if satellite <= lastSingleRowSatellite {
		return satellite - 1
	}
	return lastSingleRowSatellite + rowsPerSatelliteGOESR*(satellite-16) + SecondaryChannelOffset
}

func unknownSatellite(satellite, row, rows int) error {
	return fmt.Errorf("%w: GOES-%d resolves to row %d, table has %d rows", ErrUnknownSatellite, satellite, row, rows)
}
