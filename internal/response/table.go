package response

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Column names in the SolarSoft GOES CHIANTI response table.
const (
	ColTempMK   = "TEMP_MK"
	ColLog10EM  = "ALOG10EM"
	ColLongCor  = "FLONG_COR"
	ColShortCor = "FSHORT_COR"
	ColLongPho  = "FLONG_PHO"
	ColShortPho = "FSHORT_PHO"
)

// Abundance selects which elemental abundance set the responses assume.
type Abundance int

const (
	Coronal Abundance = iota
	Photospheric
)

func (a Abundance) String() string {
	switch a {
	case Coronal:
		return "coronal"
	case Photospheric:
		return "photospheric"
	default:
		return fmt.Sprintf("Abundance(%d)", int(a))
	}
}

// ParseAbundance accepts "coronal" or "photospheric".
func ParseAbundance(s string) (Abundance, error) {
	switch s {
	case "coronal", "cor", "":
		return Coronal, nil
	case "photospheric", "pho":
		return Photospheric, nil
	}
	return 0, fmt.Errorf("unknown abundance %q (want coronal or photospheric)", s)
}

// RawRow is one unscaled row of the response table.
// Photospheric columns are empty when the source table lacks them.
type RawRow struct {
	TempMK   []float64
	Log10EM  float64
	LongCor  []float64
	ShortCor []float64
	LongPho  []float64
	ShortPho []float64
}

// Table is the in-memory raw response table, indexed by SatelliteIndex.
type Table struct {
	Rows []RawRow
}

// NumRows returns the number of detector rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Row resolves satellite to its raw row.
func (t *Table) Row(satellite int) (RawRow, error) {
	// Reject before indexing so huge numbers cannot wrap into a valid row.
	if satellite < 1 || satellite > lastSingleRowSatellite+len(t.Rows) {
		return RawRow{}, fmt.Errorf("%w: GOES-%d, table has %d rows", ErrUnknownSatellite, satellite, len(t.Rows))
	}
	idx := SatelliteIndex(satellite)
	if idx < 0 || idx >= len(t.Rows) {
		return RawRow{}, unknownSatellite(satellite, idx, len(t.Rows))
	}
	return t.Rows[idx], nil
}

// Response builds the scaled response of satellite for the given abundance.
// Both channels are multiplied by 10^(49 - ALOG10EM) so that they read as
// flux per 1e49 cm^-3 of emission measure.
func (t *Table) Response(satellite int, abundance Abundance) (Response, error) {
	row, err := t.Row(satellite)
	if err != nil {
		return Response{}, err
	}

	var long, short []float64
	switch abundance {
	case Coronal:
		long, short = row.LongCor, row.ShortCor
	case Photospheric:
		if len(row.LongPho) == 0 || len(row.ShortPho) == 0 {
			return Response{}, fmt.Errorf("%w: table has no photospheric columns", ErrInvalidResponse)
		}
		long, short = row.LongPho, row.ShortPho
	default:
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidResponse, abundance)
	}

	scale := math.Pow(10, 49-row.Log10EM)
	resp, err := NewResponse(row.TempMK, scaled(long, scale), scaled(short, scale))
	if err != nil {
		return Response{}, fmt.Errorf("GOES-%d: %w", satellite, err)
	}
	return resp, nil
}

func scaled(v []float64, s float64) []float64 {
	return floats.ScaleTo(make([]float64, len(v)), s, v)
}
