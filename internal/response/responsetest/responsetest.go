// Package responsetest builds synthetic response tables for tests.
//
// The shapes mimic the SolarSoft table (log-spaced 0.5-100 MK grid, responses
// rising steeply with temperature) without needing the real file.
package responsetest

import (
	"math"

	"github.com/KI7MT/goes-xrs-synth/internal/response"
)

const (
	// NumRows covers satellites up to GOES-18's block.
	NumRows = 28
	// GridPoints is the length of every synthetic temperature grid.
	GridPoints = 101
	// Log10EM is the reference emission measure of every row.
	Log10EM = 55.0

	minLog10MK = -0.3
	maxLog10MK = 2.0
)

// TempMK returns the synthetic grid: GridPoints log-spaced values from
// 10^-0.3 to 100 MK.
func TempMK() []float64 {
	t := make([]float64, GridPoints)
	for i := range t {
		t[i] = math.Pow(10, minLog10MK+(maxLog10MK-minLog10MK)*float64(i)/float64(GridPoints-1))
	}
	return t
}

// LongPerEM is the long-channel response per 1e49 cm^-3 at tMK for row.
func LongPerEM(row int, tMK float64) float64 {
	return 1e-5 * (1 + 0.01*float64(row)) * math.Exp(-15/tMK)
}

// ShortPerEM is the short-channel response per 1e49 cm^-3 at tMK for row.
func ShortPerEM(row int, tMK float64) float64 {
	return 5e-6 * (1 + 0.01*float64(row)) * math.Exp(-30/tMK)
}

// Table returns a raw table whose rows differ by a per-row gain, stored
// relative to an emission measure of 10^Log10EM like the real file.
func Table() *response.Table {
	temp := TempMK()
	unscale := math.Pow(10, Log10EM-49)

	t := &response.Table{Rows: make([]response.RawRow, NumRows)}
	for r := range t.Rows {
		row := response.RawRow{
			TempMK:   append([]float64(nil), temp...),
			Log10EM:  Log10EM,
			LongCor:  make([]float64, GridPoints),
			ShortCor: make([]float64, GridPoints),
			LongPho:  make([]float64, GridPoints),
			ShortPho: make([]float64, GridPoints),
		}
		for i, tm := range temp {
			row.LongCor[i] = LongPerEM(r, tm) * unscale
			row.ShortCor[i] = ShortPerEM(r, tm) * unscale
			row.LongPho[i] = row.LongCor[i] / 2
			row.ShortPho[i] = row.ShortCor[i] / 2
		}
		t.Rows[r] = row
	}
	return t
}

// Provider returns a provider serving Table.
func Provider() *response.Provider {
	return response.NewProvider(response.StaticLoader(Table()))
}
