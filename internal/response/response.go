// Package response provides GOES XRS temperature response functions.
//
// The raw response table is a FITS binary table (one row per spacecraft
// detector) published with SolarSoft. Each row carries a temperature grid in
// MK, the log10 of the emission measure the responses were computed for, and
// long/short channel fluxes. Response renormalizes a row to flux per 1e49 cm^-3.
package response

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidResponse is returned when response arrays violate their invariants.
var ErrInvalidResponse = errors.New("invalid response table")

// Response holds the temperature grid [MK] and the long/short channel
// responses [(W m^-2) / (1e49 cm^-3)] of one spacecraft. It is immutable:
// accessors return copies.
type Response struct {
	temp  []float64
	long  []float64
	short []float64
}

// NewResponse validates and copies the arrays. The grid must have at least two
// points, be strictly increasing, and all three arrays must be the same length
// and finite.
func NewResponse(temp, long, short []float64) (Response, error) {
	if len(temp) != len(long) || len(temp) != len(short) {
		return Response{}, fmt.Errorf("%w: lengths temp=%d long=%d short=%d",
			ErrInvalidResponse, len(temp), len(long), len(short))
	}
	if len(temp) < 2 {
		return Response{}, fmt.Errorf("%w: need at least 2 grid points, got %d", ErrInvalidResponse, len(temp))
	}
	for i := range temp {
		if !isFinite(temp[i]) || !isFinite(long[i]) || !isFinite(short[i]) {
			return Response{}, fmt.Errorf("%w: non-finite value at index %d", ErrInvalidResponse, i)
		}
		if i > 0 && temp[i] <= temp[i-1] {
			return Response{}, fmt.Errorf("%w: temperature grid not strictly increasing at index %d", ErrInvalidResponse, i)
		}
	}
	return Response{
		temp:  append([]float64(nil), temp...),
		long:  append([]float64(nil), long...),
		short: append([]float64(nil), short...),
	}, nil
}

// Len returns the number of grid points.
func (r Response) Len() int { return len(r.temp) }

// Temp returns the temperature grid in MK.
func (r Response) Temp() []float64 { return append([]float64(nil), r.temp...) }

// Long returns the long channel (1-8 A) response.
func (r Response) Long() []float64 { return append([]float64(nil), r.long...) }

// Short returns the short channel (0.5-4 A) response.
func (r Response) Short() []float64 { return append([]float64(nil), r.short...) }

// TempRange returns the first and last grid temperatures in MK.
func (r Response) TempRange() (lo, hi float64) {
	if len(r.temp) == 0 {
		return math.NaN(), math.NaN()
	}
	return r.temp[0], r.temp[len(r.temp)-1]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
