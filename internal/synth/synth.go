// Package synth synthesizes GOES XRS channel fluxes from isothermal emission
// measures or differential emission measures (DEM).
//
// Units: temperatures in K, emission measure in cm^-3, DEM in cm^-3 K^-1,
// fluxes in W m^-2. Responses are tabulated in MK per 1e49 cm^-3.
//
// The two synthesizers differ outside the tabulated temperature
// range: Isothermal clamps to the end-point response, DEM contributes zero.
package synth

import (
	"context"
	"errors"

	"github.com/KI7MT/goes-xrs-synth/internal/ndarray"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
)

const (
	// kelvinPerMK converts input temperatures onto the response grid.
	kelvinPerMK = 1e6
	// emUnit is the emission measure the responses are normalized to.
	emUnit = 1e49
)

// ErrShape is returned for precondition failures on input arrays.
var ErrShape = errors.New("synth: invalid input shape")

// Flux holds the long (1-8 A) and short (0.5-4 A) channel fluxes in W m^-2.
type Flux struct {
	Long  *ndarray.Array
	Short *ndarray.Array
}

// ResponseSource yields the response of a satellite. *response.Provider
// satisfies it.
type ResponseSource interface {
	Response(ctx context.Context, satellite int) (response.Response, error)
}

// Synthesizer binds both synthesizers to a response source.
type Synthesizer struct {
	src ResponseSource
}

// New returns a Synthesizer reading responses from src.
func New(src ResponseSource) *Synthesizer {
	return &Synthesizer{src: src}
}

// Isothermal validates the inputs, loads the satellite's response and calls
// Isothermal.
func (s *Synthesizer) Isothermal(ctx context.Context, temp, em *ndarray.Array, satellite int) (Flux, error) {
	if err := checkIsothermal(temp, em); err != nil {
		return Flux{}, err
	}
	r, err := s.src.Response(ctx, satellite)
	if err != nil {
		return Flux{}, err
	}
	return Isothermal(r, temp, em)
}

// DEM validates the inputs, loads the satellite's response and calls DEM.
func (s *Synthesizer) DEM(ctx context.Context, temp []float64, dem *ndarray.Array, axis, satellite int) (Flux, error) {
	if _, err := checkDEM(temp, dem, axis); err != nil {
		return Flux{}, err
	}
	r, err := s.src.Response(ctx, satellite)
	if err != nil {
		return Flux{}, err
	}
	return DEM(r, temp, dem, axis)
}
