package synth

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/KI7MT/goes-xrs-synth/internal/ndarray"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
)

// Isothermal returns the flux of plasma at temp [K] with emission measure
// em [cm^-3], elementwise. temp and em must have the same shape, which is also
// the shape of both outputs. Temperatures outside the response grid take the
// response at the nearest grid end; a NaN temperature yields NaN flux.
// Negative em is not rejected.
func Isothermal(r response.Response, temp, em *ndarray.Array) (Flux, error) {
	if err := checkIsothermal(temp, em); err != nil {
		return Flux{}, err
	}

	var long, short interp.PiecewiseLinear
	if err := long.Fit(r.Temp(), r.Long()); err != nil {
		return Flux{}, fmt.Errorf("fit long response: %w", err)
	}
	if err := short.Fit(r.Temp(), r.Short()); err != nil {
		return Flux{}, fmt.Errorf("fit short response: %w", err)
	}

	lo, hi := r.TempRange()
	t, e := temp.Raw(), em.Raw()
	fl := make([]float64, len(t))
	fs := make([]float64, len(t))
	for i := range t {
		if math.IsNaN(t[i]) {
			fl[i], fs[i] = math.NaN(), math.NaN()
			continue
		}
		tMK := math.Min(math.Max(t[i]/kelvinPerMK, lo), hi)
		em49 := e[i] / emUnit
		fl[i] = long.Predict(tMK) * em49
		fs[i] = short.Predict(tMK) * em49
	}

	shape := em.Shape()
	outLong, err := ndarray.New(fl, shape...)
	if err != nil {
		return Flux{}, err
	}
	outShort, err := ndarray.New(fs, shape...)
	if err != nil {
		return Flux{}, err
	}
	return Flux{Long: outLong, Short: outShort}, nil
}

func checkIsothermal(temp, em *ndarray.Array) error {
	if temp == nil || em == nil {
		return fmt.Errorf("%w: nil temperature or emission measure", ErrShape)
	}
	if !temp.SameShape(em) {
		return fmt.Errorf("%w: temperature shape %v != emission measure shape %v", ErrShape, temp.Shape(), em.Shape())
	}
	return nil
}
