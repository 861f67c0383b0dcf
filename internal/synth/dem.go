package synth

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"

	"github.com/KI7MT/goes-xrs-synth/internal/ndarray"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
)

// DEM integrates a differential emission measure against the response.
//
// temp is the 1-D grid [K] (strictly increasing, positive); dem [cm^-3 K^-1]
// has len(temp) samples along axis (negative counts from the end) and any
// number of batch axes. The result has dem's shape with axis removed.
//
// The integral runs over log10(T): DEM is converted to per unit log10 T by
// dT/dlog10T = T ln10 and integrated with the trapezoidal rule. Grid points
// outside the response table contribute zero.
func DEM(r response.Response, temp []float64, dem *ndarray.Array, axis int) (Flux, error) {
	ax, err := checkDEM(temp, dem, axis)
	if err != nil {
		return Flux{}, err
	}

	rl, rs, err := zeroFilledResponse(r, temp)
	if err != nil {
		return Flux{}, err
	}

	nT := len(temp)
	logT := make([]float64, nT)
	dTdLogT := make([]float64, nT)
	for i, t := range temp {
		logT[i] = math.Log10(t)
		dTdLogT[i] = t * math.Ln10
	}

	moved, err := dem.MoveAxisToEnd(ax)
	if err != nil {
		return Flux{}, err
	}
	data := moved.Raw()
	batch := len(data) / nT

	fl := make([]float64, batch)
	fs := make([]float64, batch)
	gl := make([]float64, nT)
	gs := make([]float64, nT)
	for b := 0; b < batch; b++ {
		row := data[b*nT : (b+1)*nT]
		for j, d := range row {
			em49 := d * dTdLogT[j] / emUnit
			gl[j] = rl[j] * em49
			gs[j] = rs[j] * em49
		}
		fl[b] = trapezoid(logT, gl)
		fs[b] = trapezoid(logT, gs)
	}

	shape := moved.Shape()
	shape = shape[:len(shape)-1]
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

// zeroFilledResponse interpolates both channels onto temp, returning zero
// where temp lies outside the tabulated range.
func zeroFilledResponse(r response.Response, temp []float64) (long, short []float64, err error) {
	var pl, ps interp.PiecewiseLinear
	if err := pl.Fit(r.Temp(), r.Long()); err != nil {
		return nil, nil, fmt.Errorf("fit long response: %w", err)
	}
	if err := ps.Fit(r.Temp(), r.Short()); err != nil {
		return nil, nil, fmt.Errorf("fit short response: %w", err)
	}

	lo, hi := r.TempRange()
	long = make([]float64, len(temp))
	short = make([]float64, len(temp))
	for i, t := range temp {
		tMK := t / kelvinPerMK
		if tMK < lo || tMK > hi {
			continue
		}
		long[i] = pl.Predict(tMK)
		short[i] = ps.Predict(tMK)
	}
	return long, short, nil
}

// trapezoid integrates f over x; fewer than two samples integrate to zero.
func trapezoid(x, f []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return integrate.Trapezoidal(x, f)
}

func checkDEM(temp []float64, dem *ndarray.Array, axis int) (int, error) {
	if len(temp) == 0 {
		return 0, fmt.Errorf("%w: empty temperature grid", ErrShape)
	}
	for i, t := range temp {
		if !(t > 0) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("%w: temperature[%d] = %g is not positive and finite", ErrShape, i, t)
		}
		if i > 0 && t <= temp[i-1] {
			return 0, fmt.Errorf("%w: temperature grid not strictly increasing at index %d", ErrShape, i)
		}
	}
	if dem == nil || dem.NDim() == 0 {
		return 0, fmt.Errorf("%w: DEM needs at least one dimension", ErrShape)
	}
	ax, err := ndarray.NormalizeAxis(axis, dem.NDim())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if n := dem.Shape()[ax]; n != len(temp) {
		return 0, fmt.Errorf("%w: DEM axis %d has %d samples, temperature grid has %d", ErrShape, axis, n, len(temp))
	}
	return ax, nil
}
