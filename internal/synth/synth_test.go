package synth

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KI7MT/goes-xrs-synth/internal/ndarray"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
	"github.com/KI7MT/goes-xrs-synth/internal/response/responsetest"
)

// goes17Row is the table row GOES-17 resolves to.
const goes17Row = 19

func goes17(t *testing.T) response.Response {
	t.Helper()
	r, err := responsetest.Table().Response(17, response.Coronal)
	require.NoError(t, err)
	return r
}

func logspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Pow(10, start+(stop-start)*float64(i)/float64(n-1))
	}
	return out
}

func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + (stop-start)*float64(i)/float64(n-1)
	}
	return out
}

// gradient mirrors a second-order central difference with one-sided ends.
func gradient(x []float64) []float64 {
	n := len(x)
	g := make([]float64, n)
	g[0] = x[1] - x[0]
	g[n-1] = x[n-1] - x[n-2]
	for i := 1; i < n-1; i++ {
		g[i] = (x[i+1] - x[i-1]) / 2
	}
	return g
}

// interpLinear evaluates the piecewise-linear curve (xs, ys) at x.
func interpLinear(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	for i := 1; i < len(xs); i++ {
		if x <= xs[i] {
			f := (x - xs[i-1]) / (xs[i] - xs[i-1])
			return ys[i-1] + f*(ys[i]-ys[i-1])
		}
	}
	return ys[len(ys)-1]
}

func item(t *testing.T, a *ndarray.Array) float64 {
	t.Helper()
	v, err := a.Item()
	require.NoError(t, err)
	return v
}

func TestIsothermal_ShapeAndScaling(t *testing.T) {
	r := goes17(t)
	temp, err := ndarray.New([]float64{5e6, 1e7, 2e7, 3e7}, 2, 2)
	require.NoError(t, err)
	em, err := ndarray.New([]float64{1e49, 2e49, 1e48, 0}, 2, 2)
	require.NoError(t, err)

	flux, err := Isothermal(r, temp, em)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, flux.Long.Shape())
	assert.Equal(t, []int{2, 2}, flux.Short.Shape())

	// Grid interpolation of a smooth curve: compare loosely with the analytic form.
	assert.InEpsilon(t, responsetest.LongPerEM(goes17Row, 5), flux.Long.At(0, 0), 5e-3)
	assert.InEpsilon(t, 2*responsetest.LongPerEM(goes17Row, 10), flux.Long.At(0, 1), 5e-3)
	assert.InEpsilon(t, 0.1*responsetest.ShortPerEM(goes17Row, 20), flux.Short.At(1, 0), 5e-3)
	assert.Equal(t, 0.0, flux.Long.At(1, 1))
}

func TestIsothermal_LinearInEM(t *testing.T) {
	r := goes17(t)
	a, err := Isothermal(r, ndarray.Scalar(1.2e7), ndarray.Scalar(1e48))
	require.NoError(t, err)
	b, err := Isothermal(r, ndarray.Scalar(1.2e7), ndarray.Scalar(4e48))
	require.NoError(t, err)
	assert.InEpsilon(t, 4*item(t, a.Long), item(t, b.Long), 1e-12)
	assert.InEpsilon(t, 4*item(t, a.Short), item(t, b.Short), 1e-12)
}

func TestIsothermal_NegativeEMNotRejected(t *testing.T) {
	flux, err := Isothermal(goes17(t), ndarray.Scalar(1e7), ndarray.Scalar(-1e49))
	require.NoError(t, err)
	assert.Less(t, item(t, flux.Long), 0.0)
}

func TestIsothermal_OutOfRangeClampsToEndpoint(t *testing.T) {
	r := goes17(t)
	long, short := r.Long(), r.Short()

	hot, err := Isothermal(r, ndarray.Scalar(1e9), ndarray.Scalar(1e49))
	require.NoError(t, err)
	assert.Equal(t, long[len(long)-1], item(t, hot.Long))
	assert.Equal(t, short[len(short)-1], item(t, hot.Short))

	cold, err := Isothermal(r, ndarray.Scalar(1e3), ndarray.Scalar(1e49))
	require.NoError(t, err)
	assert.Equal(t, long[0], item(t, cold.Long))
	assert.Greater(t, item(t, cold.Long), 0.0)
}

func TestIsothermal_NaNTemperatureGivesNaN(t *testing.T) {
	f, err := Isothermal(goes17(t), ndarray.Vector([]float64{math.NaN(), 1e7}), ndarray.Vector([]float64{1e49, 1e49}))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f.Long.At(0)))
	assert.True(t, math.IsNaN(f.Short.At(0)))
	assert.False(t, math.IsNaN(f.Long.At(1)))
	assert.Positive(t, f.Long.At(1))
}

func TestIsothermal_ShapeMismatch(t *testing.T) {
	_, err := Isothermal(goes17(t), ndarray.Vector([]float64{1e7, 2e7}), ndarray.Vector([]float64{1e49}))
	assert.ErrorIs(t, err, ErrShape)
}

func TestDEM_DiracMatchesIsothermal(t *testing.T) {
	r := goes17(t)
	temp := logspace(6.0, 7.3, 200)
	const i0 = 123
	const em = 3e48

	dem := make([]float64, len(temp))
	dem[i0] = em / gradient(temp)[i0]

	fromDEM, err := DEM(r, temp, ndarray.Vector(dem), -1)
	require.NoError(t, err)
	assert.Equal(t, 0, fromDEM.Long.NDim())

	iso, err := Isothermal(r, ndarray.Scalar(temp[i0]), ndarray.Scalar(em))
	require.NoError(t, err)

	assert.InEpsilon(t, item(t, iso.Long), item(t, fromDEM.Long), 5e-3)
	assert.InEpsilon(t, item(t, iso.Short), item(t, fromDEM.Short), 5e-3)
}

func TestDEM_AxisArgument(t *testing.T) {
	r := goes17(t)
	temp := logspace(6.0, 7.0, 200)
	const n = 5

	rng := rand.New(rand.NewSource(0))
	values := make([]float64, n*len(temp))
	for i := range values {
		values[i] = math.Abs(rng.NormFloat64()) * 1e45
	}
	dem, err := ndarray.New(values, n, len(temp))
	require.NoError(t, err)

	f1, err := DEM(r, temp, dem, -1)
	require.NoError(t, err)
	assert.Equal(t, []int{n}, f1.Long.Shape())
	assert.Equal(t, []int{n}, f1.Short.Shape())

	demT, err := dem.Transpose()
	require.NoError(t, err)
	f2, err := DEM(r, temp, demT, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{n}, f2.Long.Shape())

	assert.Equal(t, f1.Long.Data(), f2.Long.Data())
	assert.Equal(t, f1.Short.Data(), f2.Short.Data())
}

func TestDEM_BatchAxesKeepOrder(t *testing.T) {
	r := goes17(t)
	temp := logspace(6.5, 7.2, 30)
	dem := ndarray.Zeros(2, len(temp), 3)
	for i := 0; i < 2; i++ {
		for j := range temp {
			for k := 0; k < 3; k++ {
				dem.Set(float64(1+i+10*k)*1e44, i, j, k)
			}
		}
	}

	flux, err := DEM(r, temp, dem, 1)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, flux.Long.Shape())

	// Constant DEM rows scale the integral linearly.
	base := flux.Long.At(0, 0)
	for i := 0; i < 2; i++ {
		for k := 0; k < 3; k++ {
			assert.InEpsilon(t, float64(1+i+10*k)*base, flux.Long.At(i, k), 1e-12)
		}
	}
}

func TestDEM_LogAndLinearGridsAgree(t *testing.T) {
	r := goes17(t)
	temp := logspace(6.0, 7.3, 400)
	dem := make([]float64, len(temp))
	for i, tk := range temp {
		x := (math.Log10(tk) - 6.9) / 0.15
		dem[i] = 1e45 * math.Exp(-x*x) * (1 + 0.3*math.Sin(3*math.Log10(tk)))
	}
	fLog, err := DEM(r, temp, ndarray.Vector(dem), -1)
	require.NoError(t, err)

	tempLin := linspace(temp[0], temp[len(temp)-1], len(temp))
	demLin := make([]float64, len(tempLin))
	for i, tk := range tempLin {
		demLin[i] = interpLinear(tk, temp, dem)
	}
	fLin, err := DEM(r, tempLin, ndarray.Vector(demLin), -1)
	require.NoError(t, err)

	assert.InEpsilon(t, item(t, fLog.Long), item(t, fLin.Long), 1e-2)
	assert.InEpsilon(t, item(t, fLog.Short), item(t, fLin.Short), 1e-2)
}

func TestDEM_OutOfRangeContributesZero(t *testing.T) {
	r := goes17(t)
	temp := logspace(8.3, 8.7, 20) // 200-500 MK, above the table
	dem := make([]float64, len(temp))
	for i := range dem {
		dem[i] = 1e46
	}
	flux, err := DEM(r, temp, ndarray.Vector(dem), -1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, item(t, flux.Long))
	assert.Equal(t, 0.0, item(t, flux.Short))

	// Same temperature through the isothermal path clamps instead.
	iso, err := Isothermal(r, ndarray.Scalar(temp[0]), ndarray.Scalar(1e49))
	require.NoError(t, err)
	assert.Greater(t, item(t, iso.Long), 0.0)
}

func TestZeroFilledResponse_EdgesOfGrid(t *testing.T) {
	r := goes17(t)
	lo, hi := r.TempRange()
	temp := []float64{lo * 1e6 * 0.99, lo * 1e6 * 1.000001, hi * 1e6 * 0.999999, hi * 1e6 * 1.01}
	long, short, err := zeroFilledResponse(r, temp)
	require.NoError(t, err)

	rl, rs := r.Long(), r.Short()
	assert.Equal(t, 0.0, long[0])
	assert.InEpsilon(t, rl[0], long[1], 1e-4)
	assert.InEpsilon(t, rl[len(rl)-1], long[2], 1e-4)
	assert.Equal(t, 0.0, long[3])
	assert.Equal(t, 0.0, short[0])
	assert.InEpsilon(t, rs[len(rs)-1], short[2], 1e-4)
	assert.Equal(t, 0.0, short[3])
}

func TestDEM_SinglePointIntegratesToZero(t *testing.T) {
	flux, err := DEM(goes17(t), []float64{1e7}, ndarray.Vector([]float64{1e45}), 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, item(t, flux.Long))
}

func TestDEM_Preconditions(t *testing.T) {
	r := goes17(t)
	tests := []struct {
		name string
		temp []float64
		dem  *ndarray.Array
		axis int
	}{
		{"empty grid", nil, ndarray.Vector(nil), -1},
		{"non-positive", []float64{0, 1e6}, ndarray.Vector([]float64{1, 1}), -1},
		{"negative", []float64{-1e6, 1e6}, ndarray.Vector([]float64{1, 1}), -1},
		{"not increasing", []float64{2e6, 1e6}, ndarray.Vector([]float64{1, 1}), -1},
		{"nan", []float64{1e6, math.NaN()}, ndarray.Vector([]float64{1, 1}), -1},
		{"length mismatch", []float64{1e6, 2e6, 3e6}, ndarray.Vector([]float64{1, 1}), -1},
		{"axis out of range", []float64{1e6, 2e6}, ndarray.Vector([]float64{1, 1}), 1},
		{"scalar dem", []float64{1e6}, ndarray.Scalar(1), 0},
		{"nil dem", []float64{1e6}, nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DEM(r, tc.temp, tc.dem, tc.axis)
			assert.ErrorIs(t, err, ErrShape)
		})
	}
}

type sourceFunc func(ctx context.Context, satellite int) (response.Response, error)

func (f sourceFunc) Response(ctx context.Context, satellite int) (response.Response, error) {
	return f(ctx, satellite)
}

func TestSynthesizer_ValidatesBeforeLoading(t *testing.T) {
	s := New(sourceFunc(func(ctx context.Context, satellite int) (response.Response, error) {
		t.Fatal("response must not be loaded for invalid input")
		return response.Response{}, nil
	}))

	_, err := s.DEM(context.Background(), []float64{2e6, 1e6}, ndarray.Vector([]float64{1, 1}), -1, 17)
	assert.ErrorIs(t, err, ErrShape)
	_, err = s.Isothermal(context.Background(), ndarray.Scalar(1e7), ndarray.Vector([]float64{1, 2}), 17)
	assert.ErrorIs(t, err, ErrShape)
}

func TestSynthesizer_UsesSatelliteRow(t *testing.T) {
	s := New(responsetest.Provider())
	ctx := context.Background()

	f16, err := s.Isothermal(ctx, ndarray.Scalar(1e7), ndarray.Scalar(1e49), 16)
	require.NoError(t, err)
	f17, err := s.Isothermal(ctx, ndarray.Scalar(1e7), ndarray.Scalar(1e49), response.DefaultSatellite)
	require.NoError(t, err)
	// Rows 15 and 19 differ by their synthetic gain.
	assert.InEpsilon(t, 1.19/1.15, item(t, f17.Long)/item(t, f16.Long), 1e-9)

	_, err = s.DEM(ctx, logspace(6, 7, 10), ndarray.Vector(make([]float64, 10)), -1, 99)
	assert.ErrorIs(t, err, response.ErrUnknownSatellite)
}
