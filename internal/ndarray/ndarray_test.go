package ndarray

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SizeMismatch_ReturnsErrShape(t *testing.T) {
	_, err := New([]float64{1, 2, 3}, 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShape))
}

func TestNew_CopiesInput(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	a, err := New(src, 2, 2)
	require.NoError(t, err)
	src[0] = 99
	assert.Equal(t, 1.0, a.At(0, 0))
}

func TestScalar_IsZeroDimensional(t *testing.T) {
	s := Scalar(4.5)
	assert.Equal(t, 0, s.NDim())
	assert.Equal(t, 1, s.Size())
	v, err := s.Item()
	require.NoError(t, err)
	assert.Equal(t, 4.5, v)
}

func TestMoveAxisToEnd_2D_IsTranspose(t *testing.T) {
	a, err := New([]float64{
		1, 2, 3,
		4, 5, 6,
	}, 2, 3)
	require.NoError(t, err)

	m, err := a.MoveAxisToEnd(0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, m.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, m.Data())
}

func TestMoveAxisToEnd_LastAxis_IsIdentity(t *testing.T) {
	a, err := New([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	m, err := a.MoveAxisToEnd(-1)
	require.NoError(t, err)
	assert.Equal(t, a.Shape(), m.Shape())
	assert.Equal(t, a.Data(), m.Data())
}

func TestMoveAxisToEnd_3D_MiddleAxis(t *testing.T) {
	a := Zeros(2, 3, 4)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				a.Set(float64(100*i+10*j+k), i, j, k)
			}
		}
	}

	m, err := a.MoveAxisToEnd(1)
	require.NoError(t, err)
	require.Equal(t, []int{2, 4, 3}, m.Shape())
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 4; k++ {
				assert.Equal(t, a.At(i, j, k), m.At(i, k, j))
			}
		}
	}
}

func TestNormalizeAxis(t *testing.T) {
	tests := []struct {
		axis, ndim, want int
		wantErr          bool
	}{
		{axis: 0, ndim: 3, want: 0},
		{axis: -1, ndim: 3, want: 2},
		{axis: -3, ndim: 3, want: 0},
		{axis: 3, ndim: 3, wantErr: true},
		{axis: -4, ndim: 3, wantErr: true},
		{axis: 0, ndim: 0, wantErr: true},
	}
	for _, tc := range tests {
		got, err := NormalizeAxis(tc.axis, tc.ndim)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrShape, "axis=%d ndim=%d", tc.axis, tc.ndim)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestTranspose_Requires2D(t *testing.T) {
	_, err := Vector([]float64{1, 2}).Transpose()
	assert.ErrorIs(t, err, ErrShape)
}
