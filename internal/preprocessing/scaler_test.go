package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestStandardScaler_TrainStatistics(t *testing.T) {
	train := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	s := NewStandardScaler()
	scaled, err := s.FitTransform(train)
	require.NoError(t, err)

	col := make([]float64, 4)
	for j := 0; j < 2; j++ {
		mat.Col(col, j, scaled)
		mean, std := stat.PopMeanStdDev(col, nil)
		assert.InDelta(t, 0, mean, 1e-12)
		assert.InDelta(t, 1, std, 1e-12)
	}
	assert.Equal(t, []float64{2.5, 25}, s.FeatureMean)
}

func TestStandardScaler_TestDataDoesNotRefit(t *testing.T) {
	train := mat.NewDense(3, 1, []float64{1, 2, 3})
	s := NewStandardScaler()
	require.NoError(t, s.Fit(train))

	mean := append([]float64(nil), s.FeatureMean...)
	std := append([]float64(nil), s.FeatureStd...)

	for _, test := range []*mat.Dense{
		mat.NewDense(2, 1, []float64{100, 200}),
		mat.NewDense(1, 1, []float64{-5}),
	} {
		_, err := s.Transform(test)
		require.NoError(t, err)
		assert.Equal(t, mean, s.FeatureMean)
		assert.Equal(t, std, s.FeatureStd)
	}

	out, err := s.Transform(mat.NewDense(1, 1, []float64{2}))
	require.NoError(t, err)
	assert.InDelta(t, 0, out.At(0, 0), 1e-12)
}

func TestStandardScaler_ConstantColumn(t *testing.T) {
	train := mat.NewDense(3, 2, []float64{
		0.1, 1,
		0.1, 2,
		0.1, 3,
	})
	s := NewStandardScaler()
	scaled, err := s.FitTransform(train)
	require.NoError(t, err)

	assert.Equal(t, 1.0, s.FeatureStd[0])
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 0, scaled.At(i, 0), 1e-9)
	}
}

func TestStandardScaler_Errors(t *testing.T) {
	s := NewStandardScaler()
	_, err := s.Transform(mat.NewDense(1, 1, []float64{1}))
	assert.Error(t, err)

	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = s.Transform(mat.NewDense(1, 3, []float64{1, 2, 3}))
	assert.Error(t, err)

	row, err := s.TransformRow([]float64{2, 3})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0}, row, 1e-12)
}
