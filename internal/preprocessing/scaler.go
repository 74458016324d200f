package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"telcochurn/internal/data"
)

// zeroScale is the relative deviation below which a column counts as constant.
const zeroScale = 10 * 2.220446049250313e-16

// StandardScaler rescales each column to zero mean and unit variance using
// statistics from the matrix it was fitted on.
type StandardScaler struct {
	IsFitted    bool
	FeatureMean []float64
	FeatureStd  []float64
}

func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// NewStandardScalerFrom restores a fitted scaler from persisted parameters.
func NewStandardScalerFrom(mean, std []float64) (*StandardScaler, error) {
	if len(mean) != len(std) {
		return nil, fmt.Errorf("%w: %d means but %d deviations", data.ErrValue, len(mean), len(std))
	}
	return &StandardScaler{
		IsFitted:    true,
		FeatureMean: append([]float64(nil), mean...),
		FeatureStd:  append([]float64(nil), std...),
	}, nil
}

func (s *StandardScaler) Fit(X mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return fmt.Errorf("%w: empty dataset", data.ErrValue)
	}

	s.FeatureMean = make([]float64, cols)
	s.FeatureStd = make([]float64, cols)

	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(column, j, X)
		mean, std := stat.PopMeanStdDev(column, nil)
		s.FeatureMean[j] = mean
		// A constant column maps to zero instead of dividing by zero.
		if std <= zeroScale*math.Max(1, math.Abs(mean)) {
			std = 1
		}
		s.FeatureStd[j] = std
	}

	s.IsFitted = true
	return nil
}

func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.IsFitted {
		return nil, fmt.Errorf("scaler must be fitted before transform")
	}

	rows, cols := X.Dims()
	if cols != len(s.FeatureMean) {
		return nil, fmt.Errorf("%w: scaler fitted on %d features, got %d", data.ErrValue, len(s.FeatureMean), cols)
	}

	result := mat.NewDense(rows, cols, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.FeatureMean[j]) / s.FeatureStd[j]
	}, X)
	return result, nil
}

// TransformRow scales a single feature vector.
func (s *StandardScaler) TransformRow(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty feature vector", data.ErrValue)
	}
	scaled, err := s.Transform(mat.NewDense(1, len(x), append([]float64(nil), x...)))
	if err != nil {
		return nil, err
	}
	return scaled.RawRowView(0), nil
}

func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
