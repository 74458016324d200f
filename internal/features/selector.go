// Package features selects model inputs by their Pearson correlation with the target.
package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"telcochurn/internal/data"
)

// DefaultThreshold is the minimum absolute correlation a feature needs to be kept.
const DefaultThreshold = 0.19

type Correlation struct {
	Feature string
	R       float64
	// Defined is false when the feature has zero variance and r is 0/0.
	Defined bool
}

func (c Correlation) Abs() float64 {
	return math.Abs(c.R)
}

type Selection struct {
	Target       string
	Threshold    float64
	Features     []string
	Correlations []Correlation
	Undefined    []string
}

type Selector struct {
	Target    string
	Threshold float64
}

func NewSelector(target string, threshold float64) *Selector {
	return &Selector{Target: target, Threshold: threshold}
}

// Correlations returns r between the target and every other column, in
// column order.
func (s *Selector) Correlations(f *data.Frame) ([]Correlation, error) {
	target, err := s.targetValues(f)
	if err != nil {
		return nil, err
	}

	var out []Correlation
	for _, col := range f.Columns() {
		if col.Name == s.Target {
			continue
		}
		values, err := numericValues(col)
		if err != nil {
			return nil, err
		}
		c := Correlation{Feature: col.Name}
		if !constant(values) {
			c.R = stat.Correlation(values, target, nil)
			c.Defined = !math.IsNaN(c.R)
		}
		out = append(out, c)
	}
	return out, nil
}

// Select keeps the features whose |r| is strictly above the threshold.
// Features with an undefined correlation are never kept.
func (s *Selector) Select(f *data.Frame) (*Selection, error) {
	corrs, err := s.Correlations(f)
	if err != nil {
		return nil, err
	}

	sel := &Selection{
		Target:       s.Target,
		Threshold:    s.Threshold,
		Correlations: corrs,
	}
	for _, c := range corrs {
		if !c.Defined {
			sel.Undefined = append(sel.Undefined, c.Feature)
			continue
		}
		if c.Abs() > s.Threshold {
			sel.Features = append(sel.Features, c.Feature)
		}
	}
	return sel, nil
}

func (s *Selector) targetValues(f *data.Frame) ([]float64, error) {
	col, err := f.Column(s.Target)
	if err != nil {
		return nil, err
	}
	values, err := numericValues(col)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if v != 0 && v != 1 {
			return nil, fmt.Errorf("%w: target %q must be encoded as 0/1, found %v at row %d", data.ErrValue, s.Target, v, i)
		}
	}
	if constant(values) {
		return nil, fmt.Errorf("%w: target %q has a single class", data.ErrValue, s.Target)
	}
	return values, nil
}

func numericValues(col *data.Column) ([]float64, error) {
	if col.Kind != data.Numeric {
		return nil, fmt.Errorf("%w: column %q is %s, encode it first", data.ErrValue, col.Name, col.Kind)
	}
	values := make([]float64, col.Len())
	for i := range values {
		v, ok := col.Float(i)
		if !ok {
			return nil, fmt.Errorf("%w: column %q has a missing value at row %d", data.ErrValue, col.Name, i)
		}
		values[i] = v
	}
	return values, nil
}

func constant(values []float64) bool {
	if len(values) < 2 {
		return true
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// Matrix is a labelled square correlation matrix.
type Matrix struct {
	Names []string
	Corr  *mat.SymDense
}

func (m *Matrix) At(a, b string) (float64, error) {
	i, j := -1, -1
	for k, name := range m.Names {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, fmt.Errorf("%w: %q or %q not in correlation matrix", data.ErrSchema, a, b)
	}
	return m.Corr.At(i, j), nil
}

// CorrelationMatrix computes pairwise r for the named numeric columns.
// Entries involving a constant column are NaN.
func CorrelationMatrix(f *data.Frame, names []string) (*Matrix, error) {
	X, err := f.Matrix(names)
	if err != nil {
		return nil, err
	}
	if f.Rows() < 2 {
		return nil, fmt.Errorf("%w: correlation needs at least 2 rows", data.ErrValue)
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, X, nil)
	return &Matrix{Names: append([]string(nil), names...), Corr: &corr}, nil
}
