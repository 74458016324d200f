package data

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame(
		NewCategorical("id", []string{"a", "b", "c"}),
		NewCategorical("flag", []string{"Yes", "", "No"}),
		NewNumeric("amount", []decimal.NullDecimal{
			decimal.NewNullDecimal(decimal.RequireFromString("1.5")),
			decimal.NewNullDecimal(decimal.RequireFromString("2")),
			{},
		}),
	)
	require.NoError(t, err)
	return f
}

func TestNewFrame_RejectsMismatchedLengths(t *testing.T) {
	_, err := NewFrame(
		NewCategorical("a", []string{"x"}),
		NewCategorical("b", []string{"x", "y"}),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestFrame_DropLeavesOriginalUntouched(t *testing.T) {
	f := testFrame(t)

	dropped, err := f.Drop("id")
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "amount"}, dropped.Names())
	assert.Equal(t, []string{"id", "flag", "amount"}, f.Names())

	_, err = f.Drop("missing")
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestFrame_FilterAndMissing(t *testing.T) {
	f := testFrame(t)

	assert.False(t, f.HasMissing(0))
	assert.True(t, f.HasMissing(1))
	assert.True(t, f.HasMissing(2))

	kept := f.Filter(func(row int) bool { return !f.HasMissing(row) })
	assert.Equal(t, 1, kept.Rows())
	assert.Equal(t, 3, f.Rows())

	id, err := kept.Column("id")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, id.Text)
}

func TestFrame_MatrixAndLabels(t *testing.T) {
	f, err := NewFrame(
		NewNumericFloat("x", []float64{1, 2, 3}),
		NewNumericFloat("y", []float64{0, 1, 1}),
	)
	require.NoError(t, err)

	m, err := f.Matrix([]string{"x", "y"})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3.0, m.At(2, 0))

	labels, err := f.Labels("y")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1}, labels)

	_, err = testFrame(t).Matrix([]string{"amount"})
	assert.True(t, errors.Is(err, ErrValue))
	_, err = testFrame(t).Matrix([]string{"flag"})
	assert.True(t, errors.Is(err, ErrValue))
}

func TestFrame_RowKeyDetectsDuplicates(t *testing.T) {
	f, err := NewFrame(
		NewCategorical("a", []string{"x", "x", "y"}),
		NewNumericFloat("b", []float64{1, 1, 1}),
	)
	require.NoError(t, err)
	assert.Equal(t, f.RowKey(0), f.RowKey(1))
	assert.NotEqual(t, f.RowKey(0), f.RowKey(2))
}
