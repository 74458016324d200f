package preprocessing

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telcochurn/internal/data"
)

func TestLabelEncoder_SortedCodes(t *testing.T) {
	le := NewLabelEncoder()
	codes, err := le.FitTransform([]string{"Yes", "No", "No", "Yes", "No"})
	require.NoError(t, err)

	assert.Equal(t, []string{"No", "Yes"}, le.Classes)
	assert.Equal(t, []int{1, 0, 0, 1, 0}, codes)

	le = NewLabelEncoder()
	_, err = le.FitTransform([]string{"Two year", "Month-to-month", "One year"})
	require.NoError(t, err)
	want := map[string]int{"Month-to-month": 0, "One year": 1, "Two year": 2}
	if diff := cmp.Diff(want, le.ClassToInt); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelEncoder_Bijection(t *testing.T) {
	values := []string{"DSL", "Fiber optic", "No", "DSL", "No", "Fiber optic", "Fiber optic"}

	le := NewLabelEncoder()
	codes, err := le.FitTransform(values)
	require.NoError(t, err)

	decoded, err := le.InverseTransform(codes)
	require.NoError(t, err)
	assert.Equal(t, values, decoded)

	seen := make(map[int]string)
	for i, code := range codes {
		if prev, ok := seen[code]; ok {
			assert.Equal(t, prev, values[i], "code %d shared by two values", code)
		}
		seen[code] = values[i]
	}
	assert.Len(t, seen, 3)
}

func TestLabelEncoder_Errors(t *testing.T) {
	le := NewLabelEncoder()
	_, err := le.Transform([]string{"x"})
	assert.Error(t, err)

	require.NoError(t, le.Fit([]string{"a", "b"}))
	_, err = le.Transform([]string{"c"})
	assert.True(t, errors.Is(err, data.ErrValue))

	_, err = le.InverseTransform([]int{2})
	assert.True(t, errors.Is(err, data.ErrValue))

	_, err = NewLabelEncoderFromClasses([]string{"b", "a"})
	assert.True(t, errors.Is(err, data.ErrValue))
}

func TestEncodeFrame(t *testing.T) {
	f, err := data.NewFrame(
		data.NewCategorical("Partner", []string{"Yes", "No", "Yes"}),
		data.NewNumericFloat("tenure", []float64{1, 2, 3}),
		data.NewCategorical("Churn", []string{"No", "No", "Yes"}),
	)
	require.NoError(t, err)

	encoded, enc, err := EncodeFrame(f)
	require.NoError(t, err)

	assert.Equal(t, []string{"Partner", "Churn"}, enc.Columns)
	for _, col := range encoded.Columns() {
		assert.Equal(t, data.Numeric, col.Kind, col.Name)
	}

	partner, err := encoded.Labels("Partner")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, partner)

	churn, err := encoded.Labels("Churn")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, churn)

	mapping, ok := enc.Mapping("Churn")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"No": 0, "Yes": 1}, mapping)

	// the persisted form restores an identical encoding
	restored, err := EncodingFromClasses(enc.Columns, enc.Classes())
	require.NoError(t, err)
	again, err := restored.Apply(f)
	require.NoError(t, err)
	churnAgain, err := again.Labels("Churn")
	require.NoError(t, err)
	assert.Equal(t, churn, churnAgain)
}

func TestEncodeFrame_RejectsMissing(t *testing.T) {
	f, err := data.NewFrame(data.NewCategorical("Partner", []string{"Yes", ""}))
	require.NoError(t, err)

	_, _, err = EncodeFrame(f)
	assert.True(t, errors.Is(err, data.ErrValue))
}
