package data

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `customerID,gender,tenure,MonthlyCharges,TotalCharges,Churn
0001-A,Female,1,29.85,29.85,No
0002-B,Male,34,56.95,1889.5,No
0003-C,Male,0,53.85, ,Yes
0004-D,Female,45,,1840.75,No
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV_InfersKinds(t *testing.T) {
	f, err := LoadCSV(writeFile(t, sampleCSV))
	require.NoError(t, err)

	rows, cols := f.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 6, cols)
	assert.Equal(t, []string{"customerID", "gender", "tenure", "MonthlyCharges", "TotalCharges", "Churn"}, f.Names())

	kinds := map[string]Kind{
		"customerID":     Categorical,
		"gender":         Categorical,
		"tenure":         Numeric,
		"MonthlyCharges": Numeric,
		"TotalCharges":   Categorical,
		"Churn":          Categorical,
	}
	for name, want := range kinds {
		col, err := f.Column(name)
		require.NoError(t, err)
		assert.Equal(t, want, col.Kind, name)
	}
}

func TestLoadCSV_EmptyFieldIsMissing(t *testing.T) {
	f, err := LoadCSV(writeFile(t, sampleCSV))
	require.NoError(t, err)

	monthly, err := f.Column("MonthlyCharges")
	require.NoError(t, err)
	assert.Equal(t, 1, monthly.MissingCount())
	assert.True(t, monthly.IsMissing(3))

	// A single space is a blank string, not a missing value.
	total, err := f.Column("TotalCharges")
	require.NoError(t, err)
	assert.Equal(t, 0, total.MissingCount())
	assert.Equal(t, " ", total.Text[2])
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadFrame_Malformed(t *testing.T) {
	cases := map[string]string{
		"ragged":          "a,b\n1,2\n3\n",
		"bad quote":       "a,b\n\"1,2\n",
		"empty":           "",
		"duplicate names": "a,a\n1,2\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadFrame(strings.NewReader(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse), err.Error())
		})
	}
}

func TestReadFrame_HeaderOnly(t *testing.T) {
	f, err := ReadFrame(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Rows())
	assert.Equal(t, []string{"a", "b"}, f.Names())
}

func TestLoadCSV_NATokensAreMissing(t *testing.T) {
	const input = `customerID,MonthlyCharges,TotalCharges,Churn
0001-A,29.85,29.85,No
0002-B,NA,1889.5,No
0003-C, 53.85 ,N/A,Yes
0004-D,100.25,null,NULL
`
	f, err := LoadCSV(writeFile(t, input))
	require.NoError(t, err)

	monthly, err := f.Column("MonthlyCharges")
	require.NoError(t, err)
	assert.Equal(t, Numeric, monthly.Kind)
	assert.Equal(t, 1, monthly.MissingCount())
	assert.True(t, monthly.IsMissing(1))
	assert.Equal(t, []float64{29.85, 53.85, 100.25}, monthly.Floats())

	total, err := f.Column("TotalCharges")
	require.NoError(t, err)
	assert.Equal(t, Numeric, total.Kind)
	assert.Equal(t, 2, total.MissingCount())

	churn, err := f.Column("Churn")
	require.NoError(t, err)
	assert.Equal(t, Categorical, churn.Kind)
	assert.True(t, churn.IsMissing(3))
	assert.Equal(t, 1, churn.MissingCount())
}

func TestIsNA(t *testing.T) {
	for _, cell := range []string{"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "#N/A", "<NA>"} {
		assert.True(t, IsNA(cell), cell)
	}
	for _, cell := range []string{" ", "0", "No", "none", "NA "} {
		assert.False(t, IsNA(cell), cell)
	}
}
