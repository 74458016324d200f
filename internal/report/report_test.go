package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"

	"telcochurn/internal/data"
	"telcochurn/internal/evaluation"
	"telcochurn/internal/features"
	"telcochurn/internal/jobs"
	"telcochurn/internal/preprocessing"
	"telcochurn/internal/profile"
)

func sampleMetrics(t *testing.T) *evaluation.ClassificationMetrics {
	t.Helper()
	m, err := evaluation.CalculateMetrics(
		[]int{0, 0, 0, 1, 1, 0, 1, 0},
		[]int{0, 1, 0, 1, 0, 0, 1, 0},
		evaluation.PositiveClass,
	)
	require.NoError(t, err)
	return m
}

func TestConsole_Sections(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	c.Quality(&profile.Quality{
		Rows: 7043, Cols: 21, Duplicates: 0,
		Columns: []profile.ColumnInfo{{Name: "TotalCharges", DType: "object", Blank: 11}},
	})
	c.Cleaning(&preprocessing.CleanReport{
		RowsBefore: 7043, RowsAfter: 7032, MissingBefore: 11,
		Coerced: map[string]int{"TotalCharges": 11},
	}, "customerID")

	enc := &preprocessing.Encoding{
		Columns:  []string{"Churn"},
		Encoders: map[string]*preprocessing.LabelEncoder{},
	}
	le, err := preprocessing.NewLabelEncoderFromClasses([]string{"No", "Yes"})
	require.NoError(t, err)
	enc.Encoders["Churn"] = le
	c.Encoding(enc)

	c.Selection(&features.Selection{
		Target:    "Churn",
		Threshold: 0.19,
		Features:  []string{"tenure"},
		Correlations: []features.Correlation{
			{Feature: "tenure", R: -0.354, Defined: true},
			{Feature: "gender", R: -0.008, Defined: true},
			{Feature: "flat", Defined: false},
		},
	})
	c.Split(&evaluation.Split{YTrain: []int{0, 0, 0, 1}, YTest: []int{0, 1}}, 1)
	c.Model("KNN", sampleMetrics(t))
	c.Stages([]jobs.Snapshot{{Name: "load", Status: jobs.JobCompleted, Duration: 1500 * time.Microsecond}})

	out := buf.String()
	for _, want := range []string{
		"Dataset Shape: (7043, 21)",
		"TotalCharges",
		"Number of duplicate rows: 0",
		"Dropped column: customerID",
		"Coerced TotalCharges: 11 values became missing",
		"Missing values before dropping: 11",
		"Rows: 7043 -> 7032 (11 dropped)",
		"Categorical columns to encode: [Churn]",
		"No=0, Yes=1",
		"-0.3540",
		"undefined",
		"(|r| > 0.19):\n[tenure]",
		"0.7500",
		"----- KNN Evaluation (Filtered Features) -----",
		"[[4 1]\n [1 2]]",
		"2ms",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "colour disabled")
}

func TestVisualizer_Render(t *testing.T) {
	f, err := data.NewFrame(
		data.NewNumericFloat("tenure", []float64{1, 20, 35, 60, 2, 45}),
		data.NewNumericFloat("MonthlyCharges", []float64{70, 30, 55, 20, 90, 25}),
		data.NewCategorical("Contract", []string{"Month-to-month", "One year", "Two year", "Two year", "Month-to-month", "One year"}),
		data.NewCategorical("Churn", []string{"Yes", "No", "No", "No", "Yes", "No"}),
	)
	require.NoError(t, err)

	e, err := profile.Explore(f, profile.ExploreOptions{
		Target:      "Churn",
		Categorical: []string{"Contract"},
		Numeric:     []string{"tenure"},
	})
	require.NoError(t, err)

	corr, err := features.CorrelationMatrix(f, []string{"tenure", "MonthlyCharges"})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "plots")
	v := NewVisualizer(dir, zaptest.NewLogger(t))
	written, err := v.Render(ChartData{
		Distributions: []Series{{Name: "tenure", Values: []float64{1, 20, 35, 60, 2, 45}}},
		Exploration:   e,
		NumericCorr:   corr,
		FullCorr:      corr,
	})
	require.NoError(t, err)

	var names []string
	for _, path := range written {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
		names = append(names, filepath.Base(path))
	}
	assert.Equal(t, []string{
		"boxplot_tenure.png",
		"churn_distribution.png",
		"contract_vs_churn.png",
		"tenure_by_churn.png",
		"correlation_numeric.png",
		"correlation_full.png",
	}, names)
}

func TestVisualizer_HeatMapRejectsEmptyMatrix(t *testing.T) {
	v := NewVisualizer(t.TempDir(), nil)
	_, err := v.Render(ChartData{NumericCorr: &features.Matrix{Corr: mat.NewSymDense(1, nil)}})
	assert.True(t, errors.Is(err, data.ErrValue))
}

func TestExportMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	err := ExportMetrics([]ModelResult{{
		Dataset:      "churn.csv",
		Algorithm:    "KNN",
		Parameters:   map[string]any{"k": 5, "distance": "euclidean"},
		Features:     []string{"tenure", "Contract"},
		TrainRows:    32,
		TestRows:     8,
		Metrics:      sampleMetrics(t),
		TrainingTime: 1500 * time.Millisecond,
	}}, path)
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{
		"churn.csv", "KNN", "distance=euclidean;k=5", "tenure;Contract", "32", "8",
		"0.7500", "0.6667", "0.6667", "0.6667", "0.7333", "0.7500",
		"4", "1", "1", "2", "1500",
	}, records[1])
}

func TestExportMetrics_BadPath(t *testing.T) {
	err := ExportMetrics(nil, filepath.Join(t.TempDir(), "missing", "metrics.csv"))
	assert.True(t, errors.Is(err, data.ErrIO))
}
