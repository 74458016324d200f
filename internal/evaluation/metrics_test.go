package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sampleTrue = []int{0, 0, 0, 1, 1, 0, 1, 0}
	samplePred = []int{0, 1, 0, 1, 0, 0, 1, 0}
)

func TestCalculateMetrics_Binary(t *testing.T) {
	m, err := CalculateMetrics(sampleTrue, samplePred, PositiveClass)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, m.Classes)
	assert.Equal(t, [][]int{{4, 1}, {1, 2}}, m.ConfusionMatrix)
	assert.Equal(t, 8, m.NumSamples)

	assert.InDelta(t, 0.75, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.F1Score, 1e-12)

	assert.Equal(t, 5, m.PerClassMetrics[0].Support)
	assert.InDelta(t, 0.8, m.PerClassMetrics[0].F1Score, 1e-12)
	assert.InDelta(t, (0.8+2.0/3.0)/2, m.MacroF1, 1e-12)
	assert.InDelta(t, 0.75, m.WeightedF1, 1e-12)
}

func TestCalculateMetrics_ZeroDivision(t *testing.T) {
	m, err := CalculateMetrics([]int{1, 1, 0}, []int{0, 0, 0}, PositiveClass)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.Precision)
	assert.Equal(t, 0.0, m.Recall)
	assert.Equal(t, 0.0, m.F1Score)

	m, err = CalculateMetrics([]int{0, 0}, []int{0, 0}, PositiveClass)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, m.Classes)
	assert.Equal(t, 1.0, m.Accuracy)
	assert.Equal(t, 0.0, m.F1Score)
}

func TestCalculateMetrics_ClassesFromPredictions(t *testing.T) {
	m, err := CalculateMetrics([]int{0, 0, 0}, []int{0, 2, 1}, PositiveClass)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, m.Classes)
	assert.Equal(t, 0, m.PerClassMetrics[2].Support)
}

func TestCalculateMetrics_Errors(t *testing.T) {
	_, err := CalculateMetrics([]int{0, 1}, []int{0}, PositiveClass)
	assert.Error(t, err)

	_, err = CalculateMetrics(nil, nil, PositiveClass)
	assert.Error(t, err)
}

func TestExtractClasses_Sorted(t *testing.T) {
	assert.Equal(t, []int{0, 1, 3}, ExtractClasses([]int{3, 1}, []int{0, 3}))
	assert.Empty(t, ExtractClasses())
}

func TestClassificationReport(t *testing.T) {
	m, err := CalculateMetrics(sampleTrue, samplePred, PositiveClass)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(m.ClassificationReport(), "\n"), "\n")
	require.Len(t, lines, 8)

	assert.Equal(t, []string{"precision", "recall", "f1-score", "support"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "0.80", "0.80", "0.80", "5"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"1", "0.67", "0.67", "0.67", "3"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"accuracy", "0.75", "8"}, strings.Fields(lines[5]))
	assert.Equal(t, []string{"macro", "avg", "0.73", "0.73", "0.73", "8"}, strings.Fields(lines[6]))
	assert.Equal(t, []string{"weighted", "avg", "0.75", "0.75", "0.75", "8"}, strings.Fields(lines[7]))
}

func TestFormatConfusionMatrix(t *testing.T) {
	m, err := CalculateMetrics(sampleTrue, samplePred, PositiveClass)
	require.NoError(t, err)
	assert.Equal(t, "[[4 1]\n [1 2]]", m.FormatConfusionMatrix())

	wide := &ClassificationMetrics{ConfusionMatrix: [][]int{{1030, 5}, {12, 7}}}
	assert.Equal(t, "[[1030    5]\n [  12    7]]", wide.FormatConfusionMatrix())
}
