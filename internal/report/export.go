package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"telcochurn/internal/data"
	"telcochurn/internal/evaluation"
)

// ModelResult is one row of the metrics export.
type ModelResult struct {
	Dataset      string
	Algorithm    string
	Parameters   map[string]any
	Features     []string
	TrainRows    int
	TestRows     int
	Metrics      *evaluation.ClassificationMetrics
	TrainingTime time.Duration
}

var exportHeader = []string{
	"Dataset", "Algorithm", "Parameters", "Features", "TrainRows", "TestRows",
	"Accuracy", "Precision", "Recall", "F1Score", "MacroF1", "WeightedF1",
	"TN", "FP", "FN", "TP", "TrainingTimeMs",
}

// ExportMetrics writes one CSV row per model.
func ExportMetrics(results []ModelResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", data.ErrIO, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("%w: %w", data.ErrIO, err)
	}

	for _, result := range results {
		m := result.Metrics
		cm := binaryCells(m.ConfusionMatrix)
		row := []string{
			result.Dataset,
			result.Algorithm,
			formatParams(result.Parameters),
			strings.Join(result.Features, ";"),
			fmt.Sprintf("%d", result.TrainRows),
			fmt.Sprintf("%d", result.TestRows),
			fmt.Sprintf("%.4f", m.Accuracy),
			fmt.Sprintf("%.4f", m.Precision),
			fmt.Sprintf("%.4f", m.Recall),
			fmt.Sprintf("%.4f", m.F1Score),
			fmt.Sprintf("%.4f", m.MacroF1),
			fmt.Sprintf("%.4f", m.WeightedF1),
			cm[0], cm[1], cm[2], cm[3],
			fmt.Sprintf("%d", result.TrainingTime.Milliseconds()),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("%w: %w", data.ErrIO, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: %w", data.ErrIO, err)
	}
	return file.Close()
}

// binaryCells flattens a 2x2 confusion matrix; other shapes leave the
// cells empty.
func binaryCells(cm [][]int) [4]string {
	var out [4]string
	if len(cm) != 2 || len(cm[0]) != 2 || len(cm[1]) != 2 {
		return out
	}
	out[0] = fmt.Sprint(cm[0][0])
	out[1] = fmt.Sprint(cm[0][1])
	out[2] = fmt.Sprint(cm[1][0])
	out[3] = fmt.Sprint(cm[1][1])
	return out
}

func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, ";")
}
