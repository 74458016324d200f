package persistence

import (
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"telcochurn/internal/data"
	"telcochurn/internal/evaluation"
	"telcochurn/internal/preprocessing"
)

// Artifact records everything needed to turn a raw customer record into
// the scaled feature vector of a run, plus the scores that run achieved.
// Model parameters are not stored.
type Artifact struct {
	RunID     string
	CreatedAt time.Time
	Dataset   string
	Target    string
	Threshold float64

	EncodedColumns  []string
	EncodingClasses map[string][]string
	Features        []string
	ScalerMean      []float64
	ScalerStd       []float64

	Models []ModelSummary
}

type ModelSummary struct {
	Name            string
	Params          map[string]string
	Accuracy        float64
	Precision       float64
	Recall          float64
	F1Score         float64
	ConfusionMatrix [][]int
	TrainingTime    time.Duration
}

func NewArtifact(dataset, target string, threshold float64, enc *preprocessing.Encoding, features []string, scaler *preprocessing.StandardScaler) *Artifact {
	a := &Artifact{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now(),
		Dataset:   dataset,
		Target:    target,
		Threshold: threshold,
		Features:  append([]string(nil), features...),
	}
	if enc != nil {
		a.EncodedColumns = append([]string(nil), enc.Columns...)
		a.EncodingClasses = enc.Classes()
	}
	if scaler != nil {
		a.ScalerMean = append([]float64(nil), scaler.FeatureMean...)
		a.ScalerStd = append([]float64(nil), scaler.FeatureStd...)
	}
	return a
}

func (a *Artifact) AddModel(name string, params map[string]any, m *evaluation.ClassificationMetrics, elapsed time.Duration) {
	summary := ModelSummary{
		Name:         name,
		Params:       make(map[string]string, len(params)),
		TrainingTime: elapsed,
	}
	for k, v := range params {
		summary.Params[k] = fmt.Sprint(v)
	}
	if m != nil {
		summary.Accuracy = m.Accuracy
		summary.Precision = m.Precision
		summary.Recall = m.Recall
		summary.F1Score = m.F1Score
		summary.ConfusionMatrix = m.ConfusionMatrix
	}
	a.Models = append(a.Models, summary)
}

func (a *Artifact) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: failed to create artifact: %w", data.ErrIO, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(a); err != nil {
		return fmt.Errorf("%w: failed to encode artifact: %w", data.ErrIO, err)
	}

	return file.Close()
}

func Load(filename string) (*Artifact, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open artifact: %w", data.ErrIO, err)
	}
	defer file.Close()

	var a Artifact
	if err := gob.NewDecoder(file).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: failed to decode artifact: %w", data.ErrParse, err)
	}

	return &a, nil
}

func (a *Artifact) Encoding() (*preprocessing.Encoding, error) {
	return preprocessing.EncodingFromClasses(a.EncodedColumns, a.EncodingClasses)
}

func (a *Artifact) Scaler() (*preprocessing.StandardScaler, error) {
	if len(a.ScalerMean) != len(a.Features) {
		return nil, fmt.Errorf("%w: scaler holds %d columns for %d features", data.ErrValue, len(a.ScalerMean), len(a.Features))
	}
	return preprocessing.NewStandardScalerFrom(a.ScalerMean, a.ScalerStd)
}

// EncodeRecord maps a raw record (column name -> CSV text) to the scaled
// feature vector of the run. Categorical features use the stored encoding;
// the rest are parsed as numbers.
func (a *Artifact) EncodeRecord(record map[string]string) ([]float64, error) {
	enc, err := a.Encoding()
	if err != nil {
		return nil, err
	}
	scaler, err := a.Scaler()
	if err != nil {
		return nil, err
	}

	x := make([]float64, len(a.Features))
	for i, name := range a.Features {
		raw, ok := record[name]
		if !ok {
			return nil, fmt.Errorf("%w: record has no field %q", data.ErrSchema, name)
		}

		if le, ok := enc.Encoders[name]; ok {
			codes, err := le.Transform([]string{raw})
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", name, err)
			}
			x[i] = float64(codes[0])
			continue
		}

		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %q is not a number", data.ErrParse, name, raw)
		}
		x[i] = d.InexactFloat64()
	}

	return scaler.TransformRow(x)
}

func (a *Artifact) SaveSummary(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: failed to create summary: %w", data.ErrIO, err)
	}
	defer file.Close()

	fmt.Fprintf(file, "Run: %s\n", a.RunID)
	fmt.Fprintf(file, "Dataset: %s\n", a.Dataset)
	fmt.Fprintf(file, "Created: %s\n", a.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(file, "Target: %s\n", a.Target)
	fmt.Fprintf(file, "Threshold: %.2f\n", a.Threshold)
	fmt.Fprintf(file, "Features: %s\n", strings.Join(a.Features, ", "))
	for _, name := range a.EncodedColumns {
		classes := a.EncodingClasses[name]
		pairs := make([]string, len(classes))
		for code, class := range classes {
			pairs[code] = fmt.Sprintf("%s=%d", class, code)
		}
		fmt.Fprintf(file, "Encoding %s: %s\n", name, strings.Join(pairs, ", "))
	}
	for _, m := range a.Models {
		fmt.Fprintf(file, "\nModel: %s\n", m.Name)
		keys := make([]string, 0, len(m.Params))
		for k := range m.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(file, "  %s: %s\n", k, m.Params[k])
		}
		fmt.Fprintf(file, "Accuracy: %.4f\n", m.Accuracy)
		fmt.Fprintf(file, "Precision: %.4f\n", m.Precision)
		fmt.Fprintf(file, "Recall: %.4f\n", m.Recall)
		fmt.Fprintf(file, "F1 Score: %.4f\n", m.F1Score)
		fmt.Fprintf(file, "Training Time: %v\n", m.TrainingTime)
	}

	return file.Close()
}
