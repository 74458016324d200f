package models

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"telcochurn/internal/data"
)

// Model is a binary or multi-class classifier over a dense feature matrix.
// A fitted model is not modified by Predict or PredictProba.
type Model interface {
	Fit(X mat.Matrix, y []int) error
	Predict(X mat.Matrix) ([]int, error)
	// PredictProba returns one row per sample and one column per class in
	// GetClasses order.
	PredictProba(X mat.Matrix) (*mat.Dense, error)
	GetName() string
	GetParams() map[string]any
	GetClasses() []int
	Reset()
}

type BaseModel struct {
	Name    string
	Params  map[string]any
	Classes []int
}

func (bm *BaseModel) GetName() string {
	return bm.Name
}

func (bm *BaseModel) GetParams() map[string]any {
	return bm.Params
}

func (bm *BaseModel) GetClasses() []int {
	return bm.Classes
}

// ExtractClasses returns the distinct labels of y in ascending order.
func ExtractClasses(y []int) []int {
	classMap := make(map[int]bool)
	for _, label := range y {
		classMap[label] = true
	}

	classes := make([]int, 0, len(classMap))
	for class := range classMap {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	return classes
}

func checkTraining(X mat.Matrix, y []int) (int, int, error) {
	rows, cols := X.Dims()
	if rows != len(y) {
		return 0, 0, fmt.Errorf("%w: %d rows but %d labels", data.ErrValue, rows, len(y))
	}
	if rows == 0 || cols == 0 {
		return 0, 0, fmt.Errorf("%w: empty training matrix", data.ErrValue)
	}
	return rows, cols, nil
}

func checkFeatures(X mat.Matrix, fitted int) error {
	_, cols := X.Dims()
	if cols != fitted {
		return fmt.Errorf("%w: model was fitted on %d features, got %d", data.ErrValue, fitted, cols)
	}
	return nil
}
