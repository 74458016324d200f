package data

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type DataValidator struct{}

func NewDataValidator() *DataValidator {
	return &DataValidator{}
}

func (dv *DataValidator) ValidateDataset(X mat.Matrix, y []int) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return fmt.Errorf("%w: dataset is empty", ErrValue)
	}

	if rows != len(y) {
		return fmt.Errorf("%w: feature matrix and labels have different lengths: %d vs %d", ErrValue, rows, len(y))
	}

	if cols == 0 {
		return fmt.Errorf("%w: features cannot be empty", ErrValue)
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at sample %d, feature %d", ErrValue, i, j)
			}
		}
	}

	return nil
}

func (dv *DataValidator) ValidateLabels(y []int) error {
	if len(y) == 0 {
		return fmt.Errorf("%w: labels are empty", ErrValue)
	}

	classCount := make(map[int]int)
	for _, label := range y {
		classCount[label]++
	}

	if len(classCount) < 2 {
		return fmt.Errorf("%w: dataset must have at least 2 classes, found %d", ErrValue, len(classCount))
	}

	return nil
}

func (dv *DataValidator) ValidateTrainTestSplit(XTrain, XTest mat.Matrix, yTrain, yTest []int) error {
	if err := dv.ValidateDataset(XTrain, yTrain); err != nil {
		return fmt.Errorf("training set validation failed: %w", err)
	}

	if err := dv.ValidateDataset(XTest, yTest); err != nil {
		return fmt.Errorf("test set validation failed: %w", err)
	}

	_, trainCols := XTrain.Dims()
	_, testCols := XTest.Dims()
	if trainCols != testCols {
		return fmt.Errorf("%w: train and test sets have different feature counts: %d vs %d", ErrValue, trainCols, testCols)
	}

	return nil
}

// ValidateComplete rejects a frame that still holds missing cells.
func (dv *DataValidator) ValidateComplete(f *Frame) error {
	for _, col := range f.Columns() {
		if n := col.MissingCount(); n > 0 {
			return fmt.Errorf("%w: column %q has %d missing values", ErrValue, col.Name, n)
		}
	}
	return nil
}
