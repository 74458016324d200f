package models

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"telcochurn/internal/data"
)

// DefaultNeighbors is the vote size used when no k is configured.
const DefaultNeighbors = 5

// KNN is a lazy k-nearest-neighbours classifier. Fit keeps a copy of the
// training data; all work happens at prediction time.
type KNN struct {
	BaseModel
	K        int
	Distance string
	XTrain   *mat.Dense
	yTrain   []int
}

// Neighbor is one training row ranked against a query.
type Neighbor struct {
	Index    int
	Distance float64
	Label    int
}

func NewKNN(k int, distance string) *KNN {
	if k <= 0 {
		k = DefaultNeighbors
	}

	if distance != "euclidean" && distance != "manhattan" {
		distance = "euclidean"
	}

	return &KNN{
		K:        k,
		Distance: distance,
		BaseModel: BaseModel{
			Name: "KNN",
			Params: map[string]any{
				"k":        k,
				"distance": distance,
			},
		},
	}
}

func (knn *KNN) Fit(X mat.Matrix, y []int) error {
	rows, _, err := checkTraining(X, y)
	if err != nil {
		return err
	}
	if rows < knn.K {
		return fmt.Errorf("%w: %d training rows is fewer than k=%d", data.ErrValue, rows, knn.K)
	}

	knn.XTrain = mat.DenseCopyOf(X)
	knn.yTrain = make([]int, len(y))
	copy(knn.yTrain, y)

	knn.Classes = ExtractClasses(y)
	return nil
}

func (knn *KNN) norm() float64 {
	if knn.Distance == "manhattan" {
		return 1
	}
	return 2
}

// Neighbors returns the k training rows closest to sample, nearest first.
// Rows at equal distance keep training order.
func (knn *KNN) Neighbors(sample []float64) ([]Neighbor, error) {
	if knn.XTrain == nil {
		return nil, ErrNotFitted
	}
	rows, cols := knn.XTrain.Dims()
	if len(sample) != cols {
		return nil, fmt.Errorf("%w: model was fitted on %d features, got %d", data.ErrValue, cols, len(sample))
	}

	L := knn.norm()
	neighbors := make([]Neighbor, rows)
	for i := 0; i < rows; i++ {
		neighbors[i] = Neighbor{
			Index:    i,
			Distance: floats.Distance(sample, knn.XTrain.RawRowView(i), L),
			Label:    knn.yTrain[i],
		}
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Index < neighbors[j].Index
	})

	return neighbors[:knn.K], nil
}

func (knn *KNN) Predict(X mat.Matrix) ([]int, error) {
	if knn.XTrain == nil {
		return nil, ErrNotFitted
	}
	_, cols := knn.XTrain.Dims()
	if err := checkFeatures(X, cols); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	predictions := make([]int, rows)
	sample := make([]float64, cols)
	for i := range predictions {
		mat.Row(sample, i, X)
		neighbors, err := knn.Neighbors(sample)
		if err != nil {
			return nil, err
		}
		predictions[i] = majorityVote(neighbors)
	}

	return predictions, nil
}

func (knn *KNN) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if knn.XTrain == nil {
		return nil, ErrNotFitted
	}
	_, cols := knn.XTrain.Dims()
	if err := checkFeatures(X, cols); err != nil {
		return nil, err
	}

	classIndex := make(map[int]int, len(knn.Classes))
	for i, class := range knn.Classes {
		classIndex[class] = i
	}

	rows, _ := X.Dims()
	proba := mat.NewDense(rows, len(knn.Classes), nil)
	sample := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(sample, i, X)
		neighbors, err := knn.Neighbors(sample)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			j := classIndex[nb.Label]
			proba.Set(i, j, proba.At(i, j)+1/float64(len(neighbors)))
		}
	}

	return proba, nil
}

// majorityVote picks the most frequent label. Among tied labels the one
// held by the nearest neighbour wins.
func majorityVote(neighbors []Neighbor) int {
	votes := make(map[int]int)
	maxVotes := 0
	for _, nb := range neighbors {
		votes[nb.Label]++
		if votes[nb.Label] > maxVotes {
			maxVotes = votes[nb.Label]
		}
	}

	for _, nb := range neighbors {
		if votes[nb.Label] == maxVotes {
			return nb.Label
		}
	}
	return 0
}

func (knn *KNN) Reset() {
	knn.XTrain = nil
	knn.yTrain = nil
	knn.Classes = nil
}
