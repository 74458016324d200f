package evaluation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"telcochurn/internal/data"
)

// DefaultSeed keeps splits and tree tie-breaking reproducible between runs.
const DefaultSeed = 42

type TrainTestSplitter struct {
	testSize   float64
	randomSeed int64
}

func NewTrainTestSplitter(testSize float64, randomSeed int64) *TrainTestSplitter {
	return &TrainTestSplitter{
		testSize:   testSize,
		randomSeed: randomSeed,
	}
}

func DefaultTrainTestSplitter() *TrainTestSplitter {
	return NewTrainTestSplitter(0.2, DefaultSeed)
}

// Split is one stratified train/test partition. TrainIndex and TestIndex
// are the source row numbers of each partition row.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest []int
	TrainIndex    []int
	TestIndex     []int
}

// StratifiedSplit partitions rows so that every class keeps its share in
// both partitions. The test partition holds ceil(testSize*n) rows, handed
// to classes by largest remainder.
func (tts *TrainTestSplitter) StratifiedSplit(X mat.Matrix, y []int) (*Split, error) {
	n, cols := X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("%w: x and y must have the same length", data.ErrValue)
	}

	if n == 0 {
		return nil, fmt.Errorf("%w: cannot split empty dataset", data.ErrValue)
	}

	if tts.testSize <= 0 || tts.testSize >= 1 {
		return nil, fmt.Errorf("%w: test size must be between 0 and 1", data.ErrValue)
	}

	classIndices := make(map[int][]int)
	for i, label := range y {
		classIndices[label] = append(classIndices[label], i)
	}
	classes := make([]int, 0, len(classIndices))
	for class, indices := range classIndices {
		if len(indices) < 2 {
			return nil, fmt.Errorf("%w: class %d has only %d member, need at least 2", data.ErrValue, class, len(indices))
		}
		classes = append(classes, class)
	}
	sort.Ints(classes)

	testCount := int(math.Ceil(tts.testSize * float64(n)))
	if testCount > n-len(classes) {
		return nil, fmt.Errorf("%w: test size %.2f leaves no training rows for some class out of %d", data.ErrValue, tts.testSize, n)
	}

	counts := make([]int, len(classes))
	for i, class := range classes {
		counts[i] = len(classIndices[class])
	}
	allocation := allocate(testCount, counts, n)

	var trainIndices, testIndices []int

	rng := rand.New(rand.NewSource(tts.randomSeed))
	for i, class := range classes {
		indices := append([]int(nil), classIndices[class]...)
		rng.Shuffle(len(indices), func(a, b int) {
			indices[a], indices[b] = indices[b], indices[a]
		})

		testIndices = append(testIndices, indices[:allocation[i]]...)
		trainIndices = append(trainIndices, indices[allocation[i]:]...)
	}

	rng.Shuffle(len(trainIndices), func(i, j int) {
		trainIndices[i], trainIndices[j] = trainIndices[j], trainIndices[i]
	})
	rng.Shuffle(len(testIndices), func(i, j int) {
		testIndices[i], testIndices[j] = testIndices[j], testIndices[i]
	})

	split := &Split{
		XTrain:     takeRows(X, trainIndices, cols),
		XTest:      takeRows(X, testIndices, cols),
		YTrain:     make([]int, len(trainIndices)),
		YTest:      make([]int, len(testIndices)),
		TrainIndex: trainIndices,
		TestIndex:  testIndices,
	}
	for i, idx := range trainIndices {
		split.YTrain[i] = y[idx]
	}
	for i, idx := range testIndices {
		split.YTest[i] = y[idx]
	}

	return split, nil
}

// allocate distributes total draws over classes in proportion to counts.
// Each class gets the floor of its share; leftovers go to the largest
// fractional parts, lower class first on ties. No class gives up all of
// its rows.
func allocate(total int, counts []int, n int) []int {
	out := make([]int, len(counts))
	remainders := make([]float64, len(counts))
	assigned := 0
	for i, c := range counts {
		share := float64(total) * float64(c) / float64(n)
		out[i] = int(math.Floor(share))
		if out[i] >= c {
			out[i] = c - 1
		}
		remainders[i] = share - float64(out[i])
		assigned += out[i]
	}

	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	for left := total - assigned; left > 0; {
		progressed := false
		for _, i := range order {
			if left == 0 {
				break
			}
			if out[i] < counts[i]-1 {
				out[i]++
				left--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func takeRows(X mat.Matrix, indices []int, cols int) *mat.Dense {
	if len(indices) == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(indices), cols, nil)
	row := make([]float64, cols)
	for i, idx := range indices {
		mat.Row(row, idx, X)
		out.SetRow(i, row)
	}
	return out
}

// ClassRatio returns the share of rows labelled positive.
func ClassRatio(y []int, positive int) float64 {
	if len(y) == 0 {
		return 0
	}
	count := 0
	for _, label := range y {
		if label == positive {
			count++
		}
	}
	return float64(count) / float64(len(y))
}
