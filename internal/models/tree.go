package models

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned when predicting with a model that has not been fitted.
var ErrNotFitted = errors.New("model is not fitted")

type TreeNode struct {
	IsLeaf    bool
	Class     int
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Samples   int
	Impurity  float64
	// Counts holds the training samples per class, in GetClasses order.
	Counts []int
}

// DecisionTree is a CART classifier using Gini impurity. Samples with
// x[Feature] <= Threshold go left.
type DecisionTree struct {
	BaseModel
	Root            *TreeNode
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64

	numFeatures int
	columns     [][]float64
	labels      []int
	rng         *rand.Rand
}

// NewDecisionTree builds an unfitted tree. maxDepth <= 0 grows the tree
// until every leaf is pure or unsplittable.
func NewDecisionTree(maxDepth, minSamplesSplit int, seed int64) *DecisionTree {
	if maxDepth < 0 {
		maxDepth = 0
	}

	if minSamplesSplit < 2 {
		minSamplesSplit = 2
	}

	return &DecisionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		Seed:            seed,
		BaseModel: BaseModel{
			Name: "DecisionTree",
			Params: map[string]any{
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
				"random_state":      seed,
			},
		},
	}
}

func (dt *DecisionTree) Fit(X mat.Matrix, y []int) error {
	rows, cols, err := checkTraining(X, y)
	if err != nil {
		return err
	}

	dt.Classes = ExtractClasses(y)
	classIndex := make(map[int]int, len(dt.Classes))
	for i, class := range dt.Classes {
		classIndex[class] = i
	}

	dt.labels = make([]int, rows)
	for i, label := range y {
		dt.labels[i] = classIndex[label]
	}

	dt.columns = make([][]float64, cols)
	for j := range dt.columns {
		dt.columns[j] = mat.Col(nil, j, X)
	}

	dt.numFeatures = cols
	dt.rng = rand.New(rand.NewSource(dt.Seed))

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}
	dt.Root = dt.buildTree(indices, 0)

	// Training data is only needed while growing.
	dt.columns = nil
	dt.labels = nil
	dt.rng = nil
	return nil
}

func (dt *DecisionTree) buildTree(indices []int, depth int) *TreeNode {
	counts := make([]int, len(dt.Classes))
	for _, idx := range indices {
		counts[dt.labels[idx]]++
	}

	node := &TreeNode{
		Samples:  len(indices),
		Counts:   counts,
		Impurity: gini(counts, len(indices)),
		Class:    dt.Classes[majority(counts)],
	}

	if node.Impurity == 0 ||
		len(indices) < dt.MinSamplesSplit ||
		(dt.MaxDepth > 0 && depth >= dt.MaxDepth) {
		node.IsLeaf = true
		return node
	}

	feature, threshold, ok := dt.findBestSplit(indices)
	if !ok {
		node.IsLeaf = true
		return node
	}

	node.Feature = feature
	node.Threshold = threshold

	var leftIndices, rightIndices []int
	values := dt.columns[feature]
	for _, idx := range indices {
		if values[idx] <= threshold {
			leftIndices = append(leftIndices, idx)
		} else {
			rightIndices = append(rightIndices, idx)
		}
	}

	node.Left = dt.buildTree(leftIndices, depth+1)
	node.Right = dt.buildTree(rightIndices, depth+1)

	return node
}

// findBestSplit visits features in a random order and sweeps each one in
// sorted order, keeping the first split with the lowest weighted impurity.
func (dt *DecisionTree) findBestSplit(indices []int) (int, float64, bool) {
	n := len(indices)
	numClasses := len(dt.Classes)

	bestFeature := -1
	bestThreshold := 0.0
	bestImpurity := math.Inf(1)

	total := make([]int, numClasses)
	for _, idx := range indices {
		total[dt.labels[idx]]++
	}

	sorted := make([]int, n)
	left := make([]int, numClasses)
	right := make([]int, numClasses)

	for _, feature := range dt.rng.Perm(dt.numFeatures) {
		values := dt.columns[feature]

		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			va, vb := values[sorted[a]], values[sorted[b]]
			if va != vb {
				return va < vb
			}
			return sorted[a] < sorted[b]
		})

		for c := range left {
			left[c] = 0
			right[c] = total[c]
		}

		for i := 0; i < n-1; i++ {
			label := dt.labels[sorted[i]]
			left[label]++
			right[label]--

			current, next := values[sorted[i]], values[sorted[i+1]]
			if current == next {
				continue
			}

			nLeft := i + 1
			nRight := n - nLeft
			weighted := (float64(nLeft)*gini(left, nLeft) + float64(nRight)*gini(right, nRight)) / float64(n)

			if weighted < bestImpurity {
				bestImpurity = weighted
				bestFeature = feature
				bestThreshold = midpoint(current, next)
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// midpoint falls back to the lower value when the halfway point rounds up
// to the upper one, keeping the lower value on the left.
func midpoint(lower, upper float64) float64 {
	mid := lower + (upper-lower)/2
	if mid >= upper || math.IsInf(mid, 0) {
		return lower
	}
	return mid
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0.0
	}

	impurity := 1.0
	for _, count := range counts {
		p := float64(count) / float64(n)
		impurity -= p * p
	}
	if impurity < 0 {
		return 0
	}
	return impurity
}

// majority returns the index of the most frequent class; the lowest index
// wins ties.
func majority(counts []int) int {
	best := 0
	for i, count := range counts {
		if count > counts[best] {
			best = i
		}
	}
	return best
}

func (dt *DecisionTree) Predict(X mat.Matrix) ([]int, error) {
	if dt.Root == nil {
		return nil, ErrNotFitted
	}
	if err := checkFeatures(X, dt.numFeatures); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	predictions := make([]int, rows)
	for i := range predictions {
		predictions[i] = dt.leaf(X, i).Class
	}

	return predictions, nil
}

func (dt *DecisionTree) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	if dt.Root == nil {
		return nil, ErrNotFitted
	}
	if err := checkFeatures(X, dt.numFeatures); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	proba := mat.NewDense(rows, len(dt.Classes), nil)
	for i := 0; i < rows; i++ {
		node := dt.leaf(X, i)
		for j, count := range node.Counts {
			proba.Set(i, j, float64(count)/float64(node.Samples))
		}
	}

	return proba, nil
}

func (dt *DecisionTree) leaf(X mat.Matrix, row int) *TreeNode {
	node := dt.Root
	for !node.IsLeaf {
		if X.At(row, node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// Depth is the number of edges on the longest root-to-leaf path.
func (dt *DecisionTree) Depth() int {
	return depth(dt.Root)
}

func depth(node *TreeNode) int {
	if node == nil || node.IsLeaf {
		return 0
	}
	return 1 + max(depth(node.Left), depth(node.Right))
}

func (dt *DecisionTree) LeafCount() int {
	return leaves(dt.Root)
}

func leaves(node *TreeNode) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return 1
	}
	return leaves(node.Left) + leaves(node.Right)
}

func (dt *DecisionTree) Reset() {
	dt.Root = nil
	dt.Classes = nil
	dt.numFeatures = 0
}
