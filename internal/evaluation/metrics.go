package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// PositiveClass is the encoded label of a churned customer.
const PositiveClass = 1

type ClassificationMetrics struct {
	Accuracy          float64              `json:"accuracy"`
	Precision         float64              `json:"precision"`
	Recall            float64              `json:"recall"`
	F1Score           float64              `json:"f1_score"`
	MacroPrecision    float64              `json:"macro_precision"`
	MacroRecall       float64              `json:"macro_recall"`
	MacroF1           float64              `json:"macro_f1"`
	WeightedPrecision float64              `json:"weighted_precision"`
	WeightedRecall    float64              `json:"weighted_recall"`
	WeightedF1        float64              `json:"weighted_f1"`
	Classes           []int                `json:"classes"`
	PerClassMetrics   map[int]ClassMetrics `json:"per_class_metrics"`
	ConfusionMatrix   [][]int              `json:"confusion_matrix"`
	NumSamples        int                  `json:"num_samples"`
}

type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// CalculateMetrics scores predictions over the sorted union of true and
// predicted labels. Precision, Recall and F1Score are those of the
// positive class; an undefined ratio counts as 0.
func CalculateMetrics(yTrue, yPred []int, positive int) (*ClassificationMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("label length mismatch: %d true vs %d predicted", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("no samples to evaluate")
	}

	classes := ExtractClasses(yTrue, yPred)
	numClasses := len(classes)
	numSamples := len(yTrue)

	confusionMatrix := buildConfusionMatrix(yTrue, yPred, classes)

	classSupport := make(map[int]int)
	for _, class := range yTrue {
		classSupport[class]++
	}

	perClassMetrics := make(map[int]ClassMetrics)
	var macroPrec, macroRec, macroF1 float64
	var weightedPrec, weightedRec, weightedF1 float64

	for i, class := range classes {
		tp := confusionMatrix[i][i]
		fp := 0
		fn := 0

		for j := range classes {
			if j != i {
				fp += confusionMatrix[j][i]
				fn += confusionMatrix[i][j]
			}
		}

		precision := safeDivide(float64(tp), float64(tp+fp))
		recall := safeDivide(float64(tp), float64(tp+fn))
		f1 := safeDivide(2*precision*recall, precision+recall)

		support := classSupport[class]
		perClassMetrics[class] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1Score:   f1,
			Support:   support,
		}

		macroPrec += precision
		macroRec += recall
		macroF1 += f1

		weightedPrec += precision * float64(support)
		weightedRec += recall * float64(support)
		weightedF1 += f1 * float64(support)
	}

	macroPrec /= float64(numClasses)
	macroRec /= float64(numClasses)
	macroF1 /= float64(numClasses)

	weightedPrec /= float64(numSamples)
	weightedRec /= float64(numSamples)
	weightedF1 /= float64(numSamples)

	correct := 0
	for i, pred := range yPred {
		if pred == yTrue[i] {
			correct++
		}
	}

	pos := perClassMetrics[positive]

	return &ClassificationMetrics{
		Accuracy:          float64(correct) / float64(numSamples),
		Precision:         pos.Precision,
		Recall:            pos.Recall,
		F1Score:           pos.F1Score,
		MacroPrecision:    macroPrec,
		MacroRecall:       macroRec,
		MacroF1:           macroF1,
		WeightedPrecision: weightedPrec,
		WeightedRecall:    weightedRec,
		WeightedF1:        weightedF1,
		Classes:           classes,
		PerClassMetrics:   perClassMetrics,
		ConfusionMatrix:   confusionMatrix,
		NumSamples:        numSamples,
	}, nil
}

// ExtractClasses returns the distinct labels of all given slices in ascending order.
func ExtractClasses(labels ...[]int) []int {
	classMap := make(map[int]bool)
	for _, y := range labels {
		for _, label := range y {
			classMap[label] = true
		}
	}

	classes := make([]int, 0, len(classMap))
	for class := range classMap {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	return classes
}

func buildConfusionMatrix(yTrue, yPred []int, classes []int) [][]int {
	numClasses := len(classes)
	matrix := make([][]int, numClasses)
	for i := range matrix {
		matrix[i] = make([]int, numClasses)
	}

	classToIdx := make(map[int]int)
	for i, class := range classes {
		classToIdx[class] = i
	}

	for i := range yTrue {
		trueIdx, trueOk := classToIdx[yTrue[i]]
		predIdx, predOk := classToIdx[yPred[i]]
		if trueOk && predOk {
			matrix[trueIdx][predIdx]++
		}
	}

	return matrix
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

// ClassificationReport renders per-class precision, recall, F1 and support
// followed by accuracy and macro/weighted averages.
func (m *ClassificationMetrics) ClassificationReport() string {
	const digits = 2

	names := make([]string, len(m.Classes))
	width := len("weighted avg")
	for i, class := range m.Classes {
		names[i] = fmt.Sprintf("%d", class)
		if len(names[i]) > width {
			width = len(names[i])
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for i, class := range m.Classes {
		c := m.PerClassMetrics[class]
		fmt.Fprintf(&b, "%*s %9.*f %9.*f %9.*f %9d\n", width, names[i],
			digits, c.Precision, digits, c.Recall, digits, c.F1Score, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.*f %9d\n", width, "accuracy", "", "", digits, m.Accuracy, m.NumSamples)
	fmt.Fprintf(&b, "%*s %9.*f %9.*f %9.*f %9d\n", width, "macro avg",
		digits, m.MacroPrecision, digits, m.MacroRecall, digits, m.MacroF1, m.NumSamples)
	fmt.Fprintf(&b, "%*s %9.*f %9.*f %9.*f %9d\n", width, "weighted avg",
		digits, m.WeightedPrecision, digits, m.WeightedRecall, digits, m.WeightedF1, m.NumSamples)
	return b.String()
}

// FormatConfusionMatrix renders rows of true classes against columns of
// predicted classes, e.g. "[[TN FP]\n [FN TP]]".
func (m *ClassificationMetrics) FormatConfusionMatrix() string {
	width := 1
	for _, row := range m.ConfusionMatrix {
		for _, v := range row {
			if w := len(fmt.Sprintf("%d", v)); w > width {
				width = w
			}
		}
	}

	var b strings.Builder
	b.WriteString("[")
	for i, row := range m.ConfusionMatrix {
		if i > 0 {
			b.WriteString("\n ")
		}
		b.WriteString("[")
		for j, v := range row {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%*d", width, v)
		}
		b.WriteString("]")
	}
	b.WriteString("]")
	return b.String()
}
