// Package profile computes the exploratory summaries of a churn dataset:
// data quality counts on the raw file and distribution statistics on the
// cleaned one.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"telcochurn/internal/data"
)

// Column dtypes, named the way pandas reports them.
const (
	DTypeInt    = "int64"
	DTypeFloat  = "float64"
	DTypeObject = "object"
)

type ColumnInfo struct {
	Name    string
	DType   string
	Missing int
	// Blank counts cells that are non-empty but hold only whitespace.
	Blank int
}

// Quality describes the shape and defects of a frame.
type Quality struct {
	Rows       int
	Cols       int
	Columns    []ColumnInfo
	Duplicates int
}

func (q *Quality) TotalMissing() int {
	total := 0
	for _, c := range q.Columns {
		total += c.Missing
	}
	return total
}

// Inspect counts missing cells, blank strings and duplicate rows.
func Inspect(f *data.Frame) *Quality {
	rows, cols := f.Shape()
	q := &Quality{Rows: rows, Cols: cols}

	for _, col := range f.Columns() {
		info := ColumnInfo{
			Name:    col.Name,
			DType:   DType(col),
			Missing: col.MissingCount(),
		}
		if col.Kind == data.Categorical {
			for _, v := range col.Text {
				if v != "" && strings.TrimSpace(v) == "" {
					info.Blank++
				}
			}
		}
		q.Columns = append(q.Columns, info)
	}

	seen := make(map[string]bool, rows)
	for i := 0; i < rows; i++ {
		key := f.RowKey(i)
		if seen[key] {
			q.Duplicates++
			continue
		}
		seen[key] = true
	}

	return q
}

// DType maps a column to its pandas dtype name.
func DType(col *data.Column) string {
	if col.Kind == data.Categorical {
		return DTypeObject
	}
	if col.MissingCount() == 0 && col.IsInteger() {
		return DTypeInt
	}
	return DTypeFloat
}

// Summary is one column of a describe() table.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Describe summarizes the present values of a numeric column. Std is the
// sample standard deviation and is NaN for fewer than two values.
func Describe(col *data.Column) (Summary, error) {
	if col.Kind != data.Numeric {
		return Summary{}, fmt.Errorf("%w: column %q is %s", data.ErrValue, col.Name, col.Kind)
	}

	values := col.Floats()
	s := Summary{Column: col.Name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s, nil
	}

	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	} else {
		s.Std = math.NaN()
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q25 = quantile(0.25, sorted)
	s.Q50 = quantile(0.50, sorted)
	s.Q75 = quantile(0.75, sorted)
	return s, nil
}

// quantile interpolates linearly between the closest ranks of sorted,
// the convention of numpy's default percentile method.
func quantile(p float64, sorted []float64) float64 {
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

type ValueCount struct {
	Value string
	Count int
}

// ValueCounts counts each distinct cell text, most frequent first; ties
// are ordered by value. Missing cells are not counted.
func ValueCounts(col *data.Column) []ValueCount {
	counts := make(map[string]int)
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		counts[col.String(i)]++
	}

	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
