package profile

import (
	"fmt"
	"sort"

	"telcochurn/internal/data"
)

// Crosstab counts rows per (feature value, target value). Counts[i][j]
// pairs Values[i] with Targets[j]; both axes are sorted.
type Crosstab struct {
	Feature string
	Values  []string
	Targets []string
	Counts  [][]int
}

// Grouped splits the present values of a numeric column by target value.
type Grouped struct {
	Column  string
	Targets []string
	Values  [][]float64
}

type ExploreOptions struct {
	Target      string
	Categorical []string
	Numeric     []string
}

// Exploration is the distribution view of a cleaned frame.
type Exploration struct {
	Target       string
	DTypes       []ColumnInfo
	Describe     []Summary
	TargetCounts []ValueCount
	Crosstabs    []Crosstab
	Grouped      []Grouped
}

// Explore describes every numeric column of f, counts the target and
// relates the listed categorical and numeric columns to it. Columns named
// in opts but absent from f are an error.
func Explore(f *data.Frame, opts ExploreOptions) (*Exploration, error) {
	target, err := f.Column(opts.Target)
	if err != nil {
		return nil, err
	}

	e := &Exploration{
		Target:       opts.Target,
		DTypes:       Inspect(f).Columns,
		TargetCounts: ValueCounts(target),
	}

	for _, col := range f.Columns() {
		if col.Kind != data.Numeric {
			continue
		}
		s, err := Describe(col)
		if err != nil {
			return nil, err
		}
		e.Describe = append(e.Describe, s)
	}

	targets := make([]string, 0, len(e.TargetCounts))
	targetIndex := make(map[string]int)
	for _, vc := range e.TargetCounts {
		targets = append(targets, vc.Value)
	}
	sort.Strings(targets)
	for i, t := range targets {
		targetIndex[t] = i
	}

	for _, name := range opts.Categorical {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		e.Crosstabs = append(e.Crosstabs, crosstab(col, target, targets, targetIndex))
	}

	for _, name := range opts.Numeric {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind != data.Numeric {
			return nil, fmt.Errorf("%w: column %q is %s", data.ErrValue, name, col.Kind)
		}
		g := Grouped{Column: name, Targets: targets, Values: make([][]float64, len(targets))}
		for i := 0; i < col.Len(); i++ {
			v, ok := col.Float(i)
			if !ok || target.IsMissing(i) {
				continue
			}
			j := targetIndex[target.String(i)]
			g.Values[j] = append(g.Values[j], v)
		}
		e.Grouped = append(e.Grouped, g)
	}

	return e, nil
}

func crosstab(col, target *data.Column, targets []string, targetIndex map[string]int) Crosstab {
	valueIndex := make(map[string]int)
	var values []string
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		v := col.String(i)
		if _, ok := valueIndex[v]; !ok {
			valueIndex[v] = 0
			values = append(values, v)
		}
	}
	sort.Strings(values)
	for i, v := range values {
		valueIndex[v] = i
	}

	counts := make([][]int, len(values))
	for i := range counts {
		counts[i] = make([]int, len(targets))
	}
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) || target.IsMissing(i) {
			continue
		}
		counts[valueIndex[col.String(i)]][targetIndex[target.String(i)]]++
	}

	return Crosstab{Feature: col.Name, Values: values, Targets: targets, Counts: counts}
}

// Rate returns the share of rows with feature value i that carry target j.
func (c Crosstab) Rate(i, j int) float64 {
	total := 0
	for _, n := range c.Counts[i] {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(c.Counts[i][j]) / float64(total)
}
