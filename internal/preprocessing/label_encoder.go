package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"telcochurn/internal/data"
)

// MaxClasses bounds the number of distinct values a column may encode.
const MaxClasses = math.MaxInt32

// LabelEncoder maps the distinct values of a column to 0-based codes in
// sorted order, so "No" is 0 and "Yes" is 1.
type LabelEncoder struct {
	Classes    []string
	ClassToInt map[string]int
	IsFitted   bool
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{
		ClassToInt: make(map[string]int),
	}
}

// NewLabelEncoderFromClasses rebuilds a fitted encoder from a persisted class list.
func NewLabelEncoderFromClasses(classes []string) (*LabelEncoder, error) {
	le := NewLabelEncoder()
	for i, class := range classes {
		if _, dup := le.ClassToInt[class]; dup {
			return nil, fmt.Errorf("%w: duplicate class %q", data.ErrValue, class)
		}
		if i > 0 && classes[i-1] > class {
			return nil, fmt.Errorf("%w: classes are not sorted", data.ErrValue)
		}
		le.ClassToInt[class] = i
	}
	le.Classes = append([]string(nil), classes...)
	le.IsFitted = true
	return le, nil
}

func (le *LabelEncoder) Fit(labels []string) error {
	uniqueLabels := make(map[string]bool)
	for _, label := range labels {
		uniqueLabels[label] = true
	}

	if len(uniqueLabels) > MaxClasses {
		return fmt.Errorf("%w: %d distinct values exceed the %d code limit", data.ErrValue, len(uniqueLabels), MaxClasses)
	}

	classes := make([]string, 0, len(uniqueLabels))
	for label := range uniqueLabels {
		classes = append(classes, label)
	}
	sort.Strings(classes)

	le.Classes = classes
	le.ClassToInt = make(map[string]int, len(classes))
	for i, class := range classes {
		le.ClassToInt[class] = i
	}
	le.IsFitted = true
	return nil
}

func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before transform")
	}

	result := make([]int, len(labels))
	for i, label := range labels {
		val, ok := le.ClassToInt[label]
		if !ok {
			return nil, fmt.Errorf("%w: unknown label %q", data.ErrValue, label)
		}
		result[i] = val
	}

	return result, nil
}

func (le *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := le.Fit(labels); err != nil {
		return nil, err
	}
	return le.Transform(labels)
}

func (le *LabelEncoder) InverseTransform(encoded []int) ([]string, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before inverse transform")
	}

	result := make([]string, len(encoded))
	for i, val := range encoded {
		if val < 0 || val >= len(le.Classes) {
			return nil, fmt.Errorf("%w: unknown encoding %d", data.ErrValue, val)
		}
		result[i] = le.Classes[val]
	}

	return result, nil
}

// Encoding holds the fitted encoder of every categorical column, in column order.
type Encoding struct {
	Columns  []string
	Encoders map[string]*LabelEncoder
}

// Mapping returns value -> code for one column.
func (e *Encoding) Mapping(column string) (map[string]int, bool) {
	le, ok := e.Encoders[column]
	if !ok {
		return nil, false
	}
	out := make(map[string]int, len(le.ClassToInt))
	for k, v := range le.ClassToInt {
		out[k] = v
	}
	return out, true
}

// Classes returns the persisted form of the encoding: column -> classes in code order.
func (e *Encoding) Classes() map[string][]string {
	out := make(map[string][]string, len(e.Encoders))
	for name, le := range e.Encoders {
		out[name] = append([]string(nil), le.Classes...)
	}
	return out
}

// EncodingFromClasses restores an Encoding from its persisted form.
func EncodingFromClasses(columns []string, classes map[string][]string) (*Encoding, error) {
	enc := &Encoding{
		Columns:  append([]string(nil), columns...),
		Encoders: make(map[string]*LabelEncoder, len(columns)),
	}
	for _, name := range columns {
		cls, ok := classes[name]
		if !ok {
			return nil, fmt.Errorf("%w: no classes stored for column %q", data.ErrSchema, name)
		}
		le, err := NewLabelEncoderFromClasses(cls)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		enc.Encoders[name] = le
	}
	return enc, nil
}

// EncodeFrame fits one encoder per categorical column of f and returns a
// frame where those columns hold integer codes.
func EncodeFrame(f *data.Frame) (*data.Frame, *Encoding, error) {
	enc := &Encoding{Encoders: make(map[string]*LabelEncoder)}
	for _, col := range f.Columns() {
		if col.Kind != data.Categorical {
			continue
		}
		le := NewLabelEncoder()
		if err := le.Fit(col.Text); err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		enc.Columns = append(enc.Columns, col.Name)
		enc.Encoders[col.Name] = le
	}

	out, err := enc.Apply(f)
	if err != nil {
		return nil, nil, err
	}
	return out, enc, nil
}

// Apply encodes the categorical columns of f with the fitted encoders.
// Values never seen during fitting are rejected.
func (e *Encoding) Apply(f *data.Frame) (*data.Frame, error) {
	out := f
	for _, name := range e.Columns {
		col, err := out.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind != data.Categorical {
			return nil, fmt.Errorf("%w: column %q is already %s", data.ErrValue, name, col.Kind)
		}
		if n := col.MissingCount(); n > 0 {
			return nil, fmt.Errorf("%w: column %q has %d missing values", data.ErrValue, name, n)
		}
		codes, err := e.Encoders[name].Transform(col.Text)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		values := make([]decimal.NullDecimal, len(codes))
		for i, code := range codes {
			values[i] = decimal.NewNullDecimal(decimal.NewFromInt(int64(code)))
		}
		if out, err = out.Replace(data.NewNumeric(name, values)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
