package data

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column holds one named column. Numeric cells live in Num, categorical
// cells in Text. An invalid NullDecimal or an empty string marks a missing cell.
type Column struct {
	Name string
	Kind Kind
	Text []string
	Num  []decimal.NullDecimal
}

func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Text: values}
}

func NewNumeric(name string, values []decimal.NullDecimal) *Column {
	return &Column{Name: name, Kind: Numeric, Num: values}
}

// NewNumericFloat builds a numeric column with no missing cells.
func NewNumericFloat(name string, values []float64) *Column {
	num := make([]decimal.NullDecimal, len(values))
	for i, v := range values {
		num[i] = decimal.NewNullDecimal(decimal.NewFromFloat(v))
	}
	return NewNumeric(name, num)
}

func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Num)
	}
	return len(c.Text)
}

func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return !c.Num[i].Valid
	}
	return IsNA(c.Text[i])
}

func (c *Column) MissingCount() int {
	count := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			count++
		}
	}
	return count
}

// String renders cell i the way it would appear in the source file.
func (c *Column) String(i int) string {
	if c.Kind == Categorical {
		return c.Text[i]
	}
	if !c.Num[i].Valid {
		return ""
	}
	return c.Num[i].Decimal.String()
}

// Float returns cell i as float64. The boolean is false for missing
// and categorical cells.
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != Numeric || !c.Num[i].Valid {
		return 0, false
	}
	return c.Num[i].Decimal.InexactFloat64(), true
}

// Floats returns the non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	values := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			values = append(values, v)
		}
	}
	return values
}

// IsInteger reports whether every present value of a numeric column is integral.
func (c *Column) IsInteger() bool {
	if c.Kind != Numeric {
		return false
	}
	for _, v := range c.Num {
		if v.Valid && !v.Decimal.IsInteger() {
			return false
		}
	}
	return true
}

func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Num = make([]decimal.NullDecimal, len(rows))
		for i, r := range rows {
			out.Num[i] = c.Num[r]
		}
		return out
	}
	out.Text = make([]string, len(rows))
	for i, r := range rows {
		out.Text[i] = c.Text[r]
	}
	return out
}

// Frame is an immutable table of equally sized columns. Operations return
// new frames and share the columns they do not touch.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
}

func NewFrame(columns ...*Column) (*Frame, error) {
	f := &Frame{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if _, dup := f.index[col.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrParse, col.Name)
		}
		if i == 0 {
			f.rows = col.Len()
		} else if col.Len() != f.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d", ErrParse, col.Name, col.Len(), f.rows)
		}
		f.index[col.Name] = i
		f.columns = append(f.columns, col)
	}
	return f, nil
}

func (f *Frame) Rows() int { return f.rows }

func (f *Frame) Shape() (int, int) { return f.rows, len(f.columns) }

func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, col := range f.columns {
		names[i] = col.Name
	}
	return names
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Column(name string) (*Column, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: column %q not found", ErrSchema, name)
	}
	return f.columns[i], nil
}

// Columns returns the columns in schema order. Callers must not modify them.
func (f *Frame) Columns() []*Column {
	out := make([]*Column, len(f.columns))
	copy(out, f.columns)
	return out
}

// Drop returns a frame without the named column.
func (f *Frame) Drop(name string) (*Frame, error) {
	if !f.Has(name) {
		return nil, fmt.Errorf("%w: cannot drop %q, column not found", ErrSchema, name)
	}
	kept := make([]*Column, 0, len(f.columns)-1)
	for _, col := range f.columns {
		if col.Name != name {
			kept = append(kept, col)
		}
	}
	out, err := NewFrame(kept...)
	if err != nil {
		return nil, err
	}
	if len(kept) == 0 {
		out.rows = f.rows
	}
	return out, nil
}

// Replace returns a frame where the column with the same name as col is swapped for col.
func (f *Frame) Replace(col *Column) (*Frame, error) {
	i, ok := f.index[col.Name]
	if !ok {
		return nil, fmt.Errorf("%w: cannot replace %q, column not found", ErrSchema, col.Name)
	}
	columns := f.Columns()
	columns[i] = col
	return NewFrame(columns...)
}

// Take returns a frame holding only the given rows, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{
		columns: make([]*Column, len(f.columns)),
		index:   f.index,
		rows:    len(rows),
	}
	for i, col := range f.columns {
		out.columns[i] = col.take(rows)
	}
	return out
}

// Filter returns a frame with the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	rows := make([]int, 0, f.rows)
	for r := 0; r < f.rows; r++ {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return f.Take(rows)
}

// HasMissing reports whether any cell of the row is missing.
func (f *Frame) HasMissing(row int) bool {
	for _, col := range f.columns {
		if col.IsMissing(row) {
			return true
		}
	}
	return false
}

// RowKey joins the textual cells of a row; equal keys mean duplicate rows.
func (f *Frame) RowKey(row int) string {
	var b strings.Builder
	for i, col := range f.columns {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		if col.IsMissing(row) {
			b.WriteString("\x00")
			continue
		}
		b.WriteString(col.String(row))
	}
	return b.String()
}

// Matrix copies the named numeric columns into a dense rows x len(names) matrix.
func (f *Frame) Matrix(names []string) (*mat.Dense, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no columns selected", ErrValue)
	}
	if f.rows == 0 {
		return nil, fmt.Errorf("%w: frame has no rows", ErrValue)
	}
	m := mat.NewDense(f.rows, len(names), nil)
	for j, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind != Numeric {
			return nil, fmt.Errorf("%w: column %q is %s", ErrValue, name, col.Kind)
		}
		for i := 0; i < f.rows; i++ {
			v, ok := col.Float(i)
			if !ok {
				return nil, fmt.Errorf("%w: column %q has a missing value at row %d", ErrValue, name, i)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// Labels reads an integer-coded numeric column.
func (f *Frame) Labels(name string) ([]int, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if col.Kind != Numeric {
		return nil, fmt.Errorf("%w: label column %q is %s", ErrValue, name, col.Kind)
	}
	labels := make([]int, f.rows)
	for i := 0; i < f.rows; i++ {
		v := col.Num[i]
		if !v.Valid || !v.Decimal.IsInteger() {
			return nil, fmt.Errorf("%w: label column %q has a non-integer value at row %d", ErrValue, name, i)
		}
		labels[i] = int(v.Decimal.IntPart())
	}
	return labels, nil
}
