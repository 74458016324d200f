package preprocessing

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"telcochurn/internal/data"
)

type CleanOptions struct {
	// IDColumn is dropped unconditionally.
	IDColumn string
	// NumericColumns hold numbers stored as text; unparseable cells become missing.
	NumericColumns []string
}

type CleanReport struct {
	RowsBefore    int
	RowsAfter     int
	MissingBefore int
	Coerced       map[string]int
}

func (r CleanReport) RowsDropped() int {
	return r.RowsBefore - r.RowsAfter
}

type Cleaner struct {
	opts   CleanOptions
	logger *zap.Logger
}

func NewCleaner(opts CleanOptions, logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{opts: opts, logger: logger}
}

// Clean coerces the numeric text columns, drops the identifier column and
// then drops every row holding a missing value.
func (c *Cleaner) Clean(f *data.Frame) (*data.Frame, CleanReport, error) {
	report := CleanReport{
		RowsBefore: f.Rows(),
		Coerced:    make(map[string]int, len(c.opts.NumericColumns)),
	}

	out := f
	for _, name := range c.opts.NumericColumns {
		col, err := out.Column(name)
		if err != nil {
			return nil, report, err
		}
		coerced, failed := CoerceNumeric(col)
		if out, err = out.Replace(coerced); err != nil {
			return nil, report, err
		}
		report.Coerced[name] = failed
		c.logger.Debug("coerced column to numeric",
			zap.String("column", name),
			zap.Int("unparseable", failed))
	}

	out, err := out.Drop(c.opts.IDColumn)
	if err != nil {
		return nil, report, err
	}

	for _, col := range out.Columns() {
		report.MissingBefore += col.MissingCount()
	}

	out = DropMissing(out)
	report.RowsAfter = out.Rows()

	c.logger.Info("cleaned dataset",
		zap.Int("rows_before", report.RowsBefore),
		zap.Int("rows_after", report.RowsAfter),
		zap.Int("missing_values", report.MissingBefore),
		zap.String("dropped_column", c.opts.IDColumn))

	return out, report, nil
}

// CoerceNumeric parses every cell of col as a decimal. Cells that fail to
// parse become missing. Cells already missing are not counted as failures.
// It returns the new column and the number of failures.
func CoerceNumeric(col *data.Column) (*data.Column, int) {
	if col.Kind == data.Numeric {
		return col, 0
	}

	values := make([]decimal.NullDecimal, len(col.Text))
	failed := 0
	for i, cell := range col.Text {
		if data.IsNA(cell) {
			continue
		}
		val, err := decimal.NewFromString(strings.TrimSpace(cell))
		if err != nil {
			failed++
			continue
		}
		values[i] = decimal.NewNullDecimal(val)
	}
	return data.NewNumeric(col.Name, values), failed
}

// DropMissing returns the rows of f without any missing cell.
func DropMissing(f *data.Frame) *data.Frame {
	return f.Filter(func(row int) bool {
		return !f.HasMissing(row)
	})
}
