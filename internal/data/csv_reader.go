package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

type CSVReader struct {
	filename string
}

func NewCSVReader(filename string) *CSVReader {
	return &CSVReader{filename: filename}
}

// LoadFrame reads the whole file into a Frame. A column whose non-missing
// cells all parse as decimals becomes Numeric, any other column Categorical.
// Missing cells are the tokens accepted by IsNA.
func (cr *CSVReader) LoadFrame() (*Frame, error) {
	file, err := os.Open(cr.filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer file.Close()

	return ReadFrame(file)
}

// LoadCSV is shorthand for NewCSVReader(path).LoadFrame().
func LoadCSV(path string) (*Frame, error) {
	return NewCSVReader(path).LoadFrame()
}

func ReadFrame(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrParse)
	}

	headers := records[0]
	rows := records[1:]

	columns := make([]*Column, len(headers))
	for j, name := range headers {
		cells := make([]string, len(rows))
		for i, record := range rows {
			cells[i] = record[j]
		}
		columns[j] = inferColumn(name, cells)
	}

	return NewFrame(columns...)
}

func inferColumn(name string, cells []string) *Column {
	values := make([]decimal.NullDecimal, len(cells))
	for i, cell := range cells {
		if IsNA(cell) {
			continue
		}
		val, err := decimal.NewFromString(strings.TrimSpace(cell))
		if err != nil {
			return NewCategorical(name, cells)
		}
		values[i] = decimal.NewNullDecimal(val)
	}
	return NewNumeric(name, values)
}
