package data

import "errors"

var (
	// ErrIO reports a file that is missing or cannot be read.
	ErrIO = errors.New("io error")
	// ErrParse reports malformed CSV input.
	ErrParse = errors.New("parse error")
	// ErrSchema reports an expected column that is absent.
	ErrSchema = errors.New("schema error")
	// ErrValue reports a degenerate value for a statistical computation.
	ErrValue = errors.New("value error")
)
