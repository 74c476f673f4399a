package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFile is returned when the uploaded file has no content
	ErrEmptyFile = errors.New("uploaded file is empty")

	// ErrInvalidEncoding is returned when a CSV file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("file missing header row")

	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ParseError carries the line that failed to parse.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
