// Package upload turns uploaded spreadsheets into raw records.
package upload

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a supported upload file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat infers the format from the file extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ContentType returns the MIME type used when archiving a file of this format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// ParseRecords parses data according to the extension of filename and
// returns one map per non-blank data row.
func ParseRecords(filename string, data []byte) ([]map[string]string, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var rows []*Row
	switch format {
	case FormatXLSX:
		rows, err = ParseXLSX(data)
	default:
		rows, err = parseCSV(data)
	}
	if err != nil {
		return nil, err
	}

	records := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Data)
	}
	return records, nil
}

func parseCSV(data []byte) ([]*Row, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	parser, err := ParseFromBytes(data)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	return parser.ReadAllRows()
}
