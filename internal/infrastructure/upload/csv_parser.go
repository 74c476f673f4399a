package upload

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSVParser reads a delimited file whose first row holds the column names.
type CSVParser struct {
	delimiter  rune
	autoDetect bool
	lazyQuotes bool
	trimSpace  bool
	headers    []string
	currentRow int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption configures a CSVParser.
type ParserOption func(*CSVParser)

// WithDelimiter forces the field delimiter and disables detection.
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
		p.autoDetect = false
	}
}

// WithLazyQuotes toggles lenient quote handling.
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// WithTrimSpace toggles whitespace trimming of headers and values.
func WithTrimSpace(trim bool) ParserOption {
	return func(p *CSVParser) {
		p.trimSpace = trim
	}
}

const sniffSize = 4096

// NewCSVParser wraps r, strips a UTF-8 BOM and validates the encoding.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter:  ',',
		autoDetect: true,
		lazyQuotes: true,
		trimSpace:  true,
	}
	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReaderSize(r, sniffSize)

	bom, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = parser.bufReader.Discard(3)
	}

	head, err := parser.bufReader.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}
	if !validUTF8Prefix(head) {
		return nil, ErrInvalidEncoding
	}
	if parser.autoDetect {
		parser.delimiter = detectDelimiter(head)
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.TrimLeadingSpace = parser.trimSpace
	parser.reader.FieldsPerRecord = -1

	return parser, nil
}

// validUTF8Prefix accepts a buffer that may end in the middle of a rune.
func validUTF8Prefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return !utf8.FullRune(b[len(b)-i:])
		}
	}
	return false
}

// detectDelimiter picks ';' when the header line has more semicolons than commas.
func detectDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// Delimiter returns the delimiter in use.
func (p *CSVParser) Delimiter() rune {
	return p.delimiter
}

// ParseHeader reads the header row.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	for _, h := range record {
		if p.trimSpace {
			h = strings.TrimSpace(h)
		}
		p.headers = append(p.headers, h)
	}
	if !hasNonEmpty(p.headers) {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the parsed column names.
func (p *CSVParser) Headers() []string {
	return p.headers
}

// Row is one data line keyed by header.
type Row struct {
	LineNumber int
	Data       map[string]string
}

// IsEmpty reports whether every value is blank.
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow returns the next row or io.EOF.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, &ParseError{Line: p.currentRow, Err: err}
	}
	return buildRow(p.currentRow, p.headers, record, p.trimSpace), nil
}

// ReadAllRows reads the remaining rows, skipping blank ones.
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// ParseFromBytes creates a parser over data.
func ParseFromBytes(data []byte, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), opts...)
}

// buildRow maps fields onto headers. Missing trailing fields become empty
// strings and blank header columns are dropped.
func buildRow(line int, headers, fields []string, trim bool) *Row {
	row := &Row{LineNumber: line, Data: make(map[string]string, len(headers))}
	for i, header := range headers {
		if header == "" {
			continue
		}
		value := ""
		if i < len(fields) {
			value = fields[i]
			if trim {
				value = strings.TrimSpace(value)
			}
		}
		row.Data[header] = value
	}
	return row
}

func hasNonEmpty(values []string) bool {
	for _, v := range values {
		if v != "" {
			return true
		}
	}
	return false
}
