package encounter

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader streams RawRows from a claim-template CSV
type Reader struct {
	reader *csv.Reader
	header []string
	rowNum int
}

// NewReader wraps r, skipping a UTF-8 BOM and reading the header row
func NewReader(r io.Reader) (*Reader, error) {
	buf := bufio.NewReaderSize(r, 256*1024)

	if bom, err := buf.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	cr := csv.NewReader(buf)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("claim file has no header row")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &Reader{reader: cr, header: header, rowNum: 1}, nil
}

// Header returns the column names as read
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next row, or io.EOF when the file is exhausted.
// Blank lines are skipped by encoding/csv.
func (r *Reader) Next() (RawRow, error) {
	record, err := r.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("row %d: %w", r.rowNum+1, err)
	}
	r.rowNum++

	row := make(RawRow, len(r.header))
	for i, col := range r.header {
		if i < len(record) {
			row[col] = record[i]
		}
	}
	return row, nil
}

// ReadAll drains the reader
func (r *Reader) ReadAll() ([]RawRow, error) {
	var rows []RawRow
	for {
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}
