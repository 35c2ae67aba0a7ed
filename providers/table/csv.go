package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var ErrNoHeader = errors.New("csv input has no header row")

// CSVOption configures FromCSV.
type CSVOption func(*csv.Reader)

// WithComma sets the field delimiter.
func WithComma(comma rune) CSVOption {
	return func(r *csv.Reader) { r.Comma = comma }
}

// WithComment ignores lines starting with c.
func WithComment(c rune) CSVOption {
	return func(r *csv.Reader) { r.Comment = c }
}

// FromCSV reads a header row followed by data rows. Every data cell is valid;
// use EmptyAsNull to read empty cells as nulls.
func FromCSV(r io.Reader, csvOpts []CSVOption, opts ...Option) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	for _, opt := range csvOpts {
		opt(reader)
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	t, err := New(header, opts...)
	if err != nil {
		return nil, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		if err := t.AppendStrings(record...); err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return t, nil
}
