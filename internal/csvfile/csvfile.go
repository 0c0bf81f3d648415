// Package csvfile parses supplier catalog exports into the row shape the
// ingestion pipeline consumes. It tolerates the messiness of real exports:
// mixed encodings, BOMs, ragged rows, and semicolon or tab delimiters.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/stocklane-platform/api/internal/ingest"
)

var (
	ErrEmptyFile   = errors.New("empty file: no header row")
	ErrTooManyRows = errors.New("file exceeds the row limit")
)

// Parse reads an entire CSV export into memory. The header row names the
// source columns; every data row becomes a column name to raw cell map.
// Ragged rows are padded or truncated to the header width rather than
// rejected. maxRows bounds data rows only; zero means unlimited.
func Parse(data []byte, maxRows int) (ingest.RowSet, error) {
	decoded, _, err := DetectAndDecode(data)
	if err != nil {
		return ingest.RowSet{}, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = detectDelimiter(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ingest.RowSet{}, ErrEmptyFile
		}
		return ingest.RowSet{}, fmt.Errorf("read header row: %w", err)
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = ingest.CleanValue(h)
	}

	var rows []ingest.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ingest.RowSet{}, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}

		if maxRows > 0 && len(rows) >= maxRows {
			return ingest.RowSet{}, fmt.Errorf("%w: more than %d data rows", ErrTooManyRows, maxRows)
		}

		if len(record) < len(headers) {
			padded := make([]string, len(headers))
			copy(padded, record)
			record = padded
		} else if len(record) > len(headers) {
			record = record[:len(headers)]
		}

		row := make(ingest.Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			row[h] = record[i]
		}
		rows = append(rows, row)
	}

	return ingest.RowSet{Headers: headers, Rows: rows}, nil
}

// detectDelimiter sniffs the separator from the header line. Spreadsheet
// exports from French-locale tools use semicolons and some ERPs emit tabs, so
// whichever of comma, semicolon, or tab occurs most outside quotes wins.
func detectDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}

	best := ','
	bestCount := countUnquoted(line, ',')
	for _, candidate := range []rune{';', '\t'} {
		if n := countUnquoted(line, byte(candidate)); n > bestCount {
			best = candidate
			bestCount = n
		}
	}
	return best
}

func countUnquoted(line []byte, sep byte) int {
	count := 0
	inQuotes := false
	for _, b := range line {
		switch {
		case b == '"':
			inQuotes = !inQuotes
		case b == sep && !inQuotes:
			count++
		}
	}
	return count
}

// Source adapts an in-memory upload to the pipeline's row source. File type
// checks happen at the HTTP edge before a Source is built.
type Source struct {
	FileName string
	Data     []byte
	MaxRows  int
}

func (s *Source) Rows(_ context.Context) (ingest.RowSet, error) {
	return Parse(s.Data, s.MaxRows)
}
