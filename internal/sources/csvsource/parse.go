// Package csvsource reads the article sheet from a published CSV resource.
package csvsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"artikujt/internal/core"
)

// Parse reads a CSV document whose first record is the header.
//
// Rows with more cells than the header, rows the CSV reader rejects and rows
// whose quoted last field is never closed are skipped and counted in
// RawTable.Skipped. Parsing resumes on the line after a skipped unclosed row.
// Shorter rows are kept; their missing cells are treated as absent by the
// normalizer. An empty document or an unreadable header is a
// *core.ParseError. Errors from r itself are reported as *core.FetchError
// since they happen while reading the body.
func Parse(r io.Reader, location string) (core.RawTable, error) {
	// Strip a UTF-8 BOM that spreadsheet exports like to prepend.
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return core.RawTable{}, &core.FetchError{URL: location, Err: err}
	}
	lines := lineStarts(data)

	reader := newReader(data)
	header, err := reader.Read()
	switch {
	case errors.Is(err, io.EOF):
		return core.RawTable{}, &core.ParseError{URL: location, Err: core.ErrEmptyResource}
	case err != nil:
		return core.RawTable{}, classify(location, err)
	}
	if blank(header) {
		return core.RawTable{}, &core.ParseError{URL: location, Err: core.ErrMissingHeader}
	}

	rt := core.RawTable{Header: header}
	// base and baseLine locate the current reader's input within data.
	base, baseLine := 0, 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				rt.Skipped++
				continue
			}
			return core.RawTable{}, classify(location, err)
		}

		// With LazyQuotes an unclosed quote swallows the rest of the input
		// into one field. Drop that row and restart on its next line.
		if base+int(reader.InputOffset()) == len(data) {
			line, col := reader.FieldPos(len(row) - 1)
			if unclosedQuote(data[lines[baseLine+line-1]+col-1:]) {
				rt.Skipped++
				first, _ := reader.FieldPos(0)
				next := baseLine + first
				if next >= len(lines) {
					break
				}
				base, baseLine = lines[next], next
				reader = newReader(data[base:])
				continue
			}
		}

		if len(row) > len(header) {
			rt.Skipped++
			continue
		}
		rt.Rows = append(rt.Rows, row)
	}
	return rt, nil
}

func newReader(data []byte) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// lineStarts returns the offset of every line in data.
func lineStarts(data []byte) []int {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' && i+1 < len(data) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// unclosedQuote reports whether field, the raw text of a last field up to
// the end of input, opens a quote that is never closed. A closed field ends
// in an odd run of quotes: escaped pairs plus the closing one.
func unclosedQuote(field []byte) bool {
	field = bytes.TrimRight(field, "\r\n")
	if len(field) == 0 || field[0] != '"' {
		return false
	}
	body := field[1:]
	n := len(body) - len(bytes.TrimRight(body, `"`))
	return n%2 == 0
}

func classify(location string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &core.ParseError{URL: location, Err: err}
	}
	return &core.FetchError{URL: location, Err: err}
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
