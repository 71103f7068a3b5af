package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"
)

// Column names read from the header; all others are ignored.
const (
	ColumnTimestamp = "timestamp"
	ColumnContents  = "contents"
)

// timestampLayouts are tried in order. Fractional seconds are accepted by
// time.Parse after the seconds field even when a layout omits them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Rows streams the data rows of a message log. The header row is consumed
// first and maps columns by name, so column order does not matter.
//
// Records with the wrong number of fields or broken quoting are skipped and
// reported through opts.OnSkip; only read errors from r end the sequence
// with an error. The sequence is single-pass.
func Rows(r io.Reader, opts Options) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		cr := csv.NewReader(r)
		cr.LazyQuotes = true
		cr.ReuseRecord = true

		header, err := cr.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				yield(Row{}, fmt.Errorf("read header: %w", err))
				return
			}
			// unusable header; nothing in this file can be mapped
			skip(opts, perr.StartLine, err)
			return
		}
		cols := mapColumns(header)

		for {
			rec, err := cr.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				var perr *csv.ParseError
				if errors.As(err, &perr) {
					skip(opts, perr.StartLine, &SkipError{
						StartLine: perr.StartLine,
						EndLine:   recordEnd(cr, rec, perr),
						Err:       err,
					})
					continue
				}
				yield(Row{}, fmt.Errorf("read record: %w", err))
				return
			}

			line, _ := cr.FieldPos(0)
			row := Row{Line: line}
			if raw, ok := cols.get(rec, ColumnTimestamp); ok {
				row.Timestamp, row.HasTimestamp = ParseTimestamp(raw, opts.Location)
			}
			if raw, ok := cols.get(rec, ColumnContents); ok {
				row.Contents = raw
			}

			if !yield(row, nil) {
				return
			}
		}
	}
}

// ReadAll collects every row. Intended for small inputs and tests.
func ReadAll(r io.Reader, opts Options) ([]Row, error) {
	var rows []Row
	for row, err := range Rows(r, opts) {
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseTimestamp parses the timestamp formats found in Discord exports.
// It reports false for empty or unrecognized input.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if loc != nil {
			t = t.In(loc)
		}
		return t, true
	}
	return time.Time{}, false
}

type columns map[string]int

func mapColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func (c columns) get(rec []string, name string) (string, bool) {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return "", false
	}
	return rec[i], true
}

// recordEnd is the last physical line of a dropped record. With lazy quotes
// an unterminated quote swallows the following lines into the last field.
func recordEnd(cr *csv.Reader, rec []string, perr *csv.ParseError) int {
	end := max(perr.StartLine, perr.Line)
	if !errors.Is(perr, csv.ErrFieldCount) || len(rec) == 0 {
		return end
	}
	last := len(rec) - 1
	line, _ := cr.FieldPos(last)
	return max(end, line+strings.Count(strings.TrimSuffix(rec[last], "\n"), "\n"))
}

func skip(opts Options, line int, err error) {
	if opts.OnSkip != nil {
		opts.OnSkip(line, err)
	}
}
