package parse

import (
	"fmt"
	"time"
)

// Row is one message from a channel log.
type Row struct {
	Timestamp    time.Time
	HasTimestamp bool
	Contents     string
	Line         int // line number where the record starts in the source
}

// Options tune parsing. The zero value is valid.
type Options struct {
	// Location, when set, converts timestamps before their wall-clock
	// fields are read. Otherwise the recorded offset is kept.
	Location *time.Location
	// OnSkip is called for each record that could not be parsed and was dropped.
	OnSkip func(line int, err error)
}

// SkipError describes a record dropped by Rows. A record with an unterminated
// quote can cover many physical lines, all of which are lost.
type SkipError struct {
	StartLine int
	EndLine   int
	Err       error
}

func (e *SkipError) Error() string {
	if e.EndLine > e.StartLine {
		return fmt.Sprintf("lines %d-%d dropped: %v", e.StartLine, e.EndLine, e.Err)
	}
	return e.Err.Error()
}

func (e *SkipError) Unwrap() error { return e.Err }

// Lines is the number of physical lines the record covered.
func (e *SkipError) Lines() int { return e.EndLine - e.StartLine + 1 }
