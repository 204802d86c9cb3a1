package report

import (
	"fmt"
	"strings"
)

// ItemFailure is one rejected document of a bulk response.
type ItemFailure struct {
	Position int // position within the batch
	Status   int
	Type     string
	Reason   string
}

// ReportError is returned when the reporting store rejects part or all of
// a batch.
type ReportError struct {
	Batch  int  // zero-based batch number
	Errors bool // top-level errors flag of the bulk response
	Failed []ItemFailure
}

func (e *ReportError) Error() string {
	var b strings.Builder
	b.WriteString("Error saving benchmark results")
	fmt.Fprintf(&b, " (batch %d", e.Batch)
	if len(e.Failed) > 0 {
		fmt.Fprintf(&b, ", %d failed items", len(e.Failed))
		first := e.Failed[0]
		fmt.Fprintf(&b, ", first: status %d", first.Status)
		if first.Type != "" {
			fmt.Fprintf(&b, " %s", first.Type)
		}
		if first.Reason != "" {
			fmt.Fprintf(&b, ": %s", first.Reason)
		}
	} else if e.Errors {
		b.WriteString(", errors flag set")
	}
	b.WriteString(")")
	return b.String()
}
