// Package feeder supplies benchmark documents and query values from CSV,
// JSON or NDJSON files. Records are handed out in round-robin order and
// wrap around when the file is exhausted.
package feeder

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Record is a single row of data with named fields.
type Record map[string]interface{}

// JSON encodes the record as a document body.
func (r Record) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// Feeder provides per-repetition data from a dataset. Implementations are
// safe for concurrent use.
type Feeder interface {
	// Next returns the next record in deterministic round-robin order.
	Next(ctx context.Context) (Record, error)

	// Len returns the total number of records in the dataset.
	Len() int
}

// Open loads path with the feeder matching its extension: .csv, .ndjson or
// .jsonl for newline-delimited documents, anything else as a JSON array.
func Open(path string) (Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVFeeder(path)
	case ".ndjson", ".jsonl":
		return NewNDJSONFeeder(path)
	default:
		return NewJSONFeeder(path)
	}
}

// roundRobin holds a loaded dataset and the position of the next record.
type roundRobin struct {
	mu      sync.Mutex
	records []Record
	index   int
}

func (f *roundRobin) Next(ctx context.Context) (Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.records) == 0 {
		return nil, fmt.Errorf("feeder has no records")
	}
	record := f.records[f.index]
	f.index = (f.index + 1) % len(f.records)
	return record, nil
}

func (f *roundRobin) Len() int {
	return len(f.records)
}
