package feeder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// JSONFeeder reads records from a file holding a JSON array of objects.
type JSONFeeder struct {
	roundRobin
}

// NewJSONFeeder loads the JSON array at path. Numbers keep their original
// text so documents round-trip unchanged.
func NewJSONFeeder(path string) (*JSONFeeder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open JSON file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("JSON file contains empty array")
	}
	for i, record := range records {
		if len(record) == 0 {
			return nil, fmt.Errorf("record %d is empty", i)
		}
	}

	return &JSONFeeder{roundRobin{records: records}}, nil
}

// NDJSONFeeder reads one JSON object per line. Blank lines are skipped.
type NDJSONFeeder struct {
	roundRobin
}

// NewNDJSONFeeder loads the newline-delimited JSON file at path.
func NewNDJSONFeeder(path string) (*NDJSONFeeder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open NDJSON file: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(text))
		dec.UseNumber()
		var record Record
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("line %d: decode JSON: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read NDJSON: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("NDJSON file contains no documents")
	}

	return &NDJSONFeeder{roundRobin{records: records}}, nil
}
