package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davidvella/barrace/recordio"
	"github.com/davidvella/barrace/types"
)

// ErrUnknownFormat is returned for a file extension with no reader.
var ErrUnknownFormat = errors.New("unknown input format")

// ReadFile reads records from path, choosing the format by extension:
// .csv, .json, .jsonl or .rec.
func ReadFile(path string) ([]types.Record, error) {
	var read func(io.Reader) ([]types.Record, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		read = ReadCSV
	case ".json", ".jsonl", ".ndjson":
		read = ReadJSON
	case ".rec":
		read = func(r io.Reader) ([]types.Record, error) {
			return recordio.ReadRecords(bufio.NewReader(r))
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadCSV reads records from CSV with a header row naming the date, name
// and value columns in any order. Other columns are ignored.
func ReadCSV(r io.Reader) ([]types.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, key := range []string{types.KeyDate, types.KeyName, types.KeyValue} {
		if _, ok := cols[key]; !ok {
			return nil, fmt.Errorf("%w: header has no %q column", types.ErrInvalidRecord, key)
		}
	}

	var records []types.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		date, err := types.ParseDate(strings.TrimSpace(row[cols[types.KeyDate]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[cols[types.KeyValue]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, types.ErrInvalidRecord, err)
		}

		record := types.Record{Date: date, Name: row[cols[types.KeyName]], Value: value}
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, record)
	}
}

// ReadJSON reads either a JSON array of records or one record per line.
func ReadJSON(r io.Reader) ([]types.Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	if first == '[' {
		var records []types.Record
		if err := json.NewDecoder(br).Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var records []types.Record
	dec := json.NewDecoder(br)
	for i := 0; ; i++ {
		var record types.Record
		if err := dec.Decode(&record); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, record)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		if len(bytes.TrimSpace(b)) > 0 {
			return b[0], nil
		}
		if _, err := br.ReadByte(); err != nil {
			return 0, err
		}
	}
}
