// Package runlog keeps an append-only CSV history of ingest runs.
package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one file within a run.
type Status string

const (
	StatusImported     Status = "imported"
	StatusUnrecognized Status = "unrecognized"
	StatusFailed       Status = "failed"
)

// Entry is one row in the ingest log.
type Entry struct {
	Timestamp time.Time
	BatchID   uuid.UUID
	File      string
	Origin    string
	Records   int
	Skipped   int
	Status    Status
	Detail    string
}

// Header is the CSV header for ingest-log.csv.
const Header = "timestamp,batch_id,file,origin,records,skipped,status,detail"

const (
	numFields    = 8
	logDir       = "logs"
	logFile      = "logs/ingest-log.csv"
	colTimestamp = 0
	colBatchID   = 1
	colFile      = 2
	colOrigin    = 3
	colRecords   = 4
	colSkipped   = 5
	colStatus    = 6
	colDetail    = 7
)

// Path returns the log location under dir.
func Path(dir string) string {
	return filepath.Join(dir, logFile)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colBatchID] = e.BatchID.String()
	row[colFile] = e.File
	row[colOrigin] = e.Origin
	row[colRecords] = strconv.Itoa(e.Records)
	row[colSkipped] = strconv.Itoa(e.Skipped)
	row[colStatus] = string(e.Status)
	row[colDetail] = e.Detail
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	batch, err := uuid.Parse(record[colBatchID])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing batch id %q: %w", record[colBatchID], err)
	}
	records, err := strconv.Atoi(record[colRecords])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing records %q: %w", record[colRecords], err)
	}
	skipped, err := strconv.Atoi(record[colSkipped])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing skipped %q: %w", record[colSkipped], err)
	}

	return Entry{
		Timestamp: ts,
		BatchID:   batch,
		File:      record[colFile],
		Origin:    record[colOrigin],
		Records:   records,
		Skipped:   skipped,
		Status:    Status(record[colStatus]),
		Detail:    record[colDetail],
	}, nil
}

// Append writes entries to <dir>/logs/ingest-log.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(dir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(dir)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening ingest log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/logs/ingest-log.csv, or nil if the
// file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(Path(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ingest log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ingest log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
