package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/budget/internal/model"
)

// CSV file layout.
const (
	RecordsFile      = "records.csv"
	DescriptionsFile = "descriptions.csv"

	RecordsHeader      = "batch_id,amount,date,card,description,event_time"
	DescriptionsHeader = "description,primary_information,secondary_information,tertiary_information,additional_information,event_time"

	numRecordFields = 6
	colRecordDesc   = 4

	numDescFields = 6
	colDesc       = 0
	colPrimary    = 1
	colSecondary  = 2
	colTertiary   = 3
	colAdditional = 4
	colEventTime  = 5
)

// ErrDuplicateDescription is returned when a metadata row already exists.
var ErrDuplicateDescription = errors.New("duplicate description")

// CSVStore keeps records and metadata in two CSV files in a directory.
// Empty metadata fields read back as nil.
type CSVStore struct {
	dir     string
	batchID uuid.UUID
	now     func() time.Time
}

// OpenCSV creates dir if needed and returns a store over it.
func OpenCSV(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	return &CSVStore{dir: dir, batchID: uuid.New(), now: time.Now}, nil
}

// BatchID implements Store.
func (s *CSVStore) BatchID() uuid.UUID { return s.batchID }

// Close implements Store.
func (s *CSVStore) Close() error { return nil }

// InsertTransactions implements Store.
func (s *CSVStore) InsertTransactions(_ context.Context, txns []model.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	ts := s.now().UTC().Format(time.RFC3339)
	rows := make([][]string, len(txns))
	for i, t := range txns {
		rows[i] = []string{
			s.batchID.String(),
			t.Amount.String(),
			t.Date.Format("2006-01-02"),
			string(t.Card),
			t.Description,
			ts,
		}
	}
	if err := appendRows(filepath.Join(s.dir, RecordsFile), RecordsHeader, rows); err != nil {
		return 0, fmt.Errorf("insert transactions: %w", err)
	}
	return len(txns), nil
}

// InsertDescriptions implements Store. Descriptions already on file are
// rejected with ErrDuplicateDescription and nothing is written.
func (s *CSVStore) InsertDescriptions(ctx context.Context, mds []model.DescriptionMetadata) (int, error) {
	if len(mds) == 0 {
		return 0, nil
	}
	existing, err := s.SelectDescriptions(ctx)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing)+len(mds))
	for _, md := range existing {
		seen[md.Description] = true
	}

	ts := s.now().UTC().Format(time.RFC3339)
	rows := make([][]string, len(mds))
	for i, md := range mds {
		if seen[md.Description] {
			return 0, fmt.Errorf("insert descriptions: %w: %q", ErrDuplicateDescription, md.Description)
		}
		seen[md.Description] = true
		rows[i] = marshalDescription(md, ts)
	}
	if err := appendRows(filepath.Join(s.dir, DescriptionsFile), DescriptionsHeader, rows); err != nil {
		return 0, fmt.Errorf("insert descriptions: %w", err)
	}
	return len(mds), nil
}

// SelectDescriptions implements Store.
func (s *CSVStore) SelectDescriptions(_ context.Context) ([]model.DescriptionMetadata, error) {
	f, err := os.Open(filepath.Join(s.dir, DescriptionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening descriptions: %w", err)
	}
	defer f.Close()

	mds, err := readDescriptions(f)
	if err != nil {
		return nil, fmt.Errorf("reading descriptions: %w", err)
	}
	return mds, nil
}

// SelectRecordDescriptions implements Store.
func (s *CSVStore) SelectRecordDescriptions(_ context.Context) ([]string, error) {
	f, err := os.Open(filepath.Join(s.dir, RecordsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = numRecordFields
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, rec := range records[1:] {
		if d := rec[colRecordDesc]; !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

func readDescriptions(r io.Reader) ([]model.DescriptionMetadata, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numDescFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}

	out := make([]model.DescriptionMetadata, 0, len(records)-1)
	for _, rec := range records[1:] {
		out = append(out, model.DescriptionMetadata{
			Description: rec[colDesc],
			Primary:     optional(rec[colPrimary]),
			Secondary:   optional(rec[colSecondary]),
			Tertiary:    optional(rec[colTertiary]),
			Additional:  optional(rec[colAdditional]),
		})
	}
	return out, nil
}

func marshalDescription(md model.DescriptionMetadata, ts string) []string {
	row := make([]string, numDescFields)
	row[colDesc] = md.Description
	row[colPrimary] = model.Value(md.Primary)
	row[colSecondary] = model.Value(md.Secondary)
	row[colTertiary] = model.Value(md.Tertiary)
	row[colAdditional] = model.Value(md.Additional)
	row[colEventTime] = ts
	return row
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// appendRows writes rows to path, creating the file with header if needed.
func appendRows(path, header string, rows [][]string) error {
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}
