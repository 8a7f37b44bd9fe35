package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/budget/internal/model"
	"github.com/cleared-dev/budget/internal/normalize"
)

const dateFormat = "2006-01-02"

// Parser turns export rows into normalized transactions.
type Parser struct {
	normalizer *normalize.Normalizer
}

// NewParser creates a Parser that canonicalizes descriptions with n.
func NewParser(n *normalize.Normalizer) *Parser {
	return &Parser{normalizer: n}
}

// FileResult is the outcome of reading one export.
type FileResult struct {
	Origin  Origin
	Records []model.Transaction
	Skipped int
}

// ParseRow converts one row. ok is false when the row is intentionally
// excluded, which is not an error.
func (p *Parser) ParseRow(origin Origin, row []string) (txn model.Transaction, ok bool, err error) {
	switch origin {
	case OriginUSAA:
		return p.parseUSAARow(row)
	case OriginCapitalOne:
		return p.parseCapitalOneRow(row)
	default:
		return model.Transaction{}, false, fmt.Errorf("%w %s", ErrUnknownOrigin, origin)
	}
}

// ReadFile classifies an export by its header and parses every row. The
// first malformed row aborts the file.
func (p *Parser) ReadFile(r io.Reader) (FileResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return FileResult{}, fmt.Errorf("%w: empty file", ErrUnrecognizedOrigin)
	}
	if err != nil {
		return FileResult{}, fmt.Errorf("reading header: %w", err)
	}

	origin, err := Classify(header)
	if err != nil {
		return FileResult{}, err
	}

	res := FileResult{Origin: origin}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return FileResult{Origin: origin}, fmt.Errorf("reading %s CSV: %w", origin, err)
		}

		txn, ok, err := p.ParseRow(origin, rec)
		if err != nil {
			return FileResult{Origin: origin}, fmt.Errorf("row %d: %w", line, err)
		}
		if !ok {
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, txn)
	}
	return res, nil
}

func requireFields(origin Origin, row []string, n int) error {
	if len(row) < n {
		return &ParseError{
			Origin: origin,
			Field:  "row",
			Err:    fmt.Errorf("expected at least %d fields, got %d", n, len(row)),
		}
	}
	return nil
}

func parseDate(origin Origin, s string) (time.Time, error) {
	d, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, &ParseError{Origin: origin, Field: "date", Value: s, Err: err}
	}
	return d, nil
}

func parseAmount(origin Origin, field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &ParseError{Origin: origin, Field: field, Value: s, Err: err}
	}
	return d, nil
}
