package importer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Origin identifies the institution format of an export.
type Origin int

const (
	OriginUnknown Origin = iota
	OriginUSAA
	OriginCapitalOne
)

var (
	// ErrUnrecognizedOrigin is returned when a header matches no known format.
	ErrUnrecognizedOrigin = errors.New("unrecognized export format")
	// ErrUnknownOrigin is returned when asked to parse an origin with no parser.
	ErrUnknownOrigin = errors.New("no parser for origin")
)

func (o Origin) String() string {
	switch o {
	case OriginUSAA:
		return "usaa"
	case OriginCapitalOne:
		return "capitalone"
	default:
		return "unknown"
	}
}

// HeaderLabel maps the first header column of an export to its origin.
type HeaderLabel struct {
	Label  string // compared case-insensitively
	Origin Origin
}

// headerTable lists the known leading header columns.
//
//	USAA:        Date,Description,Original Description,Category,Amount,Status
//	Capital One: Transaction Date,Posted Date,Card No.,Description,Category,Debit,Credit
var headerTable = []HeaderLabel{
	{Label: "date", Origin: OriginUSAA},
	{Label: "transaction date", Origin: OriginCapitalOne},
}

// DefaultHeaders returns a copy of the header labels Classify recognizes.
func DefaultHeaders() []HeaderLabel {
	return slices.Clone(headerTable)
}

// Classify inspects a header row and returns the export's origin.
func Classify(header []string) (Origin, error) {
	if len(header) == 0 {
		return OriginUnknown, fmt.Errorf("%w: empty header", ErrUnrecognizedOrigin)
	}
	first := strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff"))
	for _, h := range headerTable {
		if strings.EqualFold(first, h.Label) {
			return h.Origin, nil
		}
	}
	return OriginUnknown, fmt.Errorf("%w: first header %q", ErrUnrecognizedOrigin, header[0])
}

// ParseError describes a row that could not be parsed.
type ParseError struct {
	Origin Origin
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Value == "" && e.Field == "row" {
		return fmt.Sprintf("%s: %v", e.Origin, e.Err)
	}
	return fmt.Sprintf("%s: parsing %s %q: %v", e.Origin, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
