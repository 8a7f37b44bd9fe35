package metadata

import "context"

// OutcomeKind says how a prompt was answered.
type OutcomeKind int

const (
	// OutcomeText carries an answer for the current field.
	OutcomeText OutcomeKind = iota
	// OutcomeSkipOne drops the current description.
	OutcomeSkipOne
	// OutcomeAbortAll stops collection altogether.
	OutcomeAbortAll
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeText:
		return "text"
	case OutcomeSkipOne:
		return "skip-one"
	case OutcomeAbortAll:
		return "abort-all"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single prompt. Text is only meaningful when
// Kind is OutcomeText.
type Outcome struct {
	Kind OutcomeKind
	Text string
}

// Text returns an answer outcome.
func Text(s string) Outcome { return Outcome{Kind: OutcomeText, Text: s} }

// SkipOne returns a skip-this-description outcome.
func SkipOne() Outcome { return Outcome{Kind: OutcomeSkipOne} }

// AbortAll returns a stop-collecting outcome.
func AbortAll() Outcome { return Outcome{Kind: OutcomeAbortAll} }

// Prompter asks the user a question and blocks until it is answered.
type Prompter interface {
	Prompt(ctx context.Context, question string) (Outcome, error)
}
