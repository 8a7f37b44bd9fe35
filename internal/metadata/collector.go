// Package metadata collects user-supplied information for new descriptions.
package metadata

import (
	"context"
	"fmt"

	"github.com/cleared-dev/budget/internal/model"
)

// Questions asked for each description, in order: primary, secondary,
// tertiary, additional. %s is replaced by the description in the first.
var Questions = [4]string{
	"Please provide primary information for description '%s':",
	"Please provide secondary information if it exists:",
	"Please provide tertiary information if it exists:",
	"Please provide additional information if it exists:",
}

// Collector drives a Prompter over descriptions missing metadata.
type Collector struct {
	prompter Prompter
	onRecord func(model.DescriptionMetadata)
}

// Option configures a Collector.
type Option func(*Collector)

// WithRecordHook calls fn after each completed record.
func WithRecordHook(fn func(model.DescriptionMetadata)) Option {
	return func(c *Collector) { c.onRecord = fn }
}

// NewCollector creates a Collector.
func NewCollector(p Prompter, opts ...Option) *Collector {
	c := &Collector{prompter: p}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Collect prompts for each description in order. Skipped descriptions yield
// nothing; an abort stops the loop and keeps what was completed. On a
// prompter error the completed records are returned with the error.
func (c *Collector) Collect(ctx context.Context, descriptions []string) ([]model.DescriptionMetadata, error) {
	var out []model.DescriptionMetadata

	for _, desc := range descriptions {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		answers, outcome, err := c.ask(ctx, desc)
		if err != nil {
			return out, fmt.Errorf("collecting %q: %w", desc, err)
		}

		switch outcome {
		case OutcomeAbortAll:
			return out, nil
		case OutcomeSkipOne:
			continue
		}

		md := model.NewDescriptionMetadata(desc, answers[0], answers[1], answers[2], answers[3])
		if c.onRecord != nil {
			c.onRecord(md)
		}
		out = append(out, md)
	}
	return out, nil
}

// ask runs the four prompts, stopping at the first non-text outcome.
func (c *Collector) ask(ctx context.Context, desc string) ([4]string, OutcomeKind, error) {
	var answers [4]string
	for i, q := range Questions {
		if i == 0 {
			q = fmt.Sprintf(q, desc)
		}
		res, err := c.prompter.Prompt(ctx, q)
		if err != nil {
			return answers, 0, err
		}
		switch res.Kind {
		case OutcomeText:
			answers[i] = res.Text
		case OutcomeSkipOne, OutcomeAbortAll:
			return answers, res.Kind, nil
		default:
			return answers, 0, fmt.Errorf("unexpected prompt outcome %s", res.Kind)
		}
	}
	return answers, OutcomeText, nil
}
