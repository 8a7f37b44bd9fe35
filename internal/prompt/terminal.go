// Package prompt reads metadata answers from a terminal one keystroke at a
// time.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/cleared-dev/budget/internal/metadata"
)

// ErrInterrupted is returned when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

const (
	keyCtrlA     = 0x01
	keyCtrlC     = 0x03
	keyBackspace = 0x08
	keyNewline   = '\n'
	keyReturn    = '\r'
	keyCtrlS     = 0x13
	keyDelete    = 0x7f
)

// Help explains the control keys.
const Help = "Press CTRL + S to skip the current description, and CTRL + A to skip all the remaining descriptions."

// Terminal implements metadata.Prompter over a keyboard stream.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	raw bool
	// afterCR is set when the last answer ended with \r, so a following
	// \n belongs to the same line break.
	afterCR bool
}

// NewTerminal reads from in, switching it to raw mode while a prompt is
// open when in is a terminal.
func NewTerminal(in *os.File, out io.Writer) *Terminal {
	t := New(in, out)
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		t.fd = fd
		t.raw = true
	}
	return t
}

// New reads keystrokes from an arbitrary stream without touching terminal
// modes.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

var questionColor = color.New(color.FgCyan, color.Bold)

// Prompt prints question and reads one answer.
func (t *Terminal) Prompt(ctx context.Context, question string) (metadata.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return metadata.Outcome{}, err
	}

	if _, err := questionColor.Fprintf(t.out, "\r\n%s\r\n", question); err != nil {
		return metadata.Outcome{}, fmt.Errorf("writing prompt: %w", err)
	}

	if t.raw {
		state, err := term.MakeRaw(t.fd)
		if err != nil {
			return metadata.Outcome{}, fmt.Errorf("enabling raw mode: %w", err)
		}
		defer func() { _ = term.Restore(t.fd, state) }()
	}

	return t.readAnswer()
}

func (t *Terminal) readAnswer() (metadata.Outcome, error) {
	var input []rune
	for {
		r, _, err := t.in.ReadRune()
		if errors.Is(err, io.EOF) {
			t.newline()
			if len(input) > 0 {
				return metadata.Text(string(input)), nil
			}
			return metadata.AbortAll(), nil
		}
		if err != nil {
			return metadata.Outcome{}, fmt.Errorf("reading input: %w", err)
		}
		if t.afterCR {
			t.afterCR = false
			if r == keyNewline {
				continue
			}
		}

		switch r {
		case keyCtrlS:
			t.newline()
			return metadata.SkipOne(), nil
		case keyCtrlA:
			t.newline()
			return metadata.AbortAll(), nil
		case keyCtrlC:
			t.newline()
			return metadata.Outcome{}, ErrInterrupted
		case keyReturn, keyNewline:
			t.afterCR = r == keyReturn
			t.newline()
			return metadata.Text(string(input)), nil
		case keyBackspace, keyDelete:
			if len(input) > 0 {
				input = input[:len(input)-1]
				fmt.Fprint(t.out, "\b \b")
			}
		default:
			if unicode.IsPrint(r) {
				input = append(input, r)
				fmt.Fprint(t.out, string(r))
			}
		}
	}
}

func (t *Terminal) newline() {
	fmt.Fprint(t.out, "\r\n")
}
