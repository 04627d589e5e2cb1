// pkg/interaction/reader.go

package interaction

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Prompter asks questions on Out and reads answers from In. Tests build
// one on a strings.Reader.
type Prompter struct {
	In  *bufio.Reader
	Out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{In: bufio.NewReader(in), Out: out}
}

// Stdio prompts on stderr so stdout stays clean for scripting.
func Stdio() *Prompter {
	return NewPrompter(os.Stdin, os.Stderr)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReadLine shows label and returns one line with the line ending removed.
// A final line without a newline is returned as is; io.EOF is only
// returned when nothing was read.
func (p *Prompter) ReadLine(ctx context.Context, label string) (string, error) {
	logger := otelzap.Ctx(ctx)
	logger.Debug("Prompting user for input", zap.String("label", label))

	_, _ = fmt.Fprint(p.Out, label)

	text, err := p.In.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && text != "") {
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintln(p.Out)
		}
		return "", err
	}
	return strings.TrimRight(text, "\r\n"), nil
}

// Confirm asks a yes/no question. An empty answer takes the default;
// anything other than y or yes counts as no. End of input counts as no.
func (p *Prompter) Confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := DefaultNoPrompt
	if defaultYes {
		hint = DefaultYesPrompt
	}
	answer, err := p.ReadLine(ctx, fmt.Sprintf("%s [%s]: ", question, hint))
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return defaultYes, nil
	case YesShort, YesLong:
		return true, nil
	default:
		return false, nil
	}
}

// ConfirmTyped requires the operator to type literal exactly.
func (p *Prompter) ConfirmTyped(ctx context.Context, question, literal string) (bool, error) {
	answer, err := p.ReadLine(ctx, fmt.Sprintf("%s\nType %s to confirm: ", question, literal))
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	matched := answer == literal
	otelzap.Ctx(ctx).Debug("Typed confirmation", zap.Bool("matched", matched))
	return matched, nil
}
