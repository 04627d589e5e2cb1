// Package output renders user-facing text: leveled status lines and
// station tables. Structured logs go through zap; this is what the
// operator reads.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Printer writes coloured, leveled lines. Info/step/success go to Out and
// warn/error go to Err. Colours are dropped automatically when the writer
// is not a terminal.
type Printer struct {
	Out io.Writer
	Err io.Writer

	outR *lipgloss.Renderer
	errR *lipgloss.Renderer
}

// New returns a Printer on the given writers.
func New(out, errw io.Writer) *Printer {
	return &Printer{
		Out:  out,
		Err:  errw,
		outR: lipgloss.NewRenderer(out),
		errR: lipgloss.NewRenderer(errw),
	}
}

// Stdio returns a Printer on os.Stdout and os.Stderr. NO_COLOR or a
// non-terminal stream turns styling off for that stream.
func Stdio() *Printer {
	p := New(os.Stdout, os.Stderr)
	if !colorEnabled(os.Stdout) {
		p.outR.SetColorProfile(termenv.Ascii)
	}
	if !colorEnabled(os.Stderr) {
		p.errR.SetColorProfile(termenv.Ascii)
	}
	return p
}

func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) line(w io.Writer, r *lipgloss.Renderer, color lipgloss.Color, tag, format string, args ...any) {
	prefix := r.NewStyle().Bold(true).Foreground(color).Render(tag)
	fmt.Fprintf(w, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...any) {
	p.line(p.Out, p.outR, colorInfo, "[INFO]", format, args...)
}

func (p *Printer) Step(format string, args ...any) {
	p.line(p.Out, p.outR, colorStep, "==>", format, args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.line(p.Out, p.outR, colorSuccess, "[OK]", format, args...)
}

func (p *Printer) Warn(format string, args ...any) {
	p.line(p.Err, p.errR, colorWarn, "[WARN]", format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.line(p.Err, p.errR, colorError, "[ERROR]", format, args...)
}

// Plain writes an unstyled line to Out.
func (p *Printer) Plain(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

const (
	colorInfo    = lipgloss.Color("12")
	colorStep    = lipgloss.Color("14")
	colorSuccess = lipgloss.Color("10")
	colorWarn    = lipgloss.Color("11")
	colorError   = lipgloss.Color("9")
	colorMuted   = lipgloss.Color("8")
)
