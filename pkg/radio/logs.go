// pkg/radio/logs.go

package radio

import (
	"fmt"
	"strconv"

	"github.com/TecnoSoul/InfraStack/pkg/stack_err"
	"github.com/TecnoSoul/InfraStack/pkg/stack_io"
)

const DefaultLogLines = 50

type LogsOptions struct {
	CTID int
	// Kind is container, application or both.
	Kind    string
	Lines   int
	Follow  bool
	Service string
}

// Logs prints container journal and/or compose logs. Follow streams until
// the context is cancelled.
func (m *Manager) Logs(rc *stack_io.RuntimeContext, opts LogsOptions) error {
	if err := CheckCTIDRange(opts.CTID); err != nil {
		return err
	}
	if opts.Kind == "" {
		opts.Kind = "application"
	}
	switch opts.Kind {
	case "container", "application", "both":
	default:
		return stack_err.NewValidationError(
			fmt.Sprintf("invalid log type %q", opts.Kind), "use container, application or both")
	}
	if opts.Lines <= 0 {
		opts.Lines = DefaultLogLines
	}
	if opts.Follow && opts.Kind == "both" {
		return stack_err.NewValidationError("--follow needs a single log type", "use -t container or -t application")
	}
	if err := m.requireRunning(rc, opts.CTID); err != nil {
		return err
	}

	if opts.Kind == "container" || opts.Kind == "both" {
		if opts.Kind == "both" {
			m.Out.Step("Container logs (CTID %d)", opts.CTID)
		}
		script := "journalctl --no-pager -n " + strconv.Itoa(opts.Lines)
		if opts.Follow {
			script += " -f"
		}
		if err := m.PCT.ExecStream(rc.Ctx, opts.CTID, script, m.Out.Out, m.Out.Err); err != nil {
			return err
		}
	}

	if opts.Kind == "application" || opts.Kind == "both" {
		st, err := m.findStation(rc, opts.CTID)
		if err != nil {
			return err
		}
		plat, err := m.Platforms.Lookup(st.Platform)
		if err != nil {
			return stack_err.NewValidationError(err.Error())
		}
		if opts.Kind == "both" {
			m.Out.Step("Application logs (%s)", plat.Name)
		}
		script, err := plat.LogsScript(opts.Lines, opts.Follow, opts.Service)
		if err != nil {
			return err
		}
		if err := m.PCT.ExecStream(rc.Ctx, opts.CTID, script, m.Out.Out, m.Out.Err); err != nil {
			return err
		}
	}
	return nil
}
