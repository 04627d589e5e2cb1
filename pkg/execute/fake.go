// pkg/execute/fake.go

package execute

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// FakeResponse is what a FakeRunner returns for a matching command line.
type FakeResponse struct {
	Output   string
	ExitCode int // non-zero produces a *CommandError
}

// FakeRunner records invocations and answers from a prefix table. It is
// used by package tests in place of the host tools.
type FakeRunner struct {
	mu        sync.Mutex
	Calls     []string
	responses []fakeRule
	// Fallback answers commands no rule matched. Defaults to success with no output.
	Fallback func(cmdline string) FakeResponse
	// DryRun mirrors ExecRunner: mutating commands are recorded but not
	// answered from the table and always succeed with no output.
	DryRun bool
}

type fakeRule struct {
	prefix string
	resp   FakeResponse
}

// NewFakeRunner returns an empty fake.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On registers a response for command lines starting with prefix. Later
// registrations win over earlier ones.
func (f *FakeRunner) On(prefix string, resp FakeResponse) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fakeRule{prefix: prefix, resp: resp})
	return f
}

func (f *FakeRunner) lookup(cmdline string) FakeResponse {
	for i := len(f.responses) - 1; i >= 0; i-- {
		if strings.HasPrefix(cmdline, f.responses[i].prefix) {
			return f.responses[i].resp
		}
	}
	if f.Fallback != nil {
		return f.Fallback(cmdline)
	}
	return FakeResponse{}
}

func (f *FakeRunner) Run(_ context.Context, opts Options) (string, error) {
	cmdline := opts.String()
	f.mu.Lock()
	f.Calls = append(f.Calls, cmdline)
	if f.DryRun && opts.Mutating {
		f.mu.Unlock()
		return "", nil
	}
	resp := f.lookup(cmdline)
	f.mu.Unlock()

	if resp.ExitCode != 0 {
		return resp.Output, &CommandError{
			Command:  cmdline,
			ExitCode: resp.ExitCode,
			Output:   resp.Output,
			Err:      fmt.Errorf("exit status %d", resp.ExitCode),
		}
	}
	return resp.Output, nil
}

func (f *FakeRunner) Stream(ctx context.Context, opts Options, stdout, _ io.Writer) error {
	out, err := f.Run(ctx, opts)
	if stdout != nil {
		_, _ = io.WriteString(stdout, out)
	}
	return err
}

// Called returns the recorded calls starting with prefix, in order.
func (f *FakeRunner) Called(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []string
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			matched = append(matched, c)
		}
	}
	return matched
}

// IndexOf returns the position of the first call starting with prefix, or -1.
func (f *FakeRunner) IndexOf(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}
