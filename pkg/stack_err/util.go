// pkg/stack_err/util.go

package stack_err

import (
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// ExtractSummary extracts a concise error summary from full command output.
func ExtractSummary(output string, maxCandidates int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "no output"
	}

	lines := strings.Split(trimmed, "\n")
	var candidates []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lowerLine := strings.ToLower(line)
		if strings.Contains(lowerLine, "error") ||
			strings.Contains(lowerLine, "failed") ||
			strings.Contains(lowerLine, "cannot") ||
			strings.Contains(lowerLine, "does not exist") ||
			strings.Contains(lowerLine, "fatal") ||
			strings.Contains(lowerLine, "timeout") {
			candidates = append(candidates, line)
		}
	}

	if len(candidates) > 0 {
		if len(candidates) > maxCandidates {
			candidates = candidates[:maxCandidates]
		}
		return strings.Join(candidates, " - ")
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return "no output"
}

// WrapStep annotates err with the lifecycle step that failed.
func WrapStep(err error, step string) error {
	if err == nil {
		return nil
	}
	return cerr.WithHint(cerr.Wrapf(err, "step %q failed", step),
		"no rollback was performed; inspect the journal with 'radio info -i <ctid>' and clean up or rerun with --resume")
}
