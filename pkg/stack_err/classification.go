// pkg/stack_err/classification.go
//
// Error classification with exit codes. Every operation error is one of:
// validation (bad input, nothing attempted), precondition (state check
// failed before a destructive step), external (a wrapped tool failed) or
// user (cancelled at a confirmation prompt).

package stack_err

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for appropriate handling
type ErrorCategory int

const (
	// CategorySystem - OS/filesystem issues
	CategorySystem ErrorCategory = iota
	// CategoryValidation - malformed CTID, missing flag, unknown platform
	CategoryValidation
	// CategoryPrecondition - container exists, dataset missing, container not found
	CategoryPrecondition
	// CategoryExternal - pct/zfs/vzdump/docker returned non-zero
	CategoryExternal
	// CategoryUser - user declined a confirmation
	CategoryUser
	// CategoryPermission - not running as root
	CategoryPermission
)

const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitCritical = 2 // reserved for the health-check collaborator
)

// ClassifiedError wraps an error with category and remediation info
type ClassifiedError struct {
	Category    ErrorCategory
	Message     string
	Cause       error
	Remediation []string
}

func (e *ClassifiedError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Remediation) > 0 {
		sb.WriteString("\n\nHow to fix:")
		for i, step := range e.Remediation {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}
	return sb.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ExitCode maps every category onto the CLI contract: anything that is not
// success is 1. Exit 2 is never produced here.
func (e *ClassifiedError) ExitCode() int {
	return ExitFailure
}

// GetExitCode extracts the exit code from any error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.ExitCode()
	}
	return ExitFailure
}

// CategoryOf returns the category of err, or CategorySystem if unclassified.
func CategoryOf(err error) ErrorCategory {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}
	return CategorySystem
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return err != nil && CategoryOf(err) == CategoryValidation }

// IsPrecondition reports whether err is a precondition failure.
func IsPrecondition(err error) bool { return err != nil && CategoryOf(err) == CategoryPrecondition }

// IsExternal reports whether err came from an external tool.
func IsExternal(err error) bool { return err != nil && CategoryOf(err) == CategoryExternal }

// NewValidationError creates an error for input validation failures
func NewValidationError(message string, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryValidation,
		Message:     message,
		Remediation: remediation,
	}
}

// NewPreconditionError creates an error for a failed state check.
func NewPreconditionError(message string, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryPrecondition,
		Message:     message,
		Remediation: remediation,
	}
}

// NewExternalError wraps a failed external tool invocation.
func NewExternalError(tool string, cause error, output string) error {
	return &ClassifiedError{
		Category: CategoryExternal,
		Message:  fmt.Sprintf("%s failed (%s)", tool, ExtractSummary(output, 2)),
		Cause:    cause,
	}
}

// NewPermissionError creates an error for permission issues
func NewPermissionError(resource, operation string, remediation ...string) error {
	return &ClassifiedError{
		Category: CategoryPermission,
		Message: fmt.Sprintf("Permission denied: cannot %s %s",
			operation, resource),
		Remediation: remediation,
	}
}

// NewUserCancelledError creates an error for user-initiated cancellation
func NewUserCancelledError(operation string) error {
	return &ClassifiedError{
		Category: CategoryUser,
		Message:  fmt.Sprintf("Operation cancelled by user: %s", operation),
	}
}

// IsUserCancelled reports whether the user declined a confirmation.
func IsUserCancelled(err error) bool { return err != nil && CategoryOf(err) == CategoryUser }
