package scheduler

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrSchedulerNotAvailable indicates the scheduler is not available
	ErrSchedulerNotAvailable = errors.New("scheduler is not available")

	// ErrSchedulerNotFound indicates the scheduler binary was not found
	ErrSchedulerNotFound = errors.New("scheduler binary not found in PATH")

	// ErrUnknownDialect indicates an unrecognized scheduler dialect
	ErrUnknownDialect = errors.New("unknown scheduler dialect")

	// ErrJobIDParseFailed indicates parsing the job ID from scheduler output failed
	ErrJobIDParseFailed = errors.New("could not parse job ID from scheduler output")

	// ErrScriptNotFound indicates the script file was not found
	ErrScriptNotFound = errors.New("script file not found")

	// ErrInvalidWalltime indicates the walltime string is malformed
	ErrInvalidWalltime = errors.New("invalid walltime format, expected HH:MM:SS")
)

// ValidationError reports a malformed JobSpec field. It is raised before any
// file I/O, so a failed validation never leaves a partial script behind.
type ValidationError struct {
	Field  string // Field that failed validation
	Value  any    // Offending value
	Reason string // Reason the value was rejected
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Is allows errors.Is to match ValidationError
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// SubmissionError represents an error during job submission. The rendered
// script stays on disk when submission fails, for inspection and manual resubmit.
type SubmissionError struct {
	Dialect string // Scheduler dialect
	JobName string // Job name
	Output  string // Captured scheduler output (stdout+stderr)
	Err     error  // Underlying error
}

func (e *SubmissionError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s submission failed for job %s: %v\nOutput: %s",
			e.Dialect, e.JobName, e.Err, e.Output)
	}
	return fmt.Sprintf("%s submission failed for job %s: %v",
		e.Dialect, e.JobName, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ScriptCreationError represents an error writing a batch script to disk
type ScriptCreationError struct {
	JobName string // Job name
	Path    string // Script path
	Err     error  // Underlying error
}

func (e *ScriptCreationError) Error() string {
	return fmt.Sprintf("failed to write script for job %s at %s: %v",
		e.JobName, e.Path, e.Err)
}

func (e *ScriptCreationError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, reason string) *ValidationError {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// NewSubmissionError creates a new SubmissionError
func NewSubmissionError(dialect Dialect, jobName string, output string, err error) *SubmissionError {
	return &SubmissionError{
		Dialect: string(dialect),
		JobName: jobName,
		Output:  output,
		Err:     err,
	}
}

// NewScriptCreationError creates a new ScriptCreationError
func NewScriptCreationError(jobName string, path string, err error) *ScriptCreationError {
	return &ScriptCreationError{
		JobName: jobName,
		Path:    path,
		Err:     err,
	}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSubmissionError checks if an error is a SubmissionError
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

// IsScriptCreationError checks if an error is a ScriptCreationError
func IsScriptCreationError(err error) bool {
	var sce *ScriptCreationError
	return errors.As(err, &sce)
}

// errWithCause wraps a sentinel error with its cause
func errWithCause(sentinel error, cause error) error {
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// errWithCausef wraps a sentinel error with a formatted cause
func errWithCausef(sentinel error, format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{sentinel}, a...)...)
}
