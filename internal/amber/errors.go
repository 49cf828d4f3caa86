package amber

import "fmt"

// UsageError reports malformed or contradictory command-line arguments.
// The CLI entry point prints usage and exits non-zero when it sees one.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usageErrorf(format string, args ...any) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// MissingInputError reports a required file (vendor archive, environment
// spec) absent from the working directory. Remedy tells the user where to
// obtain it.
type MissingInputError struct {
	Path   string
	Remedy string
}

func (e *MissingInputError) Error() string {
	if e.Remedy == "" {
		return fmt.Sprintf("required file missing: %s", e.Path)
	}
	return fmt.Sprintf("required file missing: %s (%s)", e.Path, e.Remedy)
}

// ExternalToolError reports a non-zero exit from an invoked external
// process. The orchestrator never retries these.
type ExternalToolError struct {
	Tool string
	Err  error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

func toolErrorf(tool string, err error) *ExternalToolError {
	return &ExternalToolError{Tool: tool, Err: err}
}
