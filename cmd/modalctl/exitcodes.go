package main

import "fmt"

// Exit codes for modalctl.
const (
	ExitOK          = 0 // Analysis completed and the report was written.
	ExitInvalidArgs = 1 // Missing or unreadable input files, bad flags.
	ExitAnalysis    = 2 // The backend call failed.
	ExitOutput      = 3 // The report could not be written.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

func exitError(code int, format string, args ...any) *exitCodeError {
	return &exitCodeError{code: code, msg: fmt.Sprintf(format, args...)}
}
