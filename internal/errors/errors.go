package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for infrastructure failures.
// Validation verdicts (syntax, build, test) are not errors; they are
// reported through gate.Outcome.
type ErrorCode string

const (
	// InvalidSpans indicates overlapping or out-of-order replace spans
	InvalidSpans ErrorCode = "INVALID_SPANS"
	// AlreadyRewritten indicates a second rewrite assignment to one chunk
	AlreadyRewritten ErrorCode = "ALREADY_REWRITTEN"
	// LockHeld indicates another validation owns the target file
	LockHeld ErrorCode = "LOCK_HELD"
	// RestoreFailed indicates the original bytes could not be written back
	RestoreFailed ErrorCode = "RESTORE_FAILED"
	// SourceUnreadable indicates the target file could not be read
	SourceUnreadable ErrorCode = "SOURCE_UNREADABLE"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// RewriteFailed indicates the external rewrite call returned an error
	RewriteFailed ErrorCode = "REWRITE_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Key         string        `json:"key,omitempty"`
}

// Error is a chunkgate error with code, message, and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates an Error with the default fixes for its code.
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code, so sentinel values below
// work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidSpans     = &Error{Code: InvalidSpans}
	ErrAlreadyRewritten = &Error{Code: AlreadyRewritten}
	ErrLockHeld         = &Error{Code: LockHeld}
	ErrRestoreFailed    = &Error{Code: RestoreFailed}
	ErrConfigInvalid    = &Error{Code: ConfigInvalid}
)

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	LockHeld: {
		{
			Type:        RunCommand,
			Command:     "chunkgate recover",
			Safe:        true,
			Description: "Restore files left behind by an interrupted validation",
		},
	},
	RestoreFailed: {
		{
			Type:        RunCommand,
			Command:     "chunkgate recover",
			Safe:        true,
			Description: "Replay the crash journal to put the original file back",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "chunkgate config --check",
			Safe:        true,
			Description: "Show the effective configuration and the failing field",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
