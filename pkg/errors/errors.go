package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeDecode     ErrorCode = "DECODE_ERROR"
	ErrCodeSignal     ErrorCode = "SIGNAL_ERROR"
	ErrCodeFFmpeg     ErrorCode = "FFMPEG_ERROR"
	ErrCodeIO         ErrorCode = "IO_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND_ERROR"
)

// BarkLabError is the base structured error
type BarkLabError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *BarkLabError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *BarkLabError) Unwrap() error {
	return e.Cause
}

// ValidationError represents input validation failure
type ValidationError struct {
	BarkLabError
	Field string
	Value interface{}
}

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		BarkLabError: BarkLabError{
			Code:    ErrCodeValidation,
			Message: message,
		},
		Field: field,
		Value: value,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] field=%s value=%v: %s", e.Code, e.Field, e.Value, e.Message)
}

// DecodeError represents a waveform decode failure
type DecodeError struct {
	BarkLabError
	Path string
}

func NewDecodeError(path, message string, cause error) *DecodeError {
	return &DecodeError{
		BarkLabError: BarkLabError{
			Code:    ErrCodeDecode,
			Message: message,
			Cause:   cause,
		},
		Path: path,
	}
}

func (e *DecodeError) Error() string {
	base := e.BarkLabError.Error()
	return fmt.Sprintf("%s (path=%s)", base, e.Path)
}

// SignalError represents a signal that cannot be analyzed
type SignalError struct {
	BarkLabError
}

// NewEmptySignalError reports a zero-length decoded signal. Callers must
// never reach the duration math with one: the sample count divides.
func NewEmptySignalError() *SignalError {
	return &SignalError{
		BarkLabError: BarkLabError{
			Code:    ErrCodeSignal,
			Message: "empty signal",
		},
	}
}

// NewChannelLayoutError reports an unsupported channel count. Only mono
// waveforms are analyzable.
func NewChannelLayoutError(channels int) *SignalError {
	return &SignalError{
		BarkLabError: BarkLabError{
			Code:    ErrCodeSignal,
			Message: fmt.Sprintf("unsupported channel layout: %d channels, only mono supported", channels),
		},
	}
}

// FFmpegError represents an FFmpeg execution failure
type FFmpegError struct {
	BarkLabError
	Args     []string
	ExitCode int
	Stderr   string
}

func NewFFmpegError(message string, args []string, exitCode int, stderr string, cause error) *FFmpegError {
	return &FFmpegError{
		BarkLabError: BarkLabError{
			Code:    ErrCodeFFmpeg,
			Message: message,
			Cause:   cause,
		},
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("[%s] %s (exit=%d, stderr=%q): %v",
		e.Code, e.Message, e.ExitCode, truncate(e.Stderr, 200), e.Cause)
}

// PathKind distinguishes what a missing path was expected to be
type PathKind string

const (
	PathKindFile    PathKind = "file"
	PathKindDir     PathKind = "directory"
	PathKindUnknown PathKind = "path"
)

// NotFoundError represents a missing input path
type NotFoundError struct {
	BarkLabError
	Path string
	Kind PathKind
}

func NewNotFoundError(path string, kind PathKind) *NotFoundError {
	return &NotFoundError{
		BarkLabError: BarkLabError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("%s does not exist", kind),
		},
		Path: path,
		Kind: kind,
	}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// IOError represents a filesystem operation failure
type IOError struct {
	BarkLabError
	Path string
}

func NewIOError(path, message string, cause error) *IOError {
	return &IOError{
		BarkLabError: BarkLabError{
			Code:    ErrCodeIO,
			Message: message,
			Cause:   cause,
		},
		Path: path,
	}
}

func (e *IOError) Error() string {
	base := e.BarkLabError.Error()
	return fmt.Sprintf("%s (path=%s)", base, e.Path)
}

// As enables errors.As checks
func As[T error](err error) (T, bool) {
	var target T
	ok := errors.As(err, &target)
	return target, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
