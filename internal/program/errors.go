package program

import (
	"errors"
	"fmt"

	"github.com/roach88/gifboard/internal/layout"
)

// ErrorCode categorizes program failures.
type ErrorCode string

const (
	// ErrCodeCapacityExceeded indicates the serialized store would not fit
	// in the account buffer.
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodeIndexOutOfRange indicates an index >= count.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeDeserialization indicates the buffer or instruction data does
	// not match the canonical layout.
	ErrCodeDeserialization ErrorCode = "DESERIALIZATION_FAILED"

	// ErrCodeVoteOverflow indicates the new tally would leave the int32 range.
	ErrCodeVoteOverflow ErrorCode = "VOTE_OVERFLOW"

	// ErrCodeConstraint indicates an account capability precondition failed.
	ErrCodeConstraint ErrorCode = "CONSTRAINT_VIOLATION"

	// ErrCodeUnknownInstruction indicates an unrecognized instruction selector.
	ErrCodeUnknownInstruction ErrorCode = "UNKNOWN_INSTRUCTION"
)

// outputCases maps error codes to the output case names used in traces.
var outputCases = map[ErrorCode]string{
	ErrCodeCapacityExceeded:   "CapacityExceeded",
	ErrCodeIndexOutOfRange:    "IndexOutOfRange",
	ErrCodeDeserialization:    "DeserializationFailed",
	ErrCodeVoteOverflow:       "VoteOverflow",
	ErrCodeConstraint:         "ConstraintViolation",
	ErrCodeUnknownInstruction: "UnknownInstruction",
}

// CaseSuccess is the output case of a successful call.
const CaseSuccess = "Success"

// ProgramError is the error type returned by every entry point.
type ProgramError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (index, count, need, capacity).
	Details map[string]string

	// Err is the underlying layout error, if any.
	Err error
}

// Error implements the error interface.
func (e *ProgramError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProgramError) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode of err, or "" if err is not a *ProgramError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// OutputCase names the outcome of a call for traces: "Success" for nil,
// the case for the error's code, or "Error" for anything else.
func OutputCase(err error) string {
	if err == nil {
		return CaseSuccess
	}
	if c, ok := outputCases[CodeOf(err)]; ok {
		return c
	}
	return "Error"
}

// IsCapacityError returns true if err is a capacity failure.
func IsCapacityError(err error) bool {
	return CodeOf(err) == ErrCodeCapacityExceeded
}

// IsIndexError returns true if err is an index-out-of-range failure.
func IsIndexError(err error) bool {
	return CodeOf(err) == ErrCodeIndexOutOfRange
}

// IsDeserializationError returns true if err is a layout decoding failure.
func IsDeserializationError(err error) bool {
	return CodeOf(err) == ErrCodeDeserialization
}

// IsVoteOverflow returns true if err is a vote overflow failure.
func IsVoteOverflow(err error) bool {
	return CodeOf(err) == ErrCodeVoteOverflow
}

func newCapacityError(err *layout.CapacityError) *ProgramError {
	return &ProgramError{
		Code:    ErrCodeCapacityExceeded,
		Message: "store does not fit in account buffer",
		Details: map[string]string{
			"need":     fmt.Sprintf("%d", err.Need),
			"capacity": fmt.Sprintf("%d", err.Capacity),
		},
		Err: err,
	}
}

func newDeserializationError(what string, err error) *ProgramError {
	return &ProgramError{
		Code:    ErrCodeDeserialization,
		Message: what,
		Err:     err,
	}
}

func newIndexError(index uint32, count uint64) *ProgramError {
	return &ProgramError{
		Code:    ErrCodeIndexOutOfRange,
		Message: fmt.Sprintf("index %d out of range (count %d)", index, count),
		Details: map[string]string{
			"index": fmt.Sprintf("%d", index),
			"count": fmt.Sprintf("%d", count),
		},
	}
}

func newVoteOverflowError(index uint32, vote, delta int32) *ProgramError {
	return &ProgramError{
		Code:    ErrCodeVoteOverflow,
		Message: fmt.Sprintf("vote %d + %d overflows int32", vote, delta),
		Details: map[string]string{
			"index": fmt.Sprintf("%d", index),
			"vote":  fmt.Sprintf("%d", vote),
			"delta": fmt.Sprintf("%d", delta),
		},
	}
}

func newConstraintError(format string, args ...any) *ProgramError {
	return &ProgramError{
		Code:    ErrCodeConstraint,
		Message: fmt.Sprintf(format, args...),
	}
}

// wrapLayoutError converts layout errors into program errors.
func wrapLayoutError(what string, err error) error {
	var capErr *layout.CapacityError
	if errors.As(err, &capErr) {
		return newCapacityError(capErr)
	}
	var decErr *layout.DecodeError
	if errors.As(err, &decErr) {
		return newDeserializationError(what, decErr)
	}
	return err
}
