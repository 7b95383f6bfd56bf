package git

import (
	"errors"
	"fmt"

	gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"
)

// ErrorCode is the engine status code carried by an Error.
type ErrorCode int

const (
	ErrorCodeGeneric      ErrorCode = gitbackend.ERROR
	ErrorCodeNotFound     ErrorCode = gitbackend.ENOTFOUND
	ErrorCodeExists       ErrorCode = gitbackend.EEXISTS
	ErrorCodeAmbiguous    ErrorCode = gitbackend.EAMBIGUOUS
	ErrorCodeBareRepo     ErrorCode = gitbackend.EBAREREPO
	ErrorCodeUnbornBranch ErrorCode = gitbackend.EUNBORNBRANCH
	ErrorCodeInvalidSpec  ErrorCode = gitbackend.EINVALIDSPEC
	ErrorCodeInvalid      ErrorCode = gitbackend.EINVALID
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeGeneric:
		return "generic"
	case ErrorCodeNotFound:
		return "not found"
	case ErrorCodeExists:
		return "exists"
	case ErrorCodeAmbiguous:
		return "ambiguous"
	case ErrorCodeBareRepo:
		return "bare repository"
	case ErrorCodeUnbornBranch:
		return "unborn branch"
	case ErrorCodeInvalidSpec:
		return "invalid spec"
	case ErrorCodeInvalid:
		return "invalid"
	}
	return fmt.Sprintf("code %d", int(c))
}

// ErrorClass is the category the engine attached to a failure.
type ErrorClass int

const (
	ErrorClassNone       ErrorClass = gitbackend.ErrorClassNone
	ErrorClassNoMemory   ErrorClass = gitbackend.ErrorClassNoMemory
	ErrorClassOS         ErrorClass = gitbackend.ErrorClassOS
	ErrorClassInvalid    ErrorClass = gitbackend.ErrorClassInvalid
	ErrorClassReference  ErrorClass = gitbackend.ErrorClassReference
	ErrorClassZlib       ErrorClass = gitbackend.ErrorClassZlib
	ErrorClassRepository ErrorClass = gitbackend.ErrorClassRepository
	ErrorClassConfig     ErrorClass = gitbackend.ErrorClassConfig
	ErrorClassRegex      ErrorClass = gitbackend.ErrorClassRegex
	ErrorClassOdb        ErrorClass = gitbackend.ErrorClassOdb
	ErrorClassIndex      ErrorClass = gitbackend.ErrorClassIndex
	ErrorClassObject     ErrorClass = gitbackend.ErrorClassObject
)

var errorClassNames = map[ErrorClass]string{
	ErrorClassNone:       "none",
	ErrorClassNoMemory:   "nomemory",
	ErrorClassOS:         "os",
	ErrorClassInvalid:    "invalid",
	ErrorClassReference:  "reference",
	ErrorClassZlib:       "zlib",
	ErrorClassRepository: "repository",
	ErrorClassConfig:     "config",
	ErrorClassRegex:      "regex",
	ErrorClassOdb:        "odb",
	ErrorClassIndex:      "index",
	ErrorClassObject:     "object",
}

func (c ErrorClass) String() string {
	if name, ok := errorClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class %d", int(c))
}

// Error is a failure reported by the engine. It is immutable once built.
type Error struct {
	Op      string
	Code    ErrorCode
	Class   ErrorClass
	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s (%s/%s)", e.Message, e.Class, e.Code)
	}
	return fmt.Sprintf("%s: %s (%s/%s)", e.Op, e.Message, e.Class, e.Code)
}

// Is matches on Code so callers can test against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is. Only Code is compared.
var (
	ErrGeneric      = &Error{Code: ErrorCodeGeneric, Message: "generic error"}
	ErrNotFound     = &Error{Code: ErrorCodeNotFound, Message: "not found"}
	ErrExists       = &Error{Code: ErrorCodeExists, Message: "already exists"}
	ErrAmbiguous    = &Error{Code: ErrorCodeAmbiguous, Message: "ambiguous"}
	ErrBareRepo     = &Error{Code: ErrorCodeBareRepo, Message: "bare repository"}
	ErrUnbornBranch = &Error{Code: ErrorCodeUnbornBranch, Message: "unborn branch"}
	ErrInvalidSpec  = &Error{Code: ErrorCodeInvalidSpec, Message: "invalid spec"}
	ErrInvalid      = &Error{Code: ErrorCodeInvalid, Message: "invalid"}
)

// IsErrorCode reports whether err is an engine Error with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsErrorClass reports whether err is an engine Error with the given class.
func IsErrorClass(err error, class ErrorClass) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}

// ErrUnsupportedRevspec is returned when the engine reports revparse flags
// that are neither a single object nor a range.
var ErrUnsupportedRevspec = errors.New("unsupported revspec")

// ErrHandlesOutstanding is returned by Shutdown while handles are alive.
var ErrHandlesOutstanding = errors.New("engine handles still outstanding")

// EncodingError reports a string that cannot cross the engine boundary.
type EncodingError struct {
	Op     string
	Value  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: cannot encode %q: %s", e.Op, e.Value, e.Reason)
}

// InvariantError is the panic value used when the engine returns something
// its contract rules out. It is never returned as an error.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("gitbind: invariant violated in %s: %s", e.Op, e.Detail)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
