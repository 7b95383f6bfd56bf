package git

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("opening: %w", &Error{
		Op:      "open",
		Code:    ErrorCodeNotFound,
		Class:   ErrorClassRepository,
		Message: "could not find repository at '/srv'",
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrExists)
	assert.True(t, IsErrorCode(err, ErrorCodeNotFound))
	assert.True(t, IsErrorClass(err, ErrorClassRepository))
	assert.False(t, IsErrorClass(err, ErrorClassOS))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrorCodeNotFound))
}

func TestErrorString(t *testing.T) {
	err := &Error{Op: "open", Code: ErrorCodeNotFound, Class: ErrorClassRepository, Message: "missing"}
	assert.Equal(t, "open: missing (repository/not found)", err.Error())

	err = &Error{Code: ErrorCode(-99), Class: ErrorClass(99), Message: "odd"}
	assert.Equal(t, "odd (class 99/code -99)", err.Error())
}

func TestErrorCodeStrings(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrorCodeGeneric:      "generic",
		ErrorCodeNotFound:     "not found",
		ErrorCodeExists:       "exists",
		ErrorCodeAmbiguous:    "ambiguous",
		ErrorCodeBareRepo:     "bare repository",
		ErrorCodeUnbornBranch: "unborn branch",
		ErrorCodeInvalidSpec:  "invalid spec",
		ErrorCodeInvalid:      "invalid",
	}
	for code, want := range tests {
		assert.Equal(t, want, code.String())
	}
}

func TestEncodingErrorMessage(t *testing.T) {
	err := &EncodingError{Op: "open", Value: "a\x00b", Reason: "contains NUL byte"}
	assert.Equal(t, `open: cannot encode "a\x00b": contains NUL byte`, err.Error())
}

func TestInvariantPanicsWithInvariantError(t *testing.T) {
	requireInvariant(t, "bad 7", func() { invariant("Op", "bad %d", 7) })
}
