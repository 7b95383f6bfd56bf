package git

import (
	"log/slog"
	"sync"

	gitbackend "github.com/thiagokokada/gitbind/internal/git/backend"
)

// nativeMu serializes every engine call. The engine keeps a single
// last-error slot, so a failing call and the read of that slot must not be
// interleaved with any other call.
var nativeMu sync.Mutex

// call runs one engine function and translates its status. On failure the
// last-error slot is read and cleared before the lock is released.
func call(be gitbackend.Backend, op string, fn func() int) (int, error) {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	code := fn()
	if code >= 0 {
		return code, nil
	}
	err := lastError(be, op, code)
	slog.Debug("engine call failed",
		slog.String("op", op),
		slog.Int("code", code),
		slog.String("class", err.Class.String()),
		slog.String("message", err.Message),
	)
	return code, err
}

// native runs an engine function that has no error path.
func native(fn func()) {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	fn()
}

// lastError expects the caller to hold nativeMu.
func lastError(be gitbackend.Backend, op string, code int) *Error {
	e := &Error{Op: op, Code: ErrorCode(code), Class: ErrorClassNone, Message: "unknown error"}
	info := be.ErrorLast()
	if info == nil {
		return e
	}
	be.ErrorClear()
	e.Class = ErrorClass(info.Class)
	if msg := cStringBytes(info.Message); msg != "" {
		e.Message = msg
	}
	return e
}
