package git

import (
	"bytes"
	"path/filepath"
	"strings"
	"sync"
)

// Strings going into the engine are checked strictly: an interior NUL would
// silently truncate them, so it is an EncodingError. Strings coming out are
// copied byte for byte; Go strings hold arbitrary bytes, so no UTF-8
// validation happens on that side.

var cStringPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// withCString hands fn a NUL-terminated copy of s that is only valid for the
// duration of fn. The buffer is wiped and returned to the pool on every exit
// path, so the engine must not retain it.
func withCString(op, s string, fn func(cs []byte) error) error {
	if strings.IndexByte(s, 0) >= 0 {
		return &EncodingError{Op: op, Value: s, Reason: "contains NUL byte"}
	}
	bp := cStringPool.Get().(*[]byte)
	buf := append((*bp)[:0], s...)
	buf = append(buf, 0)
	defer func() {
		clear(buf)
		*bp = buf[:0]
		cStringPool.Put(bp)
	}()
	return fn(buf)
}

// goString copies an engine-owned NUL-terminated string into Go memory.
func goString(op string, p []byte) string {
	idx := bytes.IndexByte(p, 0)
	if idx < 0 {
		invariant(op, "engine returned an unterminated string")
	}
	return string(p[:idx])
}

// goPath is goString for directories; the engine's trailing separator is
// dropped.
func goPath(op string, p []byte) string {
	return filepath.Clean(goString(op, p))
}

// cStringBytes is the lenient variant used for error messages, where a
// missing terminator must not turn a recoverable error into a panic.
func cStringBytes(p []byte) string {
	if idx := bytes.IndexByte(p, 0); idx >= 0 {
		p = p[:idx]
	}
	return string(p)
}
