package git

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCString(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "empty", in: ""},
		{name: "ascii", in: "/srv/repo"},
		{name: "utf8", in: "/srv/répo/日本"},
		{name: "invalid utf8", in: "/srv/\xff\xfe"},
		{name: "interior NUL", in: "/srv/\x00repo", wantErr: true},
		{name: "trailing NUL", in: "/srv/repo\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			err := withCString("test", tt.in, func(cs []byte) error {
				called = true
				require.NotEmpty(t, cs)
				assert.Equal(t, byte(0), cs[len(cs)-1])
				assert.Equal(t, tt.in, string(cs[:len(cs)-1]))
				return nil
			})
			if tt.wantErr {
				var encErr *EncodingError
				require.ErrorAs(t, err, &encErr)
				assert.Equal(t, "test", encErr.Op)
				assert.Equal(t, tt.in, encErr.Value)
				assert.False(t, called)
				return
			}
			require.NoError(t, err)
			assert.True(t, called)
		})
	}
}

func TestWithCStringPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := withCString("test", "x", func([]byte) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWithCStringWipesBuffer(t *testing.T) {
	var kept []byte
	require.NoError(t, withCString("test", "secret", func(cs []byte) error {
		kept = cs
		return nil
	}))
	assert.Equal(t, make([]byte, len("secret")+1), kept)
}

func TestGoString(t *testing.T) {
	assert.Equal(t, "abc", goString("test", []byte("abc\x00def")))
	assert.Equal(t, "", goString("test", []byte{0}))
	requireInvariant(t, "unterminated", func() { goString("test", []byte("abc")) })
}

func TestGoPath(t *testing.T) {
	assert.Equal(t, "/srv/repo/.git", goPath("test", []byte("/srv/repo/.git/\x00")))
	assert.Equal(t, "/srv/repo", goPath("test", []byte("/srv/repo\x00")))
}

func TestCStringBytes(t *testing.T) {
	assert.Equal(t, "msg", cStringBytes([]byte("msg\x00")))
	assert.Equal(t, "msg", cStringBytes([]byte("msg")))
	assert.Equal(t, "", cStringBytes(nil))
}
