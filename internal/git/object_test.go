package git

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOid(t *testing.T) {
	hexID := "0123456789abcdef0123456789abcdef01234567"
	id, err := NewOid(hexID)
	require.NoError(t, err)
	assert.Equal(t, hexID, id.String())
	assert.False(t, id.IsZero())
	assert.True(t, id.Equal(id))

	upper, err := NewOid(strings.ToUpper(hexID))
	require.NoError(t, err)
	assert.True(t, upper.Equal(id))

	_, err = NewOid("0123")
	assert.ErrorContains(t, err, "want 40 hex digits")
	_, err = NewOid(strings.Repeat("z", 40))
	assert.Error(t, err)

	assert.True(t, Oid{}.IsZero())
}

func TestObjectTypeString(t *testing.T) {
	assert.Equal(t, "commit", ObjectCommit.String())
	assert.Equal(t, "tree", ObjectTree.String())
	assert.Equal(t, "blob", ObjectBlob.String())
	assert.Equal(t, "tag", ObjectTag.String())
	assert.Equal(t, "any", ObjectAny.String())
	assert.Equal(t, "invalid", ObjectInvalid.String())
	assert.Equal(t, "invalid", ObjectType(99).String())
}
