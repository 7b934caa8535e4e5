package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenPath(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "token.json")
}

func TestStore_SetAndToken(t *testing.T) {
	s := NewStore(tokenPath(t), nil)

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Set("abc123", "alice"))

	tok, err = s.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)
	assert.Equal(t, "alice", s.Username())
}

func TestStore_SecondSetReplacesFirst(t *testing.T) {
	path := tokenPath(t)
	s := NewStore(path, nil)

	require.NoError(t, s.Set("first-token", "alice"))
	require.NoError(t, s.Set("second-token", "bob"))

	tok, _ := s.Token()
	assert.Equal(t, "second-token", tok)
	assert.Equal(t, "bob", s.Username())

	// The replacement is durable, not just in-memory.
	restored := NewStore(path, nil)
	ok, err := restored.Restore()
	require.NoError(t, err)
	require.True(t, ok)

	tok, _ = restored.Token()
	assert.Equal(t, "second-token", tok)
}

func TestStore_Clear(t *testing.T) {
	path := tokenPath(t)
	s := NewStore(path, nil)

	require.NoError(t, s.Set("abc123", "alice"))
	require.NoError(t, s.Clear())

	tok, _ := s.Token()
	assert.Empty(t, tok)
	assert.Empty(t, s.Username())

	// Cleared token does not survive a restart.
	restored := NewStore(path, nil)
	ok, err := restored.Restore()
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing again is a no-op.
	assert.NoError(t, s.Clear())
}

func TestStore_RestoreWithoutFile(t *testing.T) {
	s := NewStore(tokenPath(t), nil)

	ok, err := s.Restore()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RestoreAcrossProcesses(t *testing.T) {
	path := tokenPath(t)

	first := NewStore(path, nil)
	require.NoError(t, first.Set("abc123", "alice"))

	second := NewStore(path, nil)
	ok, err := second.Restore()
	require.NoError(t, err)
	require.True(t, ok)

	tok, _ := second.Token()
	assert.Equal(t, "abc123", tok)
	assert.Equal(t, "alice", second.Username())
}
