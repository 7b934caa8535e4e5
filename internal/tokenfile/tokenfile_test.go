package tokenfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestLoad_FileNotFound(t *testing.T) {
	tok, meta, err := Load("/nonexistent/path/token.json")
	assert.Nil(t, tok)
	assert.Nil(t, meta)
	assert.NoError(t, err)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	original := &oauth2.Token{
		AccessToken: "abc123",
		TokenType:   "Bearer",
	}
	meta := map[string]string{MetaUsername: "alice"}

	require.NoError(t, Save(path, original, meta))

	tok, loadedMeta, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, "alice", loadedMeta[MetaUsername])
}

func TestSave_ReplacesExistingToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "first", TokenType: "Bearer"}, nil))
	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "second", TokenType: "Bearer"}, nil))

	tok, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "second", tok.AccessToken)
}

func TestSave_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "a", TokenType: "Bearer"}, nil))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), fi.Mode().Perm())
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "token.json")

	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "a", TokenType: "Bearer"}, nil))

	_, _, err := Load(path)
	assert.NoError(t, err)
}

func TestLoad_MissingTokenField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"meta":{"username":"alice"}}`), 0o600))

	tok, meta, err := Load(path)
	assert.Nil(t, tok)
	assert.Nil(t, meta)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing token field")
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	require.NoError(t, os.WriteFile(path, []byte(`{not json}`), 0o600))

	tok, meta, err := Load(path)
	assert.Nil(t, tok)
	assert.Nil(t, meta)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")

	require.NoError(t, Save(path, &oauth2.Token{AccessToken: "a", TokenType: "Bearer"}, nil))
	require.NoError(t, Remove(path))

	tok, _, err := Load(path)
	assert.Nil(t, tok)
	assert.NoError(t, err)

	// Removing again is a no-op.
	assert.NoError(t, Remove(path))
}
