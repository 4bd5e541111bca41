package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileUserStore_Authenticate(t *testing.T) {
	store := NewFileUserStore(writeUsers(t, `{"admin":"hunter2","ops":"pw"}`))

	assert.NoError(t, store.Authenticate("admin", "hunter2"))
	assert.NoError(t, store.Authenticate("ops", "pw"))
	assert.ErrorIs(t, store.Authenticate("admin", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, store.Authenticate("nobody", "hunter2"), ErrInvalidCredentials)
	assert.ErrorIs(t, store.Authenticate("admin", ""), ErrInvalidCredentials)
}

func TestFileUserStore_Missing(t *testing.T) {
	store := NewFileUserStore(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, store.Authenticate("admin", "pw"), ErrUserStoreMissing)
}

func TestFileUserStore_Corrupt(t *testing.T) {
	for _, content := range []string{`not json`, `["admin"]`, `{"admin": 5}`} {
		store := NewFileUserStore(writeUsers(t, content))
		assert.ErrorIs(t, store.Authenticate("admin", "pw"), ErrUserStoreCorrupt, content)
	}
}

func TestFileUserStore_ReadsFileEveryCall(t *testing.T) {
	path := writeUsers(t, `{"admin":"old"}`)
	store := NewFileUserStore(path)
	require.NoError(t, store.Authenticate("admin", "old"))

	require.NoError(t, os.WriteFile(path, []byte(`{"admin":"new"}`), 0o600))
	assert.ErrorIs(t, store.Authenticate("admin", "old"), ErrInvalidCredentials)
	assert.NoError(t, store.Authenticate("admin", "new"))
}
