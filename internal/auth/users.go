// Package auth checks dashboard credentials and issues dashboard tokens.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	ErrUserStoreMissing   = errors.New("user store not initialized")
	ErrUserStoreCorrupt   = errors.New("user store corrupted")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FileUserStore reads a JSON object of username to password. The file is read
// on every call so edits apply without a restart.
type FileUserStore struct {
	path string
}

// NewFileUserStore creates a store for the users file at path.
func NewFileUserStore(path string) *FileUserStore {
	return &FileUserStore{path: path}
}

func (s *FileUserStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrUserStoreMissing
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreCorrupt, err)
	}

	var users map[string]string
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreCorrupt, err)
	}
	return users, nil
}

// Authenticate returns nil when username exists and password matches.
func (s *FileUserStore) Authenticate(username, password string) error {
	users, err := s.load()
	if err != nil {
		return err
	}
	stored, ok := users[username]
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
