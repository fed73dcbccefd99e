package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	// Load returns the persisted token, or "" if there is none.
	Load() (string, error)

	// Save persists token, replacing any previous one.
	Save(token string) error

	// Clear removes the persisted token. Clearing an empty store is not an error.
	Clear() error
}

// FileStore keeps the token as an oauth2.Token JSON document.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load implements TokenStore.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", fmt.Errorf("invalid %s: %w", filepath.Base(s.Path), err)
	}
	return tok.AccessToken, nil
}

// Save implements TokenStore. The file is written with mode 0600.
func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0600)
}

// Clear implements TokenStore.
func (s *FileStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore is a TokenStore that lives only as long as the process.
type MemoryStore struct {
	token string
}

// Load implements TokenStore.
func (s *MemoryStore) Load() (string, error) { return s.token, nil }

// Save implements TokenStore.
func (s *MemoryStore) Save(token string) error {
	s.token = token
	return nil
}

// Clear implements TokenStore.
func (s *MemoryStore) Clear() error {
	s.token = ""
	return nil
}
