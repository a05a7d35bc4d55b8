package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"blindspot/internal/api"
)

// FileStore persists the token pair between runs. 0600: the refresh token
// is a long-lived credential.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the stored pair, or a zero pair when no file exists yet.
func (s *FileStore) Load() (api.TokenPair, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return api.TokenPair{}, nil
		}
		return api.TokenPair{}, fmt.Errorf("read tokens: %w", err)
	}
	var pair api.TokenPair
	if err := json.Unmarshal(b, &pair); err != nil {
		return api.TokenPair{}, fmt.Errorf("parse tokens: %w", err)
	}
	return pair, nil
}

func (s *FileStore) Save(pair api.TokenPair) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	b, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
