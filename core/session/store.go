package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Store is the single source of truth for auth tokens.
// All reads and writes of the access/refresh token pair go through here.
type Store interface {
	Access() string
	Refresh() string
	Set(access, refresh string) error
	// SetAccess replaces only the access token (after a refresh).
	SetAccess(access string) error
	Clear() error
}

// tokens is the persisted shape; key names match the backend's login payload.
type tokens struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// FileStore persists tokens as a JSON file (0600) under the user config dir.
type FileStore struct {
	path string

	mu   sync.Mutex
	toks tokens
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "session.load(%s)", s.path)
	}
	if err := json.Unmarshal(data, &s.toks); err != nil {
		// corrupt file; treat as logged out
		s.toks = tokens{}
	}
	return nil
}

func (s *FileStore) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "session.save")
	}
	data, err := json.Marshal(s.toks)
	if err != nil {
		return errors.Wrap(err, "session.save")
	}
	return errors.Wrap(os.WriteFile(s.path, data, 0o600), "session.save")
}

func (s *FileStore) Access() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toks.Access
}

func (s *FileStore) Refresh() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toks.Refresh
}

func (s *FileStore) Set(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toks = tokens{Access: access, Refresh: refresh}
	return s.save()
}

func (s *FileStore) SetAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toks.Access = access
	return s.save()
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toks = tokens{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "session.Clear")
	}
	return nil
}

// MemStore holds tokens in memory only; used in tests and throwaway sessions.
type MemStore struct {
	mu   sync.Mutex
	toks tokens
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Access() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toks.Access
}

func (s *MemStore) Refresh() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toks.Refresh
}

func (s *MemStore) Set(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toks = tokens{Access: access, Refresh: refresh}
	return nil
}

func (s *MemStore) SetAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toks.Access = access
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toks = tokens{}
	return nil
}
