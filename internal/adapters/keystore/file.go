// Package keystore is a lightweight per-user secret store (file, 0600).
// Not a replacement for OS keychains but keeps the message key out of the
// chat database it protects.
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fileName = "keys.json"

type secretFile struct {
	Keys map[string]string `json:"keys"` // name -> base64 value
}

type FileStore struct {
	path string
}

// NewFileStore opens (or prepares) the secret file under dir. An empty dir
// falls back to the per-user config directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "playdex-chat")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil { // restrict directory
		return nil, err
	}
	return &FileStore{path: filepath.Join(dir, fileName)}, nil
}

func (s *FileStore) Read(name string) (string, bool, error) {
	if name = norm(name); name == "" {
		return "", false, fmt.Errorf("key name required")
	}
	sf, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := sf.Keys[name]
	return v, ok, nil
}

func (s *FileStore) Save(name, value string) error {
	if name = norm(name); name == "" {
		return fmt.Errorf("key name required")
	}
	sf, err := s.load()
	if err != nil {
		return err
	}
	if sf.Keys == nil {
		sf.Keys = map[string]string{}
	}
	sf.Keys[name] = value
	return s.save(sf)
}

func (s *FileStore) load() (secretFile, error) {
	var sf secretFile
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return secretFile{}, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, err
	}
	return sf, nil
}

func (s *FileStore) save(sf secretFile) error {
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
