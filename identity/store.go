package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/deemkeen/chirp/util"
	"gopkg.in/yaml.v3"
)

const DeviceFileName = "device.yaml"

// DeviceStore is the per-device key/value storage holding the device id.
type DeviceStore interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// FileStore keeps device values in a small yaml file.
type FileStore struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

// NewFileStore loads path if it exists. A missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: map[string]string{}}

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading device store: %w", err)
	}

	if err := yaml.Unmarshal(buf, &s.values); err != nil {
		return nil, fmt.Errorf("in device store %s: %w", path, err)
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

// DefaultFileStore opens device.yaml in the user config directory.
func DefaultFileStore() (*FileStore, error) {
	dir, err := util.GetConfigDir()
	if err != nil {
		return nil, err
	}
	return NewFileStore(filepath.Join(dir, DeviceFileName))
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	next[key] = value

	buf, err := yaml.Marshal(next)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0600); err != nil {
		return fmt.Errorf("writing device store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("writing device store: %w", err)
	}

	s.values = next
	return nil
}
