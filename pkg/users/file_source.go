package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileSource implements Source as a JSON array on a filesystem
type FileSource struct {
	fs   afero.Fs
	path string
}

// NewFileSource creates a FileSource for path on fs. A nil fs means the OS
// filesystem.
func NewFileSource(fs afero.Fs, path string) *FileSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileSource{
		fs:   fs,
		path: path,
	}
}

// Path returns the location of the user data file
func (s *FileSource) Path() string {
	return s.path
}

// LoadAccounts implements Source
func (s *FileSource) LoadAccounts() ([]Account, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoPriorData, s.path)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}

	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrNoPriorData, s.path, err)
	}
	return accounts, nil
}

// SaveAccounts implements Source. The file is written beside the target
// and renamed over it so a crash never leaves a truncated store.
func (s *FileSource) SaveAccounts(accounts []Account) error {
	if accounts == nil {
		accounts = []Account{}
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding: %v", ErrStorageWrite, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrStorageWrite, dir, err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmpPath, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}
