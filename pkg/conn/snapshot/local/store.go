// Package local provides a local file system implementation of the snapshot store.
package local

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tigerroll/mooring/pkg/conn/snapshot"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

const (
	// StoreType defines the type identifier for this store.
	StoreType = "local"

	moduleName = "snapshot"

	stateFileExt = ".state"
)

// Store persists state captures as files under a base directory.
type Store struct {
	baseDir string
	prefix  string
}

// NewStore creates a Store rooted at baseDir, creating the directory if it
// does not exist.
func NewStore(baseDir, prefix string) (*Store, error) {
	if baseDir == "" {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "base_dir must be specified for the local snapshot store")
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to stat base_dir '%s'", baseDir, err)
		}
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to create base_dir '%s'", baseDir, err)
		}
	} else if !info.IsDir() {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "base_dir '%s' is not a directory", baseDir)
	}

	return &Store{baseDir: baseDir, prefix: prefix}, nil
}

// resolvePath maps a capture name to its file path, rejecting names that
// would escape the base directory.
func (s *Store) resolvePath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "invalid snapshot name '%s'", name)
	}
	return filepath.Join(s.baseDir, s.prefix+name+stateFileExt), nil
}

// Save persists state under name, replacing any previous capture.
func (s *Store) Save(ctx context.Context, name string, state []byte) error {
	path, err := s.resolvePath(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, state, 0o600); err != nil {
		return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to write snapshot '%s'", name, err)
	}
	logger.Debugf("Wrote snapshot '%s' (%d bytes) to %s.", name, len(state), path)
	return nil
}

// Load retrieves the capture persisted under name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	path, err := s.resolvePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to read snapshot '%s'", name, err)
	}
	return data, nil
}

// Delete removes the capture persisted under name, if present.
func (s *Store) Delete(ctx context.Context, name string) error {
	path, err := s.resolvePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to delete snapshot '%s'", name, err)
	}
	return nil
}

// List returns the names of all persisted captures in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "failed to list snapshots", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		if !strings.HasPrefix(fileName, s.prefix) || !strings.HasSuffix(fileName, stateFileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(fileName, s.prefix), stateFileExt))
	}
	sort.Strings(names)
	return names, nil
}

var _ snapshot.Store = (*Store)(nil)
