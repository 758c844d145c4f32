package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const keystoreExt = ".json"

// DirKeystoreStore keeps each keystore as <address>.json in a directory.
// Files are written with mode 0600 through a temp file and rename.
type DirKeystoreStore struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewDirKeystoreStore creates dir if needed and returns a store over it.
func NewDirKeystoreStore(dir string) (*DirKeystoreStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &DirKeystoreStore{
		dir:    dir,
		logger: zap.S().Named("storage").With("dir", dir),
	}, nil
}

func (s *DirKeystoreStore) Put(address string, keystoreJSON []byte) error {
	if err := validateAddress(address); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+address+"-*")
	if err != nil {
		return fmt.Errorf("create temp keystore: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod keystore: %w", err)
	}
	if _, err := tmp.Write(keystoreJSON); err != nil {
		tmp.Close()
		return fmt.Errorf("write keystore: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync keystore: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close keystore: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(address)); err != nil {
		return fmt.Errorf("rename keystore: %w", err)
	}

	s.logger.Infow("keystore stored", "address", address)
	return nil
}

func (s *DirKeystoreStore) Get(address string) ([]byte, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(address))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	return data, nil
}

func (s *DirKeystoreStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, keystoreExt) {
			continue
		}
		result = append(result, strings.TrimSuffix(name, keystoreExt))
	}
	sort.Strings(result)
	return result, nil
}

func (s *DirKeystoreStore) Delete(address string) error {
	if err := validateAddress(address); err != nil {
		return err
	}
	err := os.Remove(s.path(address))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	if err != nil {
		return fmt.Errorf("remove keystore: %w", err)
	}
	s.logger.Infow("keystore removed", "address", address)
	return nil
}

func (s *DirKeystoreStore) path(address string) string {
	return filepath.Join(s.dir, address+keystoreExt)
}

// validateAddress rejects keys that cannot be used as a file name.
func validateAddress(address string) error {
	if address == "" || strings.HasPrefix(address, ".") || strings.ContainsAny(address, `/\`) || address != filepath.Base(address) {
		return fmt.Errorf("invalid keystore address %q", address)
	}
	return nil
}
