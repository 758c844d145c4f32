package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryKeystoreStore is an in-memory KeystoreStore.
type MemoryKeystoreStore struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

func NewMemoryKeystoreStore() *MemoryKeystoreStore {
	return &MemoryKeystoreStore{keys: make(map[string][]byte)}
}

func (s *MemoryKeystoreStore) Put(address string, keystoreJSON []byte) error {
	if err := validateAddress(address); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[address] = append([]byte(nil), keystoreJSON...)
	return nil
}

func (s *MemoryKeystoreStore) Get(address string) ([]byte, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ks, ok := s.keys[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	return append([]byte(nil), ks...), nil
}

func (s *MemoryKeystoreStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, len(s.keys))
	for addr := range s.keys {
		result = append(result, addr)
	}
	sort.Strings(result)
	return result, nil
}

func (s *MemoryKeystoreStore) Delete(address string) error {
	if err := validateAddress(address); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[address]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	delete(s.keys, address)
	return nil
}
