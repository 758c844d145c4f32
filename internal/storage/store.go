package storage

import "errors"

// ErrNotFound is returned when no keystore is stored under an address.
var ErrNotFound = errors.New("keystore not found")

// KeystoreStore persists encrypted keystore documents keyed by address.
// Stored bytes are opaque; stores never decrypt them.
type KeystoreStore interface {
	// Put stores keystoreJSON under address, replacing any previous entry.
	Put(address string, keystoreJSON []byte) error
	// Get returns the keystore stored under address, or ErrNotFound.
	Get(address string) ([]byte, error)
	// List returns all stored addresses in lexical order.
	List() ([]string, error)
	// Delete removes the keystore stored under address.
	Delete(address string) error
}
