package storage

import "errors"

// ErrNotFound is returned by Retrieve when no value is stored under a key
var ErrNotFound = errors.New("storage: key not found")

// StorageInterface defines the contract for durable key/value storage
type StorageInterface interface {
	Store(key string, data []byte) error
	Retrieve(key string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(key string) error
}
