package buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrPoisoned is returned by a guarded buffer after a holder exited
	// abnormally while holding the guard. The buffer contents can no longer
	// be trusted and every later operation fails with this error.
	ErrPoisoned = errors.New("buffer guard poisoned")

	// ErrInvalidKey is returned at construction time when a persistent store
	// contains a key that cannot be parsed as an 8-byte big-endian counter.
	ErrInvalidKey = errors.New("invalid queue key format")
)

// EncodeError wraps a codec failure while serializing an item for storage.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode item: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a codec failure while reading a stored item back.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode item: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StorageError wraps a fault of the embedded store backing a persistent
// buffer.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
