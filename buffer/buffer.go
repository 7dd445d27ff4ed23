// This package contains the main [Buffer] interface and its in-memory
// implementation. Persistent implementations live in subpackages.
package buffer

import "context"

// Buffer holds items that were produced but not yet consumed.
//
// Implementations are safe for concurrent use by independent callers. The
// ordering of returned items is implementation-defined: insertion order for
// FIFO backends, a total order supplied by the caller for priority backends.
type Buffer[Item any] interface {
	// Push adds an item to the buffer. Buffers are unbounded and never reject
	// an item for capacity.
	Push(ctx context.Context, item Item) error
	// Shift removes and returns the next item per the buffer's ordering.
	//
	// ok is false when the buffer is currently empty; that is not a failure,
	// callers re-check after the next notification. I/O-backed implementations
	// may block while removing.
	Shift(ctx context.Context) (item Item, ok bool, err error)
}
