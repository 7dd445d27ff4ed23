// This package contains a persistent FIFO [buffer.Buffer] backed by bbolt, an
// embedded ordered key-value store. Reopening the same directory resumes the
// same queue, so buffered items survive process restarts.
package bolt

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"

	"go.etcd.io/bbolt"

	"github.com/mlevan/sluice/buffer"
	"github.com/mlevan/sluice/codec"
)

const fileName = "queue.db"

var bucketName = []byte("items")

// Buffer is a crash-recoverable FIFO queue.
//
// Items are stored under 8-byte big-endian counter keys. Two atomic counters
// bound the live window: head is the oldest index not yet confirmed absent,
// tail is the next index to assign. Keys are assigned monotonically for the
// lifetime of the store and never reused, even across gaps. The live key set
// between head and tail, not the counters, is authoritative for what remains;
// the counters are re-derived from the keys at every open.
type Buffer[Item any] struct {
	db    *bbolt.DB
	codec codec.Codec[Item]

	head atomic.Uint64
	tail atomic.Uint64
}

var _ buffer.Buffer[any] = (*Buffer[any])(nil)

// Open opens or creates the queue rooted at dir.
//
// Existing keys are scanned to recover the counter window: head = minimum
// key, tail = maximum key + 1, or head = tail = 0 for an empty store. A key
// that is not exactly 8 bytes fails the open with [buffer.ErrInvalidKey].
func Open[Item any](dir string, c codec.Codec[Item]) (*Buffer[Item], error) {
	if c == nil {
		panic("codec can't be nil")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create queue directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dir, fileName), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	b := &Buffer[Item]{
		db:    db,
		codec: c,
	}

	if err := b.recover(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return b, nil
}

func (b *Buffer[Item]) recover() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		var (
			head, tail uint64
			seen       bool
		)
		cur := bkt.Cursor()
		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			if len(k) != 8 {
				return fmt.Errorf("%w: key of %d bytes", buffer.ErrInvalidKey, len(k))
			}
			n := binary.BigEndian.Uint64(k)
			if !seen || n < head {
				head = n
			}
			if !seen || n >= tail {
				tail = n + 1
			}
			seen = true
		}

		b.head.Store(head)
		b.tail.Store(tail)
		return nil
	})
}

// Push assigns the item the next counter key and stores its encoded bytes.
// The fetch-and-add on tail guarantees no two pushes ever share a key.
func (b *Buffer[Item]) Push(_ context.Context, item Item) error {
	data, err := b.codec.Encode(item)
	if err != nil {
		return &buffer.EncodeError{Err: err}
	}

	key := keyBytes(b.tail.Add(1) - 1)
	err = b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key[:], data)
	})
	if err != nil {
		return &buffer.StorageError{Err: err}
	}

	return nil
}

// Shift removes and returns the oldest stored item.
//
// Each pass attempts an atomic removal at the current head key and advances
// head by one regardless of whether a value was found: a missing value means
// the key was already consumed by a racing caller or is a gap left by a prior
// crash, and both are treated as already consumed. The advance is a
// compare-and-swap, so racing callers move head exactly once per index and
// every stored item is returned to exactly one caller.
func (b *Buffer[Item]) Shift(_ context.Context) (Item, bool, error) {
	var zero Item

	for {
		head := b.head.Load()
		if head >= b.tail.Load() {
			return zero, false, nil
		}

		var data []byte
		key := keyBytes(head)
		err := b.db.Update(func(tx *bbolt.Tx) error {
			bkt := tx.Bucket(bucketName)
			value := bkt.Get(key[:])
			if value == nil {
				return nil
			}
			// The slice is only valid inside the transaction.
			data = slices.Clone(value)
			return bkt.Delete(key[:])
		})
		if err != nil {
			return zero, false, &buffer.StorageError{Err: err}
		}

		b.head.CompareAndSwap(head, head+1)

		if data == nil {
			continue
		}

		item, err := b.codec.Decode(data)
		if err != nil {
			return zero, false, &buffer.DecodeError{Err: err}
		}
		return item, true, nil
	}
}

// Size returns the width of the live counter window. It can overcount when
// a prior crash left gaps; the stored key set is the authoritative count.
func (b *Buffer[Item]) Size() int {
	head := b.head.Load()
	tail := b.tail.Load()
	if head >= tail {
		return 0
	}
	return int(tail - head)
}

// Close releases the underlying store.
func (b *Buffer[Item]) Close() error {
	return b.db.Close()
}

func keyBytes(n uint64) [8]byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], n)
	return key
}
