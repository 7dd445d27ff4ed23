package bolt

import (
	"encoding/binary"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"

	"github.com/mlevan/sluice/buffer"
	"github.com/mlevan/sluice/codec/json"
)

type item struct {
	ID   int
	Name string
}

func TestFIFO(t *testing.T) {
	b := open(t, t.TempDir())

	items := make([]item, 0)
	for i := range 10 {
		items = append(items, item{ID: i, Name: "item"})
	}
	for _, it := range items {
		require.NoError(t, b.Push(t.Context(), it))
	}

	require.Equal(t, items, drain(t, b))

	_, ok, err := b.Shift(t.Context())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInterleaved(t *testing.T) {
	b := open(t, t.TempDir())
	shift := func() item {
		t.Helper()
		it, ok, err := b.Shift(t.Context())
		require.NoError(t, err)
		require.True(t, ok)
		return it
	}

	require.NoError(t, b.Push(t.Context(), item{ID: 1}))
	require.Equal(t, 1, shift().ID)

	require.NoError(t, b.Push(t.Context(), item{ID: 2}))
	require.NoError(t, b.Push(t.Context(), item{ID: 3}))
	require.Equal(t, 2, shift().ID)
	require.Equal(t, 3, shift().ID)

	_, ok, err := b.Shift(t.Context())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReopenResumesQueue(t *testing.T) {
	dir := t.TempDir()

	b := open(t, dir)
	for i := range 5 {
		require.NoError(t, b.Push(t.Context(), item{ID: i}))
	}
	require.NoError(t, b.Close())

	b = open(t, dir)
	require.Equal(t, 5, b.Size())
	for i := range 5 {
		it, ok, err := b.Shift(t.Context())
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, it.ID)
	}
	require.NoError(t, b.Close())

	// A fully drained queue reopens empty.
	b = open(t, dir)
	require.Equal(t, 0, b.Size())
	_, ok, err := b.Shift(t.Context())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeysContinueAfterReopen(t *testing.T) {
	dir := t.TempDir()

	b := open(t, dir)
	for i := range 3 {
		require.NoError(t, b.Push(t.Context(), item{ID: i}))
	}
	for range 2 {
		_, ok, err := b.Shift(t.Context())
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, b.Close())

	// The live window is [2, 3); a push after reopening must get key 3, not
	// fall back into the consumed range.
	b = open(t, dir)
	require.NoError(t, b.Push(t.Context(), item{ID: 99}))
	require.NoError(t, b.Close())

	db := rawOpen(t, dir)
	require.NoError(t, db.View(func(tx *bbolt.Tx) error {
		k, _ := tx.Bucket(bucketName).Cursor().Last()
		require.Equal(t, uint64(3), binary.BigEndian.Uint64(k))
		return nil
	}))
	require.NoError(t, db.Close())
}

func TestGapsAreSkipped(t *testing.T) {
	dir := t.TempDir()

	b := open(t, dir)
	for i := range 3 {
		require.NoError(t, b.Push(t.Context(), item{ID: i}))
	}
	require.NoError(t, b.Close())

	// Simulate a gap left behind by a crashed shift: the middle key is gone
	// but head was never advanced past it.
	db := rawOpen(t, dir)
	key := keyBytes(1)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key[:])
	}))
	require.NoError(t, db.Close())

	b = open(t, dir)
	got := drain(t, b)
	require.Equal(t, []item{{ID: 0}, {ID: 2}}, got)
}

func TestInvalidKeyFailsOpen(t *testing.T) {
	dir := t.TempDir()

	b := open(t, dir)
	require.NoError(t, b.Close())

	db := rawOpen(t, dir)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte("bad"), []byte("value"))
	}))
	require.NoError(t, db.Close())

	_, err := Open(dir, json.New[item]())
	require.ErrorIs(t, err, buffer.ErrInvalidKey)
}

func TestCorruptValueSurfacesDecodeError(t *testing.T) {
	dir := t.TempDir()

	b := open(t, dir)
	require.NoError(t, b.Push(t.Context(), item{ID: 1}))
	require.NoError(t, b.Close())

	db := rawOpen(t, dir)
	key := keyBytes(0)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put(key[:], []byte("not json"))
	}))
	require.NoError(t, db.Close())

	b = open(t, dir)
	_, _, err := b.Shift(t.Context())

	var decodeErr *buffer.DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestConcurrentShiftersNoDuplicatesNoLoss(t *testing.T) {
	const (
		items    = 200
		shifters = 4
	)

	b := open(t, t.TempDir())
	for i := range items {
		require.NoError(t, b.Push(t.Context(), item{ID: i}))
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]int, items)
	)
	var group errgroup.Group
	for range shifters {
		group.Go(func() error {
			for {
				it, ok, err := b.Shift(t.Context())
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				mu.Lock()
				seen[it.ID] += 1
				mu.Unlock()
			}
		})
	}
	require.NoError(t, group.Wait())

	require.Len(t, seen, items)
	for id, count := range seen {
		require.Equal(t, 1, count, "item %d shifted %d times", id, count)
	}
}

func open(t *testing.T, dir string) *Buffer[item] {
	t.Helper()
	b, err := Open(dir, json.New[item]())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = b.Close()
	})
	return b
}

func rawOpen(t *testing.T, dir string) *bbolt.DB {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(dir, fileName), 0o600, nil)
	require.NoError(t, err)
	return db
}

func drain(t *testing.T, b *Buffer[item]) []item {
	t.Helper()
	items := make([]item, 0)
	for {
		it, ok, err := b.Shift(t.Context())
		require.NoError(t, err)
		if !ok {
			return items
		}
		items = append(items, it)
	}
}
