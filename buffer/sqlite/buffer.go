// This package contains a persistent FIFO [buffer.Buffer] backed by an
// embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mlevan/sluice/buffer"
	"github.com/mlevan/sluice/codec"
)

const memory = ":memory:"

// Buffer is a crash-recoverable FIFO queue on a single strict table.
//
// Keys come from an AUTOINCREMENT primary key, so they are monotonic for the
// lifetime of the database and never reused even after deletes. Shift removes
// the minimum live key in one statement, which makes racing shifts atomic
// without any counter bookkeeping on this side of the driver.
type Buffer[Item any] struct {
	cfg   *Config
	db    *sql.DB
	codec codec.Codec[Item]
}

var _ buffer.Buffer[any] = (*Buffer[any])(nil)

// Open opens or creates the queue database.
//
// Default configuration:
//   - File: ":memory:" (in-memory database)
//   - Conns: 2
func Open[Item any](c codec.Codec[Item], configFuncs ...ConfigFunc) (*Buffer[Item], error) {
	if c == nil {
		panic("codec can't be nil")
	}

	cfg := &Config{
		file:  memory,
		conns: 2,
	}
	for _, cf := range configFuncs {
		cf(cfg)
	}

	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}

	b := Buffer[Item]{
		cfg:   cfg,
		db:    db,
		codec: c,
	}

	return &b, nil
}

// Push appends the item to the end of the queue.
func (b *Buffer[Item]) Push(ctx context.Context, item Item) error {
	data, err := b.codec.Encode(item)
	if err != nil {
		return &buffer.EncodeError{Err: err}
	}

	_, err = b.db.ExecContext(ctx,
		`insert into item (v) values (:v)`,
		sql.Named("v", data),
	)
	if err != nil {
		return &buffer.StorageError{Err: err}
	}

	return nil
}

// Shift removes and returns the oldest item, or ok == false when the queue
// is empty.
func (b *Buffer[Item]) Shift(ctx context.Context) (Item, bool, error) {
	var (
		zero Item
		data []byte
	)

	err := b.db.QueryRowContext(ctx,
		`
		delete from item
		where k = (select min(k) from item)
		returning v
		`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	} else if err != nil {
		return zero, false, &buffer.StorageError{Err: err}
	}

	item, err := b.codec.Decode(data)
	if err != nil {
		return zero, false, &buffer.DecodeError{Err: err}
	}

	return item, true, nil
}

// Size returns the number of stored items.
func (b *Buffer[Item]) Size() (int, error) {
	var n int
	if err := b.db.QueryRow(`select count(*) from item`).Scan(&n); err != nil {
		return 0, &buffer.StorageError{Err: err}
	}
	return n, nil
}

// Close closes the underlying database.
func (b *Buffer[Item]) Close() error {
	return b.db.Close()
}

func open(cfg *Config) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_timeout", "5000") // 5s

	file := cfg.file
	if file == memory {
		file = generateID()
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	} else {
		params.Add("_journal", "wal")
		params.Add("_sync", "normal")
	}

	db, err := sql.Open("sqlite3", "file:"+file+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	if params.Get("mode") == "memory" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.conns)
		db.SetMaxIdleConns(cfg.conns)
	}

	return db, nil
}

func setup(db *sql.DB) error {
	_, err := db.Exec(
		`
		create table if not exists item (
			k integer primary key autoincrement,
			v blob not null
		) strict
		`,
	)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

func generateID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const n = 10
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return string(b)
}
