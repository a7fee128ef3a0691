/*
Package badgerdb provides a Badger-backed implementation of pos.TxStore.

PURPOSE:
  Stores every document as JSON under a typed key prefix in an embedded
  key-value database. No server to run, ACID transactions with
  optimistic concurrency control.

KEY LAYOUT:
  item:<id>                 Item
  stock:<itemID>            StockLevel (one per item)
  daily:<day>:<itemID>      DailyStock (one per item per day)
  sale:<id>                 Sale
  shortage:<id>             Shortage

CONCURRENCY:
  Badger transactions are serializable snapshot transactions. A write
  transaction whose reads were changed by another committed transaction
  fails on commit with badger.ErrConflict, reported here as
  pos.ErrConcurrentModification. The conditional decrement in
  AdjustStock reads and writes the counter in one transaction, so two
  racing sales of the last bottle cannot both commit.

USAGE:
  store, err := badgerdb.Open("./data/taproom")   // "" for in-memory
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - pos/store.go:              Interface definitions
  - store/sqlstore/sqlstore.go: SQL implementation
*/
package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/warp/taproom/pos"
)

// Store implements pos.TxStore on Badger.
type Store struct {
	db *badger.DB
	view
}

// Open opens the database in dir. An empty dir or ":memory:" opens an
// in-memory database.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" || dir == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db, view: view{db: db}}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset drops every key. Used when loading demo scenarios.
func (s *Store) Reset(_ context.Context) error {
	return s.db.DropAll()
}

// WithTx executes fn within a single read-write Badger transaction.
func (s *Store) WithTx(ctx context.Context, fn func(pos.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := fn(view{db: s.db, txn: txn}); err != nil {
		return translate(err)
	}
	return translate(txn.Commit())
}

func translate(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", pos.ErrConcurrentModification, err)
	}
	return err
}

// =============================================================================
// VIEW - Runs each call in its own transaction unless bound to one
// =============================================================================

type view struct {
	db  *badger.DB
	txn *badger.Txn // nil outside WithTx
}

func (v view) read(fn func(txn *badger.Txn) error) error {
	if v.txn != nil {
		return fn(v.txn)
	}
	return v.db.View(fn)
}

func (v view) write(fn func(txn *badger.Txn) error) error {
	if v.txn != nil {
		return fn(v.txn)
	}
	return translate(v.db.Update(fn))
}

func get(txn *badger.Txn, key []byte, dst any, notFound error) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func put(txn *badger.Txn, key []byte, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, val)
}

// scan decodes every value under prefix with decode.
func scan(txn *badger.Txn, prefix []byte, decode func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		if err := it.Item().Value(decode); err != nil {
			return err
		}
	}
	return nil
}

// keysWith collects the keys under prefix for which keep returns true.
func keysWith(txn *badger.Txn, prefix []byte, keep func(key []byte) bool) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		k := it.Item().KeyCopy(nil)
		if keep(k) {
			keys = append(keys, k)
		}
	}
	return keys
}
