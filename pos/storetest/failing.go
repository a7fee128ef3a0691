package storetest

import (
	"context"

	"github.com/warp/taproom/pos"
)

// FailCreateSale wraps s so that CreateSale inside a transaction returns
// err. Writes made earlier in the same transaction must roll back.
func FailCreateSale(s pos.TxStore, err error) pos.TxStore {
	return &failingStore{TxStore: s, err: err}
}

type failingStore struct {
	pos.TxStore
	err error
}

func (s *failingStore) WithTx(ctx context.Context, fn func(pos.Store) error) error {
	return s.TxStore.WithTx(ctx, func(tx pos.Store) error {
		return fn(failingTx{Store: tx, err: s.err})
	})
}

type failingTx struct {
	pos.Store
	err error
}

func (tx failingTx) CreateSale(context.Context, pos.Sale) error { return tx.err }
