package sqlstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/pos"
	"github.com/warp/taproom/pos/storetest"
	"github.com/warp/taproom/store/sqlstore"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(sqlstore.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// TESTS
// =============================================================================

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) pos.TxStore { return newTestStore(t) })
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	// GIVEN: A file database with one sale
	// WHEN: Closing and reopening it
	// THEN: The schema migration is a no-op and the data is still there
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "taproom.db")

	s, err := sqlstore.Open(sqlstore.SQLite, path)
	require.NoError(t, err)
	require.NoError(t, s.CreateStockLevel(ctx, pos.StockLevel{ID: "l1", ItemID: "beer", Quantity: 7}))
	require.NoError(t, s.Close())

	s, err = sqlstore.Open(sqlstore.SQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	level, err := s.GetStockLevel(ctx, "beer")
	require.NoError(t, err)
	assert.Equal(t, 7, level.Quantity)
}

func TestSQLiteStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateStockLevel(ctx, pos.StockLevel{ID: "l1", ItemID: "beer", Quantity: 3}))
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Reset(ctx))

	_, err := s.GetStockLevel(ctx, "beer")
	assert.ErrorIs(t, err, pos.ErrStockNotFound)
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"sqlite", "sqlite3", false},
		{"postgres", "postgres", false},
		{"mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := sqlstore.DialectFor(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Driver)
		})
	}
}

// TestPostgresStore runs the contract against a real server when
// TAPROOM_TEST_POSTGRES_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TAPROOM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TAPROOM_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) pos.TxStore {
		s, err := sqlstore.Open(sqlstore.Postgres, dsn)
		require.NoError(t, err)
		require.NoError(t, s.Reset(context.Background()))
		t.Cleanup(func() { s.Close() })
		return s
	})
}
