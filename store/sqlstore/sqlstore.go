/*
Package sqlstore provides a SQL implementation of pos.TxStore for SQLite
and PostgreSQL.

PURPOSE:
  Persists the catalog, stock counters, daily sheets, sale log and
  shortages in a relational database. The same queries run on both
  engines; Dialect covers placeholder syntax, money column type and
  constraint error codes.

KEY TABLES:
  items:        Catalog
  stock_levels: One running counter per item (item_id UNIQUE)
  daily_stock:  One sheet per (item_id, day), UNIQUE
  sales:        Sale log, sale_date as unix nanoseconds
  shortages:    Cash shortages, shortage_date as unix nanoseconds

CONDITIONAL DECREMENT:
  AdjustStock is a single statement:
    UPDATE stock_levels SET quantity = quantity + ?
    WHERE item_id = ? AND quantity + ? >= 0
  Zero rows affected means either no counter or not enough stock; a
  follow-up read tells them apart. The check and the write cannot be
  separated by another writer.

IDEMPOTENT SHEETS:
  CreateDailyStockIfAbsent uses INSERT ... ON CONFLICT DO NOTHING on the
  (item_id, day) unique key, so concurrent rollovers create each sheet
  once.

TIMESTAMPS:
  Stored as BIGINT unix nanoseconds in UTC. Range queries compare
  integers, which sort correctly on every engine.

SQLITE:
  Opened with WAL and a single connection. ":memory:" databases are
  per-connection, and one connection also serializes writers the way
  SQLite does anyway.

USAGE:
  store, err := sqlstore.Open(sqlstore.SQLite, ":memory:")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  coord := pos.NewCoordinator(store)

MIGRATION:
  Schema is auto-migrated on Open(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - pos/store.go:        Interface definitions
  - pos/store/memory.go: In-memory implementation for testing
*/
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/taproom/pos"
)

// Store implements pos.TxStore on database/sql.
type Store struct {
	db *sql.DB
	conn
}

// Open connects to dsn with the dialect's driver and migrates the schema.
// For SQLite, dsn is a file path or ":memory:".
func Open(d Dialect, dsn string) (*Store, error) {
	if d.Name == SQLite.Name {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d.Name == SQLite.Name {
		db.SetMaxOpenConns(1)
	}

	store, err := New(db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open database and migrates the schema.
func New(db *sql.DB, d Dialect) (*Store, error) {
	s := &Store{db: db, conn: conn{q: db, d: d}}
	if err := s.migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit_price %[1]s NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stock_levels (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL UNIQUE,
		quantity INTEGER NOT NULL CHECK (quantity >= 0)
	);

	CREATE TABLE IF NOT EXISTS daily_stock (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		day TEXT NOT NULL,
		opening INTEGER NOT NULL,
		closing INTEGER,
		UNIQUE (item_id, day)
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price %[1]s NOT NULL,
		sale_date BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date);
	CREATE INDEX IF NOT EXISTS idx_sales_item ON sales(item_id, sale_date);

	CREATE TABLE IF NOT EXISTS shortages (
		id TEXT PRIMARY KEY,
		staff_name TEXT NOT NULL,
		amount %[1]s NOT NULL,
		shortage_date BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shortages_date ON shortages(shortage_date);
	`, s.d.Money)

	// One statement at a time so errors name the failing statement.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSpace(stmt), err)
		}
	}
	return nil
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(pos.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", s.d.translate(err))
	}
	defer sqlTx.Rollback()

	if err := fn(conn{q: sqlTx, d: s.d}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", s.d.translate(err))
	}
	return nil
}

// Reset deletes every row. Used when loading demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, table := range []string{"sales", "shortages", "daily_stock", "stock_levels", "items"} {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return sqlTx.Commit()
}
