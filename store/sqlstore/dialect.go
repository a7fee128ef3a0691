package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/warp/taproom/pos"
)

// =============================================================================
// DIALECTS - The two SQL flavours the store speaks
// =============================================================================

// Dialect captures the differences between SQLite and PostgreSQL that
// matter to the store: driver name, placeholder syntax, column types and
// how constraint errors are reported.
type Dialect struct {
	Name   string
	Driver string
	// Money is the column type used for decimal amounts.
	Money string
	// Numbered placeholders ($1, $2, ...) instead of ?.
	Numbered bool
	// classify maps a driver error to a pos sentinel, or returns nil.
	classify func(err error) error
}

var (
	SQLite = Dialect{
		Name:     "sqlite",
		Driver:   "sqlite3",
		Money:    "TEXT",
		classify: classifySQLite,
	}

	Postgres = Dialect{
		Name:     "postgres",
		Driver:   "postgres",
		Money:    "NUMERIC(14,4)",
		Numbered: true,
		classify: classifyPostgres,
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unknown sql dialect %q", name)
}

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// translate maps driver errors onto pos sentinels and leaves the rest.
func (d Dialect) translate(err error) error {
	if err == nil {
		return nil
	}
	if mapped := d.classify(err); mapped != nil {
		return fmt.Errorf("%w: %v", mapped, err)
	}
	return err
}

func classifySQLite(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch {
	case se.ExtendedCode == sqlite3.ErrConstraintUnique,
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
		return pos.ErrDuplicate
	case se.Code == sqlite3.ErrBusy, se.Code == sqlite3.ErrLocked:
		return pos.ErrConcurrentModification
	}
	return nil
}

func classifyPostgres(err error) error {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return nil
	}
	switch pe.Code {
	case "23505": // unique_violation
		return pos.ErrDuplicate
	case "40001", "40P01": // serialization_failure, deadlock_detected
		return pos.ErrConcurrentModification
	}
	return nil
}
