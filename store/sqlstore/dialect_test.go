package sqlstore

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/warp/taproom/pos"
)

func TestRebind(t *testing.T) {
	q := `UPDATE stock_levels SET quantity = quantity + ? WHERE item_id = ? AND quantity + ? >= 0`

	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t,
		`UPDATE stock_levels SET quantity = quantity + $1 WHERE item_id = $2 AND quantity + $3 >= 0`,
		Postgres.rebind(q))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		d    Dialect
		err  error
		want error
	}{
		{
			name: "sqlite unique",
			d:    SQLite,
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique},
			want: pos.ErrDuplicate,
		},
		{
			name: "sqlite primary key",
			d:    SQLite,
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			want: pos.ErrDuplicate,
		},
		{
			name: "sqlite busy",
			d:    SQLite,
			err:  sqlite3.Error{Code: sqlite3.ErrBusy},
			want: pos.ErrConcurrentModification,
		},
		{
			name: "postgres unique",
			d:    Postgres,
			err:  &pq.Error{Code: "23505"},
			want: pos.ErrDuplicate,
		},
		{
			name: "postgres serialization",
			d:    Postgres,
			err:  &pq.Error{Code: "40001"},
			want: pos.ErrConcurrentModification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.d.translate(tt.err), tt.want)
		})
	}

	t.Run("passes other errors through", func(t *testing.T) {
		other := errors.New("disk on fire")
		assert.Same(t, other, SQLite.translate(other))
		assert.Same(t, other, Postgres.translate(other))
		assert.NoError(t, SQLite.translate(nil))
	})
}
