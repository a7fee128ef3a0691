package pos_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/pos"
)

func TestShortage_RosterMatch(t *testing.T) {
	f := newTestCoordinator(t, pos.WithRoster([]string{"Ada", "Bayo"}))

	s, err := f.coord.LogShortage(f.ctx, "  ada ", price("500"))

	require.NoError(t, err)
	assert.Equal(t, "Ada", s.StaffName, "stored with the roster's spelling")
	assert.True(t, s.Amount.Equal(price("500")))
	assert.Equal(t, f.clock.Now(), s.ShortageDate)
}

func TestShortage_Validation(t *testing.T) {
	f := newTestCoordinator(t, pos.WithRoster([]string{"Ada", "Bayo"}))

	tests := []struct {
		name   string
		staff  string
		amount string
	}{
		{"not on roster", "Zed", "100"},
		{"empty name", " ", "100"},
		{"zero amount", "Ada", "0"},
		{"negative amount", "Ada", "-20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.coord.LogShortage(f.ctx, tt.staff, price(tt.amount))
			assert.ErrorIs(t, err, pos.ErrValidation)
		})
	}

	all, err := f.coord.ListShortages(f.ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestShortage_EmptyRosterAcceptsAnyName(t *testing.T) {
	f := newTestCoordinator(t)

	s, err := f.coord.LogShortage(f.ctx, "Zed", price("50"))

	require.NoError(t, err)
	assert.Equal(t, "Zed", s.StaffName)
	assert.Empty(t, f.coord.Roster())
}

func TestShortage_ListByDayAndDelete(t *testing.T) {
	// GIVEN: One shortage yesterday and two today
	// WHEN: Listing today's
	// THEN: Only today's, newest first
	f := newTestCoordinator(t)
	past := f.coord.Clone(pos.WithClock(func() time.Time { return f.clock.Now().Add(-24 * time.Hour) }))
	_, err := past.LogShortage(f.ctx, "Ada", price("100"))
	require.NoError(t, err)

	first, err := f.coord.LogShortage(f.ctx, "Bayo", price("200"))
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	second, err := f.coord.LogShortage(f.ctx, "Ada", price("300"))
	require.NoError(t, err)

	today := f.coord.Today()
	got, err := f.coord.ListShortages(f.ctx, &today)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	all, err := f.coord.ListShortages(f.ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, f.coord.DeleteShortage(f.ctx, first.ID))
	assert.ErrorIs(t, f.coord.DeleteShortage(f.ctx, first.ID), pos.ErrShortageNotFound)
}
