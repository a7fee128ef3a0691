package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/logger"
)

func TestRolloverScheduler_RunsOncePerDay(t *testing.T) {
	// GIVEN: A scheduler over a bar with one item
	// WHEN: Checking twice on the same day, then after midnight
	// THEN: Sheets are created on the first check of each day only
	a := newTestAPI(t)
	a.createItem(t, "Beer", "5", 10)
	ctx := context.Background()
	rs := NewRolloverScheduler(a.handler.Coord, logger.Discard().Logger)

	assert.True(t, rs.checkAndProcess(ctx))
	assert.False(t, rs.checkAndProcess(ctx), "same day")

	sheets, err := a.handler.Store.ListDailyStock(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Len(t, sheets, 1)

	a.clock.Advance(6 * time.Hour)
	assert.True(t, rs.checkAndProcess(ctx), "new day")

	sheets, err = a.handler.Store.ListDailyStock(ctx, "2025-03-11")
	require.NoError(t, err)
	assert.Len(t, sheets, 1)
}

func TestRolloverScheduler_StartStop(t *testing.T) {
	a := newTestAPI(t)
	a.createItem(t, "Beer", "5", 10)
	rs := NewRolloverScheduler(a.handler.Coord, logger.Discard().Logger)
	rs.CheckInterval = 10 * time.Millisecond

	rs.Start()
	rs.Start() // second start is a no-op

	assert.Eventually(t, func() bool {
		sheets, err := a.handler.Store.ListDailyStock(context.Background(), "2025-03-10")
		return err == nil && len(sheets) == 1
	}, time.Second, 5*time.Millisecond)

	rs.Stop()
	rs.Stop()
}

func TestRolloverScheduler_Disabled(t *testing.T) {
	a := newTestAPI(t)
	rs := NewRolloverScheduler(a.handler.Coord, logger.Discard().Logger)
	rs.Enabled = false

	rs.Start()
	defer rs.Stop()

	assert.Nil(t, rs.ticker)
}
