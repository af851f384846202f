package model_test

import (
	"testing"
	"time"

	"innkeeper/internal/domains/inventory/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStayRange(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		stay, err := model.ParseStayRange("2026-09-10", "2026-09-13")
		require.NoError(t, err)

		assert.Equal(t, 3, stay.Nights())
		assert.Equal(t, "2026-09-10..2026-09-13", stay.String())
	})

	t.Run("single night", func(t *testing.T) {
		stay, err := model.ParseStayRange("2026-09-10", "2026-09-11")
		require.NoError(t, err)

		assert.Equal(t, 1, stay.Nights())
	})

	t.Run("check-out before check-in", func(t *testing.T) {
		_, err := model.ParseStayRange("2026-09-13", "2026-09-10")
		assert.ErrorIs(t, err, model.ErrInvalidStayRange)
	})

	t.Run("zero-night range", func(t *testing.T) {
		_, err := model.ParseStayRange("2026-09-10", "2026-09-10")
		assert.ErrorIs(t, err, model.ErrInvalidStayRange)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := model.ParseStayRange("10/09/2026", "2026-09-13")
		assert.Error(t, err)
	})
}

func TestNewStayRangeNormalizesToMidnight(t *testing.T) {
	in := time.Date(2026, 9, 10, 14, 30, 0, 0, time.FixedZone("CET", 3600))
	out := time.Date(2026, 9, 12, 11, 0, 0, 0, time.UTC)

	stay, err := model.NewStayRange(in, out)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), stay.CheckIn)
	assert.Equal(t, time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC), stay.CheckOut)
}

func TestStayRangeDates(t *testing.T) {
	stay, err := model.ParseStayRange("2026-09-10", "2026-09-13")
	require.NoError(t, err)

	dates := stay.Dates()
	require.Len(t, dates, 3)
	assert.Equal(t, time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC), dates[2])
}

func TestStayRangeContains(t *testing.T) {
	stay, err := model.ParseStayRange("2026-09-10", "2026-09-13")
	require.NoError(t, err)

	assert.True(t, stay.Contains(time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, stay.Contains(time.Date(2026, 9, 12, 23, 0, 0, 0, time.UTC)))
	assert.False(t, stay.Contains(time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)), "check-out date is not a stay date")
	assert.False(t, stay.Contains(time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC)))
}

func TestInventoryDayCounters(t *testing.T) {
	day := model.InventoryDay{
		TotalRooms:   10,
		BookedRooms:  4,
		BlockedRooms: 2,
		HeldRooms:    3,
	}

	assert.Equal(t, 4, day.AvailableRooms())
	assert.Equal(t, 1, day.NetAvailable())
	assert.True(t, day.Consistent())
}

func TestInventoryDayConsistent(t *testing.T) {
	tests := []struct {
		name string
		day  model.InventoryDay
		want bool
	}{
		{name: "empty", day: model.InventoryDay{}, want: true},
		{name: "at capacity", day: model.InventoryDay{TotalRooms: 5, BookedRooms: 3, HeldRooms: 2}, want: true},
		{name: "over capacity", day: model.InventoryDay{TotalRooms: 5, BookedRooms: 3, BlockedRooms: 1, HeldRooms: 2}, want: false},
		{name: "negative held", day: model.InventoryDay{TotalRooms: 5, HeldRooms: -1}, want: false},
		{name: "negative booked", day: model.InventoryDay{TotalRooms: 5, BookedRooms: -1}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.day.Consistent())
		})
	}
}
