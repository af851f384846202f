package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"innkeeper/config"
	otelMocks "innkeeper/infras/otel/mocks"
	"innkeeper/internal/clock"
	"innkeeper/internal/domains/hold/model"
	holdRepository "innkeeper/internal/domains/hold/repository"
	"innkeeper/internal/domains/hold/service"
	inventoryModel "innkeeper/internal/domains/inventory/model"
	inventoryRepository "innkeeper/internal/domains/inventory/repository"
	inventoryService "innkeeper/internal/domains/inventory/service"
	"innkeeper/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	holds    service.Holds
	holdRepo *holdRepository.Memory
	invRepo  *inventoryRepository.Memory
	ledger   inventoryService.Ledger
	stay     inventoryModel.StayRange
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Inventory.HoldTTLMinutes = 15
	cfg.Inventory.SweepIntervalSeconds = 60
	cfg.Inventory.MaxStayNights = 30

	return cfg
}

func newFixture(t *testing.T, clk clock.Clock) *fixture {
	t.Helper()

	stay, err := inventoryModel.ParseStayRange("2026-09-10", "2026-09-13")
	require.NoError(t, err)

	invRepo := inventoryRepository.NewMemory()
	days := make([]inventoryModel.InventoryDay, 0, stay.Nights())
	for _, date := range stay.Dates() {
		days = append(days, inventoryModel.InventoryDay{
			PropertyID:     "prop-1",
			RoomCategoryID: "cat-deluxe",
			Date:           date,
			TotalRooms:     5,
		})
	}
	require.NoError(t, invRepo.SaveDays(context.Background(), days))

	ledger := inventoryService.New(invRepo, nil, nil, events.NewDispatcher(), otelMocks.NewOtel())

	holdRepo := holdRepository.NewMemory()
	cfg := testConfig()
	holds := service.New(holdRepo, ledger, clk, cfg, otelMocks.NewOtel())

	return &fixture{
		holds:    holds,
		holdRepo: holdRepo,
		invRepo:  invRepo,
		ledger:   ledger,
		stay:     stay,
	}
}

func (f *fixture) heldOn(t *testing.T, date string) int {
	t.Helper()

	days, err := f.invRepo.Days(context.Background(), "prop-1", "cat-deluxe", f.stay)
	require.NoError(t, err)
	for _, d := range days {
		if d.Date.Format("2006-01-02") == date {
			return d.HeldRooms
		}
	}

	t.Fatalf("no ledger row for %s", date)

	return 0
}

func (f *fixture) create(t *testing.T, sessionID string, rooms int) model.Hold {
	t.Helper()

	hold, err := f.holds.Create(context.Background(), service.CreateHold{
		SessionID:  sessionID,
		PropertyID: "prop-1",
		CategoryID: "cat-deluxe",
		Stay:       f.stay,
		Rooms:      rooms,
	})
	require.NoError(t, err)

	return hold
}

func TestHoldCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("holds rooms for the TTL", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 2)

		assert.Equal(t, model.HoldStatusActive, hold.Status)
		assert.Equal(t, testNow.Add(15*time.Minute), hold.ExpiresAt)
		assert.Equal(t, 2, f.heldOn(t, "2026-09-10"))
		assert.Equal(t, 2, f.heldOn(t, "2026-09-12"))
	})

	t.Run("stay longer than the configured maximum is rejected", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		longStay, err := inventoryModel.ParseStayRange("2026-09-10", "2026-11-10")
		require.NoError(t, err)

		_, err = f.holds.Create(ctx, service.CreateHold{
			SessionID:  "sess-1",
			PropertyID: "prop-1",
			CategoryID: "cat-deluxe",
			Stay:       longStay,
			Rooms:      1,
		})
		require.ErrorIs(t, err, inventoryModel.ErrInvalidStayRange)
	})

	t.Run("insufficient capacity creates nothing", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		_, err := f.holds.Create(ctx, service.CreateHold{
			SessionID:  "sess-1",
			PropertyID: "prop-1",
			CategoryID: "cat-deluxe",
			Stay:       f.stay,
			Rooms:      6,
		})
		require.ErrorIs(t, err, inventoryModel.ErrInsufficientCapacity)

		holds, err := f.holds.ListActiveForSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Empty(t, holds)
		assert.Zero(t, f.heldOn(t, "2026-09-10"))
	})

	t.Run("holds are exclusive against each other", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		f.create(t, "sess-1", 3)
		f.create(t, "sess-2", 2)

		_, err := f.holds.Create(ctx, service.CreateHold{
			SessionID:  "sess-3",
			PropertyID: "prop-1",
			CategoryID: "cat-deluxe",
			Stay:       f.stay,
			Rooms:      1,
		})
		assert.ErrorIs(t, err, inventoryModel.ErrInsufficientCapacity)
	})
}

func TestHoldConvert(t *testing.T) {
	ctx := context.Background()

	t.Run("moves held rooms to booked", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 2)

		converted, err := f.holds.Convert(ctx, hold.ID, "sess-1", "bk-42")
		require.NoError(t, err)
		assert.Equal(t, model.HoldStatusConverted, converted.Status)
		require.NotNil(t, converted.BookingID)
		assert.Equal(t, "bk-42", *converted.BookingID)

		days, err := f.invRepo.Days(ctx, "prop-1", "cat-deluxe", f.stay)
		require.NoError(t, err)
		for _, day := range days {
			assert.Zero(t, day.HeldRooms)
			assert.Equal(t, 2, day.BookedRooms)
		}
	})

	t.Run("rejects another session", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 1)

		_, err := f.holds.Convert(ctx, hold.ID, "sess-2", "bk-1")
		assert.ErrorIs(t, err, model.ErrHoldNotOwned)
	})

	t.Run("rejects a second conversion", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 1)

		_, err := f.holds.Convert(ctx, hold.ID, "sess-1", "bk-1")
		require.NoError(t, err)

		_, err = f.holds.Convert(ctx, hold.ID, "sess-1", "bk-2")
		assert.ErrorIs(t, err, model.ErrHoldAlreadyConverted)
	})

	t.Run("rejects an expired hold", func(t *testing.T) {
		base := clock.NewFixed(testNow)
		f := newFixture(t, base)

		hold := f.create(t, "sess-1", 1)

		late := newFixtureClock(f, 16*time.Minute)
		_, err := late.Convert(ctx, hold.ID, "sess-1", "bk-1")
		assert.ErrorIs(t, err, model.ErrHoldExpired)
	})

	t.Run("unknown hold", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		_, err := f.holds.Convert(ctx, "missing", "sess-1", "bk-1")
		assert.ErrorIs(t, err, model.ErrHoldNotFound)
	})
}

// newFixtureClock rebuilds the hold service around the same stores with the
// clock shifted forward.
func newFixtureClock(f *fixture, offset time.Duration) service.Holds {
	return service.New(f.holdRepo, f.ledger, clock.NewShifted(clock.NewFixed(testNow), offset), testConfig(), otelMocks.NewOtel())
}

func TestHoldRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("returns rooms to available", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 2)

		require.NoError(t, f.holds.Release(ctx, hold.ID, "sess-1"))
		assert.Zero(t, f.heldOn(t, "2026-09-10"))

		got, err := f.holds.Get(ctx, hold.ID)
		require.NoError(t, err)
		assert.Equal(t, model.HoldStatusReleased, got.Status)
	})

	t.Run("rejects another session", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 1)

		err := f.holds.Release(ctx, hold.ID, "sess-2")
		assert.ErrorIs(t, err, model.ErrHoldNotOwned)
	})

	t.Run("rejects a released hold", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 1)

		require.NoError(t, f.holds.Release(ctx, hold.ID, "sess-1"))

		err := f.holds.Release(ctx, hold.ID, "sess-1")
		assert.ErrorIs(t, err, model.ErrHoldNotActive)
	})
}

func TestHoldSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("expires overdue holds and frees rooms", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		first := f.create(t, "sess-1", 2)
		second := f.create(t, "sess-2", 1)

		late := newFixtureClock(f, 16*time.Minute)
		swept, err := late.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, swept)

		for _, id := range []string{first.ID, second.ID} {
			got, err := f.holds.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, model.HoldStatusExpired, got.Status)
		}

		assert.Zero(t, f.heldOn(t, "2026-09-10"))
	})

	t.Run("leaves live holds alone", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 2)

		swept, err := f.holds.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, swept)

		got, err := f.holds.Get(ctx, hold.ID)
		require.NoError(t, err)
		assert.Equal(t, model.HoldStatusActive, got.Status)
		assert.Equal(t, 2, f.heldOn(t, "2026-09-10"))
	})

	t.Run("skips holds converted after listing", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		hold := f.create(t, "sess-1", 1)

		_, err := f.holds.Convert(ctx, hold.ID, "sess-1", "bk-1")
		require.NoError(t, err)

		late := newFixtureClock(f, 16*time.Minute)
		swept, err := late.SweepExpired(ctx)
		require.NoError(t, err)
		assert.Zero(t, swept)

		got, err := f.holds.Get(ctx, hold.ID)
		require.NoError(t, err)
		assert.Equal(t, model.HoldStatusConverted, got.Status)
	})

	t.Run("sweeper run once delegates to the service", func(t *testing.T) {
		f := newFixture(t, clock.NewFixed(testNow))

		f.create(t, "sess-1", 1)

		lateHolds := newFixtureClock(f, 16*time.Minute)
		sweeper := service.NewSweeper(lateHolds, testConfig())
		sweeper.RunOnce(ctx)

		assert.Zero(t, f.heldOn(t, "2026-09-10"))
	})
}

func TestHoldListActiveForSession(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, clock.NewFixed(testNow))

	first := f.create(t, "sess-1", 1)
	f.create(t, "sess-2", 1)
	released := f.create(t, "sess-1", 1)
	require.NoError(t, f.holds.Release(ctx, released.ID, "sess-1"))

	holds, err := f.holds.ListActiveForSession(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, first.ID, holds[0].ID)
}

func TestHoldConcurrentConvertAndSweep(t *testing.T) {
	// A conversion and the sweeper racing over the same hold must settle on
	// exactly one outcome.
	ctx := context.Background()

	f := newFixture(t, clock.NewFixed(testNow))
	hold := f.create(t, "sess-1", 1)

	late := newFixtureClock(f, 16*time.Minute)

	var wg sync.WaitGroup
	wg.Add(2)

	var convertErr error
	go func() {
		defer wg.Done()
		_, convertErr = late.Convert(ctx, hold.ID, "sess-1", "bk-race")
	}()
	go func() {
		defer wg.Done()
		_, _ = late.SweepExpired(ctx)
	}()
	wg.Wait()

	got, err := f.holds.Get(ctx, hold.ID)
	require.NoError(t, err)

	// The clock is past the TTL, so the conversion must lose no matter who
	// gets the lock first, and the sweeper always expires the hold.
	assert.ErrorIs(t, convertErr, model.ErrHoldExpired)
	assert.Equal(t, model.HoldStatusExpired, got.Status)
}
