package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	otelMocks "innkeeper/infras/otel/mocks"
	"innkeeper/internal/domains/inventory/model"
	"innkeeper/internal/domains/inventory/repository"
	"innkeeper/internal/domains/inventory/service"
	"innkeeper/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCloseouts struct {
	closed map[string][]time.Time
	err    error
}

func (s *stubCloseouts) ClosedDates(_ context.Context, propertyID, categoryID string, stay model.StayRange) ([]time.Time, error) {
	if s.err != nil {
		return nil, s.err
	}

	var dates []time.Time
	for _, date := range s.closed[propertyID+":"+categoryID] {
		if stay.Contains(date) {
			dates = append(dates, date)
		}
	}

	return dates, nil
}

type recordingRefresher struct {
	mu    sync.Mutex
	calls int
	last  context.Context
}

func (r *recordingRefresher) Refresh(ctx context.Context, _, _ string, _ model.StayRange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = ctx
}

func (r *recordingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

func (r *recordingRefresher) lastContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.last
}

func mustStay(t *testing.T, checkIn, checkOut string) model.StayRange {
	t.Helper()

	stay, err := model.ParseStayRange(checkIn, checkOut)
	require.NoError(t, err)

	return stay
}

func seedDays(t *testing.T, repo *repository.Memory, propertyID, categoryID string, stay model.StayRange, total, booked, blocked, held int) {
	t.Helper()

	days := make([]model.InventoryDay, 0, stay.Nights())
	for _, date := range stay.Dates() {
		days = append(days, model.InventoryDay{
			PropertyID:     propertyID,
			RoomCategoryID: categoryID,
			Date:           date,
			TotalRooms:     total,
			BookedRooms:    booked,
			BlockedRooms:   blocked,
			HeldRooms:      held,
		})
	}

	require.NoError(t, repo.SaveDays(context.Background(), days))
}

func newLedger(repo repository.Inventory, closeouts service.CloseoutSource, refresher service.Refresher) service.Ledger {
	return service.New(repo, closeouts, refresher, events.NewDispatcher(), otelMocks.NewOtel())
}

func TestLedgerCheckCapacity(t *testing.T) {
	ctx := context.Background()
	stay := mustStay(t, "2026-09-10", "2026-09-13")

	t.Run("enough rooms on every date", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 3, 1, 2)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		ok, err := ledger.CheckCapacity(ctx, "prop-1", "cat-deluxe", stay, 4)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("one tight date fails the whole range", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 3, 1, 2)

		tight := mustStay(t, "2026-09-11", "2026-09-12")
		seedDays(t, repo, "prop-1", "cat-deluxe", tight, 10, 9, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		ok, err := ledger.CheckCapacity(ctx, "prop-1", "cat-deluxe", stay, 2)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown date has zero capacity", func(t *testing.T) {
		repo := repository.NewMemory()
		seeded := mustStay(t, "2026-09-10", "2026-09-12")
		seedDays(t, repo, "prop-1", "cat-deluxe", seeded, 10, 0, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		ok, err := ledger.CheckCapacity(ctx, "prop-1", "cat-deluxe", stay, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("closed-out date is not sellable", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 0, 0, 0)

		closeouts := &stubCloseouts{closed: map[string][]time.Time{
			"prop-1:cat-deluxe": {time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC)},
		}}

		ledger := newLedger(repo, closeouts, nil)

		ok, err := ledger.CheckCapacity(ctx, "prop-1", "cat-deluxe", stay, 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects non-positive room counts", func(t *testing.T) {
		repo := repository.NewMemory()
		ledger := newLedger(repo, &stubCloseouts{}, nil)

		_, err := ledger.CheckCapacity(ctx, "prop-1", "cat-deluxe", stay, 0)
		assert.ErrorIs(t, err, model.ErrInvalidRoomCount)
	})
}

func TestLedgerIncrementHeld(t *testing.T) {
	ctx := context.Background()
	stay := mustStay(t, "2026-09-10", "2026-09-13")

	t.Run("holds rooms on every date", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 2, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		require.NoError(t, ledger.IncrementHeld(ctx, "prop-1", "cat-deluxe", stay, 3))

		days, err := repo.Days(ctx, "prop-1", "cat-deluxe", stay)
		require.NoError(t, err)
		require.Len(t, days, 3)
		for _, day := range days {
			assert.Equal(t, 3, day.HeldRooms)
			assert.Equal(t, 5, day.NetAvailable())
		}
	})

	t.Run("insufficient capacity leaves every date untouched", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 0, 0, 0)

		tight := mustStay(t, "2026-09-12", "2026-09-13")
		seedDays(t, repo, "prop-1", "cat-deluxe", tight, 10, 9, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		err := ledger.IncrementHeld(ctx, "prop-1", "cat-deluxe", stay, 2)
		assert.ErrorIs(t, err, model.ErrInsufficientCapacity)

		days, err := repo.Days(ctx, "prop-1", "cat-deluxe", stay)
		require.NoError(t, err)
		for _, day := range days {
			assert.Zero(t, day.HeldRooms, "date %s must be rolled back", day.Date.Format("2006-01-02"))
		}
	})

	t.Run("closed-out date rejects the hold", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 0, 0, 0)

		closeouts := &stubCloseouts{closed: map[string][]time.Time{
			"prop-1:cat-deluxe": {time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)},
		}}

		ledger := newLedger(repo, closeouts, nil)

		err := ledger.IncrementHeld(ctx, "prop-1", "cat-deluxe", stay, 1)
		assert.ErrorIs(t, err, model.ErrDateClosedOut)
	})

	t.Run("missing ledger rows mean zero capacity", func(t *testing.T) {
		repo := repository.NewMemory()
		ledger := newLedger(repo, &stubCloseouts{}, nil)

		err := ledger.IncrementHeld(ctx, "prop-1", "cat-deluxe", stay, 1)
		assert.ErrorIs(t, err, model.ErrInsufficientCapacity)
	})

	t.Run("refreshes the availability projection", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 0, 0, 0)

		refresher := &recordingRefresher{}
		ledger := newLedger(repo, &stubCloseouts{}, refresher)

		require.NoError(t, ledger.IncrementHeld(ctx, "prop-1", "cat-deluxe", stay, 1))

		assert.Eventually(t, func() bool {
			return refresher.count() == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("refresh runs outside the caller's transaction", func(t *testing.T) {
		// Callers like the hold workflow wrap ledger mutations in their own
		// transaction. The asynchronous refresh outlives that transaction, so
		// the context handed to the refresher must not carry it.
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 0, 0, 0)

		refresher := &recordingRefresher{}
		ledger := newLedger(repo, &stubCloseouts{}, refresher)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			return ledger.IncrementHeld(txCtx, "prop-1", "cat-deluxe", stay, 1)
		})
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			return refresher.count() == 1
		}, time.Second, 10*time.Millisecond)

		got := refresher.lastContext()
		require.NotNil(t, got)
		assert.Equal(t, got, repo.WithoutTx(got), "refresh context still carries the transaction")
	})
}

func TestLedgerConcurrentHolds(t *testing.T) {
	// Two room-nights left, twenty goroutines racing for one each. Exactly
	// two may win.
	ctx := context.Background()
	stay := mustStay(t, "2026-09-10", "2026-09-11")

	repo := repository.NewMemory()
	seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 8, 0, 0)

	ledger := newLedger(repo, &stubCloseouts{}, nil)

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.IncrementHeld(ctx, "prop-1", "cat-deluxe", stay, 1)
		}()
	}
	wg.Wait()
	close(results)

	var won int
	for err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, model.ErrInsufficientCapacity)
		}
	}
	assert.Equal(t, 2, won)

	days, err := repo.Days(ctx, "prop-1", "cat-deluxe", stay)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 2, days[0].HeldRooms)
	assert.Zero(t, days[0].NetAvailable())
}

func TestLedgerHoldLifecycleCounters(t *testing.T) {
	ctx := context.Background()
	stay := mustStay(t, "2026-09-10", "2026-09-12")

	t.Run("commit moves held to booked", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 0, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		require.NoError(t, ledger.IncrementHeld(ctx, "prop-1", "cat-deluxe", stay, 2))
		require.NoError(t, ledger.CommitHeld(ctx, "prop-1", "cat-deluxe", stay, 2))

		days, err := repo.Days(ctx, "prop-1", "cat-deluxe", stay)
		require.NoError(t, err)
		for _, day := range days {
			assert.Zero(t, day.HeldRooms)
			assert.Equal(t, 2, day.BookedRooms)
		}
	})

	t.Run("release returns held rooms", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 0, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		require.NoError(t, ledger.IncrementHeld(ctx, "prop-1", "cat-deluxe", stay, 2))
		require.NoError(t, ledger.DecrementHeld(ctx, "prop-1", "cat-deluxe", stay, 2))

		days, err := repo.Days(ctx, "prop-1", "cat-deluxe", stay)
		require.NoError(t, err)
		for _, day := range days {
			assert.Zero(t, day.HeldRooms)
			assert.Equal(t, 10, day.NetAvailable())
		}
	})

	t.Run("commit without held rooms is an invariant violation", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 0, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		err := ledger.CommitHeld(ctx, "prop-1", "cat-deluxe", stay, 1)
		assert.ErrorIs(t, err, model.ErrInvariantViolation)
	})

	t.Run("cancel returns booked rooms", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 4, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		require.NoError(t, ledger.CancelBooking(ctx, "prop-1", "cat-deluxe", stay, 3))

		days, err := repo.Days(ctx, "prop-1", "cat-deluxe", stay)
		require.NoError(t, err)
		for _, day := range days {
			assert.Equal(t, 1, day.BookedRooms)
		}
	})

	t.Run("cancel below zero is an invariant violation", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 1, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		err := ledger.CancelBooking(ctx, "prop-1", "cat-deluxe", stay, 2)
		assert.ErrorIs(t, err, model.ErrInvariantViolation)
	})
}

func TestLedgerDays(t *testing.T) {
	ctx := context.Background()
	stay := mustStay(t, "2026-09-10", "2026-09-12")

	t.Run("returns the configured dates", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 2, 1, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		days, err := ledger.Days(ctx, "prop-1", "cat-deluxe", stay)
		require.NoError(t, err)
		require.Len(t, days, 2)
		assert.Equal(t, 7, days[0].NetAvailable())
	})

	t.Run("unconfigured range is not found", func(t *testing.T) {
		repo := repository.NewMemory()
		ledger := newLedger(repo, &stubCloseouts{}, nil)

		_, err := ledger.Days(ctx, "prop-9", "cat-unknown", stay)
		assert.ErrorIs(t, err, model.ErrInventoryNotFound)
	})
}

func TestLedgerCapacityManagement(t *testing.T) {
	ctx := context.Background()
	stay := mustStay(t, "2026-09-10", "2026-09-12")

	t.Run("set capacity creates missing rows", func(t *testing.T) {
		repo := repository.NewMemory()
		ledger := newLedger(repo, &stubCloseouts{}, nil)

		require.NoError(t, ledger.SetCapacity(ctx, "prop-1", "cat-deluxe", stay, 12))

		days, err := ledger.Days(ctx, "prop-1", "cat-deluxe", stay)
		require.NoError(t, err)
		require.Len(t, days, 2)
		for _, day := range days {
			assert.Equal(t, 12, day.TotalRooms)
			assert.Equal(t, 12, day.NetAvailable())
		}
	})

	t.Run("shrinking capacity below committed rooms fails", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 6, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		err := ledger.SetCapacity(ctx, "prop-1", "cat-deluxe", stay, 5)
		assert.ErrorIs(t, err, model.ErrInvariantViolation)
	})

	t.Run("blocking rooms reduces net availability", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 2, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		require.NoError(t, ledger.SetBlocked(ctx, "prop-1", "cat-deluxe", stay, 3))

		days, err := ledger.Days(ctx, "prop-1", "cat-deluxe", stay)
		require.NoError(t, err)
		for _, day := range days {
			assert.Equal(t, 3, day.BlockedRooms)
			assert.Equal(t, 5, day.NetAvailable())
		}
	})

	t.Run("blocking more than free rooms fails", func(t *testing.T) {
		repo := repository.NewMemory()
		seedDays(t, repo, "prop-1", "cat-deluxe", stay, 10, 8, 0, 0)

		ledger := newLedger(repo, &stubCloseouts{}, nil)

		err := ledger.SetBlocked(ctx, "prop-1", "cat-deluxe", stay, 4)
		assert.ErrorIs(t, err, model.ErrInvariantViolation)
	})
}
