package service

import (
	"context"
	"fmt"
	"time"

	"innkeeper/infras/otel"
	"innkeeper/internal/domains/inventory/model"
	"innkeeper/internal/domains/inventory/repository"
	"innkeeper/internal/events"
	"innkeeper/shared/constant"

	"github.com/rs/zerolog/log"
)

// CloseoutSource reports stay dates that revenue management has marked as not
// sellable. Closed-out dates reject holds and bookings regardless of the
// counters.
type CloseoutSource interface {
	ClosedDates(ctx context.Context, propertyID, categoryID string, stay model.StayRange) ([]time.Time, error)
}

// Refresher re-projects ledger rows into the read-optimized availability
// cache after a mutation. Implementations must never fail the caller.
type Refresher interface {
	Refresh(ctx context.Context, propertyID, categoryID string, stay model.StayRange)
}

// Ledger is the authoritative capacity store. Booking-critical decisions go
// through it directly, never through the availability cache.
type Ledger interface {
	CheckCapacity(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) (bool, error)
	IncrementHeld(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) error
	DecrementHeld(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) error
	CommitHeld(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) error
	CancelBooking(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) error
	SetBlocked(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) error
	SetCapacity(ctx context.Context, propertyID, categoryID string, stay model.StayRange, totalRooms int) error
	Days(ctx context.Context, propertyID, categoryID string, stay model.StayRange) ([]model.InventoryDay, error)
}

type serviceImpl struct {
	repo       repository.Inventory
	closeouts  CloseoutSource
	refresher  Refresher
	dispatcher events.Dispatcher
	otel       otel.Otel
}

func New(repo repository.Inventory, closeouts CloseoutSource, refresher Refresher, dispatcher events.Dispatcher, otel otel.Otel) Ledger {
	return &serviceImpl{
		repo:       repo,
		closeouts:  closeouts,
		refresher:  refresher,
		dispatcher: dispatcher,
		otel:       otel,
	}
}

func (s *serviceImpl) CheckCapacity(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) (ok bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckCapacity")
	defer scope.End()
	defer scope.TraceIfError(err)

	if rooms <= 0 {
		return false, model.ErrInvalidRoomCount
	}

	closed, err := s.closedDates(ctx, propertyID, categoryID, stay)
	if err != nil {
		return false, err
	}
	if len(closed) > 0 {
		return false, nil
	}

	days, err := s.repo.Days(ctx, propertyID, categoryID, stay)
	if err != nil {
		return false, fmt.Errorf("failed to read inventory days: %w", err)
	}

	if len(days) < stay.Nights() {
		// A date without a configured row has zero capacity.
		return false, nil
	}

	for _, day := range days {
		if day.NetAvailable() < rooms {
			return false, nil
		}
	}

	return true, nil
}

// IncrementHeld reserves rooms on every date of the range. The read, check
// and write run in one transaction against row locks, so two competing
// requests for the last room cannot both succeed.
func (s *serviceImpl) IncrementHeld(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".IncrementHeld")
	defer scope.End()
	defer scope.TraceIfError(err)

	if rooms <= 0 {
		return model.ErrInvalidRoomCount
	}

	closed, err := s.closedDates(ctx, propertyID, categoryID, stay)
	if err != nil {
		return err
	}
	if len(closed) > 0 {
		return model.ErrDateClosedOut
	}

	err = s.mutateDays(ctx, propertyID, categoryID, stay, func(day *model.InventoryDay) error {
		if day.NetAvailable() < rooms {
			return model.ErrInsufficientCapacity
		}

		day.HeldRooms += rooms

		return nil
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, propertyID, categoryID, stay)

	return nil
}

func (s *serviceImpl) DecrementHeld(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DecrementHeld")
	defer scope.End()
	defer scope.TraceIfError(err)

	if rooms <= 0 {
		return model.ErrInvalidRoomCount
	}

	err = s.mutateDays(ctx, propertyID, categoryID, stay, func(day *model.InventoryDay) error {
		if day.HeldRooms < rooms {
			return model.ErrInvariantViolation
		}

		day.HeldRooms -= rooms

		return nil
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, propertyID, categoryID, stay)

	return nil
}

// CommitHeld moves rooms from held to booked on every date of the range. It
// is called by hold conversion inside the hold's transaction.
func (s *serviceImpl) CommitHeld(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CommitHeld")
	defer scope.End()
	defer scope.TraceIfError(err)

	if rooms <= 0 {
		return model.ErrInvalidRoomCount
	}

	err = s.mutateDays(ctx, propertyID, categoryID, stay, func(day *model.InventoryDay) error {
		if day.HeldRooms < rooms {
			return model.ErrInvariantViolation
		}

		day.HeldRooms -= rooms
		day.BookedRooms += rooms

		return nil
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, propertyID, categoryID, stay)

	return nil
}

// CancelBooking returns booked rooms to available. Deduplicating cancel
// requests is the caller's responsibility.
func (s *serviceImpl) CancelBooking(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CancelBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	if rooms <= 0 {
		return model.ErrInvalidRoomCount
	}

	err = s.mutateDays(ctx, propertyID, categoryID, stay, func(day *model.InventoryDay) error {
		if day.BookedRooms < rooms {
			return model.ErrInvariantViolation
		}

		day.BookedRooms -= rooms

		return nil
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, propertyID, categoryID, stay)

	return nil
}

// SetBlocked replaces the blocked-room count (maintenance, group allotments)
// on every date of the range.
func (s *serviceImpl) SetBlocked(ctx context.Context, propertyID, categoryID string, stay model.StayRange, rooms int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SetBlocked")
	defer scope.End()
	defer scope.TraceIfError(err)

	if rooms < 0 {
		return model.ErrInvalidRoomCount
	}

	err = s.mutateDays(ctx, propertyID, categoryID, stay, func(day *model.InventoryDay) error {
		day.BlockedRooms = rooms

		if !day.Consistent() {
			return model.ErrInvariantViolation
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, propertyID, categoryID, stay)

	return nil
}

// SetCapacity configures total rooms for every date of the range, creating
// ledger rows that do not exist yet.
func (s *serviceImpl) SetCapacity(ctx context.Context, propertyID, categoryID string, stay model.StayRange, totalRooms int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SetCapacity")
	defer scope.End()
	defer scope.TraceIfError(err)

	if totalRooms < 0 {
		return model.ErrInvalidRoomCount
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.DaysForUpdate(txCtx, propertyID, categoryID, stay)
		if err != nil {
			return fmt.Errorf("failed to lock inventory days: %w", err)
		}

		byDate := make(map[string]model.InventoryDay, len(existing))
		for _, day := range existing {
			byDate[day.Date.Format("2006-01-02")] = day
		}

		days := make([]model.InventoryDay, 0, stay.Nights())
		for _, date := range stay.Dates() {
			day, ok := byDate[date.Format("2006-01-02")]
			if !ok {
				day = model.InventoryDay{
					PropertyID:     propertyID,
					RoomCategoryID: categoryID,
					Date:           date,
				}
			}

			day.TotalRooms = totalRooms
			if !day.Consistent() {
				return model.ErrInvariantViolation
			}

			days = append(days, day)
		}

		return s.repo.SaveDays(txCtx, days)
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, propertyID, categoryID, stay)

	return nil
}

func (s *serviceImpl) Days(ctx context.Context, propertyID, categoryID string, stay model.StayRange) (days []model.InventoryDay, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Days")
	defer scope.End()
	defer scope.TraceIfError(err)

	days, err = s.repo.Days(ctx, propertyID, categoryID, stay)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory days: %w", err)
	}

	if len(days) == 0 {
		return nil, model.ErrInventoryNotFound
	}

	return days, nil
}

// mutateDays applies mutate to every date of the range inside one
// transaction. Either every date changes or none of them does.
func (s *serviceImpl) mutateDays(ctx context.Context, propertyID, categoryID string, stay model.StayRange, mutate func(day *model.InventoryDay) error) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		days, err := s.repo.DaysForUpdate(txCtx, propertyID, categoryID, stay)
		if err != nil {
			return fmt.Errorf("failed to lock inventory days: %w", err)
		}

		if len(days) < stay.Nights() {
			return model.ErrInsufficientCapacity
		}

		for i := range days {
			if err := mutate(&days[i]); err != nil {
				return err
			}

			if !days[i].Consistent() {
				return model.ErrInvariantViolation
			}
		}

		return s.repo.SaveDays(txCtx, days)
	})
}

func (s *serviceImpl) closedDates(ctx context.Context, propertyID, categoryID string, stay model.StayRange) ([]time.Time, error) {
	if s.closeouts == nil {
		return nil, nil
	}

	closed, err := s.closeouts.ClosedDates(ctx, propertyID, categoryID, stay)
	if err != nil {
		return nil, fmt.Errorf("failed to read close-outs: %w", err)
	}

	return closed, nil
}

// afterChange refreshes the availability cache and notifies distribution
// channels. Both are fire-and-forget: a slow consumer must not slow down or
// fail the ledger mutation that triggered it.
func (s *serviceImpl) afterChange(ctx context.Context, propertyID, categoryID string, stay model.StayRange) {
	// The goroutine outlives both the request and any surrounding transaction:
	// drop the cancel signal, and drop the transaction marker so the refresher
	// reads committed state from the plain connection rather than a transaction
	// that is finished by the time it runs.
	c := s.repo.WithoutTx(context.WithoutCancel(ctx))

	go func() {
		if s.refresher != nil {
			s.refresher.Refresh(c, propertyID, categoryID, stay)
		}

		if s.dispatcher != nil {
			s.dispatcher.Publish(c, events.NewInventoryChanged(propertyID, categoryID, stay.CheckIn, stay.CheckOut))
		}
	}()

	log.Debug().
		Str("property", propertyID).
		Str("category", categoryID).
		Str("stay", stay.String()).
		Msg("inventory changed")
}
