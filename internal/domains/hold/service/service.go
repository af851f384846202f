package service

import (
	"context"
	"time"

	"innkeeper/config"
	"innkeeper/infras/otel"
	"innkeeper/internal/clock"
	"innkeeper/internal/domains/hold/model"
	"innkeeper/internal/domains/hold/repository"
	inventoryModel "innkeeper/internal/domains/inventory/model"
	inventoryService "innkeeper/internal/domains/inventory/service"
	"innkeeper/shared/constant"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Holds manages the hold lifecycle. Every transition that moves rooms runs
// in one transaction with the matching ledger mutation, so the hold table
// and the held counters cannot drift apart.
type Holds interface {
	Create(ctx context.Context, req CreateHold) (model.Hold, error)
	Get(ctx context.Context, id string) (model.Hold, error)
	Convert(ctx context.Context, id, sessionID, bookingID string) (model.Hold, error)
	Release(ctx context.Context, id, sessionID string) error
	ListActiveForSession(ctx context.Context, sessionID string) ([]model.Hold, error)
	SweepExpired(ctx context.Context) (int, error)
}

// CreateHold carries the validated inputs for a new hold.
type CreateHold struct {
	SessionID  string
	PropertyID string
	CategoryID string
	Stay       inventoryModel.StayRange
	Rooms      int
}

type serviceImpl struct {
	repo   repository.Hold
	ledger inventoryService.Ledger
	clock  clock.Clock
	config *config.Config
	otel   otel.Otel
}

func New(repo repository.Hold, ledger inventoryService.Ledger, clk clock.Clock, config *config.Config, otel otel.Otel) Holds {
	return &serviceImpl{
		repo:   repo,
		ledger: ledger,
		clock:  clk,
		config: config,
		otel:   otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req CreateHold) (hold model.Hold, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".hold.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.Stay.Nights() > s.config.Inventory.MaxStayNights {
		return model.Hold{}, inventoryModel.ErrInvalidStayRange
	}

	now := s.clock.Now()
	ttl := time.Duration(s.config.Inventory.HoldTTLMinutes) * time.Minute

	hold = model.Hold{
		ID:             uuid.NewString(),
		SessionID:      req.SessionID,
		PropertyID:     req.PropertyID,
		RoomCategoryID: req.CategoryID,
		CheckIn:        req.Stay.CheckIn,
		CheckOut:       req.Stay.CheckOut,
		Rooms:          req.Rooms,
		Status:         model.HoldStatusActive,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ledger.IncrementHeld(txCtx, req.PropertyID, req.CategoryID, req.Stay, req.Rooms); err != nil {
			return err
		}

		return s.repo.Create(txCtx, hold)
	})
	if err != nil {
		return model.Hold{}, err
	}

	log.Info().
		Str("holdId", hold.ID).
		Str("sessionId", hold.SessionID).
		Time("expiresAt", hold.ExpiresAt).
		Msg("hold created")

	return hold, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (hold model.Hold, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".hold.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.repo.Get(ctx, id)
}

// Convert turns an active hold into a booking. The held rooms become booked
// rooms in the same transaction that flips the hold status.
func (s *serviceImpl) Convert(ctx context.Context, id, sessionID, bookingID string) (hold model.Hold, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".hold.Convert")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err = s.repo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if hold.SessionID != sessionID {
			return model.ErrHoldNotOwned
		}

		now := s.clock.Now()
		switch {
		case hold.Status == model.HoldStatusConverted:
			return model.ErrHoldAlreadyConverted
		case hold.Expired(now):
			return model.ErrHoldExpired
		case hold.Status != model.HoldStatusActive:
			return model.ErrHoldNotActive
		}

		if err := s.ledger.CommitHeld(txCtx, hold.PropertyID, hold.RoomCategoryID, hold.Stay(), hold.Rooms); err != nil {
			return err
		}

		hold.Status = model.HoldStatusConverted
		hold.BookingID = &bookingID
		hold.UpdatedAt = now

		return s.repo.Update(txCtx, hold)
	})
	if err != nil {
		return model.Hold{}, err
	}

	log.Info().
		Str("holdId", hold.ID).
		Str("bookingId", bookingID).
		Msg("hold converted to booking")

	return hold, nil
}

// Release gives the held rooms back before the TTL runs out. A hold whose
// TTL already passed can still be released; the sweeper would have done the
// same thing later.
func (s *serviceImpl) Release(ctx context.Context, id, sessionID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".hold.Release")
	defer scope.End()
	defer scope.TraceIfError(err)

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if hold.SessionID != sessionID {
			return model.ErrHoldNotOwned
		}

		if hold.Status != model.HoldStatusActive {
			return model.ErrHoldNotActive
		}

		if err := s.ledger.DecrementHeld(txCtx, hold.PropertyID, hold.RoomCategoryID, hold.Stay(), hold.Rooms); err != nil {
			return err
		}

		hold.Status = model.HoldStatusReleased
		hold.UpdatedAt = s.clock.Now()

		return s.repo.Update(txCtx, hold)
	})
	if err != nil {
		return err
	}

	log.Info().Str("holdId", id).Msg("hold released")

	return nil
}

func (s *serviceImpl) ListActiveForSession(ctx context.Context, sessionID string) (holds []model.Hold, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".hold.ListActiveForSession")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.repo.ListActiveBySession(ctx, sessionID, s.clock.Now())
}

const sweepBatchSize = 100

// SweepExpired expires overdue holds and returns their rooms to available.
// Each hold is re-checked under its row lock, so a conversion that races the
// sweeper wins or loses cleanly, never both.
func (s *serviceImpl) SweepExpired(ctx context.Context) (swept int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelWorkerScopeName, constant.OtelWorkerScopeName+".hold.SweepExpired")
	defer scope.End()
	defer scope.TraceIfError(err)

	now := s.clock.Now()

	candidates, err := s.repo.ListExpired(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	for _, candidate := range candidates {
		sweepErr := s.repo.WithTx(ctx, func(txCtx context.Context) error {
			hold, err := s.repo.GetForUpdate(txCtx, candidate.ID)
			if err != nil {
				return err
			}

			if !hold.Expired(now) {
				// Converted or released between the list and the lock.
				return nil
			}

			if err := s.ledger.DecrementHeld(txCtx, hold.PropertyID, hold.RoomCategoryID, hold.Stay(), hold.Rooms); err != nil {
				return err
			}

			hold.Status = model.HoldStatusExpired
			hold.UpdatedAt = now

			if err := s.repo.Update(txCtx, hold); err != nil {
				return err
			}

			swept++

			return nil
		})
		if sweepErr != nil {
			log.Error().Err(sweepErr).Str("holdId", candidate.ID).Msg("failed to sweep expired hold")
		}
	}

	if swept > 0 {
		log.Info().Int("count", swept).Msg("expired holds swept")
	}

	return swept, nil
}
