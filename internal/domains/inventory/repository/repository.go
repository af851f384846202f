package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/internal/domains/inventory/model"
	"innkeeper/shared/constant"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Inventory is the ledger's storage contract. DaysForUpdate must lock the
// selected rows for the duration of the surrounding transaction so that the
// check-then-update sequence in the service is serialized per
// (property, category, date) against competing writers.
type Inventory interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithoutTx(ctx context.Context) context.Context
	Days(ctx context.Context, propertyID, categoryID string, stay model.StayRange) ([]model.InventoryDay, error)
	DaysForUpdate(ctx context.Context, propertyID, categoryID string, stay model.StayRange) ([]model.InventoryDay, error)
	SaveDays(ctx context.Context, days []model.InventoryDay) error
	Keys(ctx context.Context) ([]InventoryKey, error)
}

// InventoryKey identifies one (property, room category) ledger partition.
type InventoryKey struct {
	PropertyID     string `db:"property_id"`
	RoomCategoryID string `db:"room_category_id"`
}

type repositoryImpl struct {
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Inventory {
	return &repositoryImpl{
		db:   db,
		otel: otel,
	}
}

func (repo *repositoryImpl) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return repo.db.WithTx(ctx, fn) //nolint:wrapcheck
}

func (repo *repositoryImpl) WithoutTx(ctx context.Context) context.Context {
	return postgres.WithoutTx(ctx)
}

const selectDays = `
SELECT property_id, room_category_id, stay_date, total_rooms, booked_rooms, blocked_rooms, held_rooms
FROM inventory_days
WHERE property_id = $1 AND room_category_id = $2 AND stay_date >= $3 AND stay_date < $4
ORDER BY stay_date`

func (repo *repositoryImpl) Days(ctx context.Context, propertyID, categoryID string, stay model.StayRange) (days []model.InventoryDay, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Days")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, selectDays)

	err = sqlx.SelectContext(ctx, repo.db.Reader(ctx), &days, selectDays, propertyID, categoryID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		log.Error().Err(err).Msg("failed to select inventory days")

		return nil, fmt.Errorf("failed to select inventory days: %w", err)
	}

	return days, nil
}

func (repo *repositoryImpl) DaysForUpdate(ctx context.Context, propertyID, categoryID string, stay model.StayRange) (days []model.InventoryDay, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".DaysForUpdate")
	defer scope.End()
	defer scope.TraceIfError(err)

	// ORDER BY keeps the lock acquisition order stable across overlapping
	// ranges, which prevents deadlocks between concurrent transactions.
	query := selectDays + ` FOR UPDATE`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = sqlx.SelectContext(ctx, repo.db.Writer(ctx), &days, query, propertyID, categoryID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		log.Error().Err(err).Msg("failed to lock inventory days")

		return nil, fmt.Errorf("failed to lock inventory days: %w", err)
	}

	return days, nil
}

const upsertDay = `
INSERT INTO inventory_days (property_id, room_category_id, stay_date, total_rooms, booked_rooms, blocked_rooms, held_rooms)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (property_id, room_category_id, stay_date)
DO UPDATE SET total_rooms = EXCLUDED.total_rooms,
              booked_rooms = EXCLUDED.booked_rooms,
              blocked_rooms = EXCLUDED.blocked_rooms,
              held_rooms = EXCLUDED.held_rooms`

func (repo *repositoryImpl) SaveDays(ctx context.Context, days []model.InventoryDay) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".SaveDays")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, upsertDay)

	writer := repo.db.Writer(ctx)
	for _, day := range days {
		_, err = writer.ExecContext(ctx, upsertDay,
			day.PropertyID,
			day.RoomCategoryID,
			day.Date,
			day.TotalRooms,
			day.BookedRooms,
			day.BlockedRooms,
			day.HeldRooms,
		)
		if err != nil {
			log.Error().Err(err).Str("key", day.Key()).Msg("failed to save inventory day")

			return fmt.Errorf("failed to save inventory day: %w", err)
		}
	}

	return nil
}

const selectKeys = `
SELECT DISTINCT property_id, room_category_id FROM inventory_days`

func (repo *repositoryImpl) Keys(ctx context.Context) (keys []InventoryKey, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Keys")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, selectKeys)

	err = sqlx.SelectContext(ctx, repo.db.Reader(ctx), &keys, selectKeys)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Error().Err(err).Msg("failed to select inventory keys")

		return nil, fmt.Errorf("failed to select inventory keys: %w", err)
	}

	return keys, nil
}
