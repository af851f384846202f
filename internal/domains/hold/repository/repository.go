package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	"innkeeper/internal/domains/hold/model"
	"innkeeper/shared/constant"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Hold stores TTL-bounded room claims. GetForUpdate locks the row so that
// conversion, release and the expiry sweeper serialize their status
// transitions.
type Hold interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, hold model.Hold) error
	Get(ctx context.Context, id string) (model.Hold, error)
	GetForUpdate(ctx context.Context, id string) (model.Hold, error)
	Update(ctx context.Context, hold model.Hold) error
	ListActiveBySession(ctx context.Context, sessionID string, now time.Time) ([]model.Hold, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Hold, error)
}

type repositoryImpl struct {
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Hold {
	return &repositoryImpl{
		db:   db,
		otel: otel,
	}
}

func (repo *repositoryImpl) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return repo.db.WithTx(ctx, fn) //nolint:wrapcheck
}

const insertHold = `
INSERT INTO holds (id, session_id, property_id, room_category_id, check_in, check_out, rooms, status, booking_id, expires_at, created_at, updated_at)
VALUES (:id, :session_id, :property_id, :room_category_id, :check_in, :check_out, :rooms, :status, :booking_id, :expires_at, :created_at, :updated_at)`

func (repo *repositoryImpl) Create(ctx context.Context, hold model.Hold) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, insertHold)

	_, err = sqlx.NamedExecContext(ctx, repo.db.Writer(ctx), insertHold, hold)
	if err != nil {
		log.Error().Err(err).Str("holdId", hold.ID).Msg("failed to insert hold")

		return fmt.Errorf("failed to insert hold: %w", err)
	}

	return nil
}

const selectHold = `
SELECT id, session_id, property_id, room_category_id, check_in, check_out, rooms, status, booking_id, expires_at, created_at, updated_at
FROM holds`

func (repo *repositoryImpl) Get(ctx context.Context, id string) (hold model.Hold, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := selectHold + ` WHERE id = $1`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = sqlx.GetContext(ctx, repo.db.Reader(ctx), &hold, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Hold{}, model.ErrHoldNotFound
		}

		log.Error().Err(err).Str("holdId", id).Msg("failed to select hold")

		return model.Hold{}, fmt.Errorf("failed to select hold: %w", err)
	}

	return hold, nil
}

func (repo *repositoryImpl) GetForUpdate(ctx context.Context, id string) (hold model.Hold, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".GetForUpdate")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := selectHold + ` WHERE id = $1 FOR UPDATE`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = sqlx.GetContext(ctx, repo.db.Writer(ctx), &hold, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Hold{}, model.ErrHoldNotFound
		}

		log.Error().Err(err).Str("holdId", id).Msg("failed to lock hold")

		return model.Hold{}, fmt.Errorf("failed to lock hold: %w", err)
	}

	return hold, nil
}

const updateHold = `
UPDATE holds
SET status = :status, booking_id = :booking_id, expires_at = :expires_at, updated_at = :updated_at
WHERE id = :id`

func (repo *repositoryImpl) Update(ctx context.Context, hold model.Hold) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, updateHold)

	result, err := sqlx.NamedExecContext(ctx, repo.db.Writer(ctx), updateHold, hold)
	if err != nil {
		log.Error().Err(err).Str("holdId", hold.ID).Msg("failed to update hold")

		return fmt.Errorf("failed to update hold: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return model.ErrHoldNotFound
	}

	return nil
}

func (repo *repositoryImpl) ListActiveBySession(ctx context.Context, sessionID string, now time.Time) (holds []model.Hold, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ListActiveBySession")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := selectHold + ` WHERE session_id = $1 AND status = $2 AND expires_at > $3 ORDER BY created_at`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = sqlx.SelectContext(ctx, repo.db.Reader(ctx), &holds, query, sessionID, model.HoldStatusActive, now)
	if err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to select session holds")

		return nil, fmt.Errorf("failed to select session holds: %w", err)
	}

	return holds, nil
}

func (repo *repositoryImpl) ListExpired(ctx context.Context, now time.Time, limit int) (holds []model.Hold, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ListExpired")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := selectHold + ` WHERE status = $1 AND expires_at <= $2 ORDER BY expires_at LIMIT $3`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = sqlx.SelectContext(ctx, repo.db.Reader(ctx), &holds, query, model.HoldStatusActive, now, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to select expired holds")

		return nil, fmt.Errorf("failed to select expired holds: %w", err)
	}

	return holds, nil
}
