package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"innkeeper/infras/otel"
	"innkeeper/infras/postgres"
	inventoryModel "innkeeper/internal/domains/inventory/model"
	"innkeeper/internal/domains/pricing/model"
	"innkeeper/shared/constant"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Pricing loads rule and override configuration. Rules whose stored trigger
// payload cannot be decoded are returned with LoadError set instead of
// failing the whole load.
type Pricing interface {
	Rules(ctx context.Context) ([]model.Rule, error)
	Overrides(ctx context.Context) ([]model.Override, error)
	ClosedDates(ctx context.Context, propertyID, categoryID string, stay inventoryModel.StayRange) ([]time.Time, error)
}

type ruleRow struct {
	ID             string          `db:"id"`
	Name           string          `db:"name"`
	PropertyID     string          `db:"property_id"`
	RoomCategoryID sql.NullString  `db:"room_category_id"`
	RuleType       string          `db:"rule_type"`
	Conditions     json.RawMessage `db:"trigger_conditions"`
	Adjustment     json.RawMessage `db:"price_adjustment"`
	Priority       int             `db:"priority"`
	Active         bool            `db:"active"`
	ValidFrom      *time.Time      `db:"valid_from"`
	ValidTo        *time.Time      `db:"valid_to"`
}

func (row ruleRow) toRule() model.Rule {
	rule := model.Rule{
		ID:             row.ID,
		Name:           row.Name,
		PropertyID:     row.PropertyID,
		RoomCategoryID: row.RoomCategoryID.String,
		Type:           model.RuleType(row.RuleType),
		Priority:       row.Priority,
		Active:         row.Active,
		ValidFrom:      row.ValidFrom,
		ValidTo:        row.ValidTo,
	}

	if err := json.Unmarshal(row.Adjustment, &rule.Adjustment); err != nil {
		rule.LoadError = fmt.Sprintf("malformed price adjustment: %v", err)

		return rule
	}

	if !rule.Adjustment.Valid() {
		rule.LoadError = fmt.Sprintf("unknown adjustment kind %q", rule.Adjustment.Kind)

		return rule
	}

	condition, err := model.DecodeCondition(rule.Type, row.Conditions)
	if err != nil {
		rule.LoadError = err.Error()

		return rule
	}

	rule.Condition = condition

	return rule
}

type repositoryImpl struct {
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Pricing {
	return &repositoryImpl{
		db:   db,
		otel: otel,
	}
}

const selectRules = `
SELECT id, name, property_id, room_category_id, rule_type, trigger_conditions, price_adjustment, priority, active, valid_from, valid_to
FROM pricing_rules
ORDER BY priority DESC, id`

func (repo *repositoryImpl) Rules(ctx context.Context) (rules []model.Rule, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Rules")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, selectRules)

	var rows []ruleRow
	err = sqlx.SelectContext(ctx, repo.db.Reader(ctx), &rows, selectRules)
	if err != nil {
		log.Error().Err(err).Msg("failed to select pricing rules")

		return nil, fmt.Errorf("failed to select pricing rules: %w", err)
	}

	rules = make([]model.Rule, 0, len(rows))
	for _, row := range rows {
		rule := row.toRule()
		if rule.LoadError != "" {
			log.Warn().Str("ruleId", rule.ID).Str("reason", rule.LoadError).Msg("pricing rule failed to load")
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

const selectOverrides = `
SELECT property_id, room_category_id, stay_date, multiplier, min_rate, max_rate, closed_out
FROM rate_overrides`

func (repo *repositoryImpl) Overrides(ctx context.Context) (overrides []model.Override, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".Overrides")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, selectOverrides)

	err = sqlx.SelectContext(ctx, repo.db.Reader(ctx), &overrides, selectOverrides)
	if err != nil {
		log.Error().Err(err).Msg("failed to select rate overrides")

		return nil, fmt.Errorf("failed to select rate overrides: %w", err)
	}

	return overrides, nil
}

const selectClosedDates = `
SELECT stay_date FROM rate_overrides
WHERE property_id = $1 AND room_category_id = $2 AND closed_out = TRUE AND stay_date >= $3 AND stay_date < $4
ORDER BY stay_date`

func (repo *repositoryImpl) ClosedDates(ctx context.Context, propertyID, categoryID string, stay inventoryModel.StayRange) (dates []time.Time, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+"."+model.EntityName+".ClosedDates")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelQueryAttributeKey, selectClosedDates)

	err = sqlx.SelectContext(ctx, repo.db.Reader(ctx), &dates, selectClosedDates, propertyID, categoryID, stay.CheckIn, stay.CheckOut)
	if err != nil {
		log.Error().Err(err).Msg("failed to select closed-out dates")

		return nil, fmt.Errorf("failed to select closed-out dates: %w", err)
	}

	return dates, nil
}
