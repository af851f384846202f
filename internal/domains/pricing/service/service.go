package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"innkeeper/infras/otel"
	inventoryModel "innkeeper/internal/domains/inventory/model"
	"innkeeper/internal/domains/pricing/model"
	"innkeeper/internal/domains/pricing/repository"
	"innkeeper/internal/events"
	"innkeeper/shared/constant"

	"github.com/rs/zerolog/log"
)

// Engine computes rate quotes from the loaded rule configuration. The rule
// set is an immutable snapshot swapped atomically on reload, so an in-flight
// quote always sees one consistent configuration.
type Engine interface {
	Quote(ctx context.Context, propertyID, categoryID string, date time.Time, baseRate float64, qc model.QuoteContext) (model.Quote, error)
	Reload(ctx context.Context) error
	Invalidate(ctx context.Context) error
}

type overrideKey struct {
	propertyID string
	categoryID string
	date       string
}

type ruleset struct {
	rules     []model.Rule
	overrides map[overrideKey]model.Override
}

func (rs *ruleset) override(propertyID, categoryID string, date time.Time) (model.Override, bool) {
	override, ok := rs.overrides[overrideKey{
		propertyID: propertyID,
		categoryID: categoryID,
		date:       date.Format(constant.StayDateFormat),
	}]

	return override, ok
}

type serviceImpl struct {
	repo       repository.Pricing
	dispatcher events.Dispatcher
	otel       otel.Otel
	snapshot   atomic.Pointer[ruleset]
}

func New(repo repository.Pricing, dispatcher events.Dispatcher, otel otel.Otel) Engine {
	return &serviceImpl{
		repo:       repo,
		dispatcher: dispatcher,
		otel:       otel,
	}
}

func (s *serviceImpl) Quote(ctx context.Context, propertyID, categoryID string, date time.Time, baseRate float64, qc model.QuoteContext) (quote model.Quote, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".pricing.Quote")
	defer scope.End()
	defer scope.TraceIfError(err)

	snapshot, err := s.current(ctx)
	if err != nil {
		return model.Quote{}, err
	}

	date = inventoryModel.Midnight(date)

	override, hasOverride := snapshot.override(propertyID, categoryID, date)
	if hasOverride && override.ClosedOut {
		return model.Quote{}, inventoryModel.ErrDateClosedOut
	}

	quote = model.Quote{
		PropertyID:     propertyID,
		RoomCategoryID: categoryID,
		Date:           date,
		BaseRate:       model.RoundRate(baseRate),
	}

	rate := quote.BaseRate
	for _, rule := range snapshot.rules {
		if !rule.Active || !rule.InScope(propertyID, categoryID, date) {
			continue
		}

		if rule.LoadError != "" {
			quote.Applied = append(quote.Applied, model.AppliedRule{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Skipped:  true,
				Reason:   rule.LoadError,
			})

			continue
		}

		if !rule.Condition.Match(date, qc) {
			continue
		}

		previous := rate
		applied := model.AppliedRule{RuleID: rule.ID, RuleName: rule.Name}

		if multiplier, ok := rule.Condition.Multiplier(date, qc); ok {
			rate = model.RoundRate(rate * multiplier)
			applied.Multiplier = multiplier
		} else {
			rate = model.RoundRate(rule.Adjustment.Apply(rate))
		}

		rate = model.RoundRate(model.Clamp(rate, rule.Adjustment.MinRate, rule.Adjustment.MaxRate))
		applied.Delta = model.RoundRate(rate - previous)
		quote.Applied = append(quote.Applied, applied)
	}

	if hasOverride {
		previous := rate
		rate = model.RoundRate(rate * override.Multiplier)
		rate = model.RoundRate(model.Clamp(rate, override.MinRate, override.MaxRate))
		quote.Override = &model.AppliedOverride{
			Multiplier: override.Multiplier,
			MinRate:    override.MinRate,
			MaxRate:    override.MaxRate,
			Delta:      model.RoundRate(rate - previous),
		}
	}

	quote.FinalRate = rate

	return quote, nil
}

// Reload builds a fresh snapshot from the configuration store and swaps it
// in. Rules sort by descending priority with the ID as a stable tie-break,
// which fixes the evaluation order for identical priorities.
func (s *serviceImpl) Reload(ctx context.Context) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".pricing.Reload")
	defer scope.End()
	defer scope.TraceIfError(err)

	rules, err := s.repo.Rules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pricing rules: %w", err)
	}

	overrides, err := s.repo.Overrides(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rate overrides: %w", err)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}

		return rules[i].ID < rules[j].ID
	})

	index := make(map[overrideKey]model.Override, len(overrides))
	for _, override := range overrides {
		date := inventoryModel.Midnight(override.Date)
		index[overrideKey{
			propertyID: override.PropertyID,
			categoryID: override.RoomCategoryID,
			date:       date.Format(constant.StayDateFormat),
		}] = override
	}

	s.snapshot.Store(&ruleset{rules: rules, overrides: index})

	log.Info().Int("rules", len(rules)).Int("overrides", len(overrides)).Msg("pricing configuration loaded")

	return nil
}

// Invalidate reloads immediately and announces the rate change to
// distribution channels.
func (s *serviceImpl) Invalidate(ctx context.Context) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".pricing.Invalidate")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.Reload(ctx); err != nil {
		return err
	}

	snapshot := s.snapshot.Load()
	properties := make(map[string]bool)
	for _, rule := range snapshot.rules {
		properties[rule.PropertyID] = true
	}
	for key := range snapshot.overrides {
		properties[key.propertyID] = true
	}

	for propertyID := range properties {
		// Zero dates mean the change covers the whole rate calendar.
		s.dispatcher.Publish(ctx, events.NewRateChanged(propertyID, "", time.Time{}, time.Time{}))
	}

	return nil
}

func (s *serviceImpl) current(ctx context.Context) (*ruleset, error) {
	if snapshot := s.snapshot.Load(); snapshot != nil {
		return snapshot, nil
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}

	return s.snapshot.Load(), nil
}
