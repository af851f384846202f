package model

import (
	"math"
	"time"
)

type RuleType string

const (
	RuleTypeOccupancy  RuleType = "occupancy_based"
	RuleTypeLeadTime   RuleType = "lead_time"
	RuleTypeDayOfWeek  RuleType = "day_of_week"
	RuleTypeSeasonal   RuleType = "seasonal"
	RuleTypeEvent      RuleType = "event_based"
	RuleTypeCompetitor RuleType = "competitor_based"
)

type AdjustmentKind string

const (
	AdjustPercentage   AdjustmentKind = "percentage"
	AdjustFixedAmount  AdjustmentKind = "fixed_amount"
	AdjustAbsoluteRate AdjustmentKind = "absolute_rate"
)

// Adjustment changes the running rate. Value is a percent delta, a currency
// delta, or the replacement rate depending on Kind. Min/Max clamp the rate
// after the adjustment.
type Adjustment struct {
	Kind    AdjustmentKind `json:"kind"`
	Value   float64        `json:"value"`
	MinRate *float64       `json:"minRate,omitempty"`
	MaxRate *float64       `json:"maxRate,omitempty"`
}

func (a Adjustment) Apply(rate float64) float64 {
	switch a.Kind {
	case AdjustPercentage:
		rate *= 1 + a.Value/100
	case AdjustFixedAmount:
		rate += a.Value
	case AdjustAbsoluteRate:
		rate = a.Value
	}

	return Clamp(rate, a.MinRate, a.MaxRate)
}

func (a Adjustment) Valid() bool {
	switch a.Kind {
	case AdjustPercentage, AdjustFixedAmount, AdjustAbsoluteRate:
		return true
	default:
		return false
	}
}

// Rule is one configured condition/adjustment pair. Condition is nil when
// the stored trigger payload could not be decoded; such a rule is skipped at
// quote time and the skip is recorded in the breakdown.
type Rule struct {
	ID             string
	Name           string
	PropertyID     string
	RoomCategoryID string
	Type           RuleType
	Condition      Condition
	Adjustment     Adjustment
	Priority       int
	Active         bool
	ValidFrom      *time.Time
	ValidTo        *time.Time
	LoadError      string
}

// InScope reports whether the rule applies to the queried category and stay
// date. A rule without a category scope covers every category of its
// property.
func (r Rule) InScope(propertyID, categoryID string, date time.Time) bool {
	if r.PropertyID != propertyID {
		return false
	}

	if r.RoomCategoryID != "" && r.RoomCategoryID != categoryID {
		return false
	}

	if r.ValidFrom != nil && date.Before(*r.ValidFrom) {
		return false
	}

	if r.ValidTo != nil && date.After(*r.ValidTo) {
		return false
	}

	return true
}

// Override is a manual per-date intervention applied after all rules. A
// closed-out override makes the date unsellable.
type Override struct {
	PropertyID     string    `db:"property_id"`
	RoomCategoryID string    `db:"room_category_id"`
	Date           time.Time `db:"stay_date"`
	Multiplier     float64   `db:"multiplier"`
	MinRate        *float64  `db:"min_rate"`
	MaxRate        *float64  `db:"max_rate"`
	ClosedOut      bool      `db:"closed_out"`
}

// QuoteContext carries the demand signals a quote is computed against.
// Occupancy and competitor rate come from external forecasting collaborators
// and are opaque to the engine.
type QuoteContext struct {
	OccupancyRate  float64  `json:"occupancyRate" validate:"gte=0,lte=1"`
	LeadTimeDays   int      `json:"leadTimeDays" validate:"gte=0"`
	EventTags      []string `json:"eventTags"`
	CompetitorRate float64  `json:"competitorRate" validate:"gte=0"`
}

// AppliedRule is one line of the quote breakdown. Either the rule changed
// the running rate (Delta, and Multiplier when a multiplier table fired) or
// it was skipped as unevaluable (Skipped plus Reason).
type AppliedRule struct {
	RuleID     string  `json:"ruleId"`
	RuleName   string  `json:"ruleName"`
	Delta      float64 `json:"delta"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Skipped    bool    `json:"skipped,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// AppliedOverride records the final manual clamp step of a quote.
type AppliedOverride struct {
	Multiplier float64  `json:"multiplier"`
	MinRate    *float64 `json:"minRate,omitempty"`
	MaxRate    *float64 `json:"maxRate,omitempty"`
	Delta      float64  `json:"delta"`
}

// Quote is the computed price for one category and date, with the ordered
// trail of rules that produced it.
type Quote struct {
	PropertyID     string           `json:"propertyId"`
	RoomCategoryID string           `json:"roomCategoryId"`
	Date           time.Time        `json:"date"`
	BaseRate       float64          `json:"baseRate"`
	FinalRate      float64          `json:"finalRate"`
	Applied        []AppliedRule    `json:"applied"`
	Override       *AppliedOverride `json:"override,omitempty"`
}

func Clamp(rate float64, minRate, maxRate *float64) float64 {
	if minRate != nil && rate < *minRate {
		rate = *minRate
	}

	if maxRate != nil && rate > *maxRate {
		rate = *maxRate
	}

	return rate
}

// RoundRate rounds to cents, half away from zero. Applied after every step
// so a quote is a stable function of its inputs.
func RoundRate(rate float64) float64 {
	return math.Round(rate*100) / 100
}

const (
	RuleTableName     = "pricing_rules"
	OverrideTableName = "rate_overrides"
	EntityName        = "pricing"
)
