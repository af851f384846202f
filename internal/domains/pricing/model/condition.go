package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Condition is the trigger side of a rule, one variant per rule type. Match
// decides whether the rule fires for the queried date and context;
// Multiplier returns a table-driven factor when the variant carries one, in
// which case the engine multiplies the running rate instead of applying the
// rule's adjustment. The factor applies to the rate as adjusted by every
// higher-priority rule, not to the base rate, so multipliers from several
// rules compound.
type Condition interface {
	Match(date time.Time, qc QuoteContext) bool
	Multiplier(date time.Time, qc QuoteContext) (float64, bool)
}

// OccupancyBracket maps an occupancy floor to a rate multiplier.
type OccupancyBracket struct {
	MinOccupancy float64 `json:"minOccupancy"`
	Multiplier   float64 `json:"multiplier"`
}

// OccupancyCondition fires when forecast occupancy reaches Threshold. With
// brackets, the highest bracket at or below the occupancy supplies the
// multiplier.
type OccupancyCondition struct {
	Threshold float64            `json:"threshold"`
	Brackets  []OccupancyBracket `json:"brackets,omitempty"`
}

func (c OccupancyCondition) Match(_ time.Time, qc QuoteContext) bool {
	if qc.OccupancyRate < c.Threshold {
		return false
	}

	if len(c.Brackets) > 0 {
		_, ok := c.Multiplier(time.Time{}, qc)
		return ok
	}

	return true
}

func (c OccupancyCondition) Multiplier(_ time.Time, qc QuoteContext) (float64, bool) {
	var (
		best  float64
		found bool
	)
	bestFloor := -1.0
	for _, bracket := range c.Brackets {
		if qc.OccupancyRate >= bracket.MinOccupancy && bracket.MinOccupancy > bestFloor {
			best = bracket.Multiplier
			bestFloor = bracket.MinOccupancy
			found = true
		}
	}

	return best, found
}

// LeadTimeCondition fires when the booking lead time falls inside
// [MinDays, MaxDays]. MaxDays <= 0 means no upper bound.
type LeadTimeCondition struct {
	MinDays int `json:"minDays"`
	MaxDays int `json:"maxDays"`
}

func (c LeadTimeCondition) Match(_ time.Time, qc QuoteContext) bool {
	if qc.LeadTimeDays < c.MinDays {
		return false
	}

	return c.MaxDays <= 0 || qc.LeadTimeDays <= c.MaxDays
}

func (c LeadTimeCondition) Multiplier(time.Time, QuoteContext) (float64, bool) {
	return 0, false
}

// DayOfWeekCondition fires on the listed weekdays. Multipliers, when set,
// supply a per-weekday factor.
type DayOfWeekCondition struct {
	Days        []time.Weekday           `json:"days"`
	Multipliers map[time.Weekday]float64 `json:"-"`
	RawTable    map[string]float64       `json:"multipliers,omitempty"`
}

func (c DayOfWeekCondition) Match(date time.Time, _ QuoteContext) bool {
	weekday := date.Weekday()
	for _, day := range c.Days {
		if day == weekday {
			return true
		}
	}

	if len(c.Days) == 0 {
		_, ok := c.Multipliers[weekday]
		return ok
	}

	return false
}

func (c DayOfWeekCondition) Multiplier(date time.Time, _ QuoteContext) (float64, bool) {
	mult, ok := c.Multipliers[date.Weekday()]

	return mult, ok
}

// SeasonalCondition fires when the date falls inside a month-day window.
// The window may wrap the year end (e.g. Dec 20 to Jan 05).
type SeasonalCondition struct {
	StartMonth int `json:"startMonth"`
	StartDay   int `json:"startDay"`
	EndMonth   int `json:"endMonth"`
	EndDay     int `json:"endDay"`
}

func (c SeasonalCondition) Match(date time.Time, _ QuoteContext) bool {
	point := int(date.Month())*100 + date.Day()
	start := c.StartMonth*100 + c.StartDay
	end := c.EndMonth*100 + c.EndDay

	if start <= end {
		return point >= start && point <= end
	}

	// Window wraps the year boundary.
	return point >= start || point <= end
}

func (c SeasonalCondition) Multiplier(time.Time, QuoteContext) (float64, bool) {
	return 0, false
}

// EventCondition fires when any configured tag appears in the context's
// event tags.
type EventCondition struct {
	Tags []string `json:"tags"`
}

func (c EventCondition) Match(_ time.Time, qc QuoteContext) bool {
	for _, tag := range c.Tags {
		for _, have := range qc.EventTags {
			if strings.EqualFold(tag, have) {
				return true
			}
		}
	}

	return false
}

func (c EventCondition) Multiplier(time.Time, QuoteContext) (float64, bool) {
	return 0, false
}

const (
	CompetitorBelow = "below"
	CompetitorAbove = "above"
)

// CompetitorCondition fires when the competitor rate crosses Threshold in
// the configured direction. A zero competitor rate means the signal is
// absent and the rule never fires.
type CompetitorCondition struct {
	Threshold float64 `json:"threshold"`
	Direction string  `json:"direction"`
}

func (c CompetitorCondition) Match(_ time.Time, qc QuoteContext) bool {
	if qc.CompetitorRate <= 0 {
		return false
	}

	if c.Direction == CompetitorAbove {
		return qc.CompetitorRate >= c.Threshold
	}

	return qc.CompetitorRate <= c.Threshold
}

func (c CompetitorCondition) Multiplier(time.Time, QuoteContext) (float64, bool) {
	return 0, false
}

// DecodeCondition parses the stored trigger payload for the given rule
// type. Unknown types and malformed payloads return an error; the caller
// keeps the rule with its load error so quotes can report the skip.
func DecodeCondition(ruleType RuleType, raw []byte) (Condition, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("rule type %s: empty trigger conditions", ruleType)
	}

	switch ruleType {
	case RuleTypeOccupancy:
		var c OccupancyCondition
		if err := strictUnmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("rule type %s: %w", ruleType, err)
		}
		if c.Threshold < 0 || c.Threshold > 1 {
			return nil, fmt.Errorf("rule type %s: threshold %v outside [0,1]", ruleType, c.Threshold)
		}
		sort.Slice(c.Brackets, func(i, j int) bool {
			return c.Brackets[i].MinOccupancy < c.Brackets[j].MinOccupancy
		})

		return c, nil

	case RuleTypeLeadTime:
		var c LeadTimeCondition
		if err := strictUnmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("rule type %s: %w", ruleType, err)
		}
		if c.MinDays < 0 {
			return nil, fmt.Errorf("rule type %s: negative minDays", ruleType)
		}

		return c, nil

	case RuleTypeDayOfWeek:
		var c DayOfWeekCondition
		if err := strictUnmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("rule type %s: %w", ruleType, err)
		}
		c.Multipliers = make(map[time.Weekday]float64, len(c.RawTable))
		for name, mult := range c.RawTable {
			day, err := parseWeekday(name)
			if err != nil {
				return nil, fmt.Errorf("rule type %s: %w", ruleType, err)
			}
			c.Multipliers[day] = mult
		}
		if len(c.Days) == 0 && len(c.Multipliers) == 0 {
			return nil, fmt.Errorf("rule type %s: no days configured", ruleType)
		}

		return c, nil

	case RuleTypeSeasonal:
		var c SeasonalCondition
		if err := strictUnmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("rule type %s: %w", ruleType, err)
		}
		if !validMonthDay(c.StartMonth, c.StartDay) || !validMonthDay(c.EndMonth, c.EndDay) {
			return nil, fmt.Errorf("rule type %s: invalid season window", ruleType)
		}

		return c, nil

	case RuleTypeEvent:
		var c EventCondition
		if err := strictUnmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("rule type %s: %w", ruleType, err)
		}
		if len(c.Tags) == 0 {
			return nil, fmt.Errorf("rule type %s: no tags configured", ruleType)
		}

		return c, nil

	case RuleTypeCompetitor:
		var c CompetitorCondition
		if err := strictUnmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("rule type %s: %w", ruleType, err)
		}
		if c.Direction != CompetitorAbove && c.Direction != CompetitorBelow {
			return nil, fmt.Errorf("rule type %s: direction must be %q or %q", ruleType, CompetitorAbove, CompetitorBelow)
		}
		if c.Threshold <= 0 {
			return nil, fmt.Errorf("rule type %s: non-positive threshold", ruleType)
		}

		return c, nil

	default:
		return nil, fmt.Errorf("unknown rule type %q", ruleType)
	}
}

func strictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed trigger conditions: %w", err)
	}

	return nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(day.String(), name) {
			return day, nil
		}
	}

	return 0, fmt.Errorf("unknown weekday %q", name)
}

func validMonthDay(month, day int) bool {
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}
