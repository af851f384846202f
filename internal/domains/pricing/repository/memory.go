package repository

import (
	"context"
	"sync"
	"time"

	inventoryModel "innkeeper/internal/domains/inventory/model"
	"innkeeper/internal/domains/pricing/model"
)

// Memory is an in-process Pricing implementation seeded by tests and the
// dev backend.
type Memory struct {
	mu        sync.RWMutex
	rules     []model.Rule
	overrides []model.Override
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SetRules(rules ...model.Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append([]model.Rule(nil), rules...)
}

func (m *Memory) SetOverrides(overrides ...model.Override) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.overrides = make([]model.Override, 0, len(overrides))
	for _, override := range overrides {
		override.Date = inventoryModel.Midnight(override.Date)
		m.overrides = append(m.overrides, override)
	}
}

func (m *Memory) Rules(context.Context) ([]model.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.Rule(nil), m.rules...), nil
}

func (m *Memory) Overrides(context.Context) ([]model.Override, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.Override(nil), m.overrides...), nil
}

func (m *Memory) ClosedDates(_ context.Context, propertyID, categoryID string, stay inventoryModel.StayRange) ([]time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var dates []time.Time
	for _, override := range m.overrides {
		if override.ClosedOut &&
			override.PropertyID == propertyID &&
			override.RoomCategoryID == categoryID &&
			stay.Contains(override.Date) {
			dates = append(dates, override.Date)
		}
	}

	return dates, nil
}
