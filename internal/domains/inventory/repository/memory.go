package repository

import (
	"context"
	"sort"
	"sync"

	"innkeeper/internal/domains/inventory/model"
)

type memTxKey struct{}

// Memory is an in-process Inventory implementation. All writes go through
// WithTx, which serializes on a store-wide mutex and restores a snapshot on
// error, so a failed transaction never leaves a partially applied range.
type Memory struct {
	mu   sync.Mutex
	days map[string]model.InventoryDay
}

func NewMemory() *Memory {
	return &Memory{
		days: make(map[string]model.InventoryDay),
	}
}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]model.InventoryDay, len(m.days))
	for k, v := range m.days {
		snapshot[k] = v
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, m)); err != nil {
		m.days = snapshot
		return err
	}

	return nil
}

func (m *Memory) WithoutTx(ctx context.Context) context.Context {
	if ctx.Value(memTxKey{}) == nil {
		return ctx
	}
	return context.WithValue(ctx, memTxKey{}, nil)
}

func (m *Memory) lockedOutsideTx(ctx context.Context) bool {
	return ctx.Value(memTxKey{}) == nil
}

func (m *Memory) Days(ctx context.Context, propertyID, categoryID string, stay model.StayRange) ([]model.InventoryDay, error) {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	return m.daysLocked(propertyID, categoryID, stay), nil
}

func (m *Memory) DaysForUpdate(ctx context.Context, propertyID, categoryID string, stay model.StayRange) ([]model.InventoryDay, error) {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	return m.daysLocked(propertyID, categoryID, stay), nil
}

func (m *Memory) daysLocked(propertyID, categoryID string, stay model.StayRange) []model.InventoryDay {
	var days []model.InventoryDay
	for _, date := range stay.Dates() {
		key := propertyID + ":" + categoryID + ":" + date.Format("2006-01-02")
		if day, ok := m.days[key]; ok {
			days = append(days, day)
		}
	}

	return days
}

func (m *Memory) SaveDays(ctx context.Context, days []model.InventoryDay) error {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	for _, day := range days {
		day.Date = model.Midnight(day.Date)
		m.days[day.Key()] = day
	}

	return nil
}

func (m *Memory) Keys(ctx context.Context) ([]InventoryKey, error) {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	seen := make(map[InventoryKey]bool)
	for _, day := range m.days {
		seen[InventoryKey{PropertyID: day.PropertyID, RoomCategoryID: day.RoomCategoryID}] = true
	}

	keys := make([]InventoryKey, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PropertyID != keys[j].PropertyID {
			return keys[i].PropertyID < keys[j].PropertyID
		}
		return keys[i].RoomCategoryID < keys[j].RoomCategoryID
	})

	return keys, nil
}
