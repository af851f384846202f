package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"innkeeper/internal/domains/hold/model"

	"github.com/google/btree"
)

type memTxKey struct{}

type expiryItem struct {
	expiresAt time.Time
	id        string
}

func expiryLess(a, b expiryItem) bool {
	if !a.expiresAt.Equal(b.expiresAt) {
		return a.expiresAt.Before(b.expiresAt)
	}

	return a.id < b.id
}

// Memory is an in-process Hold implementation. An ordered expiry index keeps
// ListExpired from scanning every hold.
type Memory struct {
	mu     sync.Mutex
	holds  map[string]model.Hold
	expiry *btree.BTreeG[expiryItem]
}

func NewMemory() *Memory {
	return &Memory{
		holds:  make(map[string]model.Hold),
		expiry: btree.NewG(2, expiryLess),
	}
}

func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[string]model.Hold, len(m.holds))
	for k, v := range m.holds {
		snapshot[k] = v
	}
	index := m.expiry.Clone()

	if err := fn(context.WithValue(ctx, memTxKey{}, m)); err != nil {
		m.holds = snapshot
		m.expiry = index
		return err
	}

	return nil
}

func (m *Memory) lockedOutsideTx(ctx context.Context) bool {
	return ctx.Value(memTxKey{}) == nil
}

func (m *Memory) Create(ctx context.Context, hold model.Hold) error {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	m.holds[hold.ID] = hold
	if hold.Status == model.HoldStatusActive {
		m.expiry.ReplaceOrInsert(expiryItem{expiresAt: hold.ExpiresAt, id: hold.ID})
	}

	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (model.Hold, error) {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	hold, ok := m.holds[id]
	if !ok {
		return model.Hold{}, model.ErrHoldNotFound
	}

	return hold, nil
}

func (m *Memory) GetForUpdate(ctx context.Context, id string) (model.Hold, error) {
	return m.Get(ctx, id)
}

func (m *Memory) Update(ctx context.Context, hold model.Hold) error {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	previous, ok := m.holds[hold.ID]
	if !ok {
		return model.ErrHoldNotFound
	}

	if previous.Status == model.HoldStatusActive {
		m.expiry.Delete(expiryItem{expiresAt: previous.ExpiresAt, id: previous.ID})
	}
	if hold.Status == model.HoldStatusActive {
		m.expiry.ReplaceOrInsert(expiryItem{expiresAt: hold.ExpiresAt, id: hold.ID})
	}

	m.holds[hold.ID] = hold

	return nil
}

func (m *Memory) ListActiveBySession(ctx context.Context, sessionID string, now time.Time) ([]model.Hold, error) {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	var holds []model.Hold
	for _, hold := range m.holds {
		if hold.SessionID == sessionID && hold.Active(now) {
			holds = append(holds, hold)
		}
	}

	sort.Slice(holds, func(i, j int) bool {
		return holds[i].CreatedAt.Before(holds[j].CreatedAt)
	})

	return holds, nil
}

func (m *Memory) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Hold, error) {
	if m.lockedOutsideTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}

	var holds []model.Hold
	m.expiry.Ascend(func(item expiryItem) bool {
		if item.expiresAt.After(now) {
			return false
		}

		if hold, ok := m.holds[item.id]; ok {
			holds = append(holds, hold)
		}

		return limit <= 0 || len(holds) < limit
	})

	return holds, nil
}
