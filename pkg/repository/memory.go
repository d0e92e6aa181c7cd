package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/washp/pkg/model"
)

// Memory is an in-process Repository. Items are kept in insertion order.
type Memory struct {
	mu       sync.RWMutex
	history  []*model.HistoryItem
	users    map[model.UserID]*model.User
	accounts map[model.UserID]*model.LocalAccount

	orderedQueryErr error
}

type MemoryOption func(*Memory)

// WithOrderedQueryError makes ListHistory fail with err, mimicking a store
// that cannot serve the ordered query.
func WithOrderedQueryError(err error) MemoryOption {
	return func(m *Memory) {
		m.orderedQueryErr = err
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		users:    make(map[model.UserID]*model.User),
		accounts: make(map[model.UserID]*model.LocalAccount),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Repository = (*Memory)(nil)

func (m *Memory) Close() error { return nil }

func (m *Memory) PutHistory(_ context.Context, item *model.HistoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.ID == "" {
		item.ID = model.NewHistoryID()
	}

	stored := copyHistory(item)
	if i := m.historyIndex(item.ID); i >= 0 {
		m.history[i] = stored
		return nil
	}
	m.history = append(m.history, stored)
	return nil
}

func (m *Memory) GetHistory(_ context.Context, id model.HistoryID) (*model.HistoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.historyIndex(id)
	if i < 0 {
		return nil, goerr.Wrap(ErrNotFound, "history not found", goerr.V("id", id))
	}
	return copyHistory(m.history[i]), nil
}

func (m *Memory) ListHistory(ctx context.Context, userID model.UserID) ([]*model.HistoryItem, error) {
	if m.orderedQueryErr != nil {
		return nil, goerr.Wrap(m.orderedQueryErr, "ordered query failed", goerr.V("user_id", userID))
	}

	items, err := m.ListHistoryUnordered(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortByDateDesc(items)
	return items, nil
}

func (m *Memory) ListHistoryUnordered(_ context.Context, userID model.UserID) ([]*model.HistoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var items []*model.HistoryItem
	for _, item := range m.history {
		if item.UserID == userID {
			items = append(items, copyHistory(item))
		}
	}
	return items, nil
}

func (m *Memory) DeleteHistory(_ context.Context, id model.HistoryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.historyIndex(id); i >= 0 {
		m.history = slices.Delete(m.history, i, i+1)
	}
	return nil
}

func (m *Memory) DeleteHistoryByUser(_ context.Context, userID model.UserID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.history)
	m.history = slices.DeleteFunc(m.history, func(item *model.HistoryItem) bool {
		return item.UserID == userID
	})
	return before - len(m.history), nil
}

func (m *Memory) PutUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := *user
	m.users[user.ID] = &u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id model.UserID) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("uid", id))
	}
	u := *user
	return &u, nil
}

func (m *Memory) DeleteUser(_ context.Context, id model.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, id)
	return nil
}

func (m *Memory) PutLocalAccount(_ context.Context, account *model.LocalAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := *account
	a.Email = model.NormalizeEmail(a.Email)
	m.accounts[account.UserID] = &a
	return nil
}

func (m *Memory) GetLocalAccount(_ context.Context, uid model.UserID) (*model.LocalAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[uid]
	if !ok {
		return nil, nil
	}
	a := *account
	return &a, nil
}

func (m *Memory) FindLocalAccountByEmail(_ context.Context, email string) (*model.LocalAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = model.NormalizeEmail(email)
	for _, account := range m.accounts {
		if account.Email == email {
			a := *account
			return &a, nil
		}
	}
	return nil, nil
}

func (m *Memory) DeleteLocalAccount(_ context.Context, uid model.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.accounts, uid)
	return nil
}

func (m *Memory) historyIndex(id model.HistoryID) int {
	return slices.IndexFunc(m.history, func(item *model.HistoryItem) bool {
		return item.ID == id
	})
}

func copyHistory(item *model.HistoryItem) *model.HistoryItem {
	c := *item
	c.AnalysisResult = item.AnalysisResult.Clone()
	return &c
}

// SortByDateDesc orders items newest first. Items with equal dates keep
// their relative order.
func SortByDateDesc(items []*model.HistoryItem) {
	slices.SortStableFunc(items, func(a, b *model.HistoryItem) int {
		return b.Date.Compare(a.Date)
	})
}
