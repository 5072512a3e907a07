// Package memstore is an in-process store used for local development and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	emails   map[string]string
	budgets  map[string]*models.Budget // keyed by user id
	expenses map[string]*models.Expense
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		emails:   make(map[string]string),
		budgets:  make(map[string]*models.Budget),
		expenses: make(map[string]*models.Expense),
	}
}

func (s *Store) Ping(ctx context.Context) error  { return nil }
func (s *Store) Close(ctx context.Context) error { return nil }

// ============================================================================
// USERS
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := s.emails[key]; exists {
		return store.ErrDuplicate
	}
	cp := *u
	s.users[u.ID] = &cp
	s.emails[key] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpdateTOTP(ctx context.Context, id, secret string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.TOTPSecret = secret
	u.TOTPEnabled = enabled
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// ============================================================================
// BUDGETS
// ============================================================================

func (s *Store) GetBudget(ctx context.Context, userID string) (*models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *Store) UpsertBudget(ctx context.Context, userID string, amount float64, period string, now time.Time) (*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.budgets[userID]
	if !ok {
		if period == "" {
			period = models.PeriodMonthly
		}
		b = &models.Budget{
			ID:        uuid.NewString(),
			UserID:    userID,
			Period:    period,
			CreatedAt: now,
		}
		s.budgets[userID] = b
	} else if period != "" {
		b.Period = period
	}
	b.Amount = amount
	b.UpdatedAt = now

	cp := *b
	return &cp, nil
}

func (s *Store) CountBudgets(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.budgets)), nil
}

// ============================================================================
// EXPENSES
// ============================================================================

func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expenses[e.ID]; exists {
		return store.ErrDuplicate
	}
	cp := *e
	s.expenses[e.ID] = &cp
	return nil
}

func (s *Store) CreateExpenses(ctx context.Context, es []*models.Expense) error {
	for _, e := range es {
		if err := s.CreateExpense(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string, f models.ExpenseFilter) ([]models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Expense{}
	for _, e := range s.expenses {
		if e.UserID != userID || !matches(e, f) {
			continue
		}
		out = append(out, *e)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func matches(e *models.Expense, f models.ExpenseFilter) bool {
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Date.Before(f.To) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	return true
}

func (s *Store) DeleteExpense(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) SumByCategory(ctx context.Context, userID string, from, to time.Time) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[string]float64)
	f := models.ExpenseFilter{From: from, To: to}
	for _, e := range s.expenses {
		if e.UserID == userID && matches(e, f) {
			totals[e.Category] += e.Amount
		}
	}
	return totals, nil
}

func (s *Store) TotalExpenses(ctx context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, e := range s.expenses {
		total += e.Amount
	}
	return total, nil
}

func (s *Store) ForEachExpense(ctx context.Context, fn func(models.Expense) error) error {
	s.mu.RLock()
	snapshot := make([]models.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		snapshot = append(snapshot, *e)
	}
	s.mu.RUnlock()

	for _, e := range snapshot {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) UpdateClassification(ctx context.Context, id, category, typ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok {
		return store.ErrNotFound
	}
	e.Category = category
	e.Type = typ
	return nil
}
