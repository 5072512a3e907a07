// Package store defines the persistence ports used by the services and the
// errors every backend maps its driver failures onto.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mindspend/mindspend-api/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserStore interface {
	// CreateUser returns ErrDuplicate when the email is already taken.
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateTOTP(ctx context.Context, id, secret string, enabled bool) error
	CountUsers(ctx context.Context) (int64, error)
}

type BudgetStore interface {
	GetBudget(ctx context.Context, userID string) (*models.Budget, error)
	// UpsertBudget atomically creates or updates the single budget owned by
	// userID. An empty period keeps the stored one, or "monthly" on insert.
	UpsertBudget(ctx context.Context, userID string, amount float64, period string, now time.Time) (*models.Budget, error)
	CountBudgets(ctx context.Context) (int64, error)
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *models.Expense) error
	CreateExpenses(ctx context.Context, es []*models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	// ListExpenses returns the user's expenses, most recent date first.
	ListExpenses(ctx context.Context, userID string, f models.ExpenseFilter) ([]models.Expense, error)
	// DeleteExpense removes the expense only if userID owns it.
	DeleteExpense(ctx context.Context, id, userID string) error
	// SumByCategory totals amounts dated in [from, to).
	SumByCategory(ctx context.Context, userID string, from, to time.Time) (map[string]float64, error)
	TotalExpenses(ctx context.Context) (float64, error)
	// ForEachExpense visits every expense in the store, used by backfills.
	ForEachExpense(ctx context.Context, fn func(models.Expense) error) error
	UpdateClassification(ctx context.Context, id, category, typ string) error
}

// Store is the full persistence surface a backend provides.
type Store interface {
	UserStore
	BudgetStore
	ExpenseStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
