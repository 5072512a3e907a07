package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindspend/mindspend-api/models"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-03-05", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"2026-03-05T22:30:00Z", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), false},
		{"2026-03-05T23:30:00-02:00", time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), false},
		{"05/03/2026", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddExpense(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AlertConfig{})
	env.createUser(t, "u1", "a@x.com")

	resp, err := env.expenses.Add(ctx, "u1", models.AddExpenseRequest{
		Title:    " Weekly shop ",
		Amount:   42.5,
		Category: "Groceries",
		Notes:    "market",
	})
	require.NoError(t, err)

	e := resp.Expense
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "Weekly shop", e.Title)
	assert.Equal(t, "groceries", e.Category)
	assert.Equal(t, models.TypeNeed, e.Type)
	assert.Equal(t, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC), e.Date)
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.NotNil(t, resp.Alerts)
}

func TestAddExpenseValidation(t *testing.T) {
	env := newTestEnv(t, AlertConfig{})

	tests := []struct {
		name string
		req  models.AddExpenseRequest
		err  error
	}{
		{"zero amount", models.AddExpenseRequest{Amount: 0, Category: "food"}, ErrInvalidAmount},
		{"negative amount", models.AddExpenseRequest{Amount: -5, Category: "food"}, ErrInvalidAmount},
		{"blank category", models.AddExpenseRequest{Amount: 5, Category: "  "}, ErrValidation},
		{"bad date", models.AddExpenseRequest{Amount: 5, Category: "food", Date: "yesterday"}, ErrValidation},
		{"long category", models.AddExpenseRequest{Amount: 5, Category: strings.Repeat("c", maxCategoryLen+1)}, ErrValidation},
		{"long title", models.AddExpenseRequest{Amount: 5, Category: "food", Title: strings.Repeat("t", maxTitleLen+1)}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.expenses.Add(context.Background(), "u1", tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	n, err := env.store.TotalExpenses(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListExpenses(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AlertConfig{})
	env.createUser(t, "u1", "a@x.com")
	env.createUser(t, "u2", "b@x.com")

	env.addExpense(t, "u1", 10, "food", "2026-03-01")
	env.addExpense(t, "u1", 20, "rent", "2026-03-10")
	env.addExpense(t, "u2", 30, "food", "2026-03-05")

	_, err := env.expenses.List(ctx, "u1", "u2", models.ExpenseFilter{})
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := env.expenses.List(ctx, "u1", "u1", models.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 20.0, all[0].Amount)
	assert.Equal(t, 10.0, all[1].Amount)

	implicit, err := env.expenses.List(ctx, "u1", "", models.ExpenseFilter{Category: "FOOD"})
	require.NoError(t, err)
	require.Len(t, implicit, 1)
	assert.Equal(t, "food", implicit[0].Category)
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AlertConfig{})
	env.createUser(t, "u1", "a@x.com")
	env.createUser(t, "u2", "b@x.com")

	mine := env.addExpense(t, "u1", 10, "food", "2026-03-01").Expense

	assert.ErrorIs(t, env.expenses.Delete(ctx, "u2", mine.ID), ErrForbidden)
	_, err := env.store.GetExpense(ctx, mine.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.expenses.Delete(ctx, "u1", "missing"), ErrNotFound)

	require.NoError(t, env.expenses.Delete(ctx, "u1", mine.ID))
	assert.ErrorIs(t, env.expenses.Delete(ctx, "u1", mine.ID), ErrNotFound)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AlertConfig{})
	env.createUser(t, "u1", "a@x.com")

	env.addExpense(t, "u1", 100, "rent", "2026-03-01")
	env.addExpense(t, "u1", 40, "food", "2026-03-31")
	env.addExpense(t, "u1", 10, "food", "2026-03-02")
	env.addExpense(t, "u1", 999, "food", "2026-04-01")

	s, err := env.expenses.Summary(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", s.Month)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 150.0, s.Total)
	assert.Equal(t, 100.0, s.Needs)
	assert.Equal(t, 50.0, s.Wants)
	assert.Equal(t, map[string]float64{"rent": 100, "food": 50}, s.ByCategory)

	april, err := env.expenses.Summary(ctx, "u1", "2026-04")
	require.NoError(t, err)
	assert.Equal(t, 999.0, april.Total)

	_, err = env.expenses.Summary(ctx, "u1", "April")
	assert.ErrorIs(t, err, ErrValidation)
}
