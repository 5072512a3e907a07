package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
)

const sampleBudgetAmount = 1000

type sampleExpense struct {
	title    string
	amount   float64
	category string
	day      int
}

var sampleExpenses = []sampleExpense{
	{"Groceries", 75.50, "food", 5},
	{"Electricity Bill", 120, "home", 10},
	{"Movie Night", 35, "entertainment", 15},
}

// Seeder gives a new account a starter budget and a few expenses in the
// current month.
type Seeder struct {
	budgets  store.BudgetStore
	expenses store.ExpenseStore
	now      func() time.Time
}

func NewSeeder(budgets store.BudgetStore, expenses store.ExpenseStore) *Seeder {
	return &Seeder{budgets: budgets, expenses: expenses, now: time.Now}
}

func (s *Seeder) Seed(ctx context.Context, userID string) error {
	now := s.now().UTC()

	if _, err := s.budgets.UpsertBudget(ctx, userID, sampleBudgetAmount, models.PeriodMonthly, now); err != nil {
		return fmt.Errorf("seed budget: %w", err)
	}

	batch := make([]*models.Expense, 0, len(sampleExpenses))
	for _, se := range sampleExpenses {
		batch = append(batch, &models.Expense{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     se.title,
			Amount:    se.amount,
			Category:  se.category,
			Date:      time.Date(now.Year(), now.Month(), se.day, 0, 0, 0, 0, time.UTC),
			Type:      Classify(se.category),
			CreatedAt: now,
		})
	}
	if err := s.expenses.CreateExpenses(ctx, batch); err != nil {
		return fmt.Errorf("seed expenses: %w", err)
	}
	return nil
}
