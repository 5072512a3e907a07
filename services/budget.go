package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
	"github.com/mindspend/mindspend-api/utils"
)

type BudgetService struct {
	budgets store.BudgetStore
	alerts  *AlertService
	now     func() time.Time
}

func NewBudgetService(budgets store.BudgetStore, alerts *AlertService) *BudgetService {
	return &BudgetService{budgets: budgets, alerts: alerts, now: time.Now}
}

// Get returns the caller's budget or ErrNotFound.
func (s *BudgetService) Get(ctx context.Context, userID string) (*models.Budget, error) {
	b, err := s.budgets.GetBudget(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// Set creates or updates the caller's single budget in one store call. An
// empty period keeps the current one.
func (s *BudgetService) Set(ctx context.Context, userID string, amount float64, period string) (*models.Budget, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	period = strings.ToLower(strings.TrimSpace(period))
	if period != "" && !models.ValidPeriod(period) {
		return nil, ErrInvalidPeriod
	}

	b, err := s.budgets.UpsertBudget(ctx, userID, amount, period, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("upsert budget: %w", err)
	}

	utils.LogBudgetAction("SET", userID, b.Amount, b.Period)
	return b, nil
}

// Status reports spending in the current budget window.
func (s *BudgetService) Status(ctx context.Context, userID string) (*models.BudgetStatus, error) {
	return s.alerts.BudgetStatus(ctx, userID)
}
