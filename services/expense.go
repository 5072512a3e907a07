package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
	"github.com/mindspend/mindspend-api/utils"
)

const dateLayout = "2006-01-02"

// Column widths of the relational schema; every backend enforces them.
const (
	maxCategoryLen = 64
	maxTitleLen    = 255
)

type ExpenseService struct {
	expenses store.ExpenseStore
	alerts   *AlertService
	now      func() time.Time
}

func NewExpenseService(expenses store.ExpenseStore, alerts *AlertService) *ExpenseService {
	return &ExpenseService{expenses: expenses, alerts: alerts, now: time.Now}
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and truncates to the UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, validationError("date must be YYYY-MM-DD or RFC3339")
	}
	return startOfDay(t), nil
}

// List returns the caller's expenses. A non-empty requestedUserID must match
// the caller.
func (s *ExpenseService) List(ctx context.Context, callerID, requestedUserID string, f models.ExpenseFilter) ([]models.Expense, error) {
	if requestedUserID != "" && requestedUserID != callerID {
		return nil, ErrForbidden
	}
	f.Category = NormalizeCategory(f.Category)

	expenses, err := s.expenses.ListExpenses(ctx, callerID, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Add validates and stores an expense, then runs the alert evaluator. Alert
// failures never fail the add.
func (s *ExpenseService) Add(ctx context.Context, userID string, req models.AddExpenseRequest) (*models.AddExpenseResponse, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	category := NormalizeCategory(req.Category)
	if category == "" {
		return nil, validationError("category is required")
	}
	if len(category) > maxCategoryLen {
		return nil, validationError("category must be at most %d characters", maxCategoryLen)
	}
	title := strings.TrimSpace(req.Title)
	if len(title) > maxTitleLen {
		return nil, validationError("title must be at most %d characters", maxTitleLen)
	}

	now := s.now().UTC()
	date := startOfDay(now)
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := ParseDate(req.Date)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	expense := &models.Expense{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Amount:    req.Amount,
		Category:  category,
		Date:      date,
		Type:      Classify(category),
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: now,
	}
	if err := s.expenses.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	utils.LogExpenseAction("CREATE", expense.ID, userID)

	alerts := []models.Alert{}
	if s.alerts != nil {
		alerts = s.alerts.Evaluate(ctx, userID, category)
	}
	return &models.AddExpenseResponse{Expense: expense, Alerts: alerts}, nil
}

// Delete removes an expense owned by the caller. Someone else's expense is
// ErrForbidden and stays in place.
func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID string) error {
	e, err := s.expenses.GetExpense(ctx, expenseID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	if e.UserID != userID {
		return ErrForbidden
	}

	err = s.expenses.DeleteExpense(ctx, expenseID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	utils.LogExpenseAction("DELETE", expenseID, userID)
	return nil
}

// Alerts returns every category alert for the current week.
func (s *ExpenseService) Alerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return s.alerts.WeeklyAlerts(ctx, userID, "")
}

// Summary aggregates one calendar month given as YYYY-MM. Empty means the
// current month.
func (s *ExpenseService) Summary(ctx context.Context, userID, month string) (*models.ExpenseSummary, error) {
	start, _ := monthWindow(s.now())
	if month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, validationError("month must be YYYY-MM")
		}
		start = parsed
	}
	end := start.AddDate(0, 1, 0)

	expenses, err := s.expenses.ListExpenses(ctx, userID, models.ExpenseFilter{From: start, To: end})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	summary := &models.ExpenseSummary{
		Month:      start.Format("2006-01"),
		Count:      len(expenses),
		ByCategory: make(map[string]float64),
	}
	for _, e := range expenses {
		summary.Total += e.Amount
		summary.ByCategory[e.Category] += e.Amount
		if e.Type == models.TypeNeed {
			summary.Needs += e.Amount
		} else {
			summary.Wants += e.Amount
		}
	}
	return summary, nil
}
