package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store"
	"github.com/mindspend/mindspend-api/utils"
)

// DefaultThresholds are the weekly per-category spending ceilings.
var DefaultThresholds = map[string]float64{
	"food":           2000,
	"entertainment":  1500,
	"shopping":       3000,
	"transportation": 1000,
	"home":           5000,
}

const DefaultBudgetAlertPercent = 90.0

type AlertConfig struct {
	// Thresholds override or extend DefaultThresholds.
	Thresholds    map[string]float64
	BudgetPercent float64
	// Cooldown suppresses repeat budget notifications per user. Zero
	// notifies on every qualifying expense.
	Cooldown time.Duration
}

type AlertService struct {
	users    store.UserStore
	budgets  store.BudgetStore
	expenses store.ExpenseStore
	cfg      AlertConfig
	notifier Notifier
	cooldown Cooldown
	now      func() time.Time
}

// NewAlertService wires the evaluator. A nil notifier disables dispatch and a
// nil cooldown falls back to process memory.
func NewAlertService(st store.Store, cfg AlertConfig, notifier Notifier, cooldown Cooldown) *AlertService {
	thresholds := make(map[string]float64, len(DefaultThresholds)+len(cfg.Thresholds))
	for cat, limit := range DefaultThresholds {
		thresholds[cat] = limit
	}
	for cat, limit := range cfg.Thresholds {
		thresholds[NormalizeCategory(cat)] = limit
	}
	cfg.Thresholds = thresholds
	if cfg.BudgetPercent <= 0 {
		cfg.BudgetPercent = DefaultBudgetAlertPercent
	}
	if cooldown == nil {
		cooldown = NewMemoryCooldown()
	}
	return &AlertService{
		users:    st,
		budgets:  st,
		expenses: st,
		cfg:      cfg,
		notifier: notifier,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// ============================================================================
// WINDOWS
// ============================================================================

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekWindow covers the 7 calendar days ending today, as [from, to).
func weekWindow(now time.Time) (time.Time, time.Time) {
	today := startOfDay(now)
	return today.AddDate(0, 0, -6), today.AddDate(0, 0, 1)
}

func monthWindow(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, 0)
}

func budgetWindow(period string, now time.Time) (time.Time, time.Time) {
	if period == models.PeriodWeekly {
		return weekWindow(now)
	}
	return monthWindow(now)
}

// ============================================================================
// CATEGORY ALERTS
// ============================================================================

// WeeklyAlerts compares this week's per-category totals against the threshold
// table. A non-empty category limits the check to that category. Results are
// ordered by category.
func (s *AlertService) WeeklyAlerts(ctx context.Context, userID, category string) ([]models.Alert, error) {
	from, to := weekWindow(s.now())
	totals, err := s.expenses.SumByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("weekly totals: %w", err)
	}

	category = NormalizeCategory(category)
	alerts := []models.Alert{}
	for cat, spent := range totals {
		if category != "" && cat != category {
			continue
		}
		threshold, ok := s.cfg.Thresholds[cat]
		if !ok || spent < threshold {
			continue
		}
		alerts = append(alerts, models.Alert{
			Category:  cat,
			Amount:    spent,
			Threshold: threshold,
			Message:   fmt.Sprintf("Weekly %s spending of %.2f has reached the %.2f limit", cat, spent, threshold),
		})
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Category < alerts[j].Category })
	return alerts, nil
}

// ============================================================================
// BUDGET ALERT
// ============================================================================

// BudgetStatus measures spending against the user's budget for the budget's
// current window.
func (s *AlertService) BudgetStatus(ctx context.Context, userID string) (*models.BudgetStatus, error) {
	budget, err := s.budgets.GetBudget(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	from, to := budgetWindow(budget.Period, s.now())
	totals, err := s.expenses.SumByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("budget window totals: %w", err)
	}

	var spent float64
	for _, amount := range totals {
		spent += amount
	}

	status := &models.BudgetStatus{
		Budget:      budget,
		Spent:       spent,
		Remaining:   budget.Amount - spent,
		WindowStart: from,
		WindowEnd:   to,
	}
	if budget.Amount > 0 {
		status.PercentUsed = spent / budget.Amount * 100
	}
	return status, nil
}

// CheckBudget dispatches a budget alert when spending reached the configured
// percentage. It returns the dispatched event, or nil when nothing was sent.
func (s *AlertService) CheckBudget(ctx context.Context, userID string) (*models.AlertEvent, error) {
	status, err := s.BudgetStatus(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if status.PercentUsed < s.cfg.BudgetPercent {
		return nil, nil
	}

	key := "budget:" + userID
	if s.cfg.Cooldown > 0 {
		allowed, err := s.cooldown.Allow(ctx, key, s.cfg.Cooldown)
		if err != nil {
			return nil, err
		}
		if !allowed {
			utils.SafeDebug("[Alert] budget alert for %s suppressed by cooldown", userID)
			return nil, nil
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		s.releaseCooldown(ctx, key)
		return nil, fmt.Errorf("get user: %w", err)
	}

	event := &models.AlertEvent{
		Kind:            models.AlertKindBudget,
		UserID:          userID,
		Email:           user.Email,
		Period:          status.Budget.Period,
		Limit:           status.Budget.Amount,
		CurrentSpending: status.Spent,
		PercentUsed:     status.PercentUsed,
		Message:         fmt.Sprintf("You've used %.0f%% of your %s budget", status.PercentUsed, status.Budget.Period),
		CreatedAt:       s.now().UTC(),
	}
	utils.LogAlert(event.Kind, userID, "", event.PercentUsed)

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, *event); err != nil {
			s.releaseCooldown(ctx, key)
			return event, fmt.Errorf("notify budget alert: %w", err)
		}
	}
	return event, nil
}

// releaseCooldown reopens the slot taken for an alert that was not delivered.
func (s *AlertService) releaseCooldown(ctx context.Context, key string) {
	if s.cfg.Cooldown <= 0 {
		return
	}
	if err := s.cooldown.Release(ctx, key); err != nil {
		utils.SafeWarn("[Alert] cooldown release for %s: %v", key, err)
	}
}

// Evaluate runs after an expense is stored. Category alerts for the expense's
// category are returned and pushed to the notifier; the budget check runs
// afterwards. Failures are logged and never returned.
func (s *AlertService) Evaluate(ctx context.Context, userID, category string) []models.Alert {
	alerts, err := s.WeeklyAlerts(ctx, userID, category)
	if err != nil {
		utils.SafeError("[Alert] weekly alerts for %s: %v", utils.MaskID(userID), err)
		alerts = []models.Alert{}
	}

	for _, a := range alerts {
		utils.LogAlert(models.AlertKindCategory, userID, a.Category, a.Amount/a.Threshold*100)
		if s.notifier == nil {
			continue
		}
		event := models.AlertEvent{
			Kind:            models.AlertKindCategory,
			UserID:          userID,
			Category:        a.Category,
			Limit:           a.Threshold,
			CurrentSpending: a.Amount,
			Message:         a.Message,
			CreatedAt:       s.now().UTC(),
		}
		if err := s.notifier.Notify(ctx, event); err != nil {
			utils.SafeWarn("[Alert] category alert dispatch: %v", err)
		}
	}

	if _, err := s.CheckBudget(ctx, userID); err != nil {
		utils.SafeError("[Alert] budget check for %s: %v", utils.MaskID(userID), err)
	}
	return alerts
}
