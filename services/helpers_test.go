package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/store/memstore"
)

// Wednesday; the weekly window is 2026-03-12 through 2026-03-18.
var fixedNow = time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.AlertEvent
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, event models.AlertEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) byKind(kind string) []models.AlertEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.AlertEvent
	for _, e := range n.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	store    *memstore.Store
	notifier *recordingNotifier
	alerts   *AlertService
	budgets  *BudgetService
	expenses *ExpenseService
}

func newTestEnv(t *testing.T, cfg AlertConfig) *testEnv {
	t.Helper()

	st := memstore.New()
	notifier := &recordingNotifier{}
	cooldown := NewMemoryCooldown()
	cooldown.now = clock

	alerts := NewAlertService(st, cfg, notifier, cooldown)
	alerts.now = clock
	budgets := NewBudgetService(st, alerts)
	budgets.now = clock
	expenses := NewExpenseService(st, alerts)
	expenses.now = clock

	return &testEnv{store: st, notifier: notifier, alerts: alerts, budgets: budgets, expenses: expenses}
}

func (e *testEnv) createUser(t *testing.T, id, email string) {
	t.Helper()
	require.NoError(t, e.store.CreateUser(context.Background(), &models.User{
		ID:        id,
		Email:     email,
		Name:      "Test",
		CreatedAt: fixedNow,
	}))
}

func (e *testEnv) addExpense(t *testing.T, userID string, amount float64, category, date string) *models.AddExpenseResponse {
	t.Helper()
	resp, err := e.expenses.Add(context.Background(), userID, models.AddExpenseRequest{
		Amount:   amount,
		Category: category,
		Date:     date,
	})
	require.NoError(t, err)
	return resp
}
