package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindspend/mindspend-api/models"
)

func TestWeekWindow(t *testing.T) {
	from, to := weekWindow(fixedNow)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC), to)

	from, to = monthWindow(fixedNow)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestWeeklyFoodAlertOnAdd(t *testing.T) {
	env := newTestEnv(t, AlertConfig{})
	env.createUser(t, "u1", "a@x.com")

	first := env.addExpense(t, "u1", 1900, "food", "2026-03-15")
	assert.Empty(t, first.Alerts)

	second := env.addExpense(t, "u1", 200, "Food", "2026-03-18")
	require.Len(t, second.Alerts, 1)
	assert.Equal(t, "food", second.Alerts[0].Category)
	assert.Equal(t, 2100.0, second.Alerts[0].Amount)
	assert.Equal(t, 2000.0, second.Alerts[0].Threshold)
	assert.NotEmpty(t, second.Alerts[0].Message)

	assert.Len(t, env.notifier.byKind(models.AlertKindCategory), 1)
}

func TestWeeklyAlerts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AlertConfig{})
	env.createUser(t, "u1", "a@x.com")

	env.addExpense(t, "u1", 1500, "entertainment", "2026-03-12")
	env.addExpense(t, "u1", 900, "transportation", "2026-03-18")
	env.addExpense(t, "u1", 200, "transportation", "2026-03-11") // outside window
	env.addExpense(t, "u1", 9000, "travel", "2026-03-17")        // no threshold

	alerts, err := env.alerts.WeeklyAlerts(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "entertainment", alerts[0].Category)

	alerts, err = env.alerts.WeeklyAlerts(ctx, "u1", "transportation")
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = env.alerts.WeeklyAlerts(ctx, "nobody", "")
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestWeeklyAlertsCustomThresholds(t *testing.T) {
	env := newTestEnv(t, AlertConfig{Thresholds: map[string]float64{"food": 100, "home": 50}})
	env.createUser(t, "u1", "a@x.com")

	env.addExpense(t, "u1", 100, "food", "2026-03-18")
	env.addExpense(t, "u1", 60, "home", "2026-03-17")

	alerts, err := env.alerts.WeeklyAlerts(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "food", alerts[0].Category)
	assert.Equal(t, "home", alerts[1].Category)
}

func TestCheckBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("no budget", func(t *testing.T) {
		env := newTestEnv(t, AlertConfig{})
		env.createUser(t, "u1", "a@x.com")
		env.addExpense(t, "u1", 5000, "rent", "2026-03-10")

		event, err := env.alerts.CheckBudget(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, event)
		assert.Empty(t, env.notifier.byKind(models.AlertKindBudget))
	})

	t.Run("below threshold", func(t *testing.T) {
		env := newTestEnv(t, AlertConfig{})
		env.createUser(t, "u1", "a@x.com")
		_, err := env.budgets.Set(ctx, "u1", 1000, "")
		require.NoError(t, err)

		env.addExpense(t, "u1", 899, "rent", "2026-03-02")
		assert.Empty(t, env.notifier.byKind(models.AlertKindBudget))
	})

	t.Run("at ninety percent", func(t *testing.T) {
		env := newTestEnv(t, AlertConfig{})
		env.createUser(t, "u1", "a@x.com")
		_, err := env.budgets.Set(ctx, "u1", 1000, "monthly")
		require.NoError(t, err)

		env.addExpense(t, "u1", 300, "rent", "2026-02-27") // previous month
		env.addExpense(t, "u1", 900, "rent", "2026-03-02")

		events := env.notifier.byKind(models.AlertKindBudget)
		require.Len(t, events, 1)
		assert.Equal(t, "a@x.com", events[0].Email)
		assert.Equal(t, 1000.0, events[0].Limit)
		assert.Equal(t, 900.0, events[0].CurrentSpending)
		assert.InDelta(t, 90.0, events[0].PercentUsed, 0.001)
		assert.Equal(t, models.PeriodMonthly, events[0].Period)
	})

	t.Run("weekly budget uses trailing week", func(t *testing.T) {
		env := newTestEnv(t, AlertConfig{})
		env.createUser(t, "u1", "a@x.com")
		_, err := env.budgets.Set(ctx, "u1", 100, "weekly")
		require.NoError(t, err)

		env.addExpense(t, "u1", 500, "rent", "2026-03-05")
		assert.Empty(t, env.notifier.byKind(models.AlertKindBudget))

		env.addExpense(t, "u1", 95, "rent", "2026-03-16")
		assert.Len(t, env.notifier.byKind(models.AlertKindBudget), 1)
	})
}

func TestBudgetAlertCooldown(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AlertConfig{Cooldown: time.Hour})
	env.createUser(t, "u1", "a@x.com")
	_, err := env.budgets.Set(ctx, "u1", 100, "")
	require.NoError(t, err)

	env.addExpense(t, "u1", 95, "rent", "2026-03-10")
	env.addExpense(t, "u1", 10, "rent", "2026-03-11")

	assert.Len(t, env.notifier.byKind(models.AlertKindBudget), 1)
}

func TestBudgetAlertCooldownReleasedOnFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AlertConfig{Cooldown: time.Hour})
	env.createUser(t, "u1", "a@x.com")
	_, err := env.budgets.Set(ctx, "u1", 100, "")
	require.NoError(t, err)

	env.notifier.err = errors.New("smtp down")
	env.addExpense(t, "u1", 95, "rent", "2026-03-10")
	require.Len(t, env.notifier.byKind(models.AlertKindBudget), 1)

	env.notifier.err = nil
	env.addExpense(t, "u1", 1, "rent", "2026-03-11")
	assert.Len(t, env.notifier.byKind(models.AlertKindBudget), 2)

	env.addExpense(t, "u1", 1, "rent", "2026-03-12")
	assert.Len(t, env.notifier.byKind(models.AlertKindBudget), 2)
}

func TestEvaluateSwallowsNotifierFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AlertConfig{})
	env.notifier.err = errors.New("smtp down")
	env.createUser(t, "u1", "a@x.com")
	_, err := env.budgets.Set(ctx, "u1", 100, "")
	require.NoError(t, err)

	resp, err := env.expenses.Add(ctx, "u1", models.AddExpenseRequest{Amount: 2500, Category: "food", Date: "2026-03-18"})
	require.NoError(t, err)
	assert.Len(t, resp.Alerts, 1)

	stored, err := env.store.GetExpense(ctx, resp.Expense.ID)
	require.NoError(t, err)
	assert.Equal(t, 2500.0, stored.Amount)
}

func TestMultiNotifierContinuesAfterFailure(t *testing.T) {
	var calls []string
	m := NewMultiNotifier().
		Add("broken", NotifierFunc(func(ctx context.Context, e models.AlertEvent) error {
			calls = append(calls, "broken")
			return errors.New("boom")
		})).
		Add("nil", nil).
		Add("ok", NotifierFunc(func(ctx context.Context, e models.AlertEvent) error {
			calls = append(calls, "ok")
			return nil
		}))

	assert.Equal(t, 2, m.Len())
	assert.NoError(t, m.Notify(context.Background(), models.AlertEvent{Kind: models.AlertKindBudget}))
	assert.Equal(t, []string{"broken", "ok"}, calls)
}

func TestMemoryCooldown(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	c := NewMemoryCooldown()
	c.now = func() time.Time { return now }

	ok, err := c.Allow(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = c.Allow(ctx, "k", time.Minute)
	assert.False(t, ok)

	ok, _ = c.Allow(ctx, "other", time.Minute)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = c.Allow(ctx, "k", time.Minute)
	assert.True(t, ok)

	require.NoError(t, c.Release(ctx, "k"))
	ok, _ = c.Allow(ctx, "k", time.Minute)
	assert.True(t, ok)
}

type recordingMailer struct {
	to, subject, html, text string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, html, text string) error {
	m.to, m.subject, m.html, m.text = to, subject, html, text
	return nil
}

func TestEmailNotifier(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewEmailNotifier(mailer, "http://localhost:3000")

	require.NoError(t, n.Notify(context.Background(), models.AlertEvent{Kind: models.AlertKindCategory, Email: "a@x.com"}))
	assert.Empty(t, mailer.to)

	require.NoError(t, n.Notify(context.Background(), models.AlertEvent{
		Kind:            models.AlertKindBudget,
		Email:           "a@x.com",
		Limit:           1000,
		CurrentSpending: 950,
		PercentUsed:     95,
		Period:          models.PeriodMonthly,
	}))
	assert.Equal(t, "a@x.com", mailer.to)
	assert.Contains(t, mailer.subject, "95%")
	assert.Contains(t, mailer.html, "$950.00")
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	assert.IsType(t, LogMailer{}, NewMailer("resend", "", "", "noreply@x.com"))
	assert.IsType(t, LogMailer{}, NewMailer("sendgrid", "", "", "noreply@x.com"))
	assert.IsType(t, LogMailer{}, NewMailer("log", "k", "k", "noreply@x.com"))
	assert.IsType(t, &ResendMailer{}, NewMailer("resend", "re_123", "", "noreply@x.com"))
	assert.IsType(t, &SendGridMailer{}, NewMailer("sendgrid", "", "SG.123", "noreply@x.com"))
}
