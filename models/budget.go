package models

import "time"

const (
	PeriodMonthly = "monthly"
	PeriodWeekly  = "weekly"
)

// ValidPeriod reports whether p is a supported budget period.
func ValidPeriod(p string) bool {
	return p == PeriodMonthly || p == PeriodWeekly
}

type Budget struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Amount    float64   `json:"amount" bson:"amount"`
	Period    string    `json:"period" bson:"period"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type SetBudgetRequest struct {
	Amount float64 `json:"amount"`
	Period string  `json:"period"`
}

// BudgetStatus reports spending against the budget for its current window.
type BudgetStatus struct {
	Budget      *Budget   `json:"budget"`
	Spent       float64   `json:"spent"`
	Remaining   float64   `json:"remaining"`
	PercentUsed float64   `json:"percentUsed"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
}
