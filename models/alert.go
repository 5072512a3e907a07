package models

import "time"

// Alert is a weekly category total that reached its threshold.
type Alert struct {
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

const (
	AlertKindBudget   = "budget"
	AlertKindCategory = "category"
)

// AlertEvent is what gets fanned out to notification channels.
type AlertEvent struct {
	Kind            string    `json:"kind"`
	UserID          string    `json:"userId"`
	Email           string    `json:"email,omitempty"`
	Category        string    `json:"category,omitempty"`
	Period          string    `json:"period,omitempty"`
	Limit           float64   `json:"limit"`
	CurrentSpending float64   `json:"currentSpending"`
	PercentUsed     float64   `json:"percentUsed,omitempty"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"createdAt"`
}
