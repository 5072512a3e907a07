package models

import "time"

const (
	TypeNeed = "need"
	TypeWant = "want"
)

type Expense struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	Amount    float64   `json:"amount" bson:"amount"`
	Category  string    `json:"category" bson:"category"`
	Date      time.Time `json:"date" bson:"date"`
	Type      string    `json:"type" bson:"type"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type AddExpenseRequest struct {
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Notes    string  `json:"notes"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
	Alerts  []Alert  `json:"alerts"`
}

// ExpenseFilter narrows a listing. Zero values mean unbounded; To is exclusive.
type ExpenseFilter struct {
	From     time.Time
	To       time.Time
	Category string
}

// ExpenseSummary aggregates one calendar month of spending.
type ExpenseSummary struct {
	Month      string             `json:"month"`
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
	ByCategory map[string]float64 `json:"byCategory"`
	Needs      float64            `json:"needs"`
	Wants      float64            `json:"wants"`
}

type Stats struct {
	TotalUsers    int64   `json:"totalUsers"`
	TotalExpenses float64 `json:"totalExpenses"`
	TotalGoals    int64   `json:"totalGoals"`
}
