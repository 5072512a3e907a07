package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindspend/mindspend-api/middleware"
	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/services"
)

type ExpenseHandler struct {
	Expenses *services.ExpenseService
}

func NewExpenseHandler(expenses *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{Expenses: expenses}
}

// ListExpenses handles GET /expenses?userId=&from=&to=&category=.
// from and to are inclusive calendar dates.
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	var f models.ExpenseFilter
	if from := c.Query("from"); from != "" {
		d, err := services.ParseDate(from)
		if err != nil {
			respondError(c, err)
			return
		}
		f.From = d
	}
	if to := c.Query("to"); to != "" {
		d, err := services.ParseDate(to)
		if err != nil {
			respondError(c, err)
			return
		}
		f.To = d.AddDate(0, 0, 1)
	}
	f.Category = c.Query("category")

	expenses, err := h.Expenses.List(c.Request.Context(), middleware.GetUserID(c), c.Query("userId"), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (h *ExpenseHandler) AddExpense(c *gin.Context) {
	var req models.AddExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Expense amount must be a number and category a non-empty string")
		return
	}

	resp, err := h.Expenses.Add(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err, withMessage(services.ErrInvalidAmount, "Valid expense amount is required"))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	err := h.Expenses.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err,
			withMessage(services.ErrNotFound, "Expense not found"),
			withMessage(services.ErrForbidden, "Not authorized to delete this expense"),
		)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted"})
}

func (h *ExpenseHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.Expenses.Alerts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// GetSummary handles GET /expenses/summary?month=YYYY-MM.
func (h *ExpenseHandler) GetSummary(c *gin.Context) {
	summary, err := h.Expenses.Summary(c.Request.Context(), middleware.GetUserID(c), c.Query("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
