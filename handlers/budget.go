package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindspend/mindspend-api/middleware"
	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/services"
)

type BudgetHandler struct {
	Budgets *services.BudgetService
}

func NewBudgetHandler(budgets *services.BudgetService) *BudgetHandler {
	return &BudgetHandler{Budgets: budgets}
}

var noBudget = withMessage(services.ErrNotFound, "No budget found for this user")

// GetBudget returns the caller's budget.
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budget, err := h.Budgets.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, noBudget)
		return
	}
	c.JSON(http.StatusOK, budget)
}

// SetBudget creates or updates the caller's budget.
func (h *BudgetHandler) SetBudget(c *gin.Context) {
	var req models.SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Valid budget amount is required"})
		return
	}

	budget, err := h.Budgets.Set(c.Request.Context(), middleware.GetUserID(c), req.Amount, req.Period)
	if err != nil {
		respondError(c, err, withMessage(services.ErrInvalidAmount, "Valid budget amount is required"))
		return
	}
	c.JSON(http.StatusOK, budget)
}

// GetStatus reports spending against the budget in its current window.
func (h *BudgetHandler) GetStatus(c *gin.Context) {
	status, err := h.Budgets.Status(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, noBudget)
		return
	}
	c.JSON(http.StatusOK, status)
}
