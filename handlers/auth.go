package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindspend/mindspend-api/middleware"
	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Name, a valid email and a password of at least 6 characters are required")
		return
	}

	resp, err := h.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "Email and password are required")
		return
	}

	resp, err := h.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.Auth.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, withMessage(services.ErrNotFound, "User not found"))
		return
	}
	c.JSON(http.StatusOK, user)
}

// ============================================================================
// 2FA
// ============================================================================

func (h *AuthHandler) SetupTOTP(c *gin.Context) {
	resp, err := h.Auth.SetupTOTP(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, withMessage(services.ErrNotFound, "User not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) VerifyTOTP(c *gin.Context) {
	h.toggleTOTP(c, true)
}

func (h *AuthHandler) DisableTOTP(c *gin.Context) {
	h.toggleTOTP(c, false)
}

func (h *AuthHandler) toggleTOTP(c *gin.Context, enable bool) {
	var req models.TOTPCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err, "2FA code is required")
		return
	}

	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var err error
	if enable {
		err = h.Auth.EnableTOTP(ctx, userID, req.Code)
	} else {
		err = h.Auth.DisableTOTP(ctx, userID, req.Code)
	}
	if errors.Is(err, services.ErrInvalidTOTP) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid 2FA code"})
		return
	}
	if err != nil {
		respondError(c, err, withMessage(services.ErrNotFound, "User not found"))
		return
	}

	msg := "2FA enabled"
	if !enable {
		msg = "2FA disabled"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
