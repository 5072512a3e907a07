package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindspend/mindspend-api/services"
	"github.com/mindspend/mindspend-api/utils"
)

// errMessage overrides the default response text for one sentinel error.
type errMessage struct {
	err error
	msg string
}

func withMessage(err error, msg string) errMessage {
	return errMessage{err: err, msg: msg}
}

// respondError maps service errors onto HTTP responses. Anything unexpected is
// a 500 whose detail only reaches the log.
func respondError(c *gin.Context, err error, overrides ...errMessage) {
	status, body := errorResponse(err)
	for _, o := range overrides {
		if errors.Is(err, o.err) {
			body["message"] = o.msg
			break
		}
	}

	if status == http.StatusInternalServerError {
		utils.SafeError("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, gin.H{"message": err.Error()}
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusBadRequest, gin.H{"message": "User already exists"}
	case errors.Is(err, services.ErrInvalidAmount):
		return http.StatusBadRequest, gin.H{"message": "Valid amount is required"}
	case errors.Is(err, services.ErrInvalidPeriod):
		return http.StatusBadRequest, gin.H{"message": "Period must be monthly or weekly"}
	case errors.Is(err, services.ErrTOTPNotConfigured):
		return http.StatusBadRequest, gin.H{"message": "2FA setup has not been started"}
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, gin.H{"message": "Invalid credentials"}
	case errors.Is(err, services.ErrTOTPRequired):
		return http.StatusUnauthorized, gin.H{"message": "2FA code required", "requires_2fa": true}
	case errors.Is(err, services.ErrInvalidTOTP):
		return http.StatusUnauthorized, gin.H{"message": "Invalid 2FA code"}
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, gin.H{"message": "Unauthorized access to this user's data"}
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, gin.H{"message": "Not found"}
	default:
		return http.StatusInternalServerError, gin.H{"message": "Server error"}
	}
}

// badRequest reports a body that failed to bind. Binder detail stays in the
// debug log.
func badRequest(c *gin.Context, err error, msg string) {
	utils.SafeDebug("[HTTP] %s %s bind: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}
