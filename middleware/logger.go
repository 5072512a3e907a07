package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindspend/mindspend-api/utils"
)

// RequestLogger logs one line per request through the masking logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		utils.LogAPIRequest(
			c.Request.Method,
			c.Request.URL.Path,
			GetUserID(c),
			c.Writer.Status(),
			time.Since(start).String(),
		)
	}
}
