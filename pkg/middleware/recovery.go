package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/ragserve/pkg/errors"
)

// RecoveryConfig defines the config for Recovery middleware.
type RecoveryConfig struct {
	// StackTrace enables logging the panic stack trace.
	// Default: true
	StackTrace bool

	// PanicHandler is called after a panic is recovered, before the
	// error response is written. Optional.
	PanicHandler func(c *gin.Context, err interface{}, stack []byte)
}

// DefaultRecoveryConfig is the default Recovery middleware config.
var DefaultRecoveryConfig = RecoveryConfig{
	StackTrace: true,
}

// Recovery returns a middleware that recovers from panics and responds
// with a JSON error.
func Recovery() gin.HandlerFunc {
	return RecoveryWithConfig(DefaultRecoveryConfig)
}

// RecoveryWithConfig returns a Recovery middleware with custom config.
func RecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				var stack []byte
				if config.StackTrace {
					stack = debug.Stack()
				}

				fields := []interface{}{
					"panic", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				}
				if requestID := GetRequestID(c); requestID != "" {
					fields = append(fields, "request_id", requestID)
				}
				if stack != nil {
					fields = append(fields, "stack", string(stack))
				}
				logger.Errorw("panic recovered", fields...)

				if config.PanicHandler != nil {
					config.PanicHandler(c, err, stack)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    errors.ErrInternal.Code,
					"message": errors.ErrInternal.Message,
				})
			}
		}()

		c.Next()
	}
}
