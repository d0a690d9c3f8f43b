package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const HeaderAdminPin = "X-Admin-Pin"

// ClientKey identifies a caller for attempt counting.
func ClientKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ErrorMiddleware renders the last handler error. Details stay in the log.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unhandled error", err)
		}
		status := apperror.ToHTTPStatus(appErr)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.String("details", appErr.Details),
		}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", appErr.Err, fields...)
		} else {
			log.Warn("Request rejected", fields...)
		}

		if appErr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(apperror.RetryAfterSeconds(appErr.RetryAfter)))
		}
		if !c.Writer.Written() {
			c.JSON(status, appErr.ToJSON())
		}
	}
}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// RecoverPanic keeps the coarse response shape for faults nobody handled.
func RecoverPanic(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered", nil, zap.Any("panic", r), zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal error"})
			}
		}()
		c.Next()
	}
}

// AdmissionMiddleware requires a correct PIN in the X-Admin-Pin header.
// Failures count against the same per-client limit as /api/verify-pin.
func AdmissionMiddleware(verifier *authUC.VerifyPinUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := verifier.Admit(c.Request.Context(), authUC.VerifyPinInput{
			Pin:       c.GetHeader(HeaderAdminPin),
			ClientKey: ClientKey(c),
		})
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
