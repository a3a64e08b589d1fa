// Package middleware carries the gin middleware shared by every route.
package middleware

import (
	"context"
	goerrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"

	"github.com/turtacn/sfauth/internal/application/dto"
	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// HeaderCorrelationID is the inbound/outbound correlation header.
const HeaderCorrelationID = "X-Correlation-ID"

// CorrelationID tags every request with a correlation identifier, reusing the
// caller's header when present, and copies client metadata into the context
// for the history rows downstream.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, constants.ContextKeyCorrelationID, correlationID)
		ctx = context.WithValue(ctx, constants.ContextKeyClientIP, c.ClientIP())
		if _, port, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
			ctx = context.WithValue(ctx, constants.ContextKeyClientPort, port)
		}
		ctx = context.WithValue(ctx, constants.ContextKeyUserAgent, c.Request.UserAgent())
		if operator := c.GetHeader("X-Operator"); operator != "" {
			ctx = context.WithValue(ctx, constants.ContextKeyOperator, operator)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(HeaderCorrelationID, correlationID)
		c.Next()
	}
}

// Tracing extracts the inbound trace context from the request headers.
func Tracing() gin.HandlerFunc {
	propagator := propagation.TraceContext{}
	return func(c *gin.Context) {
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Logging logs one line per processed request.
func Logging(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "Request processed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Int64("latency_ms", time.Since(start).Milliseconds()),
			logger.String("client_ip", c.ClientIP()),
		)
	}
}

// Recovery converts panics into a structured 500 response.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "Panic recovered", goerrors.New("panic"),
					logger.Any("panic", r),
				)
				correlationID, _ := c.Request.Context().Value(constants.ContextKeyCorrelationID).(string)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.ErrorResponse(errors.System("internal server error"), correlationID))
			}
		}()
		c.Next()
	}
}
