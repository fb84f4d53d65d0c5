// Package middleware provides gin middleware for the HTTP surface
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/llm-router/router/internal/auth"
	"github.com/llm-router/router/pkg/errors"
	"github.com/llm-router/router/pkg/utils"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "auth_subject"

// Auth validates the Authorization bearer token and stores the subject in
// the request context.
func Auth(service *auth.Service, logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortWithError(c, errors.New(errors.ErrUnauthorized, "Missing bearer token"))
			return
		}

		claims, err := service.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			logger.WithError(err).Warn("Token validation failed")
			abortWithError(c, errors.New(errors.ErrUnauthorized, "Invalid token"))
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// RequestID attaches a request id to the context and response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func abortWithError(c *gin.Context, err *errors.RouterError) {
	c.AbortWithStatusJSON(err.HTTPStatusCode, gin.H{
		"code":    err.Code,
		"message": err.Message,
	})
}
