package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/propzen/billing/internal/types"
)

func RequestIDMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)

	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}

// TenantMiddleware resolves the tenant from the request header into the
// context. It stands in for the auth/session context, which lives
// outside this service.
func TenantMiddleware(c *gin.Context) {
	tenantID := c.GetHeader(types.HeaderTenantID)
	if tenantID == "" {
		c.AbortWithStatusJSON(400, gin.H{
			"success": false,
			"error":   gin.H{"message": "missing " + types.HeaderTenantID + " header"},
		})
		return
	}

	ctx := context.WithValue(c.Request.Context(), types.CtxTenantID, tenantID)
	c.Request = c.Request.WithContext(ctx)

	c.Next()
}
