package types

import "context"

type ContextKey string

const (
	CtxTenantID  ContextKey = "ctx_tenant_id"
	CtxRequestID ContextKey = "ctx_request_id"
)

const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderRequestID = "X-Request-ID"
)

const (
	// DefaultTenantID is used by scripts and tests where no tenant header exists
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
)

// GetTenantID returns the tenant ID from the context
func GetTenantID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxTenantID).(string); ok {
		return id
	}
	return ""
}

// GetRequestID returns the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(CtxRequestID).(string); ok {
		return id
	}
	return ""
}
