// Package kit carries cross-transport plumbing: the Endpoint shape shared by
// HTTP and MCP surfaces, and request-scoped context helpers.
package kit

import "context"

// Endpoint is a transport-agnostic operation: typed request in, response out.
type Endpoint func(ctx context.Context, request any) (any, error)

type contextKey string

const (
	TenantKey    contextKey = "kit_tenant"
	TransportKey contextKey = "kit_transport" // "http", "mcp"
	RequestIDKey contextKey = "kit_request_id"
)

// WithTenant attaches a tenant ID to the context.
func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, TenantKey, tenant)
}

// GetTenant returns the tenant ID or "".
func GetTenant(ctx context.Context) string {
	v, _ := ctx.Value(TenantKey).(string)
	return v
}

// WithTransport tags the context with the transport that carried the request.
func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// GetTransport returns the transport tag, defaulting to "http".
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

// WithRequestID attaches a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID returns the request ID or "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}
