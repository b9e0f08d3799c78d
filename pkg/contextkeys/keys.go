// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *session.Session
	// Set by: the HTTP session middleware of the embedding application
	// Required by: session.ContextProvider, authz.Service
	// Type: *session.Session
	SessionKey Key = "session"

	// AuthContextKey contains *authz.Context
	// Set by: middleware.RequireAuthContext (pkg/middleware/auth.go)
	// Required by: All org-scoped request handlers
	// Type: *authz.Context
	AuthContextKey Key = "auth_context"

	// RequestIDKey contains request ID string (UUID)
	// Set by: middleware.RequestID
	// Used by: Logger, operational tracing
	// Type: string
	RequestIDKey Key = "request_id"

	// LoggerKey contains *observability.Logger
	// Set by: observability middleware
	// Used by: Handlers that need structured logging with request context
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)
