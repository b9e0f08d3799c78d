// Package middleware provides HTTP middleware for authorization context
// resolution and request tracing.
//
// # Overview
//
// This package wires the authorization resolution pipeline in front of HTTP
// handlers: it resolves the caller's session into a full authorization
// context and rejects requests that cannot be resolved, with a distinct
// response per failure condition.
//
// # Middleware Components
//
// RequireAuthContext: Resolve and enforce the authorization context
//
//	router.Use(middleware.RequireAuthContext(authService))
//	// Handlers downstream read it with middleware.GetAuthContext(r)
//
// RequestID: Attach a request id for log correlation
//
//	router.Use(middleware.RequestID)
//	// Reuses the client-supplied X-Request-ID when present
//
// # Failure Responses
//
// 401 unauthenticated: no signed-in user
// 403 no_active_organization: signed in, but no organization selected
// 403 not_a_member: selected organization no longer admits the user
// 500 internal: resolution failed for an unexpected reason
//
// # Related Packages
//
//   - pkg/authz: Context resolution and caching
//   - pkg/session: Session provider boundary
package middleware
