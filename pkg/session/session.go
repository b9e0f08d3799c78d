// Package session defines the boundary to the external session/identity
// provider. Sessions are created, refreshed, and destroyed entirely outside
// this module; the authorization layer only reads the current user id.
package session

import (
	"context"

	"github.com/commercekit/authctx/pkg/contextkeys"
)

// User is the slice of the identity provider's user record this module
// consumes.
type User struct {
	ID string `json:"id"`
}

// Session is the per-request session as handed over by the identity
// provider.
type Session struct {
	User User `json:"user"`
}

// Provider yields the session for the current request. A nil session with a
// nil error means no one is signed in; errors are reserved for provider
// failures.
type Provider interface {
	GetSession(ctx context.Context) (*Session, error)
}

// ContextProvider reads the session previously attached to the request
// context by the embedding application's session middleware. It is the
// production Provider: the authorization service can then be called with no
// explicit user argument.
type ContextProvider struct{}

func (ContextProvider) GetSession(ctx context.Context) (*Session, error) {
	return FromContext(ctx), nil
}

// StaticProvider always returns the same session. Intended for tests and
// one-off tooling.
type StaticProvider struct {
	Session *Session
	Err     error
}

func (p StaticProvider) GetSession(ctx context.Context) (*Session, error) {
	return p.Session, p.Err
}

// NewContext returns a context carrying the session.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextkeys.SessionKey, s)
}

// FromContext extracts the session from the context, or nil when absent.
func FromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(contextkeys.SessionKey).(*Session)
	if !ok {
		return nil
	}
	return s
}
