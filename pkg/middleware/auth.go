package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/commercekit/authctx/pkg/authz"
	"github.com/commercekit/authctx/pkg/contextkeys"
	"github.com/commercekit/authctx/pkg/httputil"
	"github.com/commercekit/authctx/pkg/observability"
)

// errorResponse is the JSON body written for a failed authorization
// resolution. Code stays stable so clients can branch on it; the three
// conditions are never collapsed into one generic failure.
type errorResponse struct {
	Error          string `json:"error"`
	Code           string `json:"code"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// RequireAuthContext resolves the authorization context for the request and
// stores it in the request context. The three failure conditions map to
// distinct responses so callers can route to sign-in, the organization
// picker, or an access-revoked page.
func RequireAuthContext(svc *authz.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, err := svc.GetContext(r.Context())
			if err != nil {
				writeAuthError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), contextkeys.AuthContextKey, authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var nm *authz.NotMemberError
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		httputil.WriteJSON(w, http.StatusUnauthorized, errorResponse{
			Error: err.Error(),
			Code:  "unauthenticated",
		})
	case errors.Is(err, authz.ErrNoActiveOrganization):
		httputil.WriteJSON(w, http.StatusForbidden, errorResponse{
			Error: err.Error(),
			Code:  "no_active_organization",
		})
	case errors.As(err, &nm):
		httputil.WriteJSON(w, http.StatusForbidden, errorResponse{
			Error:          err.Error(),
			Code:           "not_a_member",
			OrganizationID: nm.OrganizationID,
		})
	default:
		observability.FromContext(r.Context()).WithError(err).Error("authorization context resolution failed")
		httputil.WriteJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "authorization context resolution failed",
			Code:  "internal",
		})
	}
}

// GetAuthContext extracts the resolved authorization context from a request.
func GetAuthContext(r *http.Request) *authz.Context {
	authCtx, ok := r.Context().Value(contextkeys.AuthContextKey).(*authz.Context)
	if !ok {
		return nil
	}
	return authCtx
}
