package authz

import (
	"errors"
	"fmt"
)

// The three conditions a caller of GetContext must be able to tell apart:
// no session at all, a session without an active organization, and an
// active organization the user is no longer a member of. They route to
// different UI flows (sign-in, organization picker, access-revoked page)
// and must never be collapsed into one generic failure.
var (
	// ErrUnauthenticated means there is no session or no user id in it.
	ErrUnauthenticated = errors.New("unauthorized: no user id found in session")

	// ErrNoActiveOrganization means the session is valid but the user has
	// not selected an organization yet.
	ErrNoActiveOrganization = errors.New("no active organization is set for the user")
)

// NotMemberError means the user's active organization resolved, but no
// membership row exists for the pair. Carries the organization id so the
// caller can name it in a "request access" flow.
type NotMemberError struct {
	OrganizationID string
}

func (e *NotMemberError) Error() string {
	return fmt.Sprintf("user is not an active member of the designated organization (ID: %s)", e.OrganizationID)
}

// IsNotMember reports whether err is a NotMemberError.
func IsNotMember(err error) bool {
	var nm *NotMemberError
	return errors.As(err, &nm)
}
