package authz

import (
	"context"
	"time"
)

// Role represents organization-level member roles
type Role string

const (
	RoleOwner   Role = "OWNER"   // Full control over the organization
	RoleAdmin   Role = "ADMIN"   // Manage resources and members
	RoleMember  Role = "MEMBER"  // Regular member access
	RoleCashier Role = "CASHIER" // Point-of-sale restricted access
)

// Cache TTLs per layer. Mutating callers must invalidate explicitly via
// InvalidateUser; TTL expiry is only the backstop for skipped
// invalidations. In particular the composite context (30m) can outlive the
// active-organization pointer (15m) that fed it - that window is closed by
// explicit invalidation, not by TTL tuning.
const (
	ContextTTL       = 30 * time.Minute
	MemberDetailsTTL = time.Hour
	ActiveOrgTTL     = 15 * time.Minute
)

// Context is the resolved authorization context a request handler needs to
// make access decisions: who the user is, which organization they are
// acting in, and what their role resolved to.
//
// JSON field names match the cache entries the storefront applications have
// always written, so a rolling deploy reads existing entries cleanly.
type Context struct {
	UserID                  string `json:"userId"`
	MemberID                string `json:"memberId"`
	OrganizationID          string `json:"organizationId"`
	Role                    Role   `json:"role,omitempty"`
	OrganizationName        string `json:"organizationName,omitempty"`
	OrganizationSlug        string `json:"organizationSlug,omitempty"`
	OrganizationDescription string `json:"organizationDescription,omitempty"`
}

// Valid reports whether a parsed cache entry is complete enough to serve.
// A partially populated entry is treated as a miss, never surfaced.
func (c *Context) Valid() bool {
	return c != nil && c.UserID != "" && c.MemberID != "" && c.OrganizationID != ""
}

// MemberDetails is the denormalized membership record for one
// (user, organization) pair. An empty MemberID means the user is not (or no
// longer) a member; that negative result is cached with the same TTL as a
// positive one so repeated probes by non-members do not hammer the source
// of record.
type MemberDetails struct {
	MemberID                string `json:"memberId"`
	Role                    Role   `json:"role,omitempty"`
	OrganizationSlug        string `json:"organizationSlug,omitempty"`
	OrganizationName        string `json:"organizationName,omitempty"`
	OrganizationDescription string `json:"organizationDescription,omitempty"`
}

// IsMember reports whether the details describe an actual membership.
func (d *MemberDetails) IsMember() bool {
	return d != nil && d.MemberID != ""
}

// Membership is the persisted membership row joined with its organization,
// as returned by the source of record.
type Membership struct {
	ID                      string
	Role                    Role
	OrganizationSlug        string
	OrganizationName        string
	OrganizationDescription string
}

// UserPreferences is the slice of the persisted user record this module
// consumes: the "currently selected organization" pointer.
type UserPreferences struct {
	ActiveOrganizationID string
}

// Records is the source-of-record boundary. The cache is strictly a
// derived, disposable copy of what these lookups return.
//
// Both methods return (nil, nil) when no row exists; errors are reserved
// for query failures.
type Records interface {
	FindMembership(ctx context.Context, organizationID, userID string) (*Membership, error)
	FindUserPreferences(ctx context.Context, userID string) (*UserPreferences, error)
}
