// Package authz resolves the authorization context - the (user, member,
// organization, role) tuple every server-side request needs - with a
// read-through cache at each stage.
//
// # Pipeline
//
// GetContext runs a strict three-stage pipeline:
//
//  1. Session: the current user id is read from the session provider.
//     Missing session or user id fails with ErrUnauthenticated.
//  2. Active organization: the user's "last selected organization" pointer,
//     cached 15 minutes. Absent fails with ErrNoActiveOrganization.
//  3. Membership: the member record for (user, active org) joined with the
//     organization's display fields, cached 1 hour with negative caching.
//     Absent fails with NotMemberError naming the organization.
//
// The assembled composite is itself cached for 30 minutes keyed by user id
// alone (a user acts in one organization at a time). A cached composite is
// only served when it carries a user id, member id and organization id;
// anything partial is a miss.
//
// # Consistency
//
// The cache is best effort and the source of record is mandatory: read
// failures degrade to misses, write failures are logged and dropped, and
// consistency is "eventually correct within TTL bounds". Callers that
// mutate memberships, roles, or the active organization must call
// InvalidateUser synchronously on their success path; TTLs are the backstop,
// not the mechanism.
//
// No locking or single-flight is used. Two concurrent resolutions of the
// same uncached user both hit the source of record and both write the same
// value; the writes are idempotent and cheap enough that a distributed
// lock would cost more than the race.
package authz
