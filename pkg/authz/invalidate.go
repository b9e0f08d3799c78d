package authz

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// InvalidationKind selects which cache layer Invalidate drops.
type InvalidationKind string

const (
	// InvalidateContext drops the composite context keyed by user id.
	InvalidateContext InvalidationKind = "context"
	// InvalidateMembership drops member details for one organization, or
	// for every organization when none is given.
	InvalidateMembership InvalidationKind = "membership"
	// InvalidateUserOrg drops the active-organization pointer.
	InvalidateUserOrg InvalidationKind = "user-org"
)

// Invalidate drops cache entries of one kind for the given user.
// organizationID only applies to InvalidateMembership; when it is empty the
// user's whole membership key family is found by a prefix scan and deleted.
//
// Invalidation is idempotent and never fails the caller: a backend error
// leaves some entries stale for at most their remaining TTL, which is
// acceptable, while blocking the triggering mutation is not. Failures are
// logged and counted.
func (s *Service) Invalidate(ctx context.Context, kind InvalidationKind, userID, organizationID string) {
	if err := s.invalidate(ctx, kind, userID, organizationID); err != nil {
		s.logger.WithError(err).
			WithFields(map[string]interface{}{"kind": string(kind), "user_id": userID}).
			Error("cache invalidation failed")
	}
}

func (s *Service) invalidate(ctx context.Context, kind InvalidationKind, userID, organizationID string) error {
	if userID == "" {
		return nil
	}

	var keys []string

	switch kind {
	case InvalidateContext:
		keys = append(keys, contextCacheKey(userID))
	case InvalidateUserOrg:
		keys = append(keys, userOrgCacheKey(userID))
	case InvalidateMembership:
		if organizationID != "" {
			keys = append(keys,
				memberCacheKey(userID, organizationID),
				membershipCacheKey(userID, organizationID),
			)
		} else {
			// Organization unknown to the caller: scan, don't guess.
			for _, pattern := range []string{memberCachePattern(userID), membershipCachePattern(userID)} {
				matched, err := s.cache.Keys(ctx, pattern)
				if err != nil {
					s.markCacheError(string(kind), "keys")
					return err
				}
				keys = append(keys, matched...)
			}
		}
	default:
		s.logger.WithField("kind", string(kind)).Warn("ignoring unknown invalidation kind")
		return nil
	}

	if len(keys) == 0 {
		return nil
	}
	if _, err := s.cache.Del(ctx, keys...); err != nil {
		s.markCacheError(string(kind), "del")
		return err
	}

	if s.metrics != nil {
		s.metrics.InvalidationsTotal.WithLabelValues(string(kind)).Inc()
	}
	return nil
}

// InvalidateUser drops the composite context, the active-organization
// pointer, and the membership entries (scoped to organizationID when
// given) together. The three deletions run concurrently.
//
// Mutating callers - role changes, membership removal, organization
// switches - must call this synchronously before reporting success, so no
// window exists where stale authorization data is served after the change.
func (s *Service) InvalidateUser(ctx context.Context, userID, organizationID string) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.invalidate(gctx, InvalidateContext, userID, "") })
	g.Go(func() error { return s.invalidate(gctx, InvalidateUserOrg, userID, "") })
	g.Go(func() error { return s.invalidate(gctx, InvalidateMembership, userID, organizationID) })

	if err := g.Wait(); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).
			Error("user cache invalidation incomplete, stale entries expire with their TTL")
	}
}
