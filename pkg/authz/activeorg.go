package authz

import "context"

// ResolveActiveOrganization returns the organization the user last
// selected, with read-through caching, or "" when none is set. The pointer
// is cached as a raw string keyed by user id alone.
//
// Unlike membership, an absent pointer is not cached: the common absent
// case is a user who has not picked an organization yet, which is expected
// to change on the next call rather than be remembered.
func (s *Service) ResolveActiveOrganization(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}

	key := userOrgCacheKey(userID)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.markCacheError(layerUserOrg, "get")
		s.logger.WithError(err).WithField("key", key).Warn("cache read failed, falling back to source of record")
	} else if ok && cached != "" {
		s.markHit(layerUserOrg)
		return cached, nil
	} else {
		s.markMiss(layerUserOrg)
	}

	s.markLookup("user_preferences")
	prefs, err := s.records.FindUserPreferences(ctx, userID)
	if err != nil {
		return "", err
	}
	if prefs == nil || prefs.ActiveOrganizationID == "" {
		return "", nil
	}

	s.writeThrough(key, ActiveOrgTTL, prefs.ActiveOrganizationID, layerUserOrg)
	return prefs.ActiveOrganizationID, nil
}
