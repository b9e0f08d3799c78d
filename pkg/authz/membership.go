package authz

import (
	"context"
	"encoding/json"
)

// ResolveMembership returns the member record for (userID, organizationID)
// with read-through caching. A user who is not a member resolves to details
// with an empty MemberID, and that negative result is cached with the same
// TTL as a positive one. Empty ids short-circuit without any lookup.
func (s *Service) ResolveMembership(ctx context.Context, userID, organizationID string) (*MemberDetails, error) {
	if userID == "" || organizationID == "" {
		return &MemberDetails{}, nil
	}

	key := memberCacheKey(userID, organizationID)

	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.markCacheError(layerMemberDetails, "get")
		s.logger.WithError(err).WithField("key", key).Warn("cache read failed, falling back to source of record")
	} else if ok {
		var cached MemberDetails
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			s.markMiss(layerMemberDetails)
			s.logger.WithError(err).WithField("key", key).Warn("discarding malformed cached member details")
		} else {
			s.markHit(layerMemberDetails)
			return &cached, nil
		}
	} else {
		s.markMiss(layerMemberDetails)
	}

	s.markLookup("membership")
	member, err := s.records.FindMembership(ctx, organizationID, userID)
	if err != nil {
		return nil, err
	}

	details := &MemberDetails{}
	if member != nil {
		details = &MemberDetails{
			MemberID:                member.ID,
			Role:                    member.Role,
			OrganizationSlug:        member.OrganizationSlug,
			OrganizationName:        member.OrganizationName,
			OrganizationDescription: member.OrganizationDescription,
		}
	}

	if payload, err := json.Marshal(details); err != nil {
		s.logger.WithError(err).Warn("failed to serialize member details for caching")
	} else {
		s.writeThrough(key, MemberDetailsTTL, string(payload), layerMemberDetails)
	}

	return details, nil
}
