package authz

// Cache key families. The shapes are load-bearing: entries written by the
// previous generation of the storefront apps use exactly these prefixes,
// and the membership invalidation path still clears the legacy
// "auth:membership:" family alongside the current "member:" one.
const (
	contextKeyPrefix    = "auth:context:"
	memberKeyPrefix     = "member:"
	userOrgKeyPrefix    = "user:org:"
	membershipKeyPrefix = "auth:membership:"
)

func contextCacheKey(userID string) string {
	return contextKeyPrefix + userID
}

func memberCacheKey(userID, organizationID string) string {
	return memberKeyPrefix + userID + ":" + organizationID
}

func memberCachePattern(userID string) string {
	return memberKeyPrefix + userID + ":*"
}

func userOrgCacheKey(userID string) string {
	return userOrgKeyPrefix + userID
}

func membershipCacheKey(userID, organizationID string) string {
	return membershipKeyPrefix + userID + ":" + organizationID
}

func membershipCachePattern(userID string) string {
	return membershipKeyPrefix + userID + ":*"
}
