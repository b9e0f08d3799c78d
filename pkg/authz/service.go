package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/commercekit/authctx/pkg/cache"
	"github.com/commercekit/authctx/pkg/observability"
	"github.com/commercekit/authctx/pkg/session"
)

// cacheWriteTimeout bounds detached cache writes, which run outside the
// request's own context.
const cacheWriteTimeout = 3 * time.Second

// Cache layer names used in logs and metrics.
const (
	layerContext       = "context"
	layerMemberDetails = "member_details"
	layerUserOrg       = "user_org"
)

// Service resolves authorization contexts through a three-stage pipeline
// (session, active organization, membership) with a read-through cache at
// every stage. It holds no mutable state of its own; all coordination
// happens through the cache backend, so concurrent resolutions of the same
// user may race - both compute the same value from the same source of
// record and the last idempotent write wins.
type Service struct {
	cache    cache.Store
	records  Records
	sessions session.Provider
	logger   *observability.Logger
	metrics  *observability.Metrics

	// writes tracks detached cache writes so Close can drain them.
	writes sync.WaitGroup
}

// NewService constructs a Service. metrics may be nil.
func NewService(store cache.Store, records Records, sessions session.Provider, logger *observability.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Service{
		cache:    store,
		records:  records,
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
	}
}

// Close waits for in-flight detached cache writes to settle.
func (s *Service) Close() {
	s.writes.Wait()
}

// GetContext resolves the authorization context for the current session.
// The pipeline is strictly sequential and fails fast with one of the three
// distinguishable conditions; see the package errors.
func (s *Service) GetContext(ctx context.Context) (*Context, error) {
	start := time.Now()

	sess, err := s.sessions.GetSession(ctx)
	if err != nil {
		s.markResolution("session_error")
		return nil, fmt.Errorf("failed to retrieve user session: %w", err)
	}
	if sess == nil || sess.User.ID == "" {
		s.markResolution("unauthenticated")
		return nil, ErrUnauthenticated
	}
	userID := sess.User.ID

	key := contextCacheKey(userID)
	if cached := s.cachedContext(ctx, key); cached != nil {
		s.markResolution("cache_hit")
		s.observeDuration(start)
		return cached, nil
	}

	activeOrgID, err := s.ResolveActiveOrganization(ctx, userID)
	if err != nil {
		s.markResolution("record_error")
		return nil, err
	}
	if activeOrgID == "" {
		s.markResolution("no_active_org")
		return nil, ErrNoActiveOrganization
	}

	details, err := s.ResolveMembership(ctx, userID, activeOrgID)
	if err != nil {
		s.markResolution("record_error")
		return nil, err
	}
	if !details.IsMember() {
		s.markResolution("not_a_member")
		return nil, &NotMemberError{OrganizationID: activeOrgID}
	}

	authCtx := &Context{
		UserID:                  userID,
		MemberID:                details.MemberID,
		OrganizationID:          activeOrgID,
		Role:                    details.Role,
		OrganizationName:        details.OrganizationName,
		OrganizationSlug:        details.OrganizationSlug,
		OrganizationDescription: details.OrganizationDescription,
	}

	if payload, err := json.Marshal(authCtx); err != nil {
		s.logger.WithError(err).Warn("failed to serialize auth context for caching")
	} else {
		s.writeThrough(key, ContextTTL, string(payload), layerContext)
	}

	s.markResolution("resolved")
	s.observeDuration(start)
	return authCtx, nil
}

// cachedContext returns a valid cached composite, or nil on miss. Any
// backend or parse failure, and any entry missing one of the three
// mandatory ids, is a miss.
func (s *Service) cachedContext(ctx context.Context, key string) *Context {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.markCacheError(layerContext, "get")
		s.logger.WithError(err).WithField("key", key).Warn("cache read failed, falling back to source of record")
		return nil
	}
	if !ok {
		s.markMiss(layerContext)
		return nil
	}

	var cached Context
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		s.markMiss(layerContext)
		s.logger.WithError(err).WithField("key", key).Warn("discarding malformed cached auth context")
		return nil
	}
	if !cached.Valid() {
		s.markMiss(layerContext)
		s.logger.WithField("key", key).Debug("discarding incomplete cached auth context")
		return nil
	}

	s.markHit(layerContext)
	return &cached
}

// writeThrough issues a best-effort cache population. The write is
// detached from the caller's control flow: its only observable outcome is
// a log line and an error counter.
func (s *Service) writeThrough(key string, ttl time.Duration, value, layer string) {
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		defer observability.RecoverPanic(s.logger, "cache write")
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		if err := s.cache.SetEx(ctx, key, ttl, value); err != nil {
			s.markCacheError(layer, "set")
			s.logger.WithError(err).WithField("key", key).Warn("cache write failed")
		}
	}()
}

func (s *Service) markHit(layer string) {
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues(layer).Inc()
	}
}

func (s *Service) markMiss(layer string) {
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.WithLabelValues(layer).Inc()
	}
}

func (s *Service) markCacheError(layer, op string) {
	if s.metrics != nil {
		s.metrics.CacheErrorsTotal.WithLabelValues(layer, op).Inc()
	}
}

func (s *Service) markLookup(kind string) {
	if s.metrics != nil {
		s.metrics.RecordLookupsTotal.WithLabelValues(kind).Inc()
	}
}

func (s *Service) markResolution(outcome string) {
	if s.metrics != nil {
		s.metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) observeDuration(start time.Time) {
	if s.metrics != nil {
		s.metrics.ResolutionDuration.Observe(time.Since(start).Seconds())
	}
}
