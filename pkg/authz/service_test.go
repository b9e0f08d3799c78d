package authz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/authctx/pkg/cache"
	"github.com/commercekit/authctx/pkg/observability"
	"github.com/commercekit/authctx/pkg/session"
)

// fakeRecords is an instrumented in-memory source of record. Call counts
// let tests assert how many lookups a code path actually issued.
type fakeRecords struct {
	mu sync.Mutex

	memberships map[string]*Membership // keyed orgID + "|" + userID
	prefs       map[string]string      // userID -> active org id

	membershipCalls int
	prefsCalls      int

	err error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		memberships: make(map[string]*Membership),
		prefs:       make(map[string]string),
	}
}

func (f *fakeRecords) setMembership(orgID, userID string, m *Membership) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m == nil {
		delete(f.memberships, orgID+"|"+userID)
		return
	}
	f.memberships[orgID+"|"+userID] = m
}

func (f *fakeRecords) setActiveOrg(userID, orgID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs[userID] = orgID
}

func (f *fakeRecords) FindMembership(ctx context.Context, organizationID, userID string) (*Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.membershipCalls++
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.memberships[organizationID+"|"+userID]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (f *fakeRecords) FindUserPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefsCalls++
	if f.err != nil {
		return nil, f.err
	}
	orgID, ok := f.prefs[userID]
	if !ok {
		return nil, nil
	}
	return &UserPreferences{ActiveOrganizationID: orgID}, nil
}

func (f *fakeRecords) calls() (membership, prefs int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.membershipCalls, f.prefsCalls
}

// failingStore errors on every operation, simulating a cache outage.
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("cache unavailable")
}

func (failingStore) SetEx(ctx context.Context, key string, ttl time.Duration, value string) error {
	return errors.New("cache unavailable")
}

func (failingStore) Del(ctx context.Context, keys ...string) (int64, error) {
	return 0, errors.New("cache unavailable")
}

func (failingStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, errors.New("cache unavailable")
}

func sessionFor(userID string) session.Provider {
	return session.StaticProvider{Session: &session.Session{User: session.User{ID: userID}}}
}

func newTestService(t *testing.T, sessions session.Provider, records Records) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := cache.NewRedisStore(cache.Config{
		RedisURL: "redis://" + mr.Addr(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := NewService(store, records, sessions, observability.NewNopLogger(), nil)
	t.Cleanup(svc.Close)
	return svc, mr
}

// seedMember populates the fake records with a user who has an active org
// and a membership in it.
func seedMember(records *fakeRecords, userID, orgID string, role Role) {
	records.setActiveOrg(userID, orgID)
	records.setMembership(orgID, userID, &Membership{
		ID:                      "mem_" + userID,
		Role:                    role,
		OrganizationSlug:        "acme",
		OrganizationName:        "Acme Inc",
		OrganizationDescription: "bakery wholesale",
	})
}

func TestGetContext_NoSession(t *testing.T) {
	svc, _ := newTestService(t, session.StaticProvider{}, newFakeRecords())

	_, err := svc.GetContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetContext_EmptyUserID(t *testing.T) {
	svc, _ := newTestService(t, sessionFor(""), newFakeRecords())

	_, err := svc.GetContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetContext_SessionProviderFailure(t *testing.T) {
	provider := session.StaticProvider{Err: errors.New("identity provider down")}
	svc, _ := newTestService(t, provider, newFakeRecords())

	_, err := svc.GetContext(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.Contains(t, err.Error(), "identity provider down")
}

func TestGetContext_NoActiveOrganization(t *testing.T) {
	records := newFakeRecords()
	svc, _ := newTestService(t, sessionFor("u1"), records)

	_, err := svc.GetContext(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveOrganization)
}

func TestGetContext_NotAMember(t *testing.T) {
	records := newFakeRecords()
	records.setActiveOrg("u1", "org_1")
	svc, _ := newTestService(t, sessionFor("u1"), records)

	_, err := svc.GetContext(context.Background())
	require.Error(t, err)

	var nm *NotMemberError
	require.ErrorAs(t, err, &nm)
	assert.Equal(t, "org_1", nm.OrganizationID)
	assert.Contains(t, err.Error(), "org_1")
	assert.True(t, IsNotMember(err))
}

func TestGetContext_ResolvesAndCaches(t *testing.T) {
	records := newFakeRecords()
	seedMember(records, "u1", "org_1", RoleAdmin)
	svc, mr := newTestService(t, sessionFor("u1"), records)

	first, err := svc.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", first.UserID)
	assert.Equal(t, "mem_u1", first.MemberID)
	assert.Equal(t, "org_1", first.OrganizationID)
	assert.Equal(t, RoleAdmin, first.Role)
	assert.Equal(t, "Acme Inc", first.OrganizationName)
	assert.Equal(t, "acme", first.OrganizationSlug)

	// Let the detached write-throughs land, then verify the composite is
	// served from cache with no further source-of-record traffic.
	svc.writes.Wait()
	require.True(t, mr.Exists("auth:context:u1"))

	second, err := svc.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	membershipCalls, prefsCalls := records.calls()
	assert.Equal(t, 1, membershipCalls)
	assert.Equal(t, 1, prefsCalls)
}

func TestGetContext_CompositeTTL(t *testing.T) {
	records := newFakeRecords()
	seedMember(records, "u1", "org_1", RoleAdmin)
	svc, mr := newTestService(t, sessionFor("u1"), records)

	_, err := svc.GetContext(context.Background())
	require.NoError(t, err)
	svc.writes.Wait()

	ttl := mr.TTL("auth:context:u1")
	assert.Equal(t, ContextTTL, ttl)
}

func TestGetContext_ExpiredCompositeReResolves(t *testing.T) {
	records := newFakeRecords()
	seedMember(records, "u1", "org_1", RoleAdmin)
	svc, mr := newTestService(t, sessionFor("u1"), records)

	_, err := svc.GetContext(context.Background())
	require.NoError(t, err)
	svc.writes.Wait()

	mr.FastForward(ContextTTL + MemberDetailsTTL + time.Minute)

	_, err = svc.GetContext(context.Background())
	require.NoError(t, err)

	membershipCalls, _ := records.calls()
	assert.Equal(t, 2, membershipCalls)
}

func TestGetContext_IncompleteCachedEntryIsAMiss(t *testing.T) {
	records := newFakeRecords()
	seedMember(records, "u1", "org_1", RoleAdmin)
	svc, mr := newTestService(t, sessionFor("u1"), records)

	// Simulates a corrupted or stale-shaped entry: memberId is missing.
	mr.Set("auth:context:u1", `{"userId":"u1","organizationId":"org_1"}`)

	got, err := svc.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mem_u1", got.MemberID)

	membershipCalls, _ := records.calls()
	assert.Equal(t, 1, membershipCalls)
}

func TestGetContext_MalformedCachedEntryIsAMiss(t *testing.T) {
	records := newFakeRecords()
	seedMember(records, "u1", "org_1", RoleAdmin)
	svc, mr := newTestService(t, sessionFor("u1"), records)

	mr.Set("auth:context:u1", "not json at all")

	got, err := svc.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "mem_u1", got.MemberID)
}

func TestGetContext_CacheOutageDegradesToSource(t *testing.T) {
	records := newFakeRecords()
	seedMember(records, "u1", "org_1", RoleAdmin)

	svc := NewService(failingStore{}, records, sessionFor("u1"), observability.NewNopLogger(), nil)
	defer svc.Close()

	got, err := svc.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mem_u1", got.MemberID)
	assert.Equal(t, RoleAdmin, got.Role)
}

func TestGetContext_RoleChangeVisibleAfterInvalidation(t *testing.T) {
	records := newFakeRecords()
	seedMember(records, "u1", "org_1", RoleAdmin)
	svc, _ := newTestService(t, sessionFor("u1"), records)

	got, err := svc.GetContext(context.Background())
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, got.Role)
	svc.writes.Wait()

	// The mutating path demotes the member and invalidates synchronously.
	records.setMembership("org_1", "u1", &Membership{
		ID:               "mem_u1",
		Role:             RoleMember,
		OrganizationSlug: "acme",
		OrganizationName: "Acme Inc",
	})
	svc.InvalidateUser(context.Background(), "u1", "org_1")

	got, err = svc.GetContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RoleMember, got.Role)
}

func TestGetContext_ConcurrentResolutionsAgree(t *testing.T) {
	records := newFakeRecords()
	seedMember(records, "u1", "org_1", RoleOwner)
	svc, _ := newTestService(t, sessionFor("u1"), records)

	const n = 8
	results := make(chan *Context, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.GetContext(context.Background())
			if err != nil {
				errs <- err
				return
			}
			results <- got
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent resolution failed: %v", err)
	}
	for got := range results {
		assert.Equal(t, "mem_u1", got.MemberID)
		assert.Equal(t, RoleOwner, got.Role)
	}
}

func TestContextValid(t *testing.T) {
	tests := []struct {
		name  string
		ctx   *Context
		valid bool
	}{
		{
			name:  "complete",
			ctx:   &Context{UserID: "u1", MemberID: "m1", OrganizationID: "o1"},
			valid: true,
		},
		{
			name:  "missing member id",
			ctx:   &Context{UserID: "u1", OrganizationID: "o1"},
			valid: false,
		},
		{
			name:  "missing organization id",
			ctx:   &Context{UserID: "u1", MemberID: "m1"},
			valid: false,
		},
		{
			name:  "missing user id",
			ctx:   &Context{MemberID: "m1", OrganizationID: "o1"},
			valid: false,
		},
		{
			name:  "nil",
			ctx:   nil,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.ctx.Valid())
		})
	}
}
