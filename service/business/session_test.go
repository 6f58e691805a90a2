package business_test

import (
	"context"
	"testing"
	"time"

	"github.com/forecasthub/service-credentials/service/business"
	"github.com/forecasthub/service-credentials/service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreCreateSession(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		kind        models.SessionType
		token       string
		ttl         time.Duration
		expectedTTL time.Duration
	}{
		{
			name:        "Web session gets the seven day default",
			kind:        models.SessionTypeWeb,
			expectedTTL: business.DefaultWebSessionTTL,
		},
		{
			name:        "Api session gets the one day default",
			kind:        models.SessionTypeApi,
			expectedTTL: business.DefaultApiSessionTTL,
		},
		{
			name:        "Explicit ttl is honoured",
			kind:        models.SessionTypeWeb,
			ttl:         time.Hour,
			expectedTTL: time.Hour,
		},
		{
			name:        "Supplied token is kept",
			kind:        models.SessionTypeApi,
			token:       "caller-supplied-token",
			expectedTTL: business.DefaultApiSessionTTL,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeSessionRepository()
			store := business.NewSessionStore(repo)

			session, err := store.CreateSession(ctx, "profile-1", tc.token, tc.kind, "192.0.2.1", "test-agent", tc.ttl)
			require.NoError(t, err)
			require.NotNil(t, session)

			assert.NotEmpty(t, session.GetID())
			assert.NotEmpty(t, session.Token)
			if tc.token != "" {
				assert.Equal(t, tc.token, session.Token)
			}
			assert.Equal(t, tc.kind, session.Kind)
			assert.WithinDuration(t, session.IssuedAt.Add(tc.expectedTTL), session.ExpiresAt, time.Second)

			valid, err := store.IsValid(ctx, session.Token)
			require.NoError(t, err)
			assert.True(t, valid)

			require.Len(t, repo.links, 1)
			assert.Equal(t, "profile-1", repo.links[0].ProfileID)
			assert.Equal(t, session.GetID(), repo.links[0].SessionID)
		})
	}
}

func TestSessionStoreIsValid(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepository()
	store := business.NewSessionStore(repo)

	valid, err := store.IsValid(ctx, "unknown-token")
	require.NoError(t, err)
	assert.False(t, valid, "an unknown token is not valid")

	session, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "", "", time.Hour)
	require.NoError(t, err)

	revoked, err := store.Revoke(ctx, session.GetID(), "test")
	require.NoError(t, err)
	require.True(t, revoked)

	valid, err = store.IsValid(ctx, session.Token)
	require.NoError(t, err)
	assert.False(t, valid, "a revoked token is not valid")
}

func TestSessionStoreRevoke(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepository()
	store := business.NewSessionStore(repo)

	session, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "", "", time.Hour)
	require.NoError(t, err)

	revoked, err := store.Revoke(ctx, "no-such-session", "whatever")
	require.NoError(t, err)
	assert.False(t, revoked, "an unknown session revokes to a no-op")

	revoked, err = store.Revoke(ctx, session.GetID(), "owner request")
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = store.Revoke(ctx, session.GetID(), "again")
	assert.ErrorIs(t, err, models.ErrSessionAlreadyRevoked)

	stored, err := repo.GetByID(ctx, session.GetID())
	require.NoError(t, err)
	assert.Equal(t, "owner request", stored.RevokedReason)
}

func TestSessionStoreRevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepository()
	store := business.NewSessionStore(repo)

	// Two devices hold live sessions, then a third login replaces them.
	deviceA, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "192.0.2.1", "device-a", 0)
	require.NoError(t, err)
	deviceB, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeApi, "192.0.2.2", "device-b", 0)
	require.NoError(t, err)
	other, err := store.CreateSession(ctx, "profile-2", "", models.SessionTypeWeb, "", "", 0)
	require.NoError(t, err)

	revoked, err := store.RevokeAllForUser(ctx, "profile-1")
	require.NoError(t, err)
	assert.Equal(t, 2, revoked, "both channels are swept on a fresh login")

	for _, token := range []string{deviceA.Token, deviceB.Token} {
		valid, validErr := store.IsValid(ctx, token)
		require.NoError(t, validErr)
		assert.False(t, valid)
	}

	valid, err := store.IsValid(ctx, other.Token)
	require.NoError(t, err)
	assert.True(t, valid, "another profile's session is untouched")
}

func TestSessionStoreRevokeChannelForUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepository()
	store := business.NewSessionStore(repo)

	web, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "", "", 0)
	require.NoError(t, err)
	api, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeApi, "", "", 0)
	require.NoError(t, err)

	revoked, err := store.RevokeChannelForUser(ctx, "profile-1", models.SessionTypeWeb)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)

	valid, err := store.IsValid(ctx, web.Token)
	require.NoError(t, err)
	assert.False(t, valid, "web logout revokes the web session")

	valid, err = store.IsValid(ctx, api.Token)
	require.NoError(t, err)
	assert.True(t, valid, "web logout leaves the api session standing")
}

func TestSessionStoreGetActiveSessions(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepository()
	store := business.NewSessionStore(repo)

	live, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "", "", time.Hour)
	require.NoError(t, err)
	dead, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "", "", time.Hour)
	require.NoError(t, err)

	_, err = store.Revoke(ctx, dead.GetID(), "cleanup")
	require.NoError(t, err)

	active, err := store.GetActiveSessions(ctx, "profile-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, live.GetID(), active[0].GetID())
}

func TestSessionStoreExtend(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepository()
	store := business.NewSessionStore(repo)

	session, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "", "", time.Hour)
	require.NoError(t, err)

	err = store.Extend(ctx, session.GetID(), time.Hour)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, session.GetID())
	require.NoError(t, err)
	assert.Equal(t, session.ExpiresAt.Add(time.Hour), stored.ExpiresAt)

	err = store.Extend(ctx, "no-such-session", time.Hour)
	assert.ErrorIs(t, err, business.ErrSessionNotFound)

	_, err = store.Revoke(ctx, session.GetID(), "done")
	require.NoError(t, err)

	err = store.Extend(ctx, session.GetID(), time.Hour)
	assert.ErrorIs(t, err, models.ErrSessionAlreadyRevoked)
}

func TestSessionStoreGetRemainingLifetime(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepository()
	store := business.NewSessionStore(repo)

	session, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "", "", time.Hour)
	require.NoError(t, err)

	remaining, ok, err := store.GetRemainingLifetime(ctx, session.GetID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, remaining, 59*time.Minute)
	assert.LessOrEqual(t, remaining, time.Hour)

	_, ok, err = store.GetRemainingLifetime(ctx, "no-such-session")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Revoke(ctx, session.GetID(), "done")
	require.NoError(t, err)

	_, ok, err = store.GetRemainingLifetime(ctx, session.GetID())
	require.NoError(t, err)
	assert.False(t, ok, "a revoked session has no remaining lifetime")
}

func TestSessionStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	repo := newFakeSessionRepository()
	store := business.NewSessionStore(repo)

	expired := &models.Session{
		Token:     "expired-token",
		ProfileID: "profile-1",
		Kind:      models.SessionTypeWeb,
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Save(ctx, expired))

	live, err := store.CreateSession(ctx, "profile-1", "", models.SessionTypeWeb, "", "", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.PurgeExpired(ctx))

	gone, err := repo.GetByID(ctx, expired.GetID())
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := repo.GetByID(ctx, live.GetID())
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
