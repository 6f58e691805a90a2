package models_test

import (
	"testing"
	"time"

	"github.com/forecasthub/service-credentials/service/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	testCases := []struct {
		name      string
		expiresAt *time.Time
		expired   bool
	}{
		{name: "No expiry never expires", expiresAt: nil, expired: false},
		{name: "Future expiry is live", expiresAt: &future, expired: false},
		{name: "Past expiry is expired", expiresAt: &past, expired: true},
		{name: "Expiry exactly now is expired", expiresAt: &now, expired: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key := &models.APIKey{ExpiresAt: tc.expiresAt, IsActive: true}
			assert.Equal(t, tc.expired, key.IsExpired(now))
		})
	}
}

func TestAPIKeyRevokeAndReactivate(t *testing.T) {
	now := time.Now()
	key := &models.APIKey{IsActive: true}

	err := key.Revoke(now, "compromised")
	require.NoError(t, err)
	assert.False(t, key.IsActive)
	require.NotNil(t, key.RevokedAt)
	assert.Equal(t, "compromised", key.RevokedReason)

	err = key.Revoke(now, "again")
	assert.ErrorIs(t, err, models.ErrAPIKeyAlreadyRevoked)

	err = key.Reactivate()
	require.NoError(t, err)
	assert.True(t, key.IsActive)
	assert.Nil(t, key.RevokedAt)
	assert.Empty(t, key.RevokedReason)

	err = key.Reactivate()
	assert.ErrorIs(t, err, models.ErrAPIKeyAlreadyActive)
}

func TestAPIKeyRecordUsage(t *testing.T) {
	now := time.Now()
	key := &models.APIKey{IsActive: true}

	key.RecordUsage(now)
	key.RecordUsage(now.Add(time.Minute))

	assert.Equal(t, int64(2), key.RequestCount)
	require.NotNil(t, key.LastUsedAt)
	assert.Equal(t, now.Add(time.Minute), *key.LastUsedAt)
}

func TestSessionIsValid(t *testing.T) {
	now := time.Now()
	revokedAt := now.Add(-time.Minute)

	testCases := []struct {
		name      string
		expiresAt time.Time
		revokedAt *time.Time
		valid     bool
	}{
		{name: "Live session is valid", expiresAt: now.Add(time.Hour), valid: true},
		{name: "Expired session is invalid", expiresAt: now.Add(-time.Hour)},
		{name: "Revoked session is invalid", expiresAt: now.Add(time.Hour), revokedAt: &revokedAt},
		{name: "Session expiring exactly now is invalid", expiresAt: now},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			session := &models.Session{ExpiresAt: tc.expiresAt, RevokedAt: tc.revokedAt}
			assert.Equal(t, tc.valid, session.IsValid(now))
		})
	}
}

func TestSessionRevokeIsTerminal(t *testing.T) {
	now := time.Now()
	session := &models.Session{ExpiresAt: now.Add(time.Hour)}

	err := session.Revoke(now, "logged out")
	require.NoError(t, err)
	assert.True(t, session.IsRevoked())
	assert.Equal(t, "logged out", session.RevokedReason)

	err = session.Revoke(now, "again")
	assert.ErrorIs(t, err, models.ErrSessionAlreadyRevoked)

	err = session.Extend(time.Hour)
	assert.ErrorIs(t, err, models.ErrSessionAlreadyRevoked)

	remaining, ok := session.Remaining(now)
	assert.False(t, ok)
	assert.Zero(t, remaining)
}

func TestSessionExtend(t *testing.T) {
	now := time.Now()
	expiry := now.Add(time.Hour)
	session := &models.Session{ExpiresAt: expiry}

	err := session.Extend(30 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, expiry.Add(30*time.Minute), session.ExpiresAt)

	err = session.Extend(0)
	assert.ErrorIs(t, err, models.ErrInvalidDuration)

	err = session.Extend(-time.Minute)
	assert.ErrorIs(t, err, models.ErrInvalidDuration)
}

func TestSessionRemaining(t *testing.T) {
	now := time.Now()
	session := &models.Session{ExpiresAt: now.Add(45 * time.Minute)}

	remaining, ok := session.Remaining(now)
	require.True(t, ok)
	assert.Equal(t, 45*time.Minute, remaining)
}

func TestSessionKind(t *testing.T) {
	web := &models.Session{Kind: models.SessionTypeWeb}
	api := &models.Session{Kind: models.SessionTypeApi}

	assert.True(t, web.IsWebSession())
	assert.False(t, web.IsApiSession())
	assert.True(t, api.IsApiSession())
	assert.False(t, api.IsWebSession())
}
