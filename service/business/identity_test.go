package business_test

import (
	"context"
	"testing"
	"time"

	"github.com/forecasthub/service-credentials/service/business"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityStoreCreateUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLoginRepository()
	identity := business.NewIdentityStore(repo)

	login, err := identity.CreateUser(ctx, "user@example.com", "secret phrase", "")
	require.NoError(t, err)
	assert.NotEmpty(t, login.ProfileID, "a blank profile id gets generated")
	assert.NotEmpty(t, login.ContactHash)
	assert.NotContains(t, string(login.PasswordHash), "secret phrase")

	withProfile, err := identity.CreateUser(ctx, "other@example.com", "secret phrase", "profile-42")
	require.NoError(t, err)
	assert.Equal(t, "profile-42", withProfile.ProfileID)

	_, err = identity.CreateUser(ctx, "user@example.com", "secret phrase", "")
	assert.ErrorIs(t, err, business.ErrContactAlreadyRegistered)
}

func TestIdentityStoreValidateCredentials(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLoginRepository()
	identity := business.NewIdentityStore(repo)

	created, err := identity.CreateUser(ctx, "user@example.com", "secret phrase", "")
	require.NoError(t, err)

	login, err := identity.ValidateCredentials(ctx, "user@example.com", "secret phrase")
	require.NoError(t, err)
	require.NotNil(t, login)
	assert.Equal(t, created.ProfileID, login.ProfileID)

	login, err = identity.ValidateCredentials(ctx, "user@example.com", "wrong phrase")
	require.NoError(t, err)
	assert.Nil(t, login, "a wrong password validates to nil without error")

	login, err = identity.ValidateCredentials(ctx, "stranger@example.com", "secret phrase")
	require.NoError(t, err)
	assert.Nil(t, login, "an unknown contact validates to nil without error")
}

func TestIdentityStoreLockedAccount(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLoginRepository()
	identity := business.NewIdentityStore(repo)

	created, err := identity.CreateUser(ctx, "user@example.com", "secret phrase", "")
	require.NoError(t, err)

	created.Locked = time.Now()
	require.NoError(t, repo.Save(ctx, created))

	login, err := identity.ValidateCredentials(ctx, "user@example.com", "secret phrase")
	require.NoError(t, err)
	assert.Nil(t, login, "a locked account validates to nil even with the right password")
}

func TestIdentityStoreRecordLogin(t *testing.T) {
	ctx := context.Background()
	repo := newFakeLoginRepository()
	identity := business.NewIdentityStore(repo)

	created, err := identity.CreateUser(ctx, "user@example.com", "secret phrase", "")
	require.NoError(t, err)
	require.Nil(t, created.LastLoginAt)

	at := time.Now()
	require.NoError(t, identity.RecordLogin(ctx, created, at))

	stored, err := repo.GetByID(ctx, created.GetID())
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, at, *stored.LastLoginAt)
}
