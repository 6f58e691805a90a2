package business

import (
	"context"
	"errors"
	"time"

	"github.com/forecasthub/service-credentials/service/models"
	"github.com/forecasthub/service-credentials/service/repository"
	"github.com/forecasthub/service-credentials/utils"
	"github.com/pitabwire/util"
)

// ErrContactAlreadyRegistered rejects registration of a contact that already
// has a login.
var ErrContactAlreadyRegistered = errors.New("contact is already registered")

// IdentityStore validates and creates interactive account credentials. The
// orchestrator only depends on this interface so a remote identity service
// can stand in for the local implementation.
type IdentityStore interface {
	// ValidateCredentials returns the matching login, or nil with no error
	// when the contact is unknown, the password is wrong or the account is
	// locked. The three cases are deliberately indistinguishable.
	ValidateCredentials(ctx context.Context, contact, password string) (*models.Login, error)
	// CreateUser registers a new login for the contact. A blank profileID
	// gets a generated one.
	CreateUser(ctx context.Context, contact, password, profileID string) (*models.Login, error)
	// RecordLogin stamps a successful login on the record.
	RecordLogin(ctx context.Context, login *models.Login, at time.Time) error
}

type identityStore struct {
	loginRepo repository.LoginRepository
	hasher    *utils.BCrypt
}

// NewIdentityStore creates the local bcrypt backed identity store.
func NewIdentityStore(loginRepo repository.LoginRepository) IdentityStore {
	return &identityStore{
		loginRepo: loginRepo,
		hasher:    utils.NewBCrypt(),
	}
}

func (is *identityStore) ValidateCredentials(ctx context.Context, contact, password string) (*models.Login, error) {
	log := util.Log(ctx)

	login, err := is.loginRepo.GetByContactHash(ctx, utils.HashStringSecret(contact))
	if err != nil {
		return nil, err
	}
	if login == nil {
		return nil, nil
	}

	if !login.Locked.IsZero() {
		log.WithField("login_id", login.GetID()).Warn("login attempt on locked account")
		return nil, nil
	}

	err = is.hasher.Compare(ctx, login.PasswordHash, []byte(password))
	if err != nil {
		return nil, nil
	}

	return login, nil
}

func (is *identityStore) CreateUser(ctx context.Context, contact, password, profileID string) (*models.Login, error) {
	existing, err := is.loginRepo.GetByContactHash(ctx, utils.HashStringSecret(contact))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrContactAlreadyRegistered
	}

	passwordHash, err := is.hasher.Hash(ctx, []byte(password))
	if err != nil {
		return nil, err
	}

	if profileID == "" {
		profileID = util.IDString()
	}

	login := &models.Login{
		ProfileID:    profileID,
		ContactHash:  utils.HashStringSecret(contact),
		PasswordHash: passwordHash,
	}
	err = is.loginRepo.Save(ctx, login)
	if err != nil {
		return nil, err
	}

	util.Log(ctx).WithFields(map[string]any{
		"login_id":   login.GetID(),
		"profile_id": profileID,
	}).Info("login created")
	return login, nil
}

func (is *identityStore) RecordLogin(ctx context.Context, login *models.Login, at time.Time) error {
	login.LastLoginAt = &at
	return is.loginRepo.Save(ctx, login)
}
