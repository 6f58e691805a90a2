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

// Public wire contract for issued credentials. The alphabet is [A-Za-z0-9].
const (
	APIKeyPrefix    = "wf_live_"
	APISecretPrefix = "wf_secret_"

	apiKeyRandomLength    = 32
	apiSecretRandomLength = 48
)

// Credential vault error definitions
var (
	ErrAPIKeyNameRequired   = errors.New("api key name is required")
	ErrRevokeReasonRequired = errors.New("a revocation reason is required")
	ErrNegativeExpiry       = errors.New("expiration days must not be negative")
	ErrAPIKeyNotFound       = errors.New("api key not found")
)

// CredentialVault issues and verifies api key and secret pairs. The secret
// leaves the vault exactly once, at generation; only its argon2id digest is
// ever stored.
type CredentialVault struct {
	apiKeyRepo repository.APIKeyRepository
}

// NewCredentialVault creates a new vault over the supplied repository.
func NewCredentialVault(apiKeyRepo repository.APIKeyRepository) *CredentialVault {
	return &CredentialVault{
		apiKeyRepo: apiKeyRepo,
	}
}

// GenerateOptions carries the optional attributes of a new api key.
type GenerateOptions struct {
	// ExpirationDays, when set, dates the key's expiry that many days out.
	// Zero means the key is already expired on arrival; nil means no expiry.
	ExpirationDays *int
	Scope          string
	AllowedIP      string
}

// Generate mints a new api key pair for the profile. The returned plain
// secret is not retrievable again.
func (cv *CredentialVault) Generate(ctx context.Context, profileID, name string, opts GenerateOptions) (*models.APIKey, string, error) {
	if name == "" {
		return nil, "", ErrAPIKeyNameRequired
	}
	if opts.ExpirationDays != nil && *opts.ExpirationDays < 0 {
		return nil, "", ErrNegativeExpiry
	}

	keyRandom, err := utils.GenerateRandomString(apiKeyRandomLength)
	if err != nil {
		return nil, "", err
	}
	secretRandom, err := utils.GenerateRandomString(apiSecretRandomLength)
	if err != nil {
		return nil, "", err
	}

	key := APIKeyPrefix + keyRandom
	secret := APISecretPrefix + secretRandom

	hash, err := utils.HashSecret(secret)
	if err != nil {
		return nil, "", err
	}

	apiKey := &models.APIKey{
		Name:      name,
		ProfileID: profileID,
		Key:       key,
		Hash:      hash,
		Scope:     opts.Scope,
		AllowedIP: opts.AllowedIP,
		IsActive:  true,
	}
	if opts.ExpirationDays != nil {
		expiresAt := time.Now().AddDate(0, 0, *opts.ExpirationDays)
		apiKey.ExpiresAt = &expiresAt
	}

	// The hash above is expensive; bail out before committing anything if
	// the caller has already gone away.
	if err = ctx.Err(); err != nil {
		return nil, "", err
	}

	err = cv.apiKeyRepo.Save(ctx, apiKey)
	if err != nil {
		return nil, "", err
	}

	util.Log(ctx).WithFields(map[string]any{
		"api_key_id": apiKey.GetID(),
		"profile_id": profileID,
		"name":       name,
	}).Info("api key generated")

	return apiKey, secret, nil
}

// Verify checks a presented key and secret pair. Every ambiguous path fails
// closed: unknown key, revoked, expired, a malformed stored hash and a bad
// secret all come back as (false, nil) with no distinguishing signal. The
// returned error is reserved for infrastructure failures.
func (cv *CredentialVault) Verify(ctx context.Context, key, secret, remoteIP string) (bool, *models.APIKey, error) {
	log := util.Log(ctx)

	apiKey, err := cv.apiKeyRepo.GetByKey(ctx, key)
	if err != nil {
		return false, nil, err
	}
	if apiKey == nil {
		return false, nil, nil
	}

	now := time.Now()
	if !apiKey.IsActive || apiKey.RevokedAt != nil || apiKey.IsExpired(now) {
		return false, nil, nil
	}
	if apiKey.AllowedIP != "" && apiKey.AllowedIP != remoteIP {
		log.WithField("api_key_id", apiKey.GetID()).Warn("api key used from a disallowed ip")
		return false, nil, nil
	}

	match, err := utils.CompareSecret(secret, apiKey.Hash)
	if err != nil {
		// A corrupt stored hash can never verify. Log it, fail closed.
		log.WithError(err).WithField("api_key_id", apiKey.GetID()).
			Error("stored api key hash is unreadable")
		return false, nil, nil
	}
	if !match {
		return false, nil, nil
	}

	// Usage is recorded only against a row that is still active; a key
	// revoked between lookup and commit verifies as invalid.
	recorded, err := cv.apiKeyRepo.RecordUsage(ctx, apiKey.GetID(), now)
	if err != nil {
		return false, nil, err
	}
	if !recorded {
		return false, nil, nil
	}

	apiKey.RecordUsage(now)
	return true, apiKey, nil
}

// Revoke soft revokes the key. The requesting profile must own it, the
// reason must not be blank, and a key already revoked stays that way with
// models.ErrAPIKeyAlreadyRevoked raised for the caller.
func (cv *CredentialVault) Revoke(ctx context.Context, id, requestingProfileID, reason string) error {
	if reason == "" {
		return ErrRevokeReasonRequired
	}

	apiKey, err := cv.apiKeyRepo.GetByIDAndProfile(ctx, id, requestingProfileID)
	if err != nil {
		return err
	}
	if apiKey == nil {
		return ErrAPIKeyNotFound
	}

	err = apiKey.Revoke(time.Now(), reason)
	if err != nil {
		return err
	}

	err = cv.apiKeyRepo.Save(ctx, apiKey)
	if err != nil {
		return err
	}

	util.Log(ctx).WithFields(map[string]any{
		"api_key_id": id,
		"profile_id": requestingProfileID,
		"reason":     reason,
	}).Info("api key revoked")
	return nil
}

// Reactivate returns a revoked key to service.
func (cv *CredentialVault) Reactivate(ctx context.Context, id string) error {
	apiKey, err := cv.apiKeyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if apiKey == nil {
		return ErrAPIKeyNotFound
	}

	err = apiKey.Reactivate()
	if err != nil {
		return err
	}

	err = cv.apiKeyRepo.Save(ctx, apiKey)
	if err != nil {
		return err
	}

	util.Log(ctx).WithField("api_key_id", id).Info("api key reactivated")
	return nil
}

// List returns all of the profile's keys, active or not.
func (cv *CredentialVault) List(ctx context.Context, profileID string) ([]*models.APIKey, error) {
	return cv.apiKeyRepo.GetByProfileID(ctx, profileID)
}

// Get returns one key owned by the profile, nil when absent.
func (cv *CredentialVault) Get(ctx context.Context, id, profileID string) (*models.APIKey, error) {
	return cv.apiKeyRepo.GetByIDAndProfile(ctx, id, profileID)
}
