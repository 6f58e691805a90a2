package repository

import (
	"context"
	"time"

	"github.com/forecasthub/service-credentials/service/models"
)

// LoginRepository handles database operations for Login entities
type LoginRepository interface {
	// GetByID retrieves a login by ID
	GetByID(ctx context.Context, id string) (*models.Login, error)
	// GetByContactHash retrieves a login by the hash of its contact
	GetByContactHash(ctx context.Context, contactHash string) (*models.Login, error)
	// GetByProfileID retrieves a login by profile id
	GetByProfileID(ctx context.Context, profileID string) (*models.Login, error)
	// Save creates or updates a login record
	Save(ctx context.Context, login *models.Login) error
}

// LoginEventRepository handles database operations for LoginEvent entities
type LoginEventRepository interface {
	// GetByID retrieves a login event by ID
	GetByID(ctx context.Context, id string) (*models.LoginEvent, error)
	// Save creates or updates a login event record
	Save(ctx context.Context, loginEvent *models.LoginEvent) error
}

// APIKeyRepository handles database operations for APIKey entities
type APIKeyRepository interface {
	// GetByID retrieves an API key by ID
	GetByID(ctx context.Context, id string) (*models.APIKey, error)
	// GetByIDAndProfile retrieves an API key by ID and profile ID
	GetByIDAndProfile(ctx context.Context, id, profileID string) (*models.APIKey, error)
	// GetByKey retrieves an API key by key value
	GetByKey(ctx context.Context, key string) (*models.APIKey, error)
	// GetByProfileID retrieves all API keys for a profile
	GetByProfileID(ctx context.Context, profileID string) ([]*models.APIKey, error)
	// Save creates or updates an API key record
	Save(ctx context.Context, apiKey *models.APIKey) error
	// RecordUsage atomically increments the request counter and stamps last
	// use on a key that is still active. Returns false when the row changed
	// state between lookup and commit so no usage is recorded against it.
	RecordUsage(ctx context.Context, id string, at time.Time) (bool, error)
}

// SessionRepository handles database operations for Session entities
type SessionRepository interface {
	// GetByID retrieves a session by ID
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// GetByToken retrieves a session by its opaque token
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// GetByProfileID retrieves sessions for a profile
	GetByProfileID(ctx context.Context, profileID string) ([]*models.Session, error)
	// Save creates or updates a session record
	Save(ctx context.Context, session *models.Session) error
	// LinkProfile records a user-session join row
	LinkProfile(ctx context.Context, userSession *models.UserSession) error
	// DeleteExpired removes expired sessions
	DeleteExpired(ctx context.Context) error
}
