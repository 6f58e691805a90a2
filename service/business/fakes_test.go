package business_test

import (
	"context"
	"sync"
	"time"

	"github.com/forecasthub/service-credentials/service/models"
)

// In memory repositories backing the business layer tests. They mirror the
// contract of the gorm implementations, including nil-for-absent lookups.

type fakeAPIKeyRepository struct {
	mu   sync.Mutex
	rows map[string]*models.APIKey
}

func newFakeAPIKeyRepository() *fakeAPIKeyRepository {
	return &fakeAPIKeyRepository{rows: map[string]*models.APIKey{}}
}

func (r *fakeAPIKeyRepository) GetByID(_ context.Context, id string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *fakeAPIKeyRepository) GetByIDAndProfile(ctx context.Context, id, profileID string) (*models.APIKey, error) {
	row, err := r.GetByID(ctx, id)
	if err != nil || row == nil || row.ProfileID != profileID {
		return nil, err
	}
	return row, nil
}

func (r *fakeAPIKeyRepository) GetByKey(_ context.Context, key string) (*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Key == key {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeAPIKeyRepository) GetByProfileID(_ context.Context, profileID string) ([]*models.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.APIKey
	for _, row := range r.rows {
		if row.ProfileID == profileID {
			copied := *row
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeAPIKeyRepository) Save(ctx context.Context, apiKey *models.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if apiKey.GetID() == "" {
		apiKey.GenID(ctx)
	}
	copied := *apiKey
	r.rows[apiKey.GetID()] = &copied
	return nil
}

func (r *fakeAPIKeyRepository) RecordUsage(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok || !row.IsActive {
		return false, nil
	}
	row.RequestCount++
	row.LastUsedAt = &at
	return true, nil
}

type fakeSessionRepository struct {
	mu    sync.Mutex
	rows  map[string]*models.Session
	links []*models.UserSession
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{rows: map[string]*models.Session{}}
}

func (r *fakeSessionRepository) GetByID(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *fakeSessionRepository) GetByToken(_ context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Token == token {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepository) GetByProfileID(_ context.Context, profileID string) ([]*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Session
	for _, row := range r.rows {
		if row.ProfileID == profileID {
			copied := *row
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeSessionRepository) Save(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.GetID() == "" {
		session.GenID(ctx)
	}
	copied := *session
	r.rows[session.GetID()] = &copied
	return nil
}

func (r *fakeSessionRepository) LinkProfile(ctx context.Context, userSession *models.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userSession.GetID() == "" {
		userSession.GenID(ctx)
	}
	r.links = append(r.links, userSession)
	return nil
}

func (r *fakeSessionRepository) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, row := range r.rows {
		if !now.Before(row.ExpiresAt) {
			delete(r.rows, id)
		}
	}
	return nil
}

type fakeLoginRepository struct {
	mu   sync.Mutex
	rows map[string]*models.Login
}

func newFakeLoginRepository() *fakeLoginRepository {
	return &fakeLoginRepository{rows: map[string]*models.Login{}}
}

func (r *fakeLoginRepository) GetByID(_ context.Context, id string) (*models.Login, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (r *fakeLoginRepository) GetByContactHash(_ context.Context, contactHash string) (*models.Login, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ContactHash == contactHash {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeLoginRepository) GetByProfileID(_ context.Context, profileID string) (*models.Login, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ProfileID == profileID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeLoginRepository) Save(ctx context.Context, login *models.Login) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if login.GetID() == "" {
		login.GenID(ctx)
	}
	copied := *login
	r.rows[login.GetID()] = &copied
	return nil
}

type fakeLoginEventRepository struct {
	mu   sync.Mutex
	rows []*models.LoginEvent
}

func newFakeLoginEventRepository() *fakeLoginEventRepository {
	return &fakeLoginEventRepository{}
}

func (r *fakeLoginEventRepository) GetByID(_ context.Context, id string) (*models.LoginEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.GetID() == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeLoginEventRepository) Save(ctx context.Context, loginEvent *models.LoginEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if loginEvent.GetID() == "" {
		loginEvent.GenID(ctx)
	}
	copied := *loginEvent
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *fakeLoginEventRepository) all() []*models.LoginEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.LoginEvent, 0, len(r.rows))
	for _, row := range r.rows {
		copied := *row
		result = append(result, &copied)
	}
	return result
}
