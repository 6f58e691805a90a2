package repository

import (
	"context"

	"github.com/forecasthub/service-credentials/service/models"
	"github.com/pitabwire/frame"
)

type loginRepository struct {
	service *frame.Service
}

// NewLoginRepository creates a new instance of LoginRepository
func NewLoginRepository(service *frame.Service) LoginRepository {
	return &loginRepository{
		service: service,
	}
}

// GetByID retrieves a login by ID
func (r *loginRepository) GetByID(ctx context.Context, id string) (*models.Login, error) {
	var login models.Login
	err := r.service.DB(ctx, true).First(&login, "id = ?", id).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &login, nil
}

// GetByContactHash retrieves a login by the hash of its contact
func (r *loginRepository) GetByContactHash(ctx context.Context, contactHash string) (*models.Login, error) {
	var login models.Login
	err := r.service.DB(ctx, true).First(&login, "contact_hash = ?", contactHash).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &login, nil
}

// GetByProfileID retrieves a login by profile id
func (r *loginRepository) GetByProfileID(ctx context.Context, profileID string) (*models.Login, error) {
	var login models.Login
	err := r.service.DB(ctx, true).First(&login, "profile_id = ?", profileID).Error
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &login, nil
}

// Save creates or updates a login record
func (r *loginRepository) Save(ctx context.Context, login *models.Login) error {
	if login.ID == "" {
		return r.service.DB(ctx, false).Create(login).Error
	}
	return r.service.DB(ctx, false).Save(login).Error
}
