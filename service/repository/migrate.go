package repository

import (
	"context"

	"github.com/forecasthub/service-credentials/service/models"
	"github.com/pitabwire/frame"
	"github.com/pkg/errors"
)

// Migrate brings the credential tables up to date with the model definitions.
func Migrate(ctx context.Context, service *frame.Service) error {
	err := service.DB(ctx, false).AutoMigrate(
		&models.Login{}, &models.LoginEvent{},
		&models.APIKey{}, &models.Session{}, &models.UserSession{},
	)
	if err != nil {
		return errors.Wrap(err, "could not migrate credential models")
	}
	return nil
}
