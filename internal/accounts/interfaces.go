package accounts

import (
	"context"

	"github.com/google/uuid"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
