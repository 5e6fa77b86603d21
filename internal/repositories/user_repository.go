package repositories

import (
	"context"

	"github.com/fasahat78/startege-sub004/internal/models"
	"gorm.io/gorm"
)

// UserRepository interface for the local copy of identity-provider users
type UserRepository interface {
	// EnsureExists inserts the user unless the ID is taken and returns the stored row
	EnsureExists(ctx context.Context, tx *gorm.DB, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	// GetByIDForUpdate locks the row until tx ends; serializes starts per user
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)

	// DecrementCredits atomically takes one credit; false when none are left
	DecrementCredits(ctx context.Context, tx *gorm.DB, id string) (bool, error)
}
