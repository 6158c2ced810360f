// Package store persists users. Email and (provider, provider id) are unique;
// implementations report violations as ErrConflict.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/learnhub/backend/internal/models"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrConflict          = errors.New("user already exists")
	ErrStaleRefreshToken = errors.New("refresh token no longer current")
)

// UserStore is the persistence contract used by the auth services.
type UserStore interface {
	// Create inserts u, assigning an id when u.ID is uuid.Nil.
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIdentity(ctx context.Context, provider models.Provider, subject string) (*models.User, error)

	// SetRefreshTokenHash replaces the stored refresh token digest.
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error
	// SwapRefreshTokenHash replaces the digest only if it still equals current,
	// returning ErrStaleRefreshToken otherwise.
	SwapRefreshTokenHash(ctx context.Context, id uuid.UUID, current, next string) error
	ClearRefreshTokenHash(ctx context.Context, id uuid.UUID) error

	Ping(ctx context.Context) error
}
