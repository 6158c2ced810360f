package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnhub/backend/internal/apperror"
	"github.com/learnhub/backend/internal/dto"
	"github.com/learnhub/backend/internal/store"
	"github.com/learnhub/backend/internal/token"
)

// TokenService mints token pairs and owns the user's stored refresh token.
// Only the most recently issued refresh token of a user is ever valid.
type TokenService struct {
	codec *token.Codec
	users store.UserStore
}

func NewTokenService(codec *token.Codec, users store.UserStore) *TokenService {
	return &TokenService{codec: codec, users: users}
}

// Issue mints a new pair for userID and replaces the stored refresh token.
// Nothing is returned unless the store write succeeds.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (*dto.TokenResponse, error) {
	pair, err := s.mint(userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := s.users.SetRefreshTokenHash(ctx, userID, hashToken(pair.RefreshToken)); err != nil {
		return nil, apperror.Internal(fmt.Errorf("failed to store refresh token: %w", err))
	}
	return pair, nil
}

// Rotate mints a new pair and stores it only if presented is still the
// user's current refresh token.
func (s *TokenService) Rotate(ctx context.Context, userID uuid.UUID, presented string) (*dto.TokenResponse, error) {
	pair, err := s.mint(userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	err = s.users.SwapRefreshTokenHash(ctx, userID, hashToken(presented), hashToken(pair.RefreshToken))
	if err != nil {
		if errors.Is(err, store.ErrStaleRefreshToken) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, apperror.Internal(fmt.Errorf("failed to rotate refresh token: %w", err))
	}
	return pair, nil
}

// ParseRefresh verifies a refresh token and returns the user id it names.
func (s *TokenService) ParseRefresh(refreshToken string) (uuid.UUID, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, token.ErrInvalid
	}
	return userID, nil
}

func (s *TokenService) mint(userID uuid.UUID) (*dto.TokenResponse, error) {
	access, accessExp, err := s.codec.SignAccess(userID.String())
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.codec.SignRefresh(userID.String())
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// hashToken is the digest persisted in place of the raw refresh token.
func hashToken(t string) string {
	h := sha256.Sum256([]byte(t))
	return fmt.Sprintf("%x", h)
}
