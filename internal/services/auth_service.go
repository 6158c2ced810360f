package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/learnhub/backend/internal/apperror"
	"github.com/learnhub/backend/internal/dto"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/password"
	"github.com/learnhub/backend/internal/store"
)

var (
	ErrEmailTaken          = apperror.Conflict("Email already registered")
	ErrInvalidCredentials  = apperror.Unauthorized("Invalid email or password")
	ErrInvalidRefreshToken = apperror.Unauthorized("Invalid or expired refresh token")
	ErrUserNotFound        = apperror.NotFound("User not found")
)

type AuthService struct {
	users  store.UserStore
	hasher password.Hasher
	tokens *TokenService

	// decoyHash is verified against when the email is unknown so that both
	// login failure paths cost one bcrypt comparison.
	decoyHash string
}

func NewAuthService(users store.UserStore, hasher password.Hasher, tokens *TokenService) *AuthService {
	decoy, err := password.RandomHash(hasher)
	if err != nil {
		slog.Warn("failed to prepare decoy password hash", "error", err)
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		decoyHash: decoy,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, err.Error(), err)
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Internal(fmt.Errorf("failed to check email: %w", err))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	username := req.Username
	if username == "" {
		username = strings.Split(req.Email, "@")[0]
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Username:     username,
		Avatar:       req.Avatar,
		PhoneNo:      req.PhoneNo,
	}
	user.SetIdentity(models.LocalIdentity{})

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, apperror.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	return s.authResponse(ctx, &user)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, err.Error(), err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.Verify(req.Password, s.decoyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.authResponse(ctx, user)
}

// Refresh exchanges the user's current refresh token for a new pair. The
// presented token is invalid afterwards.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized("Refresh token is required")
	}

	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, apperror.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	if user.RefreshTokenHash == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshTokenHash), []byte(hashToken(refreshToken))) != 1 {
		return nil, ErrInvalidRefreshToken
	}

	return s.tokens.Rotate(ctx, user.ID, refreshToken)
}

func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearRefreshTokenHash(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return apperror.Internal(fmt.Errorf("failed to clear refresh token: %w", err))
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperror.Internal(err)
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *AuthService) authResponse(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		User:          dto.NewUserResponse(user),
		TokenResponse: *pair,
	}, nil
}
