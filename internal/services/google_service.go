package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/learnhub/backend/internal/apperror"
	"github.com/learnhub/backend/internal/dto"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/password"
	"github.com/learnhub/backend/internal/store"
)

var (
	ErrEmailLinkedElsewhere = apperror.Conflict("Email already registered with another account")
	ErrInvalidGoogleToken   = apperror.Unauthorized("Invalid Google ID token")
)

// GoogleAuthService links Google identities to local users.
type GoogleAuthService struct {
	users    store.UserStore
	hasher   password.Hasher
	tokens   *TokenService
	verifier IdentityVerifier
}

// NewGoogleAuthService accepts a nil verifier; sign-in then reports that
// Google is not configured.
func NewGoogleAuthService(users store.UserStore, hasher password.Hasher, tokens *TokenService, verifier IdentityVerifier) *GoogleAuthService {
	return &GoogleAuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		verifier: verifier,
	}
}

func (s *GoogleAuthService) SignIn(ctx context.Context, req *dto.GoogleSignInRequest) (*dto.AuthResponse, error) {
	if s.verifier == nil {
		return nil, apperror.BadRequest("Google sign-in is not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, err.Error(), err)
	}

	identity, err := s.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		if errors.Is(err, ErrGoogleNotConfigured) {
			return nil, apperror.BadRequest("Google sign-in is not configured")
		}
		slog.Warn("google id token rejected", "error", err)
		return nil, ErrInvalidGoogleToken
	}
	if identity.Subject == "" || identity.Email == "" {
		return nil, ErrInvalidGoogleToken
	}
	if !identity.EmailVerified {
		return nil, apperror.Unauthorized("Google email is not verified")
	}

	user, err := s.resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		User:          dto.NewUserResponse(user),
		TokenResponse: *pair,
	}, nil
}

func (s *GoogleAuthService) resolve(ctx context.Context, identity *GoogleIdentity) (*models.User, error) {
	user, err := s.users.FindByIdentity(ctx, models.ProviderGoogle, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Internal(fmt.Errorf("failed to look up identity: %w", err))
	}

	email := normalizeEmail(identity.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailLinkedElsewhere
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Internal(fmt.Errorf("failed to check email: %w", err))
	}

	hash, err := password.RandomHash(s.hasher)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	username := strings.TrimSpace(identity.Name)
	if username == "" {
		username = strings.Split(email, "@")[0]
	}

	user = &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Username:     username,
		Avatar:       identity.Picture,
	}
	user.SetIdentity(models.FederatedIdentity{Provider: models.ProviderGoogle, Subject: identity.Subject})

	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			return nil, apperror.Internal(fmt.Errorf("failed to create user: %w", err))
		}
		// A concurrent sign-in with the same subject may have won the insert.
		if existing, lookupErr := s.users.FindByIdentity(ctx, models.ProviderGoogle, identity.Subject); lookupErr == nil {
			return existing, nil
		}
		return nil, ErrEmailLinkedElsewhere
	}
	return user, nil
}
