package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/backend/internal/apperror"
	"github.com/learnhub/backend/internal/dto"
	"github.com/learnhub/backend/internal/models"
)

func googleID(subject, email string) *GoogleIdentity {
	return &GoogleIdentity{
		Subject:       subject,
		Email:         email,
		EmailVerified: true,
		Name:          "Grace Hopper",
		Picture:       "https://example.com/g.png",
	}
}

func TestGoogleSignIn_CreatesThenReuses(t *testing.T) {
	d := newTestDeps(t)
	d.verify.identity = googleID("sub-1", "Grace@Example.com")

	first, err := d.google.SignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", first.User.Email)
	assert.Equal(t, string(models.ProviderGoogle), first.User.Provider)
	assert.Equal(t, "Grace Hopper", first.User.Username)
	assert.Equal(t, "https://example.com/g.png", first.User.Avatar)
	assert.NotEmpty(t, first.RefreshToken)

	second, err := d.google.SignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 1, d.users.Count())

	stored, err := d.users.FindByID(context.Background(), first.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.Equal(t, models.FederatedIdentity{Provider: models.ProviderGoogle, Subject: "sub-1"}, stored.Identity())
}

func TestGoogleSignIn_FederatedAccountCannotPasswordLogin(t *testing.T) {
	d := newTestDeps(t)
	d.verify.identity = googleID("sub-2", "fed@example.com")

	_, err := d.google.SignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: "tok"})
	require.NoError(t, err)

	_, err = d.auth.Login(context.Background(), &dto.LoginRequest{Email: "fed@example.com", Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGoogleSignIn_EmailCollision(t *testing.T) {
	d := newTestDeps(t)
	register(t, d, "taken@example.com", "secret1")
	d.verify.identity = googleID("sub-3", "taken@example.com")

	_, err := d.google.SignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrEmailLinkedElsewhere)
	assert.Equal(t, 1, d.users.Count())
}

func TestGoogleSignIn_Rejections(t *testing.T) {
	d := newTestDeps(t)

	_, err := d.google.SignIn(context.Background(), &dto.GoogleSignInRequest{})
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))
	assert.Equal(t, 0, d.verify.calls)

	d.verify.err = errFakeRejected
	_, err = d.google.SignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: "bad"})
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)

	d.verify.err = nil
	d.verify.identity = &GoogleIdentity{Subject: "sub-4", EmailVerified: true}
	_, err = d.google.SignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: "tok"})
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)

	d.verify.identity = googleID("sub-5", "unverified@example.com")
	d.verify.identity.EmailVerified = false
	_, err = d.google.SignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: "tok"})
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
	assert.Equal(t, 0, d.users.Count())
}

func TestGoogleSignIn_NotConfigured(t *testing.T) {
	d := newTestDeps(t)
	svc := NewGoogleAuthService(d.users, nil, d.tokens, nil)

	_, err := svc.SignIn(context.Background(), &dto.GoogleSignInRequest{IDToken: "tok"})
	assert.Equal(t, apperror.KindBadRequest, apperror.KindOf(err))

	verifier := NewGoogleIDTokenVerifier("")
	_, err = verifier.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrGoogleNotConfigured)
}

func TestIdentityFromClaims(t *testing.T) {
	id := identityFromClaims("", map[string]interface{}{
		"sub":            "123",
		"email":          "x@example.com",
		"email_verified": "true",
		"name":           "X",
	})
	assert.Equal(t, "123", id.Subject)
	assert.True(t, id.EmailVerified)
	assert.Equal(t, "X", id.Name)

	id = identityFromClaims("456", map[string]interface{}{"email_verified": false})
	assert.Equal(t, "456", id.Subject)
	assert.False(t, id.EmailVerified)
}
