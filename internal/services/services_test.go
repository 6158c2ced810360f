package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnhub/backend/internal/password"
	"github.com/learnhub/backend/internal/store"
	"github.com/learnhub/backend/internal/token"
)

type fakeVerifier struct {
	identity *GoogleIdentity
	err      error
	calls    int
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*GoogleIdentity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	id := *f.identity
	return &id, nil
}

var errFakeRejected = errors.New("signature mismatch")

type testDeps struct {
	users  *store.MemoryUserStore
	codec  *token.Codec
	tokens *TokenService
	auth   *AuthService
	google *GoogleAuthService
	verify *fakeVerifier
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	users := store.NewMemoryUserStore()
	hasher := password.NewBcryptHasher(bcrypt.MinCost)
	tokens := NewTokenService(codec, users)
	verifier := &fakeVerifier{}

	return &testDeps{
		users:  users,
		codec:  codec,
		tokens: tokens,
		auth:   NewAuthService(users, hasher, tokens),
		google: NewGoogleAuthService(users, hasher, tokens, verifier),
		verify: verifier,
	}
}
