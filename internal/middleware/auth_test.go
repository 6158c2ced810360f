package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/backend/internal/dto"
	"github.com/learnhub/backend/internal/models"
	"github.com/learnhub/backend/internal/store"
	"github.com/learnhub/backend/internal/token"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
)

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)
	return codec
}

// newProtectedApp mounts a /me route behind the guard; handled reports
// whether the protected handler ran.
func newProtectedApp(codec *token.Codec, users store.UserStore) (*fiber.App, *bool) {
	handled := new(bool)
	app := fiber.New()
	app.Get("/me", JWTProtected(codec, users), func(c *fiber.Ctx) error {
		*handled = true
		u, ok := CurrentUser(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(u.ID.String())
	})
	return app, handled
}

func newGuardApp(t *testing.T) (*fiber.App, *token.Codec, *models.User) {
	t.Helper()
	codec := newTestCodec(t)

	users := store.NewMemoryUserStore()
	user := &models.User{Email: "guard@example.com", PasswordHash: "x", Role: models.RoleUser}
	user.SetIdentity(models.LocalIdentity{})
	require.NoError(t, users.Create(context.Background(), user))

	app, _ := newProtectedApp(codec, users)
	return app, codec, user
}

// unavailableStore fails every lookup the way a dropped database connection does.
type unavailableStore struct {
	*store.MemoryUserStore
}

func (unavailableStore) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func errorMessage(t *testing.T, body string) string {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.False(t, out.Success)
	return out.Message
}

func TestJWTProtected_Bearer(t *testing.T) {
	app, codec, user := newGuardApp(t)
	tok, _, err := codec.SignAccess(user.ID.String())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	status, body := doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, user.ID.String(), body)
}

func TestJWTProtected_CookieTakesPrecedence(t *testing.T) {
	app, codec, user := newGuardApp(t)
	tok, _, err := codec.SignAccess(user.ID.String())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tok})
	req.Header.Set("Authorization", "Bearer garbage")
	status, body := doRequest(t, app, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, user.ID.String(), body)
}

func TestJWTProtected_Failures(t *testing.T) {
	app, codec, user := newGuardApp(t)

	refresh, _, err := codec.SignRefresh(user.ID.String())
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: user.ID.String(),
		Type:   token.TypeAccess,
	})
	expiredTok, err := expired.SignedString([]byte(testAccessSecret))
	require.NoError(t, err)

	ghost, _, err := codec.SignAccess(uuid.NewString())
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{name: "missing", header: "", message: "Authentication required"},
		{name: "garbage", header: "Bearer not.a.token", message: "Invalid token"},
		{name: "refresh token", header: "Bearer " + refresh, message: "Invalid token"},
		{name: "expired", header: "Bearer " + expiredTok, message: "Token has expired"},
		{name: "deleted user", header: "Bearer " + ghost, message: "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			status, body := doRequest(t, app, req)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.message, errorMessage(t, body))
		})
	}
}

func TestJWTProtected_StoreFailureIsGeneric(t *testing.T) {
	codec := newTestCodec(t)
	app, handled := newProtectedApp(codec, unavailableStore{store.NewMemoryUserStore()})

	tok, _, err := codec.SignAccess(uuid.NewString())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	status, body := doRequest(t, app, req)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication failed", errorMessage(t, body))
	assert.False(t, *handled)
	assert.NotContains(t, body, "connection refused")
	assert.NotContains(t, body, "5432")
}

func TestJWTProtected_LocalsHoldSanitizedUser(t *testing.T) {
	codec := newTestCodec(t)
	users := store.NewMemoryUserStore()
	user := &models.User{Email: "locals@example.com", PasswordHash: "$2a$10$secret", Role: models.RoleUser}
	user.SetIdentity(models.LocalIdentity{})
	require.NoError(t, users.Create(context.Background(), user))
	require.NoError(t, users.SetRefreshTokenHash(context.Background(), user.ID, "digest"))

	var seen any
	app := fiber.New()
	app.Get("/me", JWTProtected(codec, users), func(c *fiber.Ctx) error {
		seen = c.Locals(userLocalsKey)
		return c.SendStatus(fiber.StatusNoContent)
	})

	tok, _, err := codec.SignAccess(user.ID.String())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	status, _ := doRequest(t, app, req)
	require.Equal(t, http.StatusNoContent, status)

	view, ok := seen.(dto.UserResponse)
	require.True(t, ok, "locals hold %T", seen)
	assert.Equal(t, user.ID, view.ID)
	assert.Equal(t, "locals@example.com", view.Email)
}

func TestCORS_AllowsCredentialsForExplicitOrigins(t *testing.T) {
	app := fiber.New()
	app.Use(CORS("http://localhost:3000"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
