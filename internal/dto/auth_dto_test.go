package dto

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/backend/internal/models"
)

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"valid", RegisterRequest{Email: "a@x.com", Password: "secret1"}, false},
		{"missing email", RegisterRequest{Password: "secret1"}, true},
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "secret1"}, true},
		{"short password", RegisterRequest{Email: "a@x.com", Password: "abc"}, true},
		{"bad avatar", RegisterRequest{Email: "a@x.com", Password: "secret1", Avatar: "not a url"}, true},
		{"with profile", RegisterRequest{Email: "a@x.com", Password: "secret1", Username: "ada", Avatar: "https://cdn.example.com/a.png"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, LoginRequest{Email: "a@x.com", Password: "x"}.Validate())
	assert.Error(t, LoginRequest{Email: "a@x.com"}.Validate())
	assert.Error(t, LoginRequest{Password: "x"}.Validate())
}

func TestAuthResponse_JSONHasNoSecrets(t *testing.T) {
	hash := "digest"
	u := &models.User{
		ID:               uuid.New(),
		Email:            "a@x.com",
		PasswordHash:     "$2a$10$hash",
		RefreshTokenHash: &hash,
		Role:             models.RoleUser,
	}
	u.SetIdentity(models.FederatedIdentity{Provider: models.ProviderGoogle, Subject: "sub-1"})

	raw, err := json.Marshal(AuthResponse{
		User:          NewUserResponse(u),
		TokenResponse: TokenResponse{AccessToken: "a", RefreshToken: "r"},
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "a", decoded["accessToken"])
	assert.Equal(t, "r", decoded["refreshToken"])

	user := decoded["user"].(map[string]any)
	assert.Equal(t, "google", user["provider"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "refreshToken")
	assert.NotContains(t, string(raw), "$2a$10$hash")
	assert.NotContains(t, string(raw), "sub-1")
}

func TestNewAPIResponse(t *testing.T) {
	r := NewAPIResponse(201, map[string]string{"k": "v"}, "created")
	assert.True(t, r.Success)
	assert.Equal(t, 201, r.StatusCode)

	e := NewErrorResponse(409, "taken")
	assert.False(t, e.Success)
}
