package dto

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/learnhub/backend/internal/models"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
	PhoneNo  string `json:"phoneNo,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), validation.Match(emailPattern).Error("must be a valid email address")),
		// bcrypt ignores input beyond 72 bytes
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.Username, validation.Length(0, 100)),
		validation.Field(&r.PhoneNo, validation.Length(0, 20)),
		validation.Field(&r.Avatar, validation.Length(0, 1024), is.URL),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Match(emailPattern).Error("must be a valid email address")),
		validation.Field(&r.Password, validation.Required),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"idToken"`
}

func (r GoogleSignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDToken, validation.Required.Error("idToken is required")),
	)
}

// TokenResponse carries a freshly issued token pair. The expiries drive
// cookie lifetimes and are not serialized.
type TokenResponse struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	AccessTokenExpiresAt  time.Time `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
}

type AuthResponse struct {
	User UserResponse `json:"user"`
	TokenResponse
}

// UserResponse is the client view of a user. It has no password or refresh
// token fields.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	Provider  string    `json:"provider"`
	PhoneNo   string    `json:"phoneNo"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUserResponse(u *models.User) UserResponse {
	provider := string(models.ProviderLocal)
	switch id := u.Identity().(type) {
	case models.LocalIdentity:
	case models.FederatedIdentity:
		provider = string(id.Provider)
	}
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Provider:  provider,
		PhoneNo:   u.PhoneNo,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type UserEnvelope struct {
	User UserResponse `json:"user"`
}

type HealthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	Environment string  `json:"environment"`
	DB          string  `json:"db"`
}
