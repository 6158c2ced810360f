package middleware

import (
	"errors"
	"log/slog"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/learnhub/backend/internal/dto"
	"github.com/learnhub/backend/internal/store"
	"github.com/learnhub/backend/internal/token"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	tokenLocalsKey = "token"
	userLocalsKey  = "user"
)

// JWTProtected authenticates the caller from the accessToken cookie or a
// bearer token and loads the user into the request locals.
func JWTProtected(codec *token.Codec, users store.UserStore) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenLookup: "cookie:" + AccessTokenCookie + ",header:" + fiber.HeaderAuthorization,
		AuthScheme:  "Bearer",
		KeyFunc:     codec.AccessKeyFunc(),
		Claims:      &token.Claims{},
		ContextKey:  tokenLocalsKey,
		SuccessHandler: func(c *fiber.Ctx) error {
			return loadUser(c, users)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			switch {
			case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
				return unauthorized(c, "Authentication required")
			case errors.Is(err, jwt.ErrTokenExpired):
				return unauthorized(c, "Token has expired")
			default:
				return unauthorized(c, "Invalid token")
			}
		},
	})
}

func loadUser(c *fiber.Ctx, users store.UserStore) error {
	parsed, ok := c.Locals(tokenLocalsKey).(*jwt.Token)
	if !ok {
		return unauthorized(c, "Invalid token")
	}
	claims, ok := parsed.Claims.(*token.Claims)
	if !ok || token.ValidateAccessClaims(claims) != nil || claims.ExpiresAt == nil {
		return unauthorized(c, "Invalid token")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return unauthorized(c, "Invalid token")
	}

	user, err := users.FindByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return unauthorized(c, "User not found")
		}
		slog.Error("session user lookup failed", "user_id", userID.String(), "error", err)
		return unauthorized(c, "Authentication failed")
	}

	c.Locals(userLocalsKey, dto.NewUserResponse(user))
	return c.Next()
}

// CurrentUser returns the sanitized user attached by JWTProtected. Password
// and refresh token digests never reach the request locals.
func CurrentUser(c *fiber.Ctx) (dto.UserResponse, bool) {
	user, ok := c.Locals(userLocalsKey).(dto.UserResponse)
	return user, ok
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.NewErrorResponse(fiber.StatusUnauthorized, msg))
}
