package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/backend/internal/apperror"
	"github.com/learnhub/backend/internal/dto"
	"github.com/learnhub/backend/internal/middleware"
	"github.com/learnhub/backend/internal/services"
)

type AuthHandler struct {
	authService   *services.AuthService
	googleService *services.GoogleAuthService
	secureCookies bool
}

func NewAuthHandler(authService *services.AuthService, googleService *services.GoogleAuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		googleService: googleService,
		secureCookies: secureCookies,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, &resp.TokenResponse)
	return c.Status(fiber.StatusCreated).JSON(dto.NewAPIResponse(fiber.StatusCreated, resp, "User registered successfully"))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, &resp.TokenResponse)
	return c.JSON(dto.NewAPIResponse(fiber.StatusOK, resp, "User logged in successfully"))
}

// RefreshToken accepts the refresh token from the JSON body or, failing
// that, from the refreshToken cookie.
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody()
		}
	}
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies(middleware.RefreshTokenCookie)
	}

	pair, err := h.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, pair)
	return c.JSON(dto.NewAPIResponse(fiber.StatusOK, pair, "Access token refreshed"))
}

func (h *AuthHandler) GoogleSignIn(c *fiber.Ctx) error {
	var req dto.GoogleSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}

	resp, err := h.googleService.SignIn(c.UserContext(), &req)
	if err != nil {
		return err
	}

	h.setTokenCookies(c, &resp.TokenResponse)
	return c.JSON(dto.NewAPIResponse(fiber.StatusOK, resp, "User logged in with Google"))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("Authentication required")
	}

	if err := h.authService.Logout(c.UserContext(), user.ID); err != nil {
		return err
	}

	h.clearTokenCookies(c)
	return c.JSON(dto.NewAPIResponse(fiber.StatusOK, fiber.Map{}, "User logged out"))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperror.Unauthorized("Authentication required")
	}

	resp, err := h.authService.Me(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAPIResponse(fiber.StatusOK, dto.UserEnvelope{User: *resp}, "Current user fetched"))
}

func (h *AuthHandler) setTokenCookies(c *fiber.Ctx, pair *dto.TokenResponse) {
	c.Cookie(h.tokenCookie(middleware.AccessTokenCookie, pair.AccessToken, pair.AccessTokenExpiresAt))
	c.Cookie(h.tokenCookie(middleware.RefreshTokenCookie, pair.RefreshToken, pair.RefreshTokenExpiresAt))
}

func (h *AuthHandler) clearTokenCookies(c *fiber.Ctx) {
	expired := time.Unix(0, 0)
	c.Cookie(h.tokenCookie(middleware.AccessTokenCookie, "", expired))
	c.Cookie(h.tokenCookie(middleware.RefreshTokenCookie, "", expired))
}

func (h *AuthHandler) tokenCookie(name, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
