package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/learnhub/backend/internal/handlers"
)

// Setup registers the auth server routes. guard is applied to protected
// routes individually so public routes never see it.
func Setup(
	app *fiber.App,
	guard fiber.Handler,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
) {
	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")
	api.Get("/health", healthHandler.Check)

	user := api.Group("/user")
	user.Post("/register", authHandler.Register)
	user.Post("/login", authHandler.Login)
	user.Post("/refresh-token", authHandler.RefreshToken)
	user.Post("/google", authHandler.GoogleSignIn)

	user.Get("/logout", guard, authHandler.Logout)
	user.Get("/me", guard, authHandler.Me)
}
