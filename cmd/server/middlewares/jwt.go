package middlewares

import (
	"note-draft/cmd/server/handlers/httperr"
	"note-draft/internal/config"
	"note-draft/internal/logger"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWT returns a configured Fiber middleware that:
//
//   - validates the Bearer token signature using cfg.JWTSecret
//   - makes sure the token carries a "user_id" claim
//   - stores that value in ctx.Locals("userID") so downstream handlers
//     can trust it.
//
// On any problem it bubbles up a 401 via the global httperr handler.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		SuccessHandler: func(c *fiber.Ctx) error {
			// Token already verified at this point.
			token := c.Locals("user").(*jwt.Token)
			claims, _ := token.Claims.(jwt.MapClaims)

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				return httperr.Fail(httperr.ErrUnauthorized)
			}

			c.Locals("userID", userID)
			return c.Next()
		},

		// Override the default "unauthorized" JSON to match the project style
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.L().Info("rejected bearer token", "path", c.Path(), "error", err)
			return httperr.Fail(httperr.ErrUnauthorized)
		},
	})
}
