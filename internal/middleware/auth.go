// Package middleware provides authentication, logging, and tracing middleware.
package middleware

import (
	"strings"

	"ripple/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// principalLocal is the fiber locals key the request principal is stored under.
const principalLocal = "principal"

// OptionalAuth injects the principal when a valid bearer token is present and
// lets the request through untouched otherwise. Mutating operations behind it
// fail closed on a missing identity instead of returning 401.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p, ok := bearerPrincipal(c, secret); ok {
			attach(c, p)
		}
		return c.Next()
	}
}

// Principal returns the request principal set by the auth middleware.
func Principal(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(principalLocal).(auth.Principal)
	return p, ok
}

func attach(c *fiber.Ctx, p auth.Principal) {
	c.Locals(principalLocal, p)
	c.SetUserContext(auth.WithPrincipal(c.UserContext(), p))
}

func bearerPrincipal(c *fiber.Ctx, secret string) (auth.Principal, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return auth.Principal{}, false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return auth.Principal{}, false
	}

	p, err := auth.ParseToken(secret, parts[1])
	if err != nil {
		return auth.Principal{}, false
	}
	return p, true
}
