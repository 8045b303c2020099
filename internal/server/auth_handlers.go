package server

import (
	"errors"
	"time"

	"ripple/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const tokenTTL = 24 * time.Hour

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the body returned by every sign-in flow.
type AuthResponse struct {
	Token     string `json:"token"`
	UID       string `json:"uid"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// SignUp handles POST /api/auth/signup.
func (s *Server) SignUp(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	p, err := auth.CreateAccount(c.UserContext(), s.docs, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return genericFailure(c)
	}

	return s.respondWithToken(c, fiber.StatusCreated, p)
}

// SignIn handles POST /api/auth/signin.
func (s *Server) SignIn(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	p, err := auth.VerifyPassword(c.UserContext(), s.docs, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		return genericFailure(c)
	}

	return s.respondWithToken(c, fiber.StatusOK, p)
}

// SignInAnonymous handles POST /api/auth/anonymous. It mints a fresh opaque
// principal with no stored account, mirroring "continue without an account".
func (s *Server) SignInAnonymous(c *fiber.Ctx) error {
	p := auth.Principal{UID: uuid.NewString(), Anonymous: true}
	return s.respondWithToken(c, fiber.StatusOK, p)
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, p auth.Principal) error {
	token, err := auth.IssueToken(s.config.JWTSecret, p, tokenTTL)
	if err != nil {
		return genericFailure(c)
	}
	return c.Status(status).JSON(AuthResponse{
		Token:     token,
		UID:       p.UID,
		Email:     p.Email,
		Anonymous: p.Anonymous,
	})
}

// genericFailure is the single failure shape surfaced for store and transport
// errors; the client is expected to show a generic notice and nothing else.
func genericFailure(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "operation failed",
	})
}
