package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-market-api/model"
	"github.com/sahilchouksey/course-market-api/repository"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/auth"
	"github.com/sahilchouksey/course-market-api/utils/response"
	"gorm.io/gorm"
)

var (
	errMissingToken = errors.New("missing authorization token")
	errTokenFormat  = errors.New("invalid authorization format")
	errStaleToken   = errors.New("token has been invalidated")
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	users      repository.UserStore
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, users repository.UserStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		users:      users,
	}
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := m.require(c); !ok {
			return err
		}
		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token.
// A bad token is treated as no token.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, user, err := m.authenticate(c)
		if err == nil {
			setLocals(c, claims, user)
		}
		return c.Next()
	}
}

// RequireRole is middleware that requires specific user role; it must run after Required
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetUserRole(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}

		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin validates the token inline and checks for the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := m.require(c); !ok {
			return err
		}
		if role, _ := GetUserRole(c); role != model.RoleAdmin {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

// require authenticates the request and stores the principal; ok=false means a response was written
func (m *AuthMiddleware) require(c *fiber.Ctx) (bool, error) {
	claims, user, err := m.authenticate(c)
	if err == nil {
		setLocals(c, claims, user)
		return true, nil
	}

	switch {
	case errors.Is(err, errMissingToken):
		return false, response.Unauthorized(c, "Missing authorization token")
	case errors.Is(err, errTokenFormat):
		return false, response.Unauthorized(c, "Invalid authorization format")
	case errors.Is(err, auth.ErrExpiredToken):
		return false, response.Unauthorized(c, "Token has expired")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, response.Unauthorized(c, "User not found")
	case errors.Is(err, errStaleToken):
		return false, response.Unauthorized(c, "Token has been invalidated")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		return false, response.Unauthorized(c, "Invalid token")
	default:
		return false, response.InternalServerError(c, "Failed to load user")
	}
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (*auth.Claims, *model.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, errMissingToken
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, nil, errTokenFormat
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		return nil, nil, err
	}

	// Removed accounts are soft-deleted and their token version bumped
	user, err := m.users.FindByID(c.UserContext(), claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, nil, errStaleToken
	}

	return claims, user, nil
}

func setLocals(c *fiber.Ctx, claims *auth.Claims, user *model.User) {
	c.Locals("user_id", user.ID)
	c.Locals("user_email", user.Email)
	c.Locals("user_role", user.Role)
	c.Locals("claims", claims)
	c.Locals("user", user)
	c.Locals("token_jti", claims.ID)
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok && id != 0
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("user_role").(string)
	return role, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	u, ok := c.Locals("user").(*model.User)
	return u, ok
}

// GetPrincipal returns the caller for access decisions, or nil for anonymous requests
func GetPrincipal(c *fiber.Ctx) *services.Principal {
	user, ok := GetUser(c)
	if !ok || user == nil {
		return nil
	}
	return &services.Principal{ID: user.ID, Role: user.Role}
}
