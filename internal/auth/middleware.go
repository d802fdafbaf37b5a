package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/slidexpress/workflow-service/internal/domain"
	apperrors "github.com/slidexpress/workflow-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	UserID      string
	WorkspaceID string
	Role        domain.Role
	Name        string
	Email       string
}

// AuthMiddleware validates bearer tokens and stores the caller's principal.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{
		UserID:      claims.Subject,
		WorkspaceID: claims.WorkspaceID,
		Role:        claims.Role,
		Name:        claims.Name,
		Email:       claims.Email,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ActorID returns the caller's user id for audit records, or nil when anonymous.
func ActorID(c *fiber.Ctx) *string {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal.UserID == "" {
		return nil
	}
	id := principal.UserID
	return &id
}
