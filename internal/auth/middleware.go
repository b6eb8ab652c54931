package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/aidtrace/internal/domain"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User domain.User
}

// UserLookup resolves the subject of a token.
type UserLookup interface {
	UserByID(ctx context.Context, id int64) (domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

func errNoCredentials() error {
	return apperrors.NewDetailError(http.StatusUnauthorized, "not_authenticated", "Authentication credentials were not provided.")
}

func errTokenNotValid() error {
	return apperrors.NewDetailError(http.StatusUnauthorized, "token_not_valid", "Given token not valid for any token type")
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return errNoCredentials()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return errNoCredentials()
	}

	claims, err := m.tokens.ParseToken(parts[1], TokenAccess)
	if err != nil {
		return errTokenNotValid()
	}

	user, err := m.users.UserByID(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewDetailError(http.StatusUnauthorized, "user_not_found", "User not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
