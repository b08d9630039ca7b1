package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	repo "github.com/Louis-hue-lang/OrientaVision/internal/adapters/postgres"
	"github.com/Louis-hue-lang/OrientaVision/internal/domain"
	"github.com/Louis-hue-lang/OrientaVision/internal/usecase"
	res "github.com/Louis-hue-lang/OrientaVision/pkg/http"
)

// Context keys set by the guard.
const (
	CtxUsername = "username"
	// CtxRole is the actor's current role as re-read from the store by
	// the Require* middleware, not the role claim from the token.
	CtxRole = "current_role"
)

// AccessParser is the slice of the token service the guard needs.
type AccessParser interface {
	ParseAccess(token string) (*usecase.AccessClaims, error)
}

type AuthMiddleware struct {
	parser   AccessParser
	accounts repo.AccountRepository
}

func NewAuthMiddleware(parser AccessParser, accounts repo.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{parser: parser, accounts: accounts}
}

// Authenticate extracts and verifies the bearer access token. Missing
// token is 401, a token that fails verification is 403.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get(echo.HeaderAuthorization)
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return res.ErrorJSON(c, http.StatusUnauthorized, "unauthenticated", "missing token", requestIDFromCtx(c))
		}
		claims, err := m.parser.ParseAccess(parts[1])
		if err != nil {
			return res.ErrorJSON(c, http.StatusForbidden, "forbidden", "invalid or expired token", requestIDFromCtx(c))
		}
		c.Set(CtxUsername, claims.Username)
		return next(c)
	}
}

// RequireElevated admits admins and moderators.
func (m *AuthMiddleware) RequireElevated(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireRole(next, domain.Elevated, "admin access required")
}

// RequireInviteCapable admits admins, moderators and staff.
func (m *AuthMiddleware) RequireInviteCapable(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireRole(next, domain.InviteCapable, "insufficient role")
}

// requireRole re-reads the account's role on every call. Roles can change
// mid-token-lifetime and revocations must take effect immediately on
// privileged paths, so the role claim inside the token is never trusted
// here.
func (m *AuthMiddleware) requireRole(next echo.HandlerFunc, allowed func(string) bool, message string) echo.HandlerFunc {
	return func(c echo.Context) error {
		username, _ := c.Get(CtxUsername).(string)
		if username == "" {
			return res.ErrorJSON(c, http.StatusUnauthorized, "unauthenticated", "missing token", requestIDFromCtx(c))
		}
		account, err := m.accounts.FindByUsername(c.Request().Context(), username)
		if err != nil || !allowed(account.Role) {
			return res.ErrorJSON(c, http.StatusForbidden, "forbidden", message, requestIDFromCtx(c))
		}
		c.Set(CtxRole, account.Role)
		return next(c)
	}
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
