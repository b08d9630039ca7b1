package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Louis-hue-lang/OrientaVision/internal/domain"
	"github.com/Louis-hue-lang/OrientaVision/internal/tokenverify"
	"github.com/Louis-hue-lang/OrientaVision/internal/usecase"
	res "github.com/Louis-hue-lang/OrientaVision/pkg/http"
)

type stubParser struct {
	claims *usecase.AccessClaims
	err    error
}

func (s stubParser) ParseAccess(string) (*usecase.AccessClaims, error) {
	return s.claims, s.err
}

type stubAccounts struct {
	roles map[string]string
}

func (s stubAccounts) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	role, ok := s.roles[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Account{Username: username, Role: role}, nil
}

func (s stubAccounts) FindByIdentifier(context.Context, string) (*domain.Account, error) {
	return nil, domain.ErrNotFound
}
func (s stubAccounts) FindByEmail(context.Context, string) (*domain.Account, error) {
	return nil, domain.ErrNotFound
}
func (s stubAccounts) FindByResetToken(context.Context, string, time.Time) (*domain.Account, error) {
	return nil, domain.ErrNotFound
}
func (s stubAccounts) List(context.Context) ([]domain.Account, error)       { return nil, nil }
func (s stubAccounts) Delete(context.Context, string) error                 { return nil }
func (s stubAccounts) UpdateRole(context.Context, string, string) error     { return nil }
func (s stubAccounts) UpdateEmail(context.Context, string, string) error    { return nil }
func (s stubAccounts) SetRefreshTokenHash(context.Context, string, *string) error {
	return nil
}
func (s stubAccounts) SetResetToken(context.Context, string, string, time.Time) error {
	return nil
}
func (s stubAccounts) ResetPassword(context.Context, string, string) error { return nil }

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	handler := mw(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	_ = handler(c)
	return rec, c
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw := NewAuthMiddleware(stubParser{}, stubAccounts{})
	rec, _ := runMiddleware(t, mw.Authenticate, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var errResp res.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &errResp)
	if errResp.Error.Code != "unauthenticated" {
		t.Fatalf("unexpected error code: %s", errResp.Error.Code)
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	mw := NewAuthMiddleware(stubParser{err: tokenverify.ErrInvalidToken}, stubAccounts{})
	rec, _ := runMiddleware(t, mw.Authenticate, "Bearer bad")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	mw := NewAuthMiddleware(stubParser{err: tokenverify.ErrTokenExpired}, stubAccounts{})
	rec, _ := runMiddleware(t, mw.Authenticate, "Bearer expired")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthenticateAttachesUsername(t *testing.T) {
	mw := NewAuthMiddleware(stubParser{claims: &usecase.AccessClaims{Username: "alice", Role: "admin"}}, stubAccounts{})
	rec, c := runMiddleware(t, mw.Authenticate, "Bearer good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if username, _ := c.Get(CtxUsername).(string); username != "alice" {
		t.Fatalf("username not attached: %q", username)
	}
}

func requireChain(mw *AuthMiddleware, require func(echo.HandlerFunc) echo.HandlerFunc, username string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(CtxUsername, username)
	handler := require(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	_ = handler(c)
	return rec
}

func TestRequireElevatedTiers(t *testing.T) {
	accounts := stubAccounts{roles: map[string]string{
		"root":   domain.RoleAdmin,
		"mod":    domain.RoleModerator,
		"desk":   domain.RoleStaff,
		"player": domain.RoleJoueur,
	}}
	mw := NewAuthMiddleware(stubParser{}, accounts)

	cases := map[string]int{
		"root":   http.StatusOK,
		"mod":    http.StatusOK,
		"desk":   http.StatusForbidden,
		"player": http.StatusForbidden,
		"ghost":  http.StatusForbidden,
	}
	for username, want := range cases {
		if rec := requireChain(mw, mw.RequireElevated, username); rec.Code != want {
			t.Fatalf("RequireElevated(%s): expected %d, got %d", username, want, rec.Code)
		}
	}
}

func TestRequireInviteCapableTiers(t *testing.T) {
	accounts := stubAccounts{roles: map[string]string{
		"root":   domain.RoleAdmin,
		"mod":    domain.RoleModerator,
		"desk":   domain.RoleStaff,
		"player": domain.RoleJoueur,
	}}
	mw := NewAuthMiddleware(stubParser{}, accounts)

	cases := map[string]int{
		"root":   http.StatusOK,
		"mod":    http.StatusOK,
		"desk":   http.StatusOK,
		"player": http.StatusForbidden,
	}
	for username, want := range cases {
		if rec := requireChain(mw, mw.RequireInviteCapable, username); rec.Code != want {
			t.Fatalf("RequireInviteCapable(%s): expected %d, got %d", username, want, rec.Code)
		}
	}
}

// A stale role claim inside a valid token must not grant access: the
// guard re-reads the store on every privileged request.
func TestRequireElevatedUsesCurrentRole(t *testing.T) {
	accounts := stubAccounts{roles: map[string]string{"alice": domain.RoleJoueur}}
	mw := NewAuthMiddleware(stubParser{claims: &usecase.AccessClaims{Username: "alice", Role: domain.RoleAdmin}}, accounts)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer stale-admin-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw.Authenticate(mw.RequireElevated(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}))
	_ = handler(c)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("demoted account passed with stale token role: %d", rec.Code)
	}
}
