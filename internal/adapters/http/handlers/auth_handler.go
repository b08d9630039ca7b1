package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Louis-hue-lang/OrientaVision/internal/adapters/http/middleware"
	"github.com/Louis-hue-lang/OrientaVision/internal/usecase"
	res "github.com/Louis-hue-lang/OrientaVision/pkg/http"
)

type AuthHandler struct {
	service       usecase.SessionService
	secureCookies bool
}

func NewAuthHandler(service usecase.SessionService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookies: secureCookies}
}

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	InviteCode string `json:"inviteCode"`
}

type loginRequest struct {
	// Username carries the identifier; it may be the username or the email.
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	Token             string `json:"token"`
	Username          string `json:"username"`
	Role              string `json:"role"`
	MigrationRequired bool   `json:"migrationRequired,omitempty"`
}

const forgotPasswordMessage = "if an account exists with this email, a link has been sent"

func (h *AuthHandler) Register(c echo.Context) error {
	req := new(registerRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c))
	}
	if err := h.service.Register(c.Request().Context(), usecase.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		InviteCode: req.InviteCode,
	}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "account created"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	req := new(loginRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c))
	}
	if req.Username == "" || req.Password == "" {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "identifier and password are required", requestIDFromCtx(c))
	}
	result, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	setRefreshCookie(c, result.RefreshToken, result.RefreshExpires, h.secureCookies)
	return c.JSON(http.StatusOK, sessionResponse{
		Token:             result.AccessToken,
		Username:          result.Username,
		Role:              result.Role,
		MigrationRequired: result.MigrationRequired,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	token := refreshCookieValue(c)
	if token == "" {
		return res.ErrorJSON(c, http.StatusUnauthorized, "unauthenticated", "missing refresh cookie", requestIDFromCtx(c))
	}
	result, err := h.service.Refresh(c.Request().Context(), token)
	if err != nil {
		return writeError(c, err)
	}
	setRefreshCookie(c, result.RefreshToken, result.RefreshExpires, h.secureCookies)
	return c.JSON(http.StatusOK, sessionResponse{
		Token:    result.AccessToken,
		Username: result.Username,
		Role:     result.Role,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context(), refreshCookieValue(c)); err != nil {
		return writeError(c, err)
	}
	clearRefreshCookie(c, h.secureCookies)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	req := new(forgotPasswordRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c))
	}
	if err := h.service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": forgotPasswordMessage})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	req := new(resetPasswordRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c))
	}
	if err := h.service.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password reset successfully"})
}

func (h *AuthHandler) UpdateEmail(c echo.Context) error {
	username, _ := c.Get(middleware.CtxUsername).(string)
	req := new(updateEmailRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c))
	}
	if err := h.service.UpdateEmail(c.Request().Context(), username, req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "email updated"})
}
