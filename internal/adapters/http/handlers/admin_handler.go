package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Louis-hue-lang/OrientaVision/internal/adapters/http/middleware"
	"github.com/Louis-hue-lang/OrientaVision/internal/usecase"
	res "github.com/Louis-hue-lang/OrientaVision/pkg/http"
)

type AdminHandler struct {
	service usecase.DirectoryService
}

func NewAdminHandler(service usecase.DirectoryService) *AdminHandler {
	return &AdminHandler{service: service}
}

type accountSummary struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	UsedInviteCode string `json:"usedInviteCode"`
}

type roleUpdateRequest struct {
	Role string `json:"role"`
}

type createInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type inviteResponse struct {
	Code  string `json:"code"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

func actor(c echo.Context) (username, role string) {
	username, _ = c.Get(middleware.CtxUsername).(string)
	role, _ = c.Get(middleware.CtxRole).(string)
	return username, role
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	accounts, err := h.service.ListAccounts(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	summaries := make([]accountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, accountSummary{
			Username:       a.Username,
			Email:          a.Email,
			Role:           a.Role,
			UsedInviteCode: a.UsedInviteCode,
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	username, role := actor(c)
	if err := h.service.DeleteAccount(c.Request().Context(), username, role, c.Param("username")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "account deleted"})
}

func (h *AdminHandler) UpdateRole(c echo.Context) error {
	req := new(roleUpdateRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c))
	}
	username, role := actor(c)
	if err := h.service.ChangeRole(c.Request().Context(), username, role, c.Param("username"), req.Role); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "role updated"})
}

func (h *AdminHandler) CreateInvite(c echo.Context) error {
	req := new(createInviteRequest)
	if err := c.Bind(req); err != nil {
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", "invalid payload", requestIDFromCtx(c))
	}
	_, role := actor(c)
	invite, err := h.service.CreateInvite(c.Request().Context(), role, req.Email, req.Role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, inviteResponse{Code: invite.Code, Role: invite.Role, Email: invite.Email})
}

func (h *AdminHandler) ListInvites(c echo.Context) error {
	invites, err := h.service.ListInvites(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, invites)
}

func (h *AdminHandler) RevokeInvite(c echo.Context) error {
	if err := h.service.RevokeInvite(c.Request().Context(), c.Param("code")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "invite revoked"})
}
