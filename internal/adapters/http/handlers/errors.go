package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Louis-hue-lang/OrientaVision/internal/domain"
	res "github.com/Louis-hue-lang/OrientaVision/pkg/http"
)

// writeError maps the domain taxonomy to HTTP statuses. Anything outside
// the taxonomy (store connectivity and the like) surfaces as a generic
// server error.
func writeError(c echo.Context, err error) error {
	reqID := requestIDFromCtx(c)
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return res.ErrorJSON(c, http.StatusBadRequest, "bad_request", reason(err), reqID)
	case errors.Is(err, domain.ErrConflict):
		return res.ErrorJSON(c, http.StatusConflict, "conflict", reason(err), reqID)
	case errors.Is(err, domain.ErrUnauthorized):
		return res.ErrorJSON(c, http.StatusUnauthorized, "unauthorized", reason(err), reqID)
	case errors.Is(err, domain.ErrForbidden):
		return res.ErrorJSON(c, http.StatusForbidden, "forbidden", reason(err), reqID)
	case errors.Is(err, domain.ErrNotFound):
		return res.ErrorJSON(c, http.StatusNotFound, "not_found", reason(err), reqID)
	default:
		return res.ErrorJSON(c, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
	}
}

// reason strips the sentinel prefix from a wrapped taxonomy error,
// leaving the caller-facing message.
func reason(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func requestIDFromCtx(c echo.Context) string {
	if reqID := c.Response().Header().Get(echo.HeaderXRequestID); reqID != "" {
		return reqID
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
