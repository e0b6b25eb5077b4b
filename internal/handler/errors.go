package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lucasvrm/bipolar-api-sub002/internal/apperr"
)

// engineError maps the engine error taxonomy onto HTTP responses.
func engineError(c echo.Context, err error) error {
	var (
		validationErr  *apperr.ValidationError
		limitErr       *apperr.LimitExceededError
		confirmErr     *apperr.ConfirmationRequiredError
		referentialErr *apperr.ReferentialIntegrityError
		upstreamErr    *apperr.UpstreamError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "validation_error",
			"error_description": validationErr.Error(),
		})
	case errors.As(err, &limitErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":             "limit_exceeded",
			"error_description": limitErr.Error(),
			"limit":             limitErr.Limit,
			"max":               limitErr.Max,
			"requested":         limitErr.Requested,
		})
	case errors.As(err, &confirmErr):
		return c.JSON(http.StatusForbidden, echo.Map{
			"error":             "confirmation_required",
			"error_description": confirmErr.Error(),
		})
	case errors.As(err, &referentialErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":             "referential_integrity_error",
			"error_description": referentialErr.Error(),
		})
	case errors.As(err, &upstreamErr):
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":             "upstream_unavailable",
			"error_description": upstreamErr.Error(),
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":             "server_error",
			"error_description": "operation failed",
		})
	}
}
