package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"notesapi/internal/auth"
	apperrors "notesapi/internal/errors"
	"notesapi/internal/service"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// currentUserID extracts the authenticated user id from the claims the auth
// middleware stored in context.
func currentUserID(c echo.Context) (uint, error) {
	claims, ok := c.Get("user").(*auth.Claims)
	if !ok || claims.UserID == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: "missing or invalid token",
			Code:  "UNAUTHENTICATED",
		})
	}
	return claims.UserID, nil
}

// ActiveUser rejects requests whose token belongs to an account that has
// been deleted or deactivated. Tokens are stateless, so this lookup is what
// revokes access after a deactivation.
func ActiveUser(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := currentUserID(c)
			if err != nil {
				return err
			}
			if _, err := authService.GetCurrentUser(c.Request().Context(), userID); err != nil {
				return toHTTPError(err)
			}
			return next(c)
		}
	}
}

// pagination parses and validates skip/limit query parameters: skip >= 0,
// 1 <= limit <= 1000, defaults 0 and 100.
func pagination(c echo.Context) (skip, limit int, err error) {
	skip, limit = 0, defaultListLimit

	if raw := c.QueryParam("skip"); raw != "" {
		skip, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, badRequest("skip must be an integer")
		}
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, badRequest("limit must be an integer")
		}
	}

	if skip < 0 {
		return 0, 0, unprocessable("skip must be >= 0")
	}
	if limit < 1 || limit > maxListLimit {
		return 0, 0, unprocessable("limit must be between 1 and 1000")
	}
	return skip, limit, nil
}

// toHTTPError translates a domain error into an echo HTTP error. This is
// the only place domain errors meet transport status codes.
func toHTTPError(err error) *echo.HTTPError {
	he := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

func badRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: msg,
		Code:  "BAD_REQUEST",
	})
}

func unprocessable(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, apperrors.ErrorResponse{
		Error: msg,
		Code:  "VALIDATION_ERROR",
	})
}

func validationError(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnprocessableEntity, apperrors.ErrorResponse{
		Error: err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}
