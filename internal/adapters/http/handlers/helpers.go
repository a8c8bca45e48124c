package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kestrel-dev/serviceatlas/core/domain"
)

// mapError translates a domain error into an appropriate Echo HTTP error.
func mapError(err error) error {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case domain.KindPrecondition:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case domain.KindForbidden:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
