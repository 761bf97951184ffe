// Package handler contains the HTTP layer: request DTOs, the JSON
// response envelope and the mapping from service errors to status codes.
package handler

import (
	"errors"
	"log"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/middleware"
	"github.com/onlyren/onlyren-api/internal/service"
)

// envelope is the uniform response shape of every endpoint:
// {"success": bool, "message": string, "data": ..., "errors": ..., "meta": ...}.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Meta    *pageMeta   `json:"meta,omitempty"`
}

// pageMeta carries pagination info for list endpoints.
type pageMeta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondPaged(c echo.Context, message string, data interface{}, page, perPage, total int) error {
	pages := 0
	if perPage > 0 {
		pages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    &pageMeta{Page: page, PerPage: perPage, Total: total, TotalPages: pages},
	})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message})
}

// failErr maps the service error taxonomy onto HTTP statuses. Unknown
// errors are logged and reported as a bare 500 so internals never leak.
func failErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidState):
		return fail(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrConflict):
		return fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return fail(c, http.StatusNotFound, "resource not found")
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return fail(c, http.StatusInternalServerError, "internal server error")
}

// actorFrom rebuilds the service actor from the claims JWTAuth stored in
// the request context.
func actorFrom(c echo.Context) service.Actor {
	id, _ := c.Get(middleware.CtxUserID).(uint64)
	role, _ := c.Get(middleware.CtxRole).(string)
	return service.Actor{ID: id, Role: role}
}
