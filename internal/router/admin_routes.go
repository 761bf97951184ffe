package router

import (
	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/handler"
	"github.com/onlyren/onlyren-api/internal/middleware"
	"github.com/onlyren/onlyren-api/internal/model"
)

// RegisterAdmin registers the administration surface.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/api/admin", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin))

	g.GET("/dashboard", a.Dashboard)
	g.GET("/users", a.ListUsers)
	g.GET("/users/:id", a.GetUser)
	g.PUT("/users/:id/active", a.SetUserActive)
	g.DELETE("/users/:id", a.DeleteUser)
}
