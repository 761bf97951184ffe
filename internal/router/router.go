// Package router wires HTTP routes to handlers and attaches the auth and
// role middleware per group. All API endpoints live under /api; the
// health check sits at the root for load balancers.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/handler"
	"github.com/onlyren/onlyren-api/internal/middleware"
)

// RegisterHealth exposes the health check outside the /api prefix.
func RegisterHealth(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers session endpoints. Register, login and refresh
// are public; logout and profile require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	authed := e.Group("/api/auth", middleware.JWTAuth(jwtSecret))
	authed.POST("/logout", a.Logout)
	authed.GET("/me", a.Me)
	authed.PUT("/profile", a.UpdateProfile)
}

// RegisterPublic registers the unauthenticated room catalog. cacheMW is
// the Redis response cache; it degrades to a no-op when Redis is absent.
func RegisterPublic(e *echo.Echo, r *handler.RoomHandler, cacheMW echo.MiddlewareFunc) {
	g := e.Group("/api/rooms", cacheMW)
	g.GET("", r.List)
	g.GET("/featured", r.Featured)
	g.GET("/:id", r.Get)
	g.GET("/:id/availability", r.Availability)
}
