package router

import (
	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/handler"
	"github.com/onlyren/onlyren-api/internal/middleware"
	"github.com/onlyren/onlyren-api/internal/model"
)

// RegisterRenter registers listing management and incoming-order
// endpoints for renters. Admins pass the same guard so they can act on
// any listing.
func RegisterRenter(e *echo.Echo, rooms *handler.RoomHandler, res *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/api/renter", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleRenter, model.RoleAdmin))

	g.GET("/rooms", rooms.Mine)
	g.POST("/rooms", rooms.Create)
	g.PUT("/rooms/:id", rooms.Update)
	g.DELETE("/rooms/:id", rooms.Delete)

	g.GET("/orders", res.Orders)
	g.PUT("/orders/:id/approve", res.Approve)
	g.PUT("/orders/:id/reject", res.Reject)
	g.PUT("/orders/:id/complete", res.Complete)
}
