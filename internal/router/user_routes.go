package router

import (
	"github.com/labstack/echo/v4"

	"github.com/onlyren/onlyren-api/internal/handler"
	"github.com/onlyren/onlyren-api/internal/middleware"
	"github.com/onlyren/onlyren-api/internal/model"
)

// RegisterUser registers the booking, payment and messaging endpoints
// available to every authenticated account. Role guards here are
// coarse; ownership of individual reservations and payments is enforced
// in the service layer.
func RegisterUser(e *echo.Echo, res *handler.ReservationHandler, pay *handler.PaymentHandler, msg *handler.MessageHandler, jwtSecret string) {
	api := e.Group("/api", middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleRenter, model.RoleAdmin))

	r := api.Group("/reservations")
	r.POST("", res.Create)
	r.GET("", res.List)
	r.GET("/statistics", res.Statistics)
	r.GET("/:id", res.Get)
	r.PUT("/:id", res.Update)
	r.POST("/:id/cancel", res.Cancel)
	r.DELETE("/:id", res.Delete)

	p := api.Group("/payments")
	p.GET("", pay.List)
	p.GET("/methods", pay.Methods)
	p.GET("/statistics", pay.Statistics)
	p.POST("/reservation/:id", pay.Process)
	p.GET("/:id", pay.Get)
	p.GET("/:id/receipt", pay.Receipt)
	p.PUT("/:id/confirm", pay.Confirm,
		middleware.RequireRole(model.RoleRenter, model.RoleAdmin))
	p.DELETE("/:id", pay.Delete)

	m := api.Group("/messages")
	m.POST("", msg.Send)
	m.GET("", msg.Conversations)
	m.GET("/:id", msg.Thread)
}
