package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/onlyren/onlyren-api/internal/config"
	"github.com/onlyren/onlyren-api/internal/database"
	"github.com/onlyren/onlyren-api/internal/handler"
	"github.com/onlyren/onlyren-api/internal/middleware"
	"github.com/onlyren/onlyren-api/internal/queue"
	"github.com/onlyren/onlyren-api/internal/repository"
	"github.com/onlyren/onlyren-api/internal/router"
	"github.com/onlyren/onlyren-api/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: with no client the cache and limiter are no-ops.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiter disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)
	messages := repository.NewMessageRepo(db)

	// Services.
	var publish service.CompletedPublisher
	if cfg.AMQPURL != "" {
		publish = service.PublishReservationCompleted
		go func() {
			if err := queue.StartReservationConsumer(); err != nil {
				log.Printf("reservation consumer stopped: %v", err)
			}
		}()
	}
	reservationSvc := service.NewReservationService(rooms, reservations)
	paymentSvc := service.NewPaymentService(payments, reservations, publish)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	roomH := handler.NewRoomHandler(rooms, reservationSvc)
	reservationH := handler.NewReservationHandler(reservationSvc, reservations)
	paymentH := handler.NewPaymentHandler(paymentSvc, payments)
	messageH := handler.NewMessageHandler(messages, users)
	adminH := handler.NewAdminHandler(users, rooms, reservations, payments)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterHealth(e, db)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, roomH, cacheMW)
	router.RegisterUser(e, reservationH, paymentH, messageH, cfg.JWTSecret)
	router.RegisterRenter(e, roomH, reservationH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
