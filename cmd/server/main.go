package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/dkim-dev/roomescape-booking/internal/cache"      // Redis read caches
	"github.com/dkim-dev/roomescape-booking/internal/config"     // environment configuration
	"github.com/dkim-dev/roomescape-booking/internal/database"   // MySQL connection pool
	"github.com/dkim-dev/roomescape-booking/internal/handler"    // HTTP handlers
	"github.com/dkim-dev/roomescape-booking/internal/middleware" // rate limiting middleware
	"github.com/dkim-dev/roomescape-booking/internal/payment"    // payment gateway client
	"github.com/dkim-dev/roomescape-booking/internal/queue"      // RabbitMQ publisher and consumer
	"github.com/dkim-dev/roomescape-booking/internal/repository" // data access layer
	"github.com/dkim-dev/roomescape-booking/internal/router"     // route registration
	"github.com/dkim-dev/roomescape-booking/internal/service"    // booking lifecycle services
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the popular-themes cache. A nil
	// client degrades both to pass-through.
	rdb := config.NewRedisClient()

	members := repository.NewMemberRepo(db)
	times := repository.NewTimeRepo(db)
	themes := repository.NewThemeRepo(db)
	reservations := repository.NewReservationRepo(db)
	waitings := repository.NewWaitingRepo(db)
	payments := repository.NewPaymentRepo(db)

	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey, cfg.PaymentTimeout)
	publisher := queue.NewPublisher()

	reservationSvc := service.NewReservationService(
		reservations, waitings, payments, members, times, themes, gateway, publisher)
	waitingSvc := service.NewWaitingService(reservations, waitings, members, times, themes)

	authHandler := handler.NewAuthHandler(cfg, members)
	reservationHandler := handler.NewReservationHandler(reservationSvc, waitingSvc)
	adminHandler := handler.NewAdminReservationHandler(reservationSvc, members)
	themeHandler := handler.NewThemeHandler(themes, cache.NewPopularThemes(rdb, cache.DefaultPopularTTL))
	timeHandler := handler.NewTimeHandler(times)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterBrowse(e, themeHandler, timeHandler)
	router.RegisterMember(e, reservationHandler, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, adminHandler, themeHandler, timeHandler, cfg.JWTSecret)

	// The consumer tails reservation lifecycle events into an audit log.
	// It reconnects on broker failures and never takes the API down.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
