package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/cinetick/movie-booking-api/internal/config"
	"github.com/cinetick/movie-booking-api/internal/database"
	"github.com/cinetick/movie-booking-api/internal/handler"
	appmw "github.com/cinetick/movie-booking-api/internal/middleware"
	"github.com/cinetick/movie-booking-api/internal/offer"
	"github.com/cinetick/movie-booking-api/internal/queue"
	"github.com/cinetick/movie-booking-api/internal/repository"
	"github.com/cinetick/movie-booking-api/internal/router"
	"github.com/cinetick/movie-booking-api/internal/service"
)

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades gracefully

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	theaterRepo := repository.NewTheaterRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	showtimeRepo := repository.NewShowtimeRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)

	offers := offer.NewEngine(offer.DefaultRules())

	authH := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicH := handler.NewPublicHandler(movieRepo, theaterRepo, seatRepo, showtimeRepo, bookingRepo)
	bookingH := handler.NewBookingHandler(cfg, bookingRepo, seatRepo, showtimeRepo, movieRepo, theaterRepo, offers)
	paymentH := handler.NewPaymentHandler(cfg, bookingRepo, paymentRepo, showtimeRepo, movieRepo, theaterRepo)
	staffH := handler.NewStaffHandler(userRepo, bookingRepo, paymentRepo, showtimeRepo)
	adminMovieH := handler.NewAdminMovieHandler(movieRepo)
	adminTheaterH := handler.NewAdminTheaterHandler(theaterRepo, seatRepo)
	adminShowtimeH := handler.NewAdminShowtimeHandler(cfg, movieRepo, theaterRepo, showtimeRepo)

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(appmw.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH)
	router.RegisterCustomer(e, bookingH, paymentH, cfg.JWTSecret)
	router.RegisterStaff(e, staffH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminMovieH, adminTheaterH, adminShowtimeH, cfg.JWTSecret)

	// Background workers: the notification consumer drains the broker
	// queue, the sweeper retires elapsed showtimes.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()
	go service.RunShowtimeSweeper(context.Background(), showtimeRepo, cfg.ShowtimeBufferMin, 0)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
