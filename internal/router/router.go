// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking-api/internal/handler"
	"github.com/cinetick/movie-booking-api/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication at
// all, currently just the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Token issuing
// and exchange live under /v1/auth without middleware; /v1/me requires
// a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh_token body without a JWT so an expired
	// session can still be terminated.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated catalog: movies,
// theaters, showtime listings and seat maps. Guests browse these
// before registering to book.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/v1/movies", p.ListMovies)
	e.GET("/v1/movies/:id", p.GetMovie)
	e.GET("/v1/movies/:id/showtimes", p.ListShowtimesByMovie)
	e.GET("/v1/theaters", p.ListTheaters)
	e.GET("/v1/theaters/:id/showtimes", p.ListShowtimesByTheater)
	e.GET("/v1/showtimes/:id/seats", p.SeatMap)
}

// RegisterCustomer registers the booking lifecycle endpoints. All of
// them require a CUSTOMER access token.
func RegisterCustomer(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleCustomer))

	g.POST("/bookings", b.Create)
	g.GET("/bookings", b.ListMine)
	g.GET("/bookings/:id", b.Get)
	g.POST("/bookings/:id/cancel", b.Cancel)
	g.POST("/bookings/:id/offer", b.ApplyOffer)
	g.POST("/payments/confirm", p.Confirm)
}

// RegisterStaff registers ticket verification for theater staff.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string) {
	g := e.Group("/v1/staff")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin))

	g.POST("/verify", s.VerifyTicket)
	g.GET("/bookings/:id/verifications", s.VerificationHistory)
}

// RegisterAdmin registers catalog and scheduling management. ADMIN
// only.
func RegisterAdmin(e *echo.Echo, m *handler.AdminMovieHandler, t *handler.AdminTheaterHandler, st *handler.AdminShowtimeHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleAdmin))

	g.POST("/movies", m.Create)
	g.PUT("/movies/:id", m.Update)
	g.DELETE("/movies/:id", m.Delete)

	g.POST("/theaters", t.CreateTheater)
	g.PUT("/theaters/:id", t.UpdateTheater)
	g.POST("/theaters/:id/screens", t.CreateScreen)
	g.GET("/theaters/:id/screens", t.ListScreens)
	g.PUT("/screens/:id/seats", t.ReplaceLayout)
	g.PATCH("/seats/:id/price", t.UpdateSeatPrice)

	g.POST("/showtimes", st.Create)
	g.POST("/showtimes/batch", st.CreateBatch)
	g.PUT("/showtimes/:id", st.Update)
	g.POST("/showtimes/:id/cancel", st.Cancel)
	g.DELETE("/showtimes/:id", st.Delete)
}
