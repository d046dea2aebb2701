// Package router registers the HTTP routes of the API on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/restaurant-booking/internal/handler"
	"github.com/iliyamo/restaurant-booking/internal/middleware"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

// New returns an Echo instance with request logging, panic recovery and
// the request validator installed.
func New() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	return e
}

// RegisterRoutes registers probes that need no authentication. ready may
// be nil.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready)
	}
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// authenticated /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout accepts either a refresh token or a bearer, so no JWTAuth here
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterBookings registers the booking routes. Every route requires a
// bearer token; limiter runs after authentication so it can key on the
// user.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleManager, model.RoleAdmin),
	}
	if limiter != nil {
		mws = append(mws, limiter)
	}
	g := e.Group("/v1/bookings", mws...)

	g.POST("", h.Create)
	g.GET("/mine", h.ListMine)
	g.GET("/today", h.ListToday)
	g.GET("/restaurant/:id", h.ListByRestaurant)

	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Put)
	g.PATCH("/:id", h.Patch)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/cancel", h.Cancel)
}
