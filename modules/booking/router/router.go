package router

import (
	"biocard-api/core/middleware"
	"biocard-api/modules/booking/controller"

	"github.com/labstack/echo/v4"
)

type BookingRouter struct {
	controller *controller.BookingController
}

func NewBookingRouter(controller *controller.BookingController) *BookingRouter {
	return &BookingRouter{controller: controller}
}

func (r *BookingRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	// Public booking page endpoints, rate limited per client IP.
	public := v1.Group("/public/bookings")
	public.Use(mw.RateLimitMiddleware())
	public.POST("", r.controller.CreateBooking)
	public.GET("/:reference", r.controller.GetBookingByReference)

	private := v1.Group("/private/bookings")
	private.Use(mw.AuthMiddleware())
	private.GET("", r.controller.ListBookings)
	private.GET("/url", r.controller.GetPersonalBookingURL)
	private.DELETE("/:id", r.controller.CancelBooking)
}
