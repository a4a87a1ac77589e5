package router

import (
	"biocard-api/core/middleware"
	"biocard-api/modules/events/controller"

	"github.com/labstack/echo/v4"
)

type EventRouter struct {
	controller *controller.EventController
}

func NewEventRouter(controller *controller.EventController) *EventRouter {
	return &EventRouter{controller: controller}
}

func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	routes := v1.Group("/private/events")
	routes.Use(mw.AuthMiddleware())

	routes.GET("", r.controller.ListEvents)
	routes.POST("", r.controller.CreateEvent)
	routes.POST("/sync/:integration_id", r.controller.SyncEvents)
}
