package router

import (
	"biocard-api/core/middleware"
	"biocard-api/modules/notification/controller"

	"github.com/labstack/echo/v4"
)

type NotificationRouter struct {
	controller *controller.NotificationController
}

func NewNotificationRouter(controller *controller.NotificationController) *NotificationRouter {
	return &NotificationRouter{controller: controller}
}

func (r *NotificationRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	routes := v1.Group("/private/notifications")
	routes.Use(mw.AuthMiddleware())

	routes.GET("", r.controller.GetMyNotifications)
	routes.GET("/unread-count", r.controller.CountUnread)
	routes.PUT("/mark-read", r.controller.MarkAsRead)
	routes.PUT("/mark-all-read", r.controller.MarkAllAsRead)
}
