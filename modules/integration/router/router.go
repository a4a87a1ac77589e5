package router

import (
	"biocard-api/core/middleware"
	"biocard-api/modules/integration/controller"

	"github.com/labstack/echo/v4"
)

type IntegrationRouter struct {
	controller *controller.IntegrationController
}

func NewIntegrationRouter(controller *controller.IntegrationController) *IntegrationRouter {
	return &IntegrationRouter{controller: controller}
}

func (r *IntegrationRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	routes := v1.Group("/private/integrations")
	routes.Use(mw.AuthMiddleware())

	routes.GET("/providers", r.controller.ListProviders)
	routes.GET("/auth-url", r.controller.GetAuthURL)
	routes.POST("/exchange", r.controller.ExchangeCode)
	routes.GET("", r.controller.ListIntegrations)
	routes.GET("/:id", r.controller.GetIntegration)
	routes.PATCH("/:id/preferences", r.controller.UpdatePreferences)
	routes.DELETE("/:id", r.controller.Disconnect)
}
