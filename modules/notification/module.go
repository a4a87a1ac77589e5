package notification

import (
	"biocard-api/core/database"
	"biocard-api/core/middleware"
	"biocard-api/modules/notification/controller"
	"biocard-api/modules/notification/repository"
	"biocard-api/modules/notification/router"
	"biocard-api/modules/notification/service"

	"github.com/labstack/echo/v4"
)

// Init wires the notification module and returns its service so the
// booking flow can emit notifications.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware) *service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo)

	ctrl := controller.NewNotificationController(svc)
	router.NewNotificationRouter(ctrl).Setup(e, mw)

	return svc
}
