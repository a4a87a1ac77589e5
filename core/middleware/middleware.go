package middleware

import (
	"fmt"
	"strings"

	"biocard-api/core/cache"
	"biocard-api/core/constants"
	"biocard-api/core/controller"
	"biocard-api/core/errors"
	"biocard-api/core/utils"

	"github.com/labstack/echo/v4"
)

const ContextKeyUserID = "user_id"

type Middleware struct {
	cache cache.Cache
}

func NewMiddleware(cache cache.Cache) *Middleware {
	return &Middleware{cache: cache}
}

// AuthMiddleware validates the bearer JWT and stores the user id on the
// echo context under ContextKeyUserID.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return controller.NewErrorResponse(401, errors.ErrMissingAuthorizationHeader, "missing Authorization header")
			}

			token := header
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}

			tokenData, appErr := utils.ValidateAndParseToken(token)
			if appErr != nil {
				return controller.NewErrorResponse(401, appErr.Code, appErr.Message)
			}

			if tokenData.Scope != constants.ScopeTokenAccess {
				return controller.NewErrorResponse(401, errors.ErrUnauthorized, "token scope not allowed")
			}

			c.Set(ContextKeyUserID, tokenData.UserID)
			return next(c)
		}
	}
}

// RateLimitMiddleware caps requests per client IP over a fixed window.
// Used on the public booking endpoints.
func (m *Middleware) RateLimitMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("%s%s:%s", constants.RedisKeyRateLimit, c.Path(), c.RealIP())
			count, err := m.cache.IncrementRequestCount(c.Request().Context(), key, constants.RateLimitWindow)
			if err != nil {
				// Redis being down must not take the public page down with it.
				return next(c)
			}
			if count > constants.RateLimitMaxRequests {
				return controller.NewErrorResponse(429, errors.ErrTooManyRequests, "too many requests, slow down")
			}
			return next(c)
		}
	}
}
