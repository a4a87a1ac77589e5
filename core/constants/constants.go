package constants

import "time"

const (
	// DefaultTimeout bounds provider and database round trips.
	DefaultTimeout = 30 * time.Second

	// Working window for generated availability slots.
	WorkingHoursStart = 9
	WorkingHoursEnd   = 18

	// DefaultSlotDurationMinutes when the caller does not specify one.
	DefaultSlotDurationMinutes = 30

	// SyncWindowDays is how far ahead pull-sync mirrors provider events.
	SyncWindowDays = 30

	// Token scopes
	ScopeTokenAccess  = "access"
	ScopeTokenRefresh = "refresh"

	// Redis key prefixes
	RedisKeyRateLimit = "ratelimit:"

	// Rate limiting for public booking endpoints
	RateLimitWindow      = time.Minute
	RateLimitMaxRequests = 60

	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)
