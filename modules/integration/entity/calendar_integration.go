package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"biocard-api/core/entity"

	"github.com/google/uuid"
)

// StringList is a JSONB-backed list of strings (granted OAuth scopes).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, l)
}

// CalendarIntegration is one user's connection to an external calendar
// provider. Tokens are mutated in place on refresh; disconnecting flips
// IsActive instead of deleting the row.
type CalendarIntegration struct {
	entity.BaseEntity
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	Provider     string     `db:"provider" json:"provider"` // "google" | "outlook" | "apple"
	CalendarID   string     `db:"calendar_id" json:"calendar_id"`
	CalendarName string     `db:"calendar_name" json:"calendar_name"`
	AccessToken  string     `db:"access_token" json:"-"`
	RefreshToken *string    `db:"refresh_token" json:"-"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	Permissions  StringList `db:"permissions" json:"permissions"`

	// Sync preferences and provider profile metadata.
	SyncEnabled      bool   `db:"sync_enabled" json:"sync_enabled"`
	AutoCreateEvents bool   `db:"auto_create_events" json:"auto_create_events"`
	TimeZone         string `db:"time_zone" json:"time_zone"`
	CalendarEmail    string `db:"calendar_email" json:"calendar_email"`
}

func (CalendarIntegration) TableName() string {
	return "calendar_integrations"
}

// TokenExpired reports whether the access token needs a refresh before
// use. A missing expiry means the token is assumed valid.
func (i *CalendarIntegration) TokenExpired() bool {
	return i.ExpiresAt != nil && time.Now().After(*i.ExpiresAt)
}
