package dto

import (
	"time"

	"biocard-api/modules/integration/entity"
)

type (
	// ExchangeCodeRequest carries the OAuth callback payload.
	ExchangeCodeRequest struct {
		Provider    string `json:"provider" validate:"required"`
		Code        string `json:"code" validate:"required"`
		RedirectURI string `json:"redirect_uri"`
	}

	UpdatePreferencesRequest struct {
		SyncEnabled      *bool `json:"sync_enabled"`
		AutoCreateEvents *bool `json:"auto_create_events"`
	}

	AuthURLResponse struct {
		Provider string `json:"provider"`
		AuthURL  string `json:"auth_url"`
	}

	IntegrationResponse struct {
		ID               string     `json:"id"`
		Provider         string     `json:"provider"`
		CalendarID       string     `json:"calendar_id"`
		CalendarName     string     `json:"calendar_name"`
		CalendarEmail    string     `json:"calendar_email"`
		TimeZone         string     `json:"time_zone"`
		IsActive         bool       `json:"is_active"`
		SyncEnabled      bool       `json:"sync_enabled"`
		AutoCreateEvents bool       `json:"auto_create_events"`
		Permissions      []string   `json:"permissions"`
		ExpiresAt        *time.Time `json:"expires_at,omitempty"`
		CreatedAt        time.Time  `json:"created_at"`
		UpdatedAt        time.Time  `json:"updated_at"`
	}

	IntegrationListResponse struct {
		Integrations []IntegrationResponse `json:"integrations"`
	}
)

// ToIntegrationResponse strips credentials from the entity.
func ToIntegrationResponse(i *entity.CalendarIntegration) IntegrationResponse {
	return IntegrationResponse{
		ID:               i.ID.String(),
		Provider:         i.Provider,
		CalendarID:       i.CalendarID,
		CalendarName:     i.CalendarName,
		CalendarEmail:    i.CalendarEmail,
		TimeZone:         i.TimeZone,
		IsActive:         i.IsActive,
		SyncEnabled:      i.SyncEnabled,
		AutoCreateEvents: i.AutoCreateEvents,
		Permissions:      i.Permissions,
		ExpiresAt:        i.ExpiresAt,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

func ToIntegrationListResponse(items []entity.CalendarIntegration) IntegrationListResponse {
	out := IntegrationListResponse{Integrations: make([]IntegrationResponse, 0, len(items))}
	for idx := range items {
		out.Integrations = append(out.Integrations, ToIntegrationResponse(&items[idx]))
	}
	return out
}
