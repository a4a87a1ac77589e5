package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Provider names
const (
	ProviderGoogle  = "google"
	ProviderOutlook = "outlook"
	// Apple is declared but has no adapter; the registry rejects it.
	ProviderApple = "apple"
)

var (
	ErrUnsupported        = errors.New("unsupported calendar provider")
	ErrMissingCredentials = errors.New("oauth client credentials not configured")
)

// Token is a provider-issued credential pair.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Profile describes the user's primary calendar on the provider side.
type Profile struct {
	CalendarID   string
	CalendarName string
	Email        string
	TimeZone     string
}

// RawEvent is a provider event in its native wire shape. Translation to
// the local model happens in MapEvent, not in the adapters.
type RawEvent struct {
	ExternalID string
	Data       json.RawMessage
}

type Attendee struct {
	Email string
	Name  string
}

// EventDraft is the provider-agnostic input for event creation.
type EventDraft struct {
	Title           string
	Description     string
	StartTime       time.Time
	EndTime         time.Time
	Attendees       []Attendee
	Location        string
	WithMeetingLink bool
}

// Adapter is the per-provider calendar API surface. Every method that
// reaches the network takes a context and surfaces the provider's own
// error message on non-success responses.
type Adapter interface {
	Name() string
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
	ListEvents(ctx context.Context, accessToken, calendarID string, start, end time.Time) ([]RawEvent, error)
	CreateEvent(ctx context.Context, accessToken, calendarID, timeZone string, draft *EventDraft) (string, error)
}

// Registry holds the closed set of provider adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// For returns the adapter for the named provider, or ErrUnsupported for
// declared-but-unimplemented providers (apple) and unknown names.
func (r *Registry) For(name string) (Adapter, error) {
	if a, ok := r.adapters[name]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// providerErrorMessage extracts a human-readable message from a provider
// error body, falling back to the raw body.
func providerErrorMessage(body []byte, fallback string) string {
	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message
	}
	var flat struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		if flat.ErrorDescription != "" {
			return flat.Error + ": " + flat.ErrorDescription
		}
		return flat.Error
	}
	if len(body) > 0 {
		return string(body)
	}
	return fallback
}
