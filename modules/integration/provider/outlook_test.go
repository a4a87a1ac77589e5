package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"biocard-api/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutlookAdapter(apiBase string) *OutlookAdapter {
	a := NewOutlookAdapter(config.OAuthProviderConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost/callback",
	})
	if apiBase != "" {
		a.apiBase = apiBase
	}
	return a
}

func TestOutlookAuthURL(t *testing.T) {
	a := testOutlookAdapter("")
	u := a.AuthURL("user-42")

	assert.Contains(t, u, "login.microsoftonline.com/common")
	assert.Contains(t, u, "state=user-42")
	assert.Contains(t, u, "offline_access")
}

func TestOutlookRefresh_MissingCredentials(t *testing.T) {
	a := NewOutlookAdapter(config.OAuthProviderConfig{})

	_, err := a.RefreshAccessToken(context.Background(), "refresh")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestOutlookFetchProfile_PrefersDefaultCalendar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"mail":              "me@contoso.com",
				"userPrincipalName": "me@contoso.com",
				"displayName":       "Me",
			})
		case "/me/calendars":
			_, _ = w.Write([]byte(`{"value": [
				{"id": "cal-secondary", "name": "Projects", "isDefaultCalendar": false},
				{"id": "cal-default", "name": "Calendar", "isDefaultCalendar": true}
			]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	a := testOutlookAdapter(srv.URL)

	profile, err := a.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "cal-default", profile.CalendarID)
	assert.Equal(t, "Calendar", profile.CalendarName)
	assert.Equal(t, "me@contoso.com", profile.Email)
}

func TestOutlookListEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/calendars/cal-1/events", r.URL.Path)
		q := r.URL.Query()
		assert.NotEmpty(t, q.Get("startDateTime"))
		assert.NotEmpty(t, q.Get("endDateTime"))
		assert.Equal(t, "start/dateTime", q.Get("$orderby"))

		_, _ = w.Write([]byte(`{"value": [{"id": "o1"}, {"id": "o2"}]}`))
	}))
	defer srv.Close()

	a := testOutlookAdapter(srv.URL)

	events, err := a.ListEvents(context.Background(), "tok", "cal-1", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "o1", events[0].ExternalID)
}

func TestOutlookCreateEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Intro call", payload["subject"])
		assert.Equal(t, false, payload["isAllDay"])
		assert.Equal(t, true, payload["isOnlineMeeting"])
		assert.Equal(t, "teamsForBusiness", payload["onlineMeetingProvider"])

		start := payload["start"].(map[string]any)
		assert.Equal(t, "2024-06-03T10:00:00", start["dateTime"])
		assert.Equal(t, "UTC", start["timeZone"])

		attendees := payload["attendees"].([]any)
		require.Len(t, attendees, 1)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "created-o1"}`))
	}))
	defer srv.Close()

	a := testOutlookAdapter(srv.URL)

	id, err := a.CreateEvent(context.Background(), "tok", "cal-1", "", &EventDraft{
		Title:           "Intro call",
		StartTime:       time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		EndTime:         time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC),
		Attendees:       []Attendee{{Email: "c@example.com"}},
		WithMeetingLink: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "created-o1", id)
}

func TestOutlookCreateEvent_GraphErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "InvalidAuthenticationToken"}}`))
	}))
	defer srv.Close()

	a := testOutlookAdapter(srv.URL)

	_, err := a.CreateEvent(context.Background(), "tok", "cal-1", "UTC", &EventDraft{
		Title:     "x",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidAuthenticationToken")
}

func TestRegistry_RejectsApple(t *testing.T) {
	reg := NewRegistry(testGoogleAdapter("", ""), testOutlookAdapter(""))

	_, err := reg.For(ProviderApple)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = reg.For("caldav")
	assert.ErrorIs(t, err, ErrUnsupported)

	a, err := reg.For(ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, a.Name())
}
