package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"biocard-api/core/config"
	"biocard-api/core/constants"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"

var googleScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
}

// GoogleAdapter talks to the Google Calendar v3 REST API.
// endpoint and apiBase are fields so tests can point them at a stub.
type GoogleAdapter struct {
	clientID     string
	clientSecret string
	redirectURI  string
	endpoint     oauth2.Endpoint
	apiBase      string
	httpClient   *http.Client
}

func NewGoogleAdapter(cfg config.OAuthProviderConfig) *GoogleAdapter {
	return &GoogleAdapter{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		endpoint:     google.Endpoint,
		apiBase:      googleCalendarAPIBase,
		httpClient:   &http.Client{Timeout: constants.DefaultTimeout},
	}
}

func (a *GoogleAdapter) Name() string { return ProviderGoogle }

func (a *GoogleAdapter) oauthConfig(redirectURI string) *oauth2.Config {
	if redirectURI == "" {
		redirectURI = a.redirectURI
	}
	return &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       googleScopes,
		Endpoint:     a.endpoint,
	}
}

// AuthURL builds the consent URL. access_type=offline plus prompt=consent
// makes Google return a refresh token on every grant, not just the first.
func (a *GoogleAdapter) AuthURL(state string) string {
	return a.oauthConfig("").AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (a *GoogleAdapter) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	if a.clientID == "" || a.clientSecret == "" {
		return nil, fmt.Errorf("google: %w", ErrMissingCredentials)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.oauthConfig(redirectURI).Exchange(ctx, code)
	if err != nil {
		if re, ok := err.(*oauth2.RetrieveError); ok {
			return nil, fmt.Errorf("google token endpoint: %s", providerErrorMessage(re.Body, re.Error()))
		}
		return nil, fmt.Errorf("google token endpoint: %w", err)
	}
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

func (a *GoogleAdapter) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	if a.clientID == "" || a.clientSecret == "" {
		return nil, fmt.Errorf("google: %w", ErrMissingCredentials)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	src := a.oauthConfig("").TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		if re, ok := err.(*oauth2.RetrieveError); ok {
			return nil, fmt.Errorf("google token refresh: %s", providerErrorMessage(re.Body, re.Error()))
		}
		return nil, fmt.Errorf("google token refresh: %w", err)
	}

	refreshed := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	// Google usually omits the refresh token on refresh; keep the old one.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = refreshToken
	}
	return refreshed, nil
}

// FetchProfile reads the primary calendar. Its id doubles as the account
// email for Google accounts.
func (a *GoogleAdapter) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var cal struct {
		ID       string `json:"id"`
		Summary  string `json:"summary"`
		TimeZone string `json:"timeZone"`
	}
	if err := a.getJSON(ctx, accessToken, a.apiBase+"/calendars/primary", &cal); err != nil {
		return nil, err
	}

	name := cal.Summary
	if name == "" {
		name = cal.ID
	}
	return &Profile{
		CalendarID:   cal.ID,
		CalendarName: name,
		Email:        cal.ID,
		TimeZone:     cal.TimeZone,
	}, nil
}

func (a *GoogleAdapter) ListEvents(ctx context.Context, accessToken, calendarID string, start, end time.Time) ([]RawEvent, error) {
	q := url.Values{}
	q.Set("timeMin", start.Format(time.RFC3339))
	q.Set("timeMax", end.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", a.apiBase, url.PathEscape(calendarID), q.Encode())

	var res struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := a.getJSON(ctx, accessToken, endpoint, &res); err != nil {
		return nil, err
	}

	events := make([]RawEvent, 0, len(res.Items))
	for _, item := range res.Items {
		var idOnly struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(item, &idOnly); err != nil || idOnly.ID == "" {
			continue
		}
		events = append(events, RawEvent{ExternalID: idOnly.ID, Data: item})
	}
	return events, nil
}

func (a *GoogleAdapter) CreateEvent(ctx context.Context, accessToken, calendarID, timeZone string, draft *EventDraft) (string, error) {
	attendees := make([]map[string]string, 0, len(draft.Attendees))
	for _, att := range draft.Attendees {
		entry := map[string]string{"email": att.Email}
		if att.Name != "" {
			entry["displayName"] = att.Name
		}
		attendees = append(attendees, entry)
	}

	payload := map[string]any{
		"summary":     draft.Title,
		"description": draft.Description,
		"start": map[string]string{
			"dateTime": draft.StartTime.Format(time.RFC3339),
			"timeZone": timeZone,
		},
		"end": map[string]string{
			"dateTime": draft.EndTime.Format(time.RFC3339),
			"timeZone": timeZone,
		},
		"attendees": attendees,
	}
	if draft.Location != "" {
		payload["location"] = draft.Location
	}

	q := url.Values{}
	if draft.WithMeetingLink {
		payload["conferenceData"] = map[string]any{
			"createRequest": map[string]any{
				"requestId": uuid.NewString(),
				"conferenceSolutionKey": map[string]string{
					"type": "hangoutsMeet",
				},
			},
		}
		q.Set("conferenceDataVersion", "1")
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", a.apiBase, url.PathEscape(calendarID))
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("google calendar api: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("google calendar api: %s", providerErrorMessage(respBody, resp.Status))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("google calendar api: decode create response: %w", err)
	}
	return created.ID, nil
}

func (a *GoogleAdapter) getJSON(ctx context.Context, accessToken, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google calendar api: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google calendar api: %s", providerErrorMessage(body, resp.Status))
	}
	return json.Unmarshal(body, out)
}
