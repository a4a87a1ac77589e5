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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const (
	graphAPIBase = "https://graph.microsoft.com/v1.0"

	// Graph wants local wall-clock values plus a separate timeZone field.
	outlookTimeLayout = "2006-01-02T15:04:05"
)

var outlookScopes = []string{
	"offline_access",
	"User.Read",
	"Calendars.ReadWrite",
}

// OutlookAdapter talks to Microsoft Graph for Outlook calendars. The
// "common" tenant endpoint accepts both work and personal accounts.
type OutlookAdapter struct {
	clientID     string
	clientSecret string
	redirectURI  string
	endpoint     oauth2.Endpoint
	apiBase      string
	httpClient   *http.Client
}

func NewOutlookAdapter(cfg config.OAuthProviderConfig) *OutlookAdapter {
	return &OutlookAdapter{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		endpoint:     microsoft.AzureADEndpoint("common"),
		apiBase:      graphAPIBase,
		httpClient:   &http.Client{Timeout: constants.DefaultTimeout},
	}
}

func (a *OutlookAdapter) Name() string { return ProviderOutlook }

func (a *OutlookAdapter) oauthConfig(redirectURI string) *oauth2.Config {
	if redirectURI == "" {
		redirectURI = a.redirectURI
	}
	return &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       outlookScopes,
		Endpoint:     a.endpoint,
	}
}

func (a *OutlookAdapter) AuthURL(state string) string {
	return a.oauthConfig("").AuthCodeURL(state)
}

func (a *OutlookAdapter) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	if a.clientID == "" || a.clientSecret == "" {
		return nil, fmt.Errorf("outlook: %w", ErrMissingCredentials)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.oauthConfig(redirectURI).Exchange(ctx, code)
	if err != nil {
		if re, ok := err.(*oauth2.RetrieveError); ok {
			return nil, fmt.Errorf("microsoft token endpoint: %s", providerErrorMessage(re.Body, re.Error()))
		}
		return nil, fmt.Errorf("microsoft token endpoint: %w", err)
	}
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, nil
}

func (a *OutlookAdapter) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	if a.clientID == "" || a.clientSecret == "" {
		return nil, fmt.Errorf("outlook: %w", ErrMissingCredentials)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	src := a.oauthConfig("").TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		if re, ok := err.(*oauth2.RetrieveError); ok {
			return nil, fmt.Errorf("microsoft token refresh: %s", providerErrorMessage(re.Body, re.Error()))
		}
		return nil, fmt.Errorf("microsoft token refresh: %w", err)
	}

	refreshed := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = refreshToken
	}
	return refreshed, nil
}

// FetchProfile combines /me with the user's calendar list, preferring the
// default calendar when Graph marks one.
func (a *OutlookAdapter) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var me struct {
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
		DisplayName       string `json:"displayName"`
	}
	if err := a.getJSON(ctx, accessToken, a.apiBase+"/me", &me); err != nil {
		return nil, err
	}

	email := me.Mail
	if email == "" {
		email = me.UserPrincipalName
	}

	var calendars struct {
		Value []struct {
			ID                string `json:"id"`
			Name              string `json:"name"`
			IsDefaultCalendar bool   `json:"isDefaultCalendar"`
		} `json:"value"`
	}
	if err := a.getJSON(ctx, accessToken, a.apiBase+"/me/calendars", &calendars); err != nil {
		return nil, err
	}
	if len(calendars.Value) == 0 {
		return nil, fmt.Errorf("microsoft graph: account has no calendars")
	}

	chosen := calendars.Value[0]
	for _, cal := range calendars.Value {
		if cal.IsDefaultCalendar {
			chosen = cal
			break
		}
	}

	// Graph exposes the mailbox time zone behind an extra permission;
	// leave UTC and let events carry their own zone.
	return &Profile{
		CalendarID:   chosen.ID,
		CalendarName: chosen.Name,
		Email:        email,
		TimeZone:     "UTC",
	}, nil
}

func (a *OutlookAdapter) ListEvents(ctx context.Context, accessToken, calendarID string, start, end time.Time) ([]RawEvent, error) {
	q := url.Values{}
	q.Set("startDateTime", start.UTC().Format(time.RFC3339))
	q.Set("endDateTime", end.UTC().Format(time.RFC3339))
	q.Set("$orderby", "start/dateTime")
	q.Set("$top", "250")

	endpoint := fmt.Sprintf("%s/me/calendars/%s/events?%s", a.apiBase, url.PathEscape(calendarID), q.Encode())

	var res struct {
		Value []json.RawMessage `json:"value"`
	}
	if err := a.getJSON(ctx, accessToken, endpoint, &res); err != nil {
		return nil, err
	}

	events := make([]RawEvent, 0, len(res.Value))
	for _, item := range res.Value {
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

func (a *OutlookAdapter) CreateEvent(ctx context.Context, accessToken, calendarID, timeZone string, draft *EventDraft) (string, error) {
	if timeZone == "" {
		timeZone = "UTC"
	}

	attendees := make([]map[string]any, 0, len(draft.Attendees))
	for _, att := range draft.Attendees {
		attendees = append(attendees, map[string]any{
			"type": "required",
			"emailAddress": map[string]string{
				"address": att.Email,
				"name":    att.Name,
			},
		})
	}

	payload := map[string]any{
		"subject": draft.Title,
		"body": map[string]string{
			"contentType": "HTML",
			"content":     draft.Description,
		},
		"start": map[string]string{
			"dateTime": draft.StartTime.Format(outlookTimeLayout),
			"timeZone": timeZone,
		},
		"end": map[string]string{
			"dateTime": draft.EndTime.Format(outlookTimeLayout),
			"timeZone": timeZone,
		},
		"attendees": attendees,
		"isAllDay":  false,
	}
	if draft.Location != "" {
		payload["location"] = map[string]string{"displayName": draft.Location}
	}
	if draft.WithMeetingLink {
		payload["isOnlineMeeting"] = true
		payload["onlineMeetingProvider"] = "teamsForBusiness"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/me/calendars/%s/events", a.apiBase, url.PathEscape(calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("microsoft graph: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("microsoft graph: %s", providerErrorMessage(respBody, resp.Status))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("microsoft graph: decode create response: %w", err)
	}
	return created.ID, nil
}

func (a *OutlookAdapter) getJSON(ctx context.Context, accessToken, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("microsoft graph: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("microsoft graph: %s", providerErrorMessage(body, resp.Status))
	}
	return json.Unmarshal(body, out)
}
