package provider

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event statuses in the local model.
const (
	EventStatusConfirmed = "confirmed"
	EventStatusCancelled = "cancelled"
)

// Attendee response fallback when a provider omits it.
const AttendeeStatusNeedsAction = "needsAction"

// DefaultEventTitle is used when a provider event has no title.
const DefaultEventTitle = "Sin título"

type MappedAttendee struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

// MappedEvent is a provider event translated into the local shape shared
// by sync and availability.
type MappedEvent struct {
	ExternalID  string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Attendees   []MappedAttendee
	Location    string
	MeetingLink string
	IsAllDay    bool
	Status      string
}

// MapEvent translates a raw provider event into the local model. The
// translation is lossy on purpose; untranslated provider fields stay in
// RawEvent.Data for callers that need them.
func MapEvent(providerName string, ev RawEvent) (*MappedEvent, error) {
	switch providerName {
	case ProviderGoogle:
		return mapGoogleEvent(ev)
	case ProviderOutlook:
		return mapOutlookEvent(ev)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, providerName)
	}
}

type googleWireEvent struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Location    string `json:"location"`
	HangoutLink string `json:"hangoutLink"`
	Start       struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"end"`
	Attendees []struct {
		Email          string `json:"email"`
		DisplayName    string `json:"displayName"`
		ResponseStatus string `json:"responseStatus"`
	} `json:"attendees"`
	ConferenceData struct {
		EntryPoints []struct {
			URI string `json:"uri"`
		} `json:"entryPoints"`
	} `json:"conferenceData"`
}

func mapGoogleEvent(ev RawEvent) (*MappedEvent, error) {
	var raw googleWireEvent
	if err := json.Unmarshal(ev.Data, &raw); err != nil {
		return nil, fmt.Errorf("google event %s: %w", ev.ExternalID, err)
	}

	start, allDay, err := parseGoogleTime(raw.Start.DateTime, raw.Start.Date)
	if err != nil {
		return nil, fmt.Errorf("google event %s: start: %w", ev.ExternalID, err)
	}
	end, _, err := parseGoogleTime(raw.End.DateTime, raw.End.Date)
	if err != nil {
		return nil, fmt.Errorf("google event %s: end: %w", ev.ExternalID, err)
	}

	title := raw.Summary
	if title == "" {
		title = DefaultEventTitle
	}

	status := EventStatusConfirmed
	if raw.Status == "cancelled" {
		status = EventStatusCancelled
	}

	meetingLink := raw.HangoutLink
	if meetingLink == "" && len(raw.ConferenceData.EntryPoints) > 0 {
		meetingLink = raw.ConferenceData.EntryPoints[0].URI
	}

	attendees := make([]MappedAttendee, 0, len(raw.Attendees))
	for _, att := range raw.Attendees {
		st := att.ResponseStatus
		if st == "" {
			st = AttendeeStatusNeedsAction
		}
		attendees = append(attendees, MappedAttendee{
			Email:  att.Email,
			Name:   att.DisplayName,
			Status: st,
		})
	}

	return &MappedEvent{
		ExternalID:  ev.ExternalID,
		Title:       title,
		Description: raw.Description,
		StartTime:   start,
		EndTime:     end,
		Attendees:   attendees,
		Location:    raw.Location,
		MeetingLink: meetingLink,
		IsAllDay:    allDay,
		Status:      status,
	}, nil
}

// parseGoogleTime handles both timed events (dateTime, RFC 3339) and
// all-day events (date only, taken as midnight).
func parseGoogleTime(dateTime, date string) (time.Time, bool, error) {
	if dateTime != "" {
		t, err := time.Parse(time.RFC3339, dateTime)
		return t, false, err
	}
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		return t, true, err
	}
	return time.Time{}, false, fmt.Errorf("no dateTime or date present")
}

type outlookWireEvent struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    struct {
		Content string `json:"content"`
	} `json:"body"`
	Start struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	} `json:"end"`
	IsAllDay    bool `json:"isAllDay"`
	IsCancelled bool `json:"isCancelled"`
	Location    struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Attendees []struct {
		EmailAddress struct {
			Address string `json:"address"`
			Name    string `json:"name"`
		} `json:"emailAddress"`
		Status struct {
			Response string `json:"response"`
		} `json:"status"`
	} `json:"attendees"`
	OnlineMeeting struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
}

func mapOutlookEvent(ev RawEvent) (*MappedEvent, error) {
	var raw outlookWireEvent
	if err := json.Unmarshal(ev.Data, &raw); err != nil {
		return nil, fmt.Errorf("outlook event %s: %w", ev.ExternalID, err)
	}

	start, err := parseGraphTime(raw.Start.DateTime, raw.Start.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("outlook event %s: start: %w", ev.ExternalID, err)
	}
	end, err := parseGraphTime(raw.End.DateTime, raw.End.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("outlook event %s: end: %w", ev.ExternalID, err)
	}

	title := raw.Subject
	if title == "" {
		title = DefaultEventTitle
	}

	status := EventStatusConfirmed
	if raw.IsCancelled {
		status = EventStatusCancelled
	}

	attendees := make([]MappedAttendee, 0, len(raw.Attendees))
	for _, att := range raw.Attendees {
		st := att.Status.Response
		if st == "" {
			st = AttendeeStatusNeedsAction
		}
		attendees = append(attendees, MappedAttendee{
			Email:  att.EmailAddress.Address,
			Name:   att.EmailAddress.Name,
			Status: st,
		})
	}

	return &MappedEvent{
		ExternalID:  ev.ExternalID,
		Title:       title,
		Description: raw.Body.Content,
		StartTime:   start,
		EndTime:     end,
		Attendees:   attendees,
		Location:    raw.Location.DisplayName,
		MeetingLink: raw.OnlineMeeting.JoinURL,
		IsAllDay:    raw.IsAllDay,
		Status:      status,
	}, nil
}

// parseGraphTime parses Graph's wall-clock dateTime, which carries up to
// seven fractional digits and no offset, in the given IANA zone.
func parseGraphTime(value, zone string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("no dateTime present")
	}

	loc := time.UTC
	if zone != "" && zone != "UTC" {
		if parsed, err := time.LoadLocation(zone); err == nil {
			loc = parsed
		}
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.9999999",
		"2006-01-02T15:04:05",
		time.RFC3339,
	} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized dateTime %q", value)
}
