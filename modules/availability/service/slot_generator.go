package service

import (
	"fmt"
	"time"

	"biocard-api/core/constants"
)

// BusyInterval is a half-open [Start, End) stretch of occupied calendar
// time, normalized from a provider event.
type BusyInterval struct {
	Start time.Time
	End   time.Time
	Title string
}

// AvailabilitySlot is a derived candidate window. It is recomputed on
// every request and never persisted.
type AvailabilitySlot struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	EventTitle  string    `json:"event_title,omitempty"`
}

// GenerateSlots walks [start, end) in fixed steps of slotDuration and
// returns the slots whose start falls inside the working window, each
// flagged busy when it overlaps any busy interval.
//
// Overlap is open-interval: a slot touching a busy interval only at its
// boundary stays available. Only the slot's start is checked against the
// working window, so a slot beginning at 17:30 with a 60 minute duration
// is still returned.
func GenerateSlots(start, end time.Time, slotDuration time.Duration, busy []BusyInterval) ([]AvailabilitySlot, error) {
	if slotDuration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %s", slotDuration)
	}

	slots := []AvailabilitySlot{}
	for current := start; current.Before(end); current = current.Add(slotDuration) {
		if !inWorkingWindow(current) {
			continue
		}

		slot := AvailabilitySlot{
			StartTime:   current,
			EndTime:     current.Add(slotDuration),
			IsAvailable: true,
		}
		for _, b := range busy {
			if slot.StartTime.Before(b.End) && slot.EndTime.After(b.Start) {
				slot.IsAvailable = false
				slot.EventTitle = b.Title
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// inWorkingWindow reports whether t starts inside the bookable window:
// weekday Monday through Friday, hour of day in [9, 18).
func inWorkingWindow(t time.Time) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	h := t.Hour()
	return h >= constants.WorkingHoursStart && h < constants.WorkingHoursEnd
}
