package store

import (
	"context"
	"time"
)

// DateLayout is the storage format for an event date.
const DateLayout = "2006-01-02"

// TimeLayout is the storage format for an event time-of-day.
const TimeLayout = "15:04"

// Event is the object representing a calendar event.
//
// Date and Time are stored as zone-less strings. All timezone
// interpretation happens at display/context-building time using the
// instance timezone preference, never at storage time.
type Event struct {
	ID        int32
	UID       string
	CreatorID int32
	RowStatus RowStatus
	CreatedTs int64
	UpdatedTs int64

	Title       string
	Date        string // YYYY-MM-DD
	Time        string // HH:MM
	Description string
	Color       string
}

// FindEvent is the find condition for event.
type FindEvent struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus

	// Date range filters, inclusive, on the stored date string.
	DateAfter  *string
	DateBefore *string

	Limit  *int
	Offset *int
}

// UpdateEvent is the update request for event.
type UpdateEvent struct {
	ID          int32
	UpdatedTs   *int64
	RowStatus   *RowStatus
	Title       *string
	Date        *string
	Time        *string
	Description *string
	Color       *string
}

// DeleteEvent is the delete request for event.
type DeleteEvent struct {
	ID int32
}

func (s *Store) CreateEvent(ctx context.Context, create *Event) (*Event, error) {
	return s.driver.CreateEvent(ctx, create)
}

// ListEvents lists events ordered by (date, time) ascending.
func (s *Store) ListEvents(ctx context.Context, find *FindEvent) ([]*Event, error) {
	return s.driver.ListEvents(ctx, find)
}

// GetEvent returns the first event matching the find condition, or nil.
func (s *Store) GetEvent(ctx context.Context, find *FindEvent) (*Event, error) {
	list, err := s.driver.ListEvents(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateEvent(ctx context.Context, update *UpdateEvent) error {
	return s.driver.UpdateEvent(ctx, update)
}

func (s *Store) DeleteEvent(ctx context.Context, delete *DeleteEvent) error {
	return s.driver.DeleteEvent(ctx, delete)
}

// StartTime parses the event's date and time in the given location.
// A missing or malformed time-of-day falls back to midnight.
func (e *Event) StartTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if e.Time != "" {
		if t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, loc); err == nil {
			return t
		}
	}
	t, err := time.ParseInLocation(DateLayout, e.Date, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Before reports whether e starts before other, comparing the zone-less
// (date, time) pair lexicographically. Storage format makes the string
// order identical to chronological order.
func (e *Event) Before(other *Event) bool {
	if e.Date != other.Date {
		return e.Date < other.Date
	}
	return e.Time < other.Time
}
