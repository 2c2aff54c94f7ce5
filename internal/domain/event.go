package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventStatus is the moderation state of an event.
type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusRejected EventStatus = "rejected"
)

// ParseEventStatus normalizes s and returns the matching EventStatus.
func ParseEventStatus(s string) (EventStatus, error) {
	st := EventStatus(strings.TrimSpace(strings.ToLower(s)))
	switch st {
	case EventStatusPending, EventStatusApproved, EventStatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown event status %q", ErrInvalidInput, s)
}

// Event represents a public event submitted by an organizer.
// swagger:model Event
type Event struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	City        string      `json:"city"`
	EventDate   time.Time   `json:"event_date"`
	EventType   string      `json:"event_type"`
	ImageURL    *string     `json:"image_url,omitempty"`
	Status      EventStatus `json:"status"`
	IsSponsored bool        `json:"is_sponsored"`
	OrganizerID string      `json:"organizer_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// EventFilter narrows event listings. Empty fields are ignored.
type EventFilter struct {
	City      string
	EventType string
	Status    EventStatus
}

// EventUpdate holds the optional fields of an event patch.
type EventUpdate struct {
	Title       *string
	Description *string
	Location    *string
	City        *string
	EventDate   *time.Time
	EventType   *string
	ImageURL    *string
	IsSponsored *bool
}

// Apply copies the set fields of u onto e.
func (u EventUpdate) Apply(e *Event) {
	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Location != nil {
		e.Location = *u.Location
	}
	if u.City != nil {
		e.City = *u.City
	}
	if u.EventDate != nil {
		e.EventDate = *u.EventDate
	}
	if u.EventType != nil {
		e.EventType = *u.EventType
	}
	if u.ImageURL != nil {
		e.ImageURL = u.ImageURL
	}
	if u.IsSponsored != nil {
		e.IsSponsored = *u.IsSponsored
	}
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	ListUpcoming(ctx context.Context, from time.Time, params PaginationParams) ([]*Event, error)
	ListRecent(ctx context.Context, limit int) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	UpdateStatus(ctx context.Context, id string, status EventStatus, at time.Time) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status EventStatus) (int, error)
	CountBetween(ctx context.Context, from, to time.Time) (int, error)
	DailyCounts(ctx context.Context, from, to time.Time) (map[string]int, error)
}

// EventService defines the business logic for events.
type EventService interface {
	Create(ctx context.Context, actor Principal, event *Event) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	ListUpcoming(ctx context.Context, params PaginationParams) ([]*Event, error)
	Update(ctx context.Context, ac ActionContext, id string, in EventUpdate) (*Event, error)
	Delete(ctx context.Context, ac ActionContext, id string) error
	UpdateStatus(ctx context.Context, ac ActionContext, id string, status EventStatus) (*Event, error)
}
