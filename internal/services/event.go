package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eventhub/internal/authz"
	"eventhub/internal/domain"
)

type eventService struct {
	repo  domain.EventRepository
	audit *AuditTrail
	now   func() time.Time
}

// NewEventService creates an EventService backed by repo.
func NewEventService(repo domain.EventRepository, audit *AuditTrail) domain.EventService {
	return &eventService{repo: repo, audit: audit, now: time.Now}
}

func validateEvent(e *domain.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	e.City = strings.TrimSpace(e.City)
	e.Location = strings.TrimSpace(e.Location)
	e.EventType = strings.TrimSpace(strings.ToLower(e.EventType))
	var missing []string
	if e.Title == "" {
		missing = append(missing, "title")
	}
	if e.Location == "" {
		missing = append(missing, "location")
	}
	if e.City == "" {
		missing = append(missing, "city")
	}
	if e.EventType == "" {
		missing = append(missing, "event_type")
	}
	if e.EventDate.IsZero() {
		missing = append(missing, "event_date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

func (s *eventService) Create(ctx context.Context, actor domain.Principal, event *domain.Event) (*domain.Event, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: event is nil", domain.ErrInvalidInput)
	}
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	event.OrganizerID = actor.ID
	event.Status = domain.EventStatusPending
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get event")
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	events, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) ListUpcoming(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, error) {
	events, err := s.repo.ListUpcoming(ctx, s.now().UTC(), params)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	return events, nil
}

func (s *eventService) Update(ctx context.Context, ac domain.ActionContext, id string, in domain.EventUpdate) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get event")
	}
	asAdmin, err := ownerOr(ac.Actor, event.OrganizerID, domain.PermissionManageEvents)
	if err != nil {
		return nil, err
	}
	in.Apply(event)
	if err := validateEvent(event); err != nil {
		return nil, err
	}
	event.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, notFoundOr(err, "failed to update event")
	}
	if asAdmin {
		s.audit.Record(ctx, ac, domain.AuditActionUpdateEvent, domain.EntityEvent, event.ID, map[string]any{
			"fields": eventUpdateFields(in),
		})
	}
	return event, nil
}

func eventUpdateFields(in domain.EventUpdate) []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(in.Title != nil, "title")
	add(in.Description != nil, "description")
	add(in.Location != nil, "location")
	add(in.City != nil, "city")
	add(in.EventDate != nil, "event_date")
	add(in.EventType != nil, "event_type")
	add(in.ImageURL != nil, "image_url")
	add(in.IsSponsored != nil, "is_sponsored")
	return fields
}

func (s *eventService) Delete(ctx context.Context, ac domain.ActionContext, id string) error {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "failed to get event")
	}
	asAdmin, err := ownerOr(ac.Actor, event.OrganizerID, domain.PermissionManageEvents)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "failed to delete event")
	}
	if asAdmin {
		s.audit.Record(ctx, ac, domain.AuditActionDeleteEvent, domain.EntityEvent, id, map[string]any{
			"title":        event.Title,
			"organizer_id": event.OrganizerID,
		})
	}
	return nil
}

func (s *eventService) UpdateStatus(ctx context.Context, ac domain.ActionContext, id string, status domain.EventStatus) (*domain.Event, error) {
	if err := authz.Authorize(ac.Actor, domain.PermissionManageEvents); err != nil {
		return nil, err
	}
	status, err := domain.ParseEventStatus(string(status))
	if err != nil {
		return nil, err
	}
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to get event")
	}
	from := event.Status
	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, notFoundOr(err, "failed to update event status")
	}
	event.Status = status
	event.UpdatedAt = now
	s.audit.Record(ctx, ac, domain.AuditActionUpdateEventStatus, domain.EntityEvent, id, map[string]any{
		"from": from,
		"to":   status,
	})
	return event, nil
}
