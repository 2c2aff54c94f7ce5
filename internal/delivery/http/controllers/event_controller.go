package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=5000"`
	Location    string    `json:"location" validate:"required,max=300"`
	City        string    `json:"city" validate:"required,max=100"`
	EventDate   time.Time `json:"event_date" validate:"required"`
	EventType   string    `json:"event_type" validate:"required,max=50"`
	ImageURL    *string   `json:"image_url" validate:"omitnil,url"`
	IsSponsored bool      `json:"is_sponsored"`
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}. All fields are optional.
type UpdateEventRequest struct {
	Title       *string    `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string    `json:"description" validate:"omitnil,max=5000"`
	Location    *string    `json:"location" validate:"omitnil,min=1,max=300"`
	City        *string    `json:"city" validate:"omitnil,min=1,max=100"`
	EventDate   *time.Time `json:"event_date"`
	EventType   *string    `json:"event_type" validate:"omitnil,min=1,max=50"`
	ImageURL    *string    `json:"image_url" validate:"omitnil,url"`
	IsSponsored *bool      `json:"is_sponsored"`
}

// UpdateEventStatusRequest is the request body for PATCH /events/{eventID}/status.
type UpdateEventStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// EventSuccessResponse is the success response envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success response envelope for GET /events (200).
type EventListSuccessResponse struct {
	Data  helpers.Page[*domain.Event] `json:"data"`
	Error *helpers.APIError           `json:"error"`
}

// UpcomingEventsSuccessResponse is the success response envelope for GET /events/upcoming (200).
type UpcomingEventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventController handles event listing, submission and moderation.
type EventController struct {
	base
	Service domain.EventService
}

// NewEventController creates an EventController.
func NewEventController(logger *slog.Logger, denials helpers.DenialCounter, svc domain.EventService) *EventController {
	return &EventController{base: base{Logger: logger, Denials: denials}, Service: svc}
}

// List godoc
// @Summary List events
// @Description Paginated events, newest event date first. Filters are optional.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param city query string false "City"
// @Param type query string false "Event type"
// @Param status query string false "pending, approved or rejected"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.EventFilter{
		City:      strings.TrimSpace(q.Get("city")),
		EventType: strings.TrimSpace(q.Get("type")),
	}
	if s := q.Get("status"); s != "" {
		status, err := domain.ParseEventStatus(s)
		if err != nil {
			c.fail(w, r, err)
			return
		}
		filter.Status = status
	}
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.List(r.Context(), filter, params)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPage(events, params, total))
}

// ListUpcoming godoc
// @Summary List upcoming events
// @Description Events dated from now on, soonest first.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.UpcomingEventsSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/upcoming [get]
func (c *EventController) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListUpcoming(r.Context(), helpers.ParsePagination(r))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// Get godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetByID(r.Context(), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Create godoc
// @Summary Submit an event
// @Description Any active user may submit an event. The caller becomes its organizer and the event starts as pending.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Create(r.Context(), p, &domain.Event{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
		City:        strings.TrimSpace(req.City),
		EventDate:   req.EventDate,
		EventType:   strings.TrimSpace(req.EventType),
		ImageURL:    req.ImageURL,
		IsSponsored: req.IsSponsored,
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// Update godoc
// @Summary Update an event
// @Description Allowed for the organizer, or an admin with MANAGE_EVENTS. Admin edits of someone else's event are audited as update_event.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param event body UpdateEventRequest true "Fields to update"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.Update(r.Context(), ac, id, domain.EventUpdate{
		Title:       trimmed(req.Title),
		Description: req.Description,
		Location:    trimmed(req.Location),
		City:        trimmed(req.City),
		EventDate:   req.EventDate,
		EventType:   trimmed(req.EventType),
		ImageURL:    req.ImageURL,
		IsSponsored: req.IsSponsored,
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete an event
// @Description Allowed for the organizer, or an admin with MANAGE_EVENTS. Admin deletes of someone else's event are audited as delete_event.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 204 "No Content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), ac, id); err != nil {
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus godoc
// @Summary Approve or reject an event
// @Description Requires MANAGE_EVENTS. Audited as update_event_status.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body UpdateEventStatusRequest true "New status"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/status [patch]
func (c *EventController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "eventID")
	if !ok {
		return
	}
	var req UpdateEventStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateStatus(r.Context(), ac, id, domain.EventStatus(req.Status))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
