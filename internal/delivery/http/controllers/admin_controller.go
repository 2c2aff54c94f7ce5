package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// MetricsSuccessResponse is the success response envelope for GET /admin/metrics (200).
type MetricsSuccessResponse struct {
	Data  []domain.MetricFigure `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// TrendsSuccessResponse is the success response envelope for GET /admin/trends (200).
type TrendsSuccessResponse struct {
	Data  *domain.Trends    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// AdminStatsSuccessResponse is the success response envelope for GET /admin/stats (200).
type AdminStatsSuccessResponse struct {
	Data  *domain.AdminStats `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ActivitySuccessResponse is the success response envelope for GET /admin/activity (200).
type ActivitySuccessResponse struct {
	Data  *domain.UserActivity `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// AuditLogsSuccessResponse is the success response envelope for the audit log endpoints (200).
type AuditLogsSuccessResponse struct {
	Data  []*domain.AuditLogEntry `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// AdminController serves the admin dashboard and the audit trail.
type AdminController struct {
	base
	Service domain.AdminService
}

// NewAdminController creates an AdminController.
func NewAdminController(logger *slog.Logger, denials helpers.DenialCounter, svc domain.AdminService) *AdminController {
	return &AdminController{base: base{Logger: logger, Denials: denials}, Service: svc}
}

// Metrics godoc
// @Summary Dashboard figures
// @Description Total events, active users, sponsors and engagement, each with its week-over-week change. Requires VIEW_ANALYTICS.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MetricsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/metrics [get]
func (c *AdminController) Metrics(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	figures, err := c.Service.Metrics(r.Context(), p)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, figures)
}

// Trends godoc
// @Summary Event trend
// @Description Events created per day over the last seven days, labelled by weekday. Requires VIEW_ANALYTICS.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.TrendsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/trends [get]
func (c *AdminController) Trends(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	trends, err := c.Service.Trends(r.Context(), p)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, trends)
}

// Stats godoc
// @Summary Platform overview
// @Description User and event totals, sponsors, users by role and the most recent events. Requires VIEW_ANALYTICS.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.AdminStatsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/stats [get]
func (c *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.Stats(r.Context(), p)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// Activity godoc
// @Summary User activity
// @Description Users active today, this week and this month, login-count buckets and the most active users. Requires VIEW_ANALYTICS.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ActivitySuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/activity [get]
func (c *AdminController) Activity(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	activity, err := c.Service.Activity(r.Context(), p)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, activity)
}

// AuditLogs godoc
// @Summary List audit log entries
// @Description Newest first, optionally for one admin. Requires VIEW_ANALYTICS.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param admin_id query string false "Only entries recorded for this admin"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.AuditLogsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/audit-logs [get]
func (c *AdminController) AuditLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	filter := domain.AuditLogFilter{AdminID: strings.TrimSpace(r.URL.Query().Get("admin_id"))}
	entries, err := c.Service.AuditLogs(r.Context(), p, filter, helpers.ParsePagination(r))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeEntries(w, entries)
}

// EntityAuditLogs godoc
// @Summary List audit log entries of one entity
// @Description Newest first. Requires VIEW_ANALYTICS.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param entityType path string true "Entity type (user, event, banner, campaign)"
// @Param entityID path string true "Entity ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.AuditLogsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /admin/audit-logs/{entityType}/{entityID} [get]
func (c *AdminController) EntityAuditLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	entityType, ok := pathID(w, r, "entityType")
	if !ok {
		return
	}
	entityID, ok := pathID(w, r, "entityID")
	if !ok {
		return
	}
	entries, err := c.Service.EntityAuditLogs(r.Context(), p, entityType, entityID, helpers.ParsePagination(r))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeEntries(w, entries)
}

func writeEntries(w http.ResponseWriter, entries []*domain.AuditLogEntry) {
	if entries == nil {
		entries = []*domain.AuditLogEntry{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entries)
}
