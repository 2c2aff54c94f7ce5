package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// CreateCampaignRequest is the request body for POST /marketing.
type CreateCampaignRequest struct {
	Title          string    `json:"title" validate:"required,max=200"`
	Description    string    `json:"description" validate:"max=5000"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Type           string    `json:"type" validate:"required,oneof=email social push ai_generated"`
	TargetAudience []string  `json:"target_audience" validate:"max=50,dive,min=1,max=100"`
	Status         string    `json:"status" validate:"omitempty,oneof=draft active completed"`
}

// UpdateCampaignRequest is the request body for PATCH /marketing/{campaignID}. All fields are optional.
type UpdateCampaignRequest struct {
	Title          *string    `json:"title" validate:"omitnil,min=1,max=200"`
	Description    *string    `json:"description" validate:"omitnil,max=5000"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	Type           *string    `json:"type" validate:"omitnil,oneof=email social push ai_generated"`
	TargetAudience []string   `json:"target_audience" validate:"omitempty,max=50,dive,min=1,max=100"`
	Status         *string    `json:"status" validate:"omitnil,oneof=draft active completed"`
}

// UpdateMetricsRequest is the request body for POST /marketing/{campaignID}/metrics.
type UpdateMetricsRequest struct {
	Reach       *int `json:"reach" validate:"omitnil,min=0"`
	Engagement  *int `json:"engagement" validate:"omitnil,min=0"`
	Conversions *int `json:"conversions" validate:"omitnil,min=0"`
}

// Validate implements Validator.
func (m UpdateMetricsRequest) Validate() []string {
	if m.Reach == nil && m.Engagement == nil && m.Conversions == nil {
		return []string{"at least one of reach, engagement or conversions is required"}
	}
	return nil
}

// CampaignList is the data of GET /marketing.
type CampaignList struct {
	Items []*domain.Campaign `json:"items"`
	Total int                `json:"total"`
}

// CampaignSuccessResponse is the success response envelope for endpoints returning one campaign.
type CampaignSuccessResponse struct {
	Data  *domain.Campaign  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CampaignListSuccessResponse is the success response envelope for GET /marketing (200).
type CampaignListSuccessResponse struct {
	Data  CampaignList      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CampaignStatsSuccessResponse is the success response envelope for GET /marketing/stats/overview (200).
type CampaignStatsSuccessResponse struct {
	Data  *domain.CampaignStats `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// MarketingController handles marketing campaigns.
type MarketingController struct {
	base
	Service domain.MarketingService
}

// NewMarketingController creates a MarketingController.
func NewMarketingController(logger *slog.Logger, denials helpers.DenialCounter, svc domain.MarketingService) *MarketingController {
	return &MarketingController{base: base{Logger: logger, Denials: denials}, Service: svc}
}

// List godoc
// @Summary List campaigns
// @Description Admins with MANAGE_MARKETING see every campaign; everyone else sees their own.
// @Tags marketing
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.CampaignListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /marketing [get]
func (c *MarketingController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	campaigns, total, err := c.Service.List(r.Context(), p, helpers.ParsePagination(r))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if campaigns == nil {
		campaigns = []*domain.Campaign{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CampaignList{Items: campaigns, Total: total})
}

// Create godoc
// @Summary Create a campaign
// @Description Sponsors, or admins with MANAGE_MARKETING. Status defaults to draft.
// @Tags marketing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateCampaignRequest true "Campaign"
// @Success 201 {object} controllers.CampaignSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /marketing [post]
func (c *MarketingController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	var req CreateCampaignRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	campaign, err := c.Service.Create(r.Context(), p, &domain.Campaign{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Type:           domain.CampaignType(req.Type),
		TargetAudience: req.TargetAudience,
		Status:         domain.CampaignStatus(req.Status),
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, campaign)
}

// Get godoc
// @Summary Get a campaign
// @Description Allowed for the creator, or an admin with MANAGE_MARKETING.
// @Tags marketing
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Success 200 {object} controllers.CampaignSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /marketing/{campaignID} [get]
func (c *MarketingController) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "campaignID")
	if !ok {
		return
	}
	campaign, err := c.Service.Get(r.Context(), p, id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, campaign)
}

// Update godoc
// @Summary Update a campaign
// @Description Allowed for the creator, or an admin with MANAGE_MARKETING (audited as update_campaign).
// @Tags marketing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param body body UpdateCampaignRequest true "Fields to update"
// @Success 200 {object} controllers.CampaignSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /marketing/{campaignID} [patch]
func (c *MarketingController) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "campaignID")
	if !ok {
		return
	}
	var req UpdateCampaignRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	in := domain.CampaignUpdate{
		Title:          trimmed(req.Title),
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TargetAudience: req.TargetAudience,
	}
	if req.Type != nil {
		t := domain.CampaignType(*req.Type)
		in.Type = &t
	}
	if req.Status != nil {
		st := domain.CampaignStatus(*req.Status)
		in.Status = &st
	}
	campaign, err := c.Service.Update(r.Context(), ac, id, in)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, campaign)
}

// Delete godoc
// @Summary Delete a campaign
// @Description Allowed for the creator, or an admin with MANAGE_MARKETING (audited as delete_campaign).
// @Tags marketing
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Success 204 "No Content"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /marketing/{campaignID} [delete]
func (c *MarketingController) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "campaignID")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), ac, id); err != nil {
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats godoc
// @Summary Campaign statistics
// @Description Campaign counts by status. Requires VIEW_ANALYTICS.
// @Tags marketing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.CampaignStatsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /marketing/stats/overview [get]
func (c *MarketingController) Stats(w http.ResponseWriter, r *http.Request) {
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

// UpdateMetrics godoc
// @Summary Record campaign metrics
// @Description Overwrites the given counters. Requires MANAGE_MARKETING. Audited as update_campaign_metrics.
// @Tags marketing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param campaignID path string true "Campaign ID"
// @Param body body UpdateMetricsRequest true "Counters"
// @Success 200 {object} controllers.CampaignSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /marketing/{campaignID}/metrics [post]
func (c *MarketingController) UpdateMetrics(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "campaignID")
	if !ok {
		return
	}
	var req UpdateMetricsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	campaign, err := c.Service.UpdateMetrics(r.Context(), ac, id, domain.MetricsUpdate{
		Reach:       req.Reach,
		Engagement:  req.Engagement,
		Conversions: req.Conversions,
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, campaign)
}
