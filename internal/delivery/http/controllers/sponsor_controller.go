package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// CreateSponsorRequest is the request body for POST /sponsors.
type CreateSponsorRequest struct {
	CompanyName  string  `json:"company_name" validate:"required,max=200"`
	Description  *string `json:"description" validate:"omitnil,max=5000"`
	Website      *string `json:"website" validate:"omitnil,url"`
	LogoURL      *string `json:"logo_url" validate:"omitnil,url"`
	BannerURL    *string `json:"banner_url" validate:"omitnil,url"`
	ContactEmail string  `json:"contact_email" validate:"required,email,max=254"`
	ContactPhone *string `json:"contact_phone" validate:"omitnil,max=50"`
}

// UpdateSponsorRequest is the request body for PATCH /sponsors/me. All fields are optional.
type UpdateSponsorRequest struct {
	CompanyName  *string `json:"company_name" validate:"omitnil,min=1,max=200"`
	Description  *string `json:"description" validate:"omitnil,max=5000"`
	Website      *string `json:"website" validate:"omitnil,url"`
	LogoURL      *string `json:"logo_url" validate:"omitnil,url"`
	BannerURL    *string `json:"banner_url" validate:"omitnil,url"`
	ContactEmail *string `json:"contact_email" validate:"omitnil,email,max=254"`
	ContactPhone *string `json:"contact_phone" validate:"omitnil,max=50"`
}

// SponsorSuccessResponse is the success response envelope for endpoints returning one sponsor.
type SponsorSuccessResponse struct {
	Data  *domain.Sponsor   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SponsorListSuccessResponse is the success response envelope for GET /sponsors (200).
type SponsorListSuccessResponse struct {
	Data  helpers.Page[*domain.Sponsor] `json:"data"`
	Error *helpers.APIError             `json:"error"`
}

// SponsorAnalyticsSuccessResponse is the success response envelope for GET /sponsors/me/analytics (200).
type SponsorAnalyticsSuccessResponse struct {
	Data  *domain.SponsorAnalytics `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// SponsorController handles sponsor profiles and their public counters.
type SponsorController struct {
	base
	Service domain.SponsorService
}

// NewSponsorController creates a SponsorController.
func NewSponsorController(logger *slog.Logger, denials helpers.DenialCounter, svc domain.SponsorService) *SponsorController {
	return &SponsorController{base: base{Logger: logger, Denials: denials}, Service: svc}
}

// Create godoc
// @Summary Create the caller's sponsor profile
// @Description Only sponsor accounts may create a profile, and each owns at most one.
// @Tags sponsors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateSponsorRequest true "Sponsor profile"
// @Success 201 {object} controllers.SponsorSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /sponsors [post]
func (c *SponsorController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	var req CreateSponsorRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sponsor, err := c.Service.Create(r.Context(), p, &domain.Sponsor{
		CompanyName:  strings.TrimSpace(req.CompanyName),
		Description:  req.Description,
		Website:      req.Website,
		LogoURL:      req.LogoURL,
		BannerURL:    req.BannerURL,
		ContactEmail: strings.TrimSpace(strings.ToLower(req.ContactEmail)),
		ContactPhone: trimmed(req.ContactPhone),
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, sponsor)
}

// GetMine godoc
// @Summary Get the caller's sponsor profile
// @Tags sponsors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.SponsorSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /sponsors/me [get]
func (c *SponsorController) GetMine(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	sponsor, err := c.Service.GetMine(r.Context(), p)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sponsor)
}

// UpdateMine godoc
// @Summary Update the caller's sponsor profile
// @Tags sponsors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateSponsorRequest true "Fields to update"
// @Success 200 {object} controllers.SponsorSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /sponsors/me [patch]
func (c *SponsorController) UpdateMine(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	var req UpdateSponsorRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	in := domain.SponsorUpdate{
		CompanyName:  trimmed(req.CompanyName),
		Description:  req.Description,
		Website:      req.Website,
		LogoURL:      req.LogoURL,
		BannerURL:    req.BannerURL,
		ContactPhone: trimmed(req.ContactPhone),
	}
	if req.ContactEmail != nil {
		email := strings.TrimSpace(strings.ToLower(*req.ContactEmail))
		in.ContactEmail = &email
	}
	sponsor, err := c.Service.UpdateMine(r.Context(), p, in)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sponsor)
}

// Analytics godoc
// @Summary Sponsor analytics
// @Description Views, clicks and click-through rate of the caller's profile and banners.
// @Tags sponsors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.SponsorAnalyticsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /sponsors/me/analytics [get]
func (c *SponsorController) Analytics(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	analytics, err := c.Service.Analytics(r.Context(), p)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, analytics)
}

// List godoc
// @Summary List sponsors
// @Description Requires MANAGE_SPONSORS.
// @Tags sponsors
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.SponsorListSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /sponsors [get]
func (c *SponsorController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	sponsors, total, err := c.Service.List(r.Context(), p, params)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPage(sponsors, params, total))
}

// Get godoc
// @Summary Get a sponsor
// @Tags sponsors
// @Produce json
// @Security BearerAuth
// @Param sponsorID path string true "Sponsor ID"
// @Success 200 {object} controllers.SponsorSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /sponsors/{sponsorID} [get]
func (c *SponsorController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "sponsorID")
	if !ok {
		return
	}
	sponsor, err := c.Service.GetByID(r.Context(), id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, sponsor)
}

// Track godoc
// @Summary Count a sponsor view or click
// @Description Public. Increments the named counter of the sponsor profile.
// @Tags sponsors
// @Produce json
// @Param sponsorID path string true "Sponsor ID"
// @Param counter path string true "view or click"
// @Success 200 {object} controllers.MessageSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /sponsors/{sponsorID}/track/{counter} [post]
func (c *SponsorController) Track(counter domain.SponsorCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "sponsorID")
		if !ok {
			return
		}
		if err := c.Service.Track(r.Context(), id, counter); err != nil {
			c.fail(w, r, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, MessageResponse{Message: string(counter) + " recorded"})
	}
}
