package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// CreateBannerRequest is the request body for POST /banners.
type CreateBannerRequest struct {
	ImageURL  string    `json:"image_url" validate:"required,url"`
	LinkURL   string    `json:"link_url" validate:"required,url"`
	Position  string    `json:"position" validate:"required,max=50"`
	IsActive  *bool     `json:"is_active"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
}

// UpdateBannerRequest is the request body for PATCH /banners/{bannerID}. All fields are optional.
type UpdateBannerRequest struct {
	ImageURL  *string    `json:"image_url" validate:"omitnil,url"`
	LinkURL   *string    `json:"link_url" validate:"omitnil,url"`
	Position  *string    `json:"position" validate:"omitnil,min=1,max=50"`
	IsActive  *bool      `json:"is_active"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// Validate implements Validator.
func (u UpdateBannerRequest) Validate() []string {
	if u.StartDate != nil && u.EndDate != nil && u.EndDate.Before(*u.StartDate) {
		return []string{"end_date must not be before start_date"}
	}
	return nil
}

// BannerSuccessResponse is the success response envelope for endpoints returning one banner.
type BannerSuccessResponse struct {
	Data  *domain.Banner    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BannerListSuccessResponse is the success response envelope for banner lists.
type BannerListSuccessResponse struct {
	Data  []*domain.Banner  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// BannerController handles sponsor banners.
type BannerController struct {
	base
	Service domain.BannerService
}

// NewBannerController creates a BannerController.
func NewBannerController(logger *slog.Logger, denials helpers.DenialCounter, svc domain.BannerService) *BannerController {
	return &BannerController{base: base{Logger: logger, Denials: denials}, Service: svc}
}

// Create godoc
// @Summary Create a banner
// @Description The banner belongs to the caller's sponsor profile; callers without one are refused.
// @Tags banners
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBannerRequest true "Banner"
// @Success 201 {object} controllers.BannerSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /banners [post]
func (c *BannerController) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	var req CreateBannerRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	banner, err := c.Service.Create(r.Context(), p, &domain.Banner{
		ImageURL:  req.ImageURL,
		LinkURL:   req.LinkURL,
		Position:  req.Position,
		IsActive:  active,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, banner)
}

// ListActive godoc
// @Summary List live banners
// @Description Public. Active banners whose date window contains now, optionally at one position.
// @Tags banners
// @Produce json
// @Param position query string false "Page position"
// @Success 200 {object} controllers.BannerListSuccessResponse
// @Router /banners/active [get]
func (c *BannerController) ListActive(w http.ResponseWriter, r *http.Request) {
	banners, err := c.Service.ListActive(r.Context(), r.URL.Query().Get("position"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if banners == nil {
		banners = []*domain.Banner{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, banners)
}

// ListBySponsor godoc
// @Summary List a sponsor's banners
// @Description Allowed for the sponsor's owner, or an admin with MANAGE_CONTENT.
// @Tags banners
// @Produce json
// @Security BearerAuth
// @Param sponsorID path string true "Sponsor ID"
// @Success 200 {object} controllers.BannerListSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /banners/sponsor/{sponsorID} [get]
func (c *BannerController) ListBySponsor(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "sponsorID")
	if !ok {
		return
	}
	banners, err := c.Service.ListBySponsor(r.Context(), p, id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if banners == nil {
		banners = []*domain.Banner{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, banners)
}

// Update godoc
// @Summary Update a banner
// @Description Allowed for the sponsor's owner, or an admin with MANAGE_CONTENT. Admin edits are audited as update_banner.
// @Tags banners
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bannerID path string true "Banner ID"
// @Param body body UpdateBannerRequest true "Fields to update"
// @Success 200 {object} controllers.BannerSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /banners/{bannerID} [patch]
func (c *BannerController) Update(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "bannerID")
	if !ok {
		return
	}
	var req UpdateBannerRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	banner, err := c.Service.Update(r.Context(), ac, id, domain.BannerUpdate{
		ImageURL:  req.ImageURL,
		LinkURL:   req.LinkURL,
		Position:  req.Position,
		IsActive:  req.IsActive,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, banner)
}

// Track godoc
// @Summary Count a banner view or click
// @Description Public. Increments the named counter and returns the banner.
// @Tags banners
// @Produce json
// @Param bannerID path string true "Banner ID"
// @Param counter path string true "view or click"
// @Success 200 {object} controllers.BannerSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /banners/{bannerID}/{counter} [post]
func (c *BannerController) Track(counter domain.BannerCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "bannerID")
		if !ok {
			return
		}
		banner, err := c.Service.Track(r.Context(), id, counter)
		if err != nil {
			c.fail(w, r, err)
			return
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, banner)
	}
}
