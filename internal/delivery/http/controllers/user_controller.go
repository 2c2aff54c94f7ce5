package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// CreateUserRequest is the request body for POST /users
type CreateUserRequest struct {
	Email       string   `json:"email" validate:"required,email,max=254"`
	Password    string   `json:"password" validate:"required,min=8,max=128"`
	FullName    string   `json:"full_name" validate:"required,max=200"`
	Role        string   `json:"role" validate:"required,oneof=user sponsor admin"`
	AdminLevel  string   `json:"admin_level" validate:"omitempty,oneof=SUPER_ADMIN ADMIN MODERATOR"`
	Permissions []string `json:"permissions"`
}

// Validate implements Validator.
func (c CreateUserRequest) Validate() []string {
	var errs []string
	if c.Role != string(domain.RoleOrganizerAdmin) && (c.AdminLevel != "" || len(c.Permissions) > 0) {
		errs = append(errs, "admin_level and permissions are only allowed for role admin")
	}
	if _, err := domain.ParsePermissionSet(c.Permissions); err != nil {
		errs = append(errs, err.Error())
	}
	return errs
}

// UpdateMeRequest is the request body for PATCH /users/me. All fields are optional.
type UpdateMeRequest struct {
	FullName *string `json:"full_name" validate:"omitnil,min=1,max=200"`
	Email    *string `json:"email" validate:"omitnil,email,max=254"`
	Password *string `json:"password" validate:"omitnil,min=8,max=128"`
}

// ChangeRoleRequest is the request body for PATCH /users/{userID}/role
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user sponsor admin"`
}

// SetStatusRequest is the request body for PATCH /users/{userID}/status
type SetStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// AdminAccessRequest is the request body for PATCH /users/{userID}/admin-access. Both fields are optional;
// an empty permissions list clears every grant.
type AdminAccessRequest struct {
	AdminLevel  *string   `json:"admin_level" validate:"omitnil,oneof=SUPER_ADMIN ADMIN MODERATOR"`
	Permissions *[]string `json:"permissions"`
}

// Validate implements Validator.
func (a AdminAccessRequest) Validate() []string {
	if a.AdminLevel == nil && a.Permissions == nil {
		return []string{"admin_level or permissions is required"}
	}
	if a.Permissions != nil {
		if _, err := domain.ParsePermissionSet(*a.Permissions); err != nil {
			return []string{err.Error()}
		}
	}
	return nil
}

// UserSuccessResponse is the success response envelope for endpoints returning one user.
type UserSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UserListSuccessResponse is the success response envelope for GET /users (200).
type UserListSuccessResponse struct {
	Data  helpers.Page[*domain.User] `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// UserStatsSuccessResponse is the success response envelope for GET /users/stats/overview (200).
type UserStatsSuccessResponse struct {
	Data  *domain.UserStats `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UserController handles user profile and account administration endpoints.
type UserController struct {
	base
	Service domain.UserService
}

// NewUserController creates a UserController.
func NewUserController(logger *slog.Logger, denials helpers.DenialCounter, svc domain.UserService) *UserController {
	return &UserController{base: base{Logger: logger, Denials: denials}, Service: svc}
}

// List godoc
// @Summary List users
// @Description Paginated list of all users. Requires MANAGE_USERS.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.UserListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /users [get]
func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	users, total, err := c.Service.List(r.Context(), p, params)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPage(users, params, total))
}

// Create godoc
// @Summary Create a user
// @Description Create an account of any role. Requires MANAGE_USERS; creating an admin requires a super admin. Audited as create_user.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateUserRequest true "User data"
// @Success 201 {object} controllers.UserSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /users [post]
func (c *UserController) Create(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	perms, _ := domain.ParsePermissionSet(req.Permissions)
	user, err := c.Service.Create(r.Context(), ac, domain.UserCreateInput{
		Email:       strings.TrimSpace(strings.ToLower(req.Email)),
		Password:    req.Password,
		FullName:    strings.TrimSpace(req.FullName),
		Role:        domain.Role(req.Role),
		AdminLevel:  domain.AdminLevel(req.AdminLevel),
		Permissions: perms,
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, user)
}

// GetMe godoc
// @Summary Get current user
// @Description Returns the authenticated user's account.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.UserSuccessResponse "data contains the user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/me [get]
func (c *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	user, err := c.Service.GetByID(r.Context(), p, p.ID)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update current user
// @Description Update the caller's full name, email or password. Email must be unique.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateMeRequest true "Fields to update"
// @Success 200 {object} controllers.UserSuccessResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /users/me [patch]
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	var req UpdateMeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	in := domain.ProfileUpdate{FullName: trimmed(req.FullName), Password: req.Password}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		in.Email = &email
	}
	user, err := c.Service.UpdateProfile(r.Context(), p, in)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// Get godoc
// @Summary Get a user
// @Description Returns a user by id. Callers may read themselves; anyone else requires MANAGE_USERS.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Success 200 {object} controllers.UserSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID} [get]
func (c *UserController) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	user, err := c.Service.GetByID(r.Context(), p, id)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// ChangeRole godoc
// @Summary Change a user's role
// @Description Requires MANAGE_USERS; promoting to or demoting from admin requires a super admin. Audited as update_role.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Param body body ChangeRoleRequest true "New role"
// @Success 200 {object} controllers.UserSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID}/role [patch]
func (c *UserController) ChangeRole(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.ChangeRole(r.Context(), ac, id, domain.Role(req.Role))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// SetStatus godoc
// @Summary Activate or deactivate a user
// @Description Requires MANAGE_USERS; only a super admin may deactivate a super admin. Deactivation revokes the user's sessions. Audited as update_status.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Param body body SetStatusRequest true "New status"
// @Success 200 {object} controllers.UserSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID}/status [patch]
func (c *UserController) SetStatus(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req SetStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.SetStatus(r.Context(), ac, id, *req.IsActive)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateAdminAccess godoc
// @Summary Change an admin's level or permissions
// @Description Level changes require a super admin. Permission changes require MANAGE_USERS, and only a super admin may change a super admin's permissions. Audited as update_admin_level and update_permissions.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path string true "User ID"
// @Param body body AdminAccessRequest true "Level and/or permission set"
// @Success 200 {object} controllers.UserSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/{userID}/admin-access [patch]
func (c *UserController) UpdateAdminAccess(w http.ResponseWriter, r *http.Request) {
	ac, ok := c.action(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	var req AdminAccessRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	var in domain.AdminAccessUpdate
	if req.AdminLevel != nil {
		level := domain.AdminLevel(*req.AdminLevel)
		in.AdminLevel = &level
	}
	if req.Permissions != nil {
		perms, _ := domain.ParsePermissionSet(*req.Permissions)
		in.Permissions = &perms
	}
	user, err := c.Service.UpdateAdminAccess(r.Context(), ac, id, in)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// Stats godoc
// @Summary User statistics
// @Description Totals, users active in the last 30 days, and counts by role. Requires MANAGE_USERS.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.UserStatsSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Router /users/stats/overview [get]
func (c *UserController) Stats(w http.ResponseWriter, r *http.Request) {
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
