package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/middleware"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/clinicconfig"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/report"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/user"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
	"github.com/VictorRomo99/veterinaria-pro/pkg/httputil"
)

// Handler groups the admin-only surface: user management, the clinic
// profile and the dashboard.
type Handler struct {
	users   *user.Service
	clinic  *clinicconfig.Service
	reports *report.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(users *user.Service, clinic *clinicconfig.Service, reports *report.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{users: users, clinic: clinic, reports: reports, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	// The clinic profile is public: the frontend shows it on every page.
	rg.GET("/clinic", h.GetClinicConfig)

	group := rg.Group("/admin")
	group.Use(h.auth.Authenticate())
	group.Use(h.auth.RequireRoles(model.UserRoleAdmin))

	group.GET("/users", h.ListUsers)
	group.GET("/users/:id", h.GetUser)
	group.PUT("/users/:id/role", h.UpdateUserRole)
	group.PUT("/users/:id/status", h.UpdateUserStatus)
	group.PUT("/clinic", h.UpdateClinicConfig)
	group.GET("/dashboard", h.Dashboard)

	staff := rg.Group("/medics")
	staff.Use(h.auth.Authenticate())
	staff.GET("", h.ListMedics)
}

func (h *Handler) ListUsers(c *gin.Context) {
	var pg model.Pagination
	if err := c.ShouldBindQuery(&pg); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	var role *model.UserRole
	if r := c.Query("role"); r != "" {
		ur := model.UserRole(r)
		role = &ur
	}

	users, err := h.users.List(c.Request.Context(), role, pg)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid user ID"))
		return
	}

	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid user ID"))
		return
	}

	var req model.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	u, err := h.users.UpdateRole(c.Request.Context(), id, req.Role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) UpdateUserStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid user ID"))
		return
	}

	var req model.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	u, err := h.users.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, u)
}

func (h *Handler) ListMedics(c *gin.Context) {
	medics, err := h.users.ListMedics(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, medics)
}

func (h *Handler) GetClinicConfig(c *gin.Context) {
	cfg, err := h.clinic.Get(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}

func (h *Handler) UpdateClinicConfig(c *gin.Context) {
	var req model.UpdateClinicConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	cfg, err := h.clinic.Update(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}

func (h *Handler) Dashboard(c *gin.Context) {
	dashboard, err := h.reports.BuildDashboard(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dashboard)
}
