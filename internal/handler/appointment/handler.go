package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/middleware"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/appointment"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
	"github.com/VictorRomo99/veterinaria-pro/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *appointment.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/appointments")
	group.Use(h.auth.Authenticate())

	group.GET("/availability", h.CheckAvailability)
	group.POST("", h.auth.RequireRoles(model.UserRoleClient), h.Schedule)
	group.GET("/mine", h.auth.RequireRoles(model.UserRoleClient), h.ListMine)
	group.PUT("/:id/client-reschedule", h.auth.RequireRoles(model.UserRoleClient), h.ClientReschedule)
	group.DELETE("/:id/client-cancel", h.auth.RequireRoles(model.UserRoleClient), h.ClientCancel)

	staff := h.auth.RequireRoles(model.UserRoleAdmin, model.UserRoleMedic, model.UserRoleReceptionist)
	group.GET("", staff, h.List)
	group.GET("/:id", staff, h.Get)
	group.PUT("/:id/confirm", staff, h.Confirm)
	group.PUT("/:id/reschedule", staff, h.Reschedule)
	group.PUT("/:id/complete", staff, h.Complete)
	group.POST("/:id/reminder", staff, h.SendReminder)
	group.DELETE("/:id", staff, h.Cancel)
}

func (h *Handler) Schedule(c *gin.Context) {
	var req model.ScheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	appt, err := h.service.Schedule(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appt)
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	var req model.AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), req.Date, req.StartTime)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"available": available})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid appointment ID"))
		return
	}

	appt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) List(c *gin.Context) {
	var status *model.AppointmentStatus
	if s := c.Query("status"); s != "" {
		st := model.AppointmentStatus(s)
		status = &st
	}

	appts, err := h.service.ListForReception(c.Request.Context(), c.Query("from"), c.Query("to"), status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) ListMine(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	appts, err := h.service.ListForClient(c.Request.Context(), claims.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appts)
}

func (h *Handler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid appointment ID"))
		return
	}

	appt, err := h.service.Confirm(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid appointment ID"))
		return
	}

	var req model.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	appt, err := h.service.StaffReschedule(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) ClientReschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid appointment ID"))
		return
	}

	var req model.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	appt, err := h.service.ClientReschedule(c.Request.Context(), claims.UserID, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid appointment ID"))
		return
	}

	appt, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) SendReminder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid appointment ID"))
		return
	}

	appt, err := h.service.SendReminder(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appt)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid appointment ID"))
		return
	}

	outcome, err := h.service.StaffCancel(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"outcome": outcome})
}

func (h *Handler) ClientCancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid appointment ID"))
		return
	}

	claims := middleware.ClaimsFrom(c)
	outcome, err := h.service.ClientCancel(c.Request.Context(), claims.UserID, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"outcome": outcome})
}
