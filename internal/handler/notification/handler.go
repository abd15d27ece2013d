package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/middleware"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/notification"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
	"github.com/VictorRomo99/veterinaria-pro/pkg/httputil"
)

type Handler struct {
	service *notification.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *notification.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/notifications")
	group.Use(h.auth.Authenticate())

	group.GET("", h.List)
	group.PUT("/:id/read", h.MarkRead)
	group.PUT("/read-all", h.MarkAllRead)
}

func (h *Handler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	notifications, err := h.service.ListForUser(
		c.Request.Context(), claims.UserID, claims.Role, c.Query("unread") == "true")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, notifications)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid notification ID"))
		return
	}

	claims := middleware.ClaimsFrom(c)
	if err := h.service.MarkRead(c.Request.Context(), id, claims.UserID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if err := h.service.MarkAllRead(c.Request.Context(), claims.UserID, claims.Role); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}
