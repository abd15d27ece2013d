package till

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/middleware"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/till"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
	"github.com/VictorRomo99/veterinaria-pro/pkg/httputil"
)

type Handler struct {
	service *till.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *till.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/till")
	group.Use(h.auth.Authenticate())
	group.Use(h.auth.RequireRoles(model.UserRoleAdmin, model.UserRoleReceptionist))

	group.POST("/sessions", h.OpenSession)
	group.GET("/sessions", h.ListSessions)
	group.GET("/sessions/today", h.TodaySession)
	group.GET("/sessions/:id", h.GetSession)
	group.PUT("/sessions/:id/close", h.CloseSession)
	group.POST("/movements", h.RecordMovement)
	group.GET("/sessions/:id/movements", h.ListMovements)
}

func (h *Handler) OpenSession(c *gin.Context) {
	var req model.OpenTillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	session, err := h.service.OpenSession(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		if session != nil {
			httputil.RespondWithErrorData(c, err, session)
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, session)
}

func (h *Handler) RecordMovement(c *gin.Context) {
	var req model.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	movement, err := h.service.RecordMovement(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, movement)
}

func (h *Handler) GetSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID"))
		return
	}

	session, movements, breakdown, err := h.service.SessionWithTotals(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"session":   session,
		"movements": movements,
		"by_method": breakdown,
	})
}

func (h *Handler) TodaySession(c *gin.Context) {
	session, err := h.service.TodaySession(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, session)
}

func (h *Handler) CloseSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID"))
		return
	}

	var req model.CloseTillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	session, err := h.service.CloseSession(c.Request.Context(), id, claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, session)
}

func (h *Handler) ListMovements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid session ID"))
		return
	}

	movements, err := h.service.ListMovements(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, movements)
}

func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.service.ListSessions(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, sessions)
}
