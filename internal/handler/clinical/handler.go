package clinical

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/middleware"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/clinical"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
	"github.com/VictorRomo99/veterinaria-pro/pkg/httputil"
)

type Handler struct {
	service *clinical.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *clinical.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/clinical-records")
	group.Use(h.auth.Authenticate())

	group.POST("", h.auth.RequireRoles(model.UserRoleMedic, model.UserRoleAdmin), h.Create)
	group.GET("/:id", h.Get)
	group.GET("/pet/:petID", h.ListByPet)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateClinicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	rec, err := h.service.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, rec)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid record ID"))
		return
	}

	rec, err := h.service.Get(c.Request.Context(), middleware.ClaimsFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, rec)
}

func (h *Handler) ListByPet(c *gin.Context) {
	petID, err := uuid.Parse(c.Param("petID"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid pet ID"))
		return
	}

	records, err := h.service.ListByPet(c.Request.Context(), middleware.ClaimsFrom(c), petID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, records)
}
