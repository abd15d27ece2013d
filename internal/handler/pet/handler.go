package pet

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/middleware"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/pet"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
	"github.com/VictorRomo99/veterinaria-pro/pkg/httputil"
)

type Handler struct {
	service *pet.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *pet.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/pets")
	group.Use(h.auth.Authenticate())

	group.POST("", h.Create)
	group.GET("/mine", h.auth.RequireRoles(model.UserRoleClient), h.ListMine)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)

	staff := h.auth.RequireRoles(model.UserRoleAdmin, model.UserRoleMedic, model.UserRoleReceptionist)
	group.GET("", staff, h.List)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	p, err := h.service.Create(c.Request.Context(), middleware.ClaimsFrom(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid pet ID"))
		return
	}

	p, err := h.service.Get(c.Request.Context(), middleware.ClaimsFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid pet ID"))
		return
	}

	var req model.UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.ClaimsFrom(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) ListMine(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	pets, err := h.service.ListByOwner(c.Request.Context(), claims.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pets)
}

func (h *Handler) List(c *gin.Context) {
	var pg model.Pagination
	if err := c.ShouldBindQuery(&pg); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	pets, err := h.service.List(c.Request.Context(), pg)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pets)
}
