package invoice

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/VictorRomo99/veterinaria-pro/internal/middleware"
	"github.com/VictorRomo99/veterinaria-pro/internal/model"
	"github.com/VictorRomo99/veterinaria-pro/internal/service/billing"
	"github.com/VictorRomo99/veterinaria-pro/pkg/errors"
	"github.com/VictorRomo99/veterinaria-pro/pkg/httputil"
)

type Handler struct {
	service *billing.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service *billing.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/invoices")
	group.Use(h.auth.Authenticate())
	group.Use(h.auth.RequireRoles(model.UserRoleAdmin, model.UserRoleReceptionist))

	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("/:id/lines", h.AddLine)
	group.PUT("/:id/lines/:lineID", h.UpdateLine)
	group.DELETE("/:id/lines/:lineID", h.RemoveLine)
	group.PUT("/:id/pay", h.Pay)
	group.PUT("/:id/void", h.Void)
	group.POST("/quick-sale", h.QuickSale)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	inv, err := h.service.CreateInvoice(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, inv)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid invoice ID"))
		return
	}

	inv, err := h.service.GetInvoice(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) List(c *gin.Context) {
	var status *model.InvoiceStatus
	if s := c.Query("status"); s != "" {
		st := model.InvoiceStatus(s)
		status = &st
	}

	invoices, err := h.service.ListInvoices(c.Request.Context(), c.Query("from"), c.Query("to"), status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, invoices)
}

func (h *Handler) AddLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid invoice ID"))
		return
	}

	var req model.InvoiceLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	inv, err := h.service.AddLine(c.Request.Context(), id, claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) UpdateLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid invoice ID"))
		return
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid line ID"))
		return
	}

	var req struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	inv, err := h.service.UpdateLine(c.Request.Context(), id, lineID, claims.UserID, req.Quantity)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) RemoveLine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid invoice ID"))
		return
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid line ID"))
		return
	}

	claims := middleware.ClaimsFrom(c)
	inv, err := h.service.RemoveLine(c.Request.Context(), id, lineID, claims.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) Pay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid invoice ID"))
		return
	}

	var req model.PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	inv, err := h.service.PayInvoice(c.Request.Context(), id, claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.Validation("invalid invoice ID"))
		return
	}

	claims := middleware.ClaimsFrom(c)
	inv, err := h.service.VoidInvoice(c.Request.Context(), id, claims.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, inv)
}

func (h *Handler) QuickSale(c *gin.Context) {
	var req model.QuickSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Validation(err.Error()))
		return
	}

	claims := middleware.ClaimsFrom(c)
	inv, err := h.service.QuickSale(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, inv)
}
