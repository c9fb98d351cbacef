package deal

import (
	"github.com/dealdesk/core/internal/middleware"
	"github.com/dealdesk/core/internal/models"
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/deals", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.POST("/replace", h.replace)
	g.GET("/pipeline", h.pipeline)
	g.GET("/:id", h.get)
	g.PATCH("/:id/status", h.updateStatus)
}

// GET /deals?partner_id=&brand_id=&asset_id=&position_id=&geo=&status=
func (h *Handler) list(c *gin.Context) {
	f := ListFilter{
		PartnerID:  c.Query("partner_id"),
		BrandID:    c.Query("brand_id"),
		AssetID:    c.Query("asset_id"),
		PositionID: c.Query("position_id"),
		Geo:        c.Query("geo"),
		Status:     models.DealStatus(c.Query("status")),
	}
	items, pag, err := h.svc.List(c.Request.Context(), pagination.FromContext(c), f)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDealDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	out, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, out)
}

func (h *Handler) replace(c *gin.Context) {
	var dto CreateDealDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	out, err := h.svc.Replace(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, out)
}

func (h *Handler) pipeline(c *gin.Context) {
	out, err := h.svc.Pipeline(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, d)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var dto UpdateStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	d, err := h.svc.UpdateStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Status)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, d)
}
