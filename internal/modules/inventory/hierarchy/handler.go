package hierarchy

import (
	"github.com/dealdesk/core/internal/middleware"
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
	a := rg.Group("/assets", authMW)
	a.GET("", h.listAssets)
	a.POST("", h.createAsset)
	a.GET("/:id", h.getAsset)
	a.PATCH("/:id/status", h.updateAssetStatus)
	a.GET("/:id/pages", h.listPages)
	a.POST("/:id/pages", h.createPage)
	a.GET("/:id/positions", h.listAssetPositions)

	p := rg.Group("/pages", authMW)
	p.GET("/:id/positions", h.listPagePositions)
	p.POST("/:id/archive", h.archivePage)

	pos := rg.Group("/positions", authMW)
	pos.POST("", h.createPosition)
	pos.POST("/:id/archive", h.archivePosition)
}

func includeArchived(c *gin.Context) bool {
	v := c.Query("include_archived")
	return v == "true" || v == "1"
}

func (h *Handler) listAssets(c *gin.Context) {
	items, err := h.svc.ListAssets(c.Request.Context(), includeArchived(c))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) createAsset(c *gin.Context) {
	var dto CreateAssetDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	out, err := h.svc.CreateAsset(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, out)
}

func (h *Handler) getAsset(c *gin.Context) {
	a, err := h.svc.GetAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, a)
}

func (h *Handler) updateAssetStatus(c *gin.Context) {
	var dto UpdateAssetStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	a, err := h.svc.UpdateAssetStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Status)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, a)
}

func (h *Handler) listPages(c *gin.Context) {
	items, err := h.svc.ListPages(c.Request.Context(), c.Param("id"), includeArchived(c))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, items)
}

// POST /assets/:id/pages
func (h *Handler) createPage(c *gin.Context) {
	var dto CreatePageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	out, err := h.svc.CreatePage(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, out)
}

func (h *Handler) archivePage(c *gin.Context) {
	p, err := h.svc.ArchivePage(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) listAssetPositions(c *gin.Context) {
	h.listPositions(c, PositionFilter{AssetID: c.Param("id"), IncludeArchived: includeArchived(c)})
}

func (h *Handler) listPagePositions(c *gin.Context) {
	h.listPositions(c, PositionFilter{PageID: c.Param("id"), IncludeArchived: includeArchived(c)})
}

func (h *Handler) listPositions(c *gin.Context, f PositionFilter) {
	items, err := h.svc.ListPositions(c.Request.Context(), f)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) createPosition(c *gin.Context) {
	var dto CreatePositionDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.CreatePosition(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, p)
}

func (h *Handler) archivePosition(c *gin.Context) {
	p, err := h.svc.ArchivePosition(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, p)
}
