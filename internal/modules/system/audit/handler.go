package audit

import (
	"github.com/dealdesk/core/internal/pkg/pagination"
	"github.com/dealdesk/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	rec *Recorder
	log *zap.Logger
}

func NewHandler(rec *Recorder, log *zap.Logger) *Handler {
	return &Handler{rec: rec, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/audit-logs", authMW)
	g.GET("", h.list)
}

// GET /audit-logs?entity_type=&entity_id=&action=&user_id=
func (h *Handler) list(c *gin.Context) {
	f := Filter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Action:     c.Query("action"),
		UserID:     c.Query("user_id"),
	}
	items, pag, err := h.rec.List(c.Request.Context(), pagination.FromContext(c), f)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Paged(c, items, pag)
}
