package occupancy

import (
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
	g := rg.Group("/occupancy", authMW)
	g.GET("", h.list)
}

// GET /occupancy?geo=US
func (h *Handler) list(c *gin.Context) {
	slots, err := h.svc.Open(c.Request.Context(), c.Query("geo"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, slots)
}
