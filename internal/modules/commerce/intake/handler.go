package intake

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
	g := rg.Group("/intake", authMW)
	g.GET("/links", h.listLinks)
	g.POST("/links", h.issueLink)
	g.GET("/submissions", h.listSubmissions)
	g.GET("/submissions/:id", h.getSubmission)
	g.POST("/submissions/:id/reject", h.reject)
	g.POST("/submissions/:id/convert", h.convert)
}

// RegisterPublicRoutes mounts the unauthenticated form endpoints. guards run
// before every public handler.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup, guards ...gin.HandlerFunc) {
	g := rg.Group("/public/intake", guards...)
	g.GET("/:token", h.validate)
	g.POST("/:token", h.submit)
}

func (h *Handler) issueLink(c *gin.Context) {
	var dto IssueLinkDTO
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	out, err := h.svc.IssueLink(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.Created(c, out)
}

func (h *Handler) listLinks(c *gin.Context) {
	items, pag, err := h.svc.ListLinks(c.Request.Context(), pagination.FromContext(c))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Paged(c, items, pag)
}

// GET /intake/submissions?status=Pending
func (h *Handler) listSubmissions(c *gin.Context) {
	status := models.SubmissionStatus(c.Query("status"))
	items, pag, err := h.svc.ListSubmissions(c.Request.Context(), pagination.FromContext(c), status)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) getSubmission(c *gin.Context) {
	sub, err := h.svc.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, sub)
}

func (h *Handler) reject(c *gin.Context) {
	var dto RejectDTO
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&dto); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	sub, err := h.svc.Reject(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Reason)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, sub)
}

func (h *Handler) convert(c *gin.Context) {
	out, err := h.svc.Convert(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, out)
}

func (h *Handler) validate(c *gin.Context) {
	info, err := h.svc.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, info)
}

func (h *Handler) submit(c *gin.Context) {
	var dto SubmitDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Submit(c.Request.Context(), c.Param("token"), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, gin.H{"id": sub.ID, "status": sub.Status})
}
