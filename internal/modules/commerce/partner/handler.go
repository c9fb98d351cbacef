package partner

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
	p := rg.Group("/partners", authMW)
	p.GET("", h.list)
	p.POST("", h.create)
	p.GET("/:id", h.get)
	p.PATCH("/:id/status", h.updateStatus)
	p.GET("/:id/brands", h.listBrands)
	p.POST("/:id/brands", h.createBrand)
	p.POST("/:id/contacts", h.addContact)
	p.GET("/:id/credentials", h.listCredentials)
	p.POST("/:id/credentials", h.createCredential)

	b := rg.Group("/brands", authMW)
	b.POST("/:id/archive", h.archiveBrand)

	c := rg.Group("/credentials", authMW)
	c.POST("/:id/reveal", h.revealCredential)
}

// GET /partners?search=&status=
func (h *Handler) list(c *gin.Context) {
	f := ListFilter{Search: c.Query("search"), Status: models.PartnerStatus(c.Query("status"))}
	items, pag, err := h.svc.ListPartners(c.Request.Context(), pagination.FromContext(c), f)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreatePartnerDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.CreatePartner(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, p)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetPartner(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var dto UpdateStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	p, err := h.svc.UpdatePartnerStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Status)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) listBrands(c *gin.Context) {
	archived := c.Query("include_archived") == "true"
	items, err := h.svc.ListBrands(c.Request.Context(), c.Param("id"), archived)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) createBrand(c *gin.Context) {
	var in BrandInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	b, err := h.svc.CreateBrand(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), in)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, b)
}

func (h *Handler) archiveBrand(c *gin.Context) {
	b, err := h.svc.ArchiveBrand(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, b)
}

func (h *Handler) addContact(c *gin.Context) {
	var dto CreateContactDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	contact, err := h.svc.AddContact(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, contact)
}

func (h *Handler) listCredentials(c *gin.Context) {
	items, err := h.svc.ListCredentials(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) createCredential(c *gin.Context) {
	var dto CreateCredentialDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cred, err := h.svc.CreateCredential(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	response.Created(c, cred)
}

// POST /credentials/:id/reveal
func (h *Handler) revealCredential(c *gin.Context) {
	out, err := h.svc.RevealCredential(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.OK(c, out)
}
