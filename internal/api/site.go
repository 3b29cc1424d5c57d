package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"willstech-admin/internal/editor"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/siteconfig"
	"willstech-admin/pkg/models"
)

type SiteHandler struct {
	editor *editor.Editor
	log    *logger.Logger
}

func NewSiteHandler(ed *editor.Editor, log *logger.Logger) *SiteHandler {
	return &SiteHandler{editor: ed, log: log}
}

func (h *SiteHandler) GetSite(c *gin.Context) {
	doc, err := h.editor.Document(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.SiteResponse{Site: doc, Status: h.editor.Status()})
}

func (h *SiteHandler) Sync(c *gin.Context) {
	if err := h.editor.Sync(c.Request.Context()); err != nil {
		respondError(c, h.log, err)
		return
	}
	doc, err := h.editor.Document(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.SiteResponse{Site: doc, Status: h.editor.Status()})
}

func (h *SiteHandler) UpdateHero(c *gin.Context) {
	var req siteconfig.Hero
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.saved(c)(h.editor.UpdateHero(c.Request.Context(), req))
}

func (h *SiteHandler) UpdateContent(c *gin.Context) {
	var req siteconfig.Content
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.saved(c)(h.editor.UpdateContent(c.Request.Context(), req))
}

func (h *SiteHandler) UpdateSocial(c *gin.Context) {
	var req siteconfig.Social
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.saved(c)(h.editor.UpdateSocial(c.Request.Context(), req))
}

func (h *SiteHandler) saved(c *gin.Context) func(*editor.CommitResult, error) {
	return func(res *editor.CommitResult, err error) {
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, models.SaveResponse{Status: "saved", Commit: res})
	}
}

// Backup downloads the working document as a dated JSON file.
func (h *SiteHandler) Backup(c *gin.Context) {
	body, name, err := h.editor.Backup(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/json", body)
}

// Restore replaces the working document. Nothing is committed until deploy.
func (h *SiteHandler) Restore(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.editor.Restore(c.Request.Context(), body); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "restored",
		"message": "Data restored locally, deploy to publish it",
		"dirty":   h.editor.Status().Dirty,
	})
}

func (h *SiteHandler) Deploy(c *gin.Context) {
	res, err := h.editor.Deploy(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
