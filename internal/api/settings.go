package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"willstech-admin/internal/editor"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/settings"
	"willstech-admin/pkg/models"
)

type SettingsStore interface {
	Load(ctx context.Context) (settings.Repo, error)
	Save(ctx context.Context, update settings.Repo) (settings.Repo, error)
}

// BackendFactory builds a GitHub backend for a set of repository settings.
type BackendFactory func(r settings.Repo) editor.Backend

type SettingsHandler struct {
	store      SettingsStore
	editor     *editor.Editor
	newBackend BackendFactory
	log        *logger.Logger
}

func NewSettingsHandler(store SettingsStore, ed *editor.Editor, newBackend BackendFactory, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{store: store, editor: ed, newBackend: newBackend, log: log}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	r, err := h.store.Load(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.SettingsResponse{Settings: r.Masked(), TreeURL: r.Target().TreeURL()})
}

// UpdateSettings persists the repository settings, points the editor at the
// new target and syncs from it.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req settings.Repo
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.store.Save(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Infow("Repository settings updated",
		"repository", saved.Target().FullName(),
		"branch", saved.Branch,
	)

	resp := gin.H{
		"status":   "saved",
		"settings": saved.Masked(),
		"tree_url": saved.Target().TreeURL(),
	}
	if err := h.editor.SetBackend(c.Request.Context(), h.newBackend(saved)); err != nil {
		// The settings are stored either way; report why the sync failed.
		h.log.WithError(err).Warn("Sync after settings change failed")
		resp["sync_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// VerifySettings checks access using the posted settings merged over the
// stored ones, without saving anything.
func (h *SettingsHandler) VerifySettings(c *gin.Context) {
	var req settings.Repo
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	current, err := h.store.Load(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	candidate := current.Merge(req)

	access, err := h.newBackend(candidate).VerifyAccess(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp := models.VerifyResponse{Status: "ok", Access: access}
	if !access.BranchExists {
		resp.Status = "warning"
		resp.Warning = "Branch " + candidate.Branch + " does not exist"
	} else if !access.CanPush {
		resp.Status = "warning"
		resp.Warning = "Token has no push permission on " + candidate.Target().FullName()
	}
	c.JSON(http.StatusOK, resp)
}
