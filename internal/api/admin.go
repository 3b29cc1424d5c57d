package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"willstech-admin/internal/auth"
	"willstech-admin/internal/backup"
	"willstech-admin/internal/editor"
	"willstech-admin/internal/logger"
	dbmodels "willstech-admin/internal/models"
	"willstech-admin/pkg/models"
)

type AuthHandler struct {
	auth *auth.Service
	log  *logger.Logger
}

func NewAuthHandler(svc *auth.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, log: log}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tok, err := h.auth.Login(req.Password)
	if err != nil {
		h.log.Warnw("Failed admin login", "ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, tok)
}

type HistoryStore interface {
	List(ctx context.Context, section string, limit int) ([]dbmodels.CommitRecord, error)
}

type HistoryHandler struct {
	history   HistoryStore
	snapshots *backup.Writer
	log       *logger.Logger
}

func NewHistoryHandler(history HistoryStore, snapshots *backup.Writer, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, snapshots: snapshots, log: log}
}

func (h *HistoryHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.history.List(c.Request.Context(), c.Query("section"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if records == nil {
		records = []dbmodels.CommitRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *HistoryHandler) ListSnapshots(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusOK, []backup.Snapshot{})
		return
	}
	list, err := h.snapshots.List()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *HistoryHandler) GetSnapshot(c *gin.Context) {
	if h.snapshots == nil {
		respondError(c, h.log, backup.ErrNotFound)
		return
	}
	body, err := h.snapshots.Read(c.Param("name"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+c.Param("name")+`"`)
	c.Data(http.StatusOK, "application/json", body)
}

type HealthHandler struct {
	editor *editor.Editor
}

func NewHealthHandler(ed *editor.Editor) *HealthHandler {
	return &HealthHandler{editor: ed}
}

func (h *HealthHandler) Health(c *gin.Context) {
	st := h.editor.Status()
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "ok",
		Repository: st.Target.FullName(),
		Branch:     st.Target.Branch,
		Loaded:     st.Loaded,
		LastSynced: st.LastSynced,
	})
}
