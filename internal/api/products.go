package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"willstech-admin/internal/editor"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/siteconfig"
	"willstech-admin/pkg/models"
)

type ProductHandler struct {
	editor *editor.Editor
	log    *logger.Logger
}

func NewProductHandler(ed *editor.Editor, log *logger.Logger) *ProductHandler {
	return &ProductHandler{editor: ed, log: log}
}

// ListProducts splits products into active and hidden with display fields.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	doc, err := h.editor.Document(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	active, hidden := doc.Partition()
	resp := models.ProductListResponse{
		Active: make([]models.ProductView, 0, len(active)),
		Hidden: make([]models.ProductView, 0, len(hidden)),
		Counts: models.ProductCounts{
			Total:  len(doc.Products),
			Active: len(active),
			Hidden: len(hidden),
		},
	}
	for _, p := range active {
		resp.Active = append(resp.Active, models.NewProductView(p))
	}
	for _, p := range hidden {
		resp.Hidden = append(resp.Hidden, models.NewProductView(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req siteconfig.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, res, err := h.editor.AddProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, models.ProductResponse{Product: p, Commit: res})
}

// UpdateProduct accepts a partial product; omitted fields keep their values.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}
	body, err := readBody(c)
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	p, res, err := h.editor.UpdateProduct(c.Request.Context(), id, body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Product: p, Commit: res})
}

func (h *ProductHandler) ToggleProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}
	p, res, err := h.editor.ToggleProductVisibility(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Product: p, Commit: res})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}
	p, res, err := h.editor.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ProductResponse{Product: p, Commit: res})
}

// BulkStatus hides or shows every product. The caller must confirm.
func (h *ProductHandler) BulkStatus(c *gin.Context) {
	var req models.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bulk status change requires confirm=true"})
		return
	}
	n, res, err := h.editor.SetAllProductStatus(c.Request.Context(), req.Status)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.BulkStatusResponse{Status: "saved", Changed: n, Commit: res})
}

func (h *ProductHandler) ExportProducts(c *gin.Context) {
	env, err := h.editor.ExportProducts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	body, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+editor.ExportFileName(time.Now())+`"`)
	c.Data(http.StatusOK, "application/json", body)
}

func (h *ProductHandler) ImportProducts(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mr, res, err := h.editor.ImportProducts(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ImportResponse{Added: mr.Added, Updated: mr.Updated, Commit: res})
}

func (h *ProductHandler) productID(c *gin.Context) (siteconfig.ProductID, bool) {
	id, err := siteconfig.ParseProductID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return 0, false
	}
	return id, true
}
