package models

import (
	"willstech-admin/internal/editor"
	"willstech-admin/internal/siteconfig"
)

// SiteResponse is the working document together with its sync state.
type SiteResponse struct {
	Site   *siteconfig.Document `json:"site"`
	Status editor.Status        `json:"status"`
}

// SaveResponse is returned by every write. Status is "saved" or "unchanged".
type SaveResponse struct {
	Status string               `json:"status"`
	Commit *editor.CommitResult `json:"commit,omitempty"`
}

type ProductResponse struct {
	Product *siteconfig.Product  `json:"product"`
	Commit  *editor.CommitResult `json:"commit,omitempty"`
}

// ProductView adds display fields to a product.
type ProductView struct {
	siteconfig.Product
	FormattedPrice         string `json:"formattedPrice"`
	FormattedOriginalPrice string `json:"formattedOriginalPrice,omitempty"`
	DiscountPercent        int    `json:"discountPercent,omitempty"`
	StockLabel             string `json:"stockLabel"`
}

func NewProductView(p siteconfig.Product) ProductView {
	v := ProductView{
		Product:        p,
		FormattedPrice: siteconfig.FormatPrice(p.Price),
		StockLabel:     siteconfig.StockLabel(p.Stock),
	}
	if p.OriginalPrice != "" {
		v.FormattedOriginalPrice = siteconfig.FormatPrice(p.OriginalPrice)
	}
	if pct, ok := siteconfig.Discount(p.Price, p.OriginalPrice); ok {
		v.DiscountPercent = pct
	}
	return v
}

type ProductCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Hidden int `json:"hidden"`
}

type ProductListResponse struct {
	Active []ProductView `json:"active"`
	Hidden []ProductView `json:"hidden"`
	Counts ProductCounts `json:"counts"`
}

type BulkStatusRequest struct {
	Status  string `json:"status" binding:"required,oneof=active hidden"`
	Confirm bool   `json:"confirm"`
}

type BulkStatusResponse struct {
	Status  string               `json:"status"`
	Changed int                  `json:"changed"`
	Commit  *editor.CommitResult `json:"commit,omitempty"`
}

type ImportResponse struct {
	Added   int                  `json:"added"`
	Updated int                  `json:"updated"`
	Commit  *editor.CommitResult `json:"commit,omitempty"`
}
