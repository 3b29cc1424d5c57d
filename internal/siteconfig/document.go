// Package siteconfig models data/site-config.json, the document that holds all
// editable storefront content.
package siteconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Hero struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	WhatsAppLink string `json:"whatsappLink"`
}

type Content struct {
	StoreName   string `json:"storeName"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	ContactInfo string `json:"contactInfo"`
}

type Social struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	Twitter   string `json:"twitter"`
	TikTok    string `json:"tiktok"`
	YouTube   string `json:"youtube"`
}

// Document is the whole of site-config.json.
type Document struct {
	Hero        Hero       `json:"hero"`
	Products    []Product  `json:"products" validate:"dive"`
	Content     Content    `json:"content"`
	Social      Social     `json:"social"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
	LastSynced  *time.Time `json:"lastSynced,omitempty"`
}

// Empty is the document used when the repository has neither a config file
// nor a readable index page.
func Empty(now time.Time) *Document {
	d := &Document{LastSynced: &now}
	d.Normalize()
	return d
}

// Decode parses a site-config.json body. An empty body decodes to an empty
// document.
func Decode(data []byte) (*Document, error) {
	var d Document
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode site config: %w", err)
		}
	}
	d.Normalize()
	return &d, nil
}

// Encode renders the document the way the site expects it on disk: two-space
// indentation and a trailing newline.
func (d *Document) Encode() ([]byte, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode site config: %w", err)
	}
	return append(out, '\n'), nil
}

// Normalize replaces nil collections with empty ones so the committed JSON
// never carries null arrays, and gives every product a unique id.
func (d *Document) Normalize() {
	if d.Products == nil {
		d.Products = []Product{}
	}
	for i := range d.Products {
		d.Products[i].normalize()
	}
	d.reassignDuplicateIDs()
}

// reassignDuplicateIDs keeps the first product holding an id and moves later
// holders to the next free millisecond. Legacy imports stored ids like
// 1700000000000.12 and 1700000000000.87 that collide once truncated.
func (d *Document) reassignDuplicateIDs() {
	seen := make(map[ProductID]struct{}, len(d.Products))
	for i := range d.Products {
		id := d.Products[i].ID
		if _, dup := seen[id]; dup {
			id = NextProductID(time.UnixMilli(int64(id)), d.Products)
			d.Products[i].ID = id
		}
		seen[id] = struct{}{}
	}
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Products = make([]Product, len(d.Products))
	for i, p := range d.Products {
		c.Products[i] = p.Clone()
	}
	if d.LastUpdated != nil {
		t := *d.LastUpdated
		c.LastUpdated = &t
	}
	if d.LastSynced != nil {
		t := *d.LastSynced
		c.LastSynced = &t
	}
	return &c
}

// FindProduct returns the index of the product with id, or -1.
func (d *Document) FindProduct(id ProductID) int {
	for i := range d.Products {
		if d.Products[i].ID == id {
			return i
		}
	}
	return -1
}

// Partition splits products into visible and hidden, preserving order.
func (d *Document) Partition() (active, hidden []Product) {
	active, hidden = []Product{}, []Product{}
	for _, p := range d.Products {
		if p.Hidden() {
			hidden = append(hidden, p)
		} else {
			active = append(active, p)
		}
	}
	return active, hidden
}
