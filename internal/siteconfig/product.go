package siteconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	StatusActive = "active"
	StatusHidden = "hidden"
)

const (
	StockInStock    = "in-stock"
	StockOutOfStock = "out-of-stock"
	StockPreOrder   = "pre-order"
	StockLimited    = "limited"
)

var Badges = []string{"new", "sale", "bestseller", "limited"}

// ProductID is a Unix-millisecond timestamp. Older exports stored fractional
// or quoted IDs, so decoding accepts both and truncates.
type ProductID int64

func (id *ProductID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = ProductID(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid product id %q", s)
	}
	*id = ProductID(math.Trunc(f))
	return nil
}

func (id ProductID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParseProductID(s string) (ProductID, error) {
	var id ProductID
	if err := id.UnmarshalJSON([]byte(s)); err != nil {
		return 0, err
	}
	return id, nil
}

// Price is a whole-shilling amount kept as a digit string, the form the site
// has always stored. Numbers are accepted on decode.
type Price string

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*p = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Price(strings.TrimSpace(s))
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid price %s", b)
	}
	f = math.Round(f)
	if f < 0 || f >= math.MaxInt64 {
		return fmt.Errorf("price %s out of range", b)
	}
	*p = Price(strconv.FormatInt(int64(f), 10))
	return nil
}

// Amount returns the numeric value, ignoring separators and currency text.
func (p Price) Amount() int64 {
	n, _ := strconv.ParseInt(DigitsOnly(string(p)), 10, 64)
	return n
}

// DigitsOnly strips everything but 0-9, turning "UGX 4,500,000" into "4500000".
// An input without digits yields "0".
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

type Product struct {
	ID             ProductID      `json:"id"`
	Name           string         `json:"name" validate:"required"`
	SKU            string         `json:"sku,omitempty"`
	Category       string         `json:"category"`
	Description    string         `json:"description"`
	Price          Price          `json:"price" validate:"omitempty,number"`
	OriginalPrice  Price          `json:"originalPrice,omitempty" validate:"omitempty,number"`
	Image          string         `json:"image,omitempty"`
	Images         []string       `json:"images"`
	Videos         []string       `json:"videos"`
	Stock          string         `json:"stock,omitempty" validate:"omitempty,oneof=in-stock out-of-stock pre-order limited"`
	Rating         float64        `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount    int            `json:"reviewCount" validate:"gte=0"`
	Badges         []string       `json:"badges" validate:"dive,oneof=new sale bestseller limited"`
	Features       []string       `json:"features"`
	Specifications map[string]any `json:"specifications"`
	Featured       bool           `json:"featured"`
	Status         string         `json:"status" validate:"omitempty,oneof=active hidden"`
	DateAdded      *time.Time     `json:"dateAdded,omitempty"`
	DateUpdated    *time.Time     `json:"dateUpdated,omitempty"`
}

func (p Product) Hidden() bool {
	return p.Status == StatusHidden
}

func (p *Product) normalize() {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Videos == nil {
		p.Videos = []string{}
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Specifications == nil {
		p.Specifications = map[string]any{}
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
}

// Clone deep-copies slices, dates and the specification tree.
func (p Product) Clone() Product {
	c := p
	c.Images = cloneStrings(p.Images)
	c.Videos = cloneStrings(p.Videos)
	c.Badges = cloneStrings(p.Badges)
	c.Features = cloneStrings(p.Features)
	if p.Specifications != nil {
		c.Specifications = make(map[string]any, len(p.Specifications))
		for k, v := range p.Specifications {
			c.Specifications[k] = cloneValue(v)
		}
	}
	if p.DateAdded != nil {
		t := *p.DateAdded
		c.DateAdded = &t
	}
	if p.DateUpdated != nil {
		t := *p.DateUpdated
		c.DateUpdated = &t
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}

// NextProductID hands out a millisecond timestamp, bumped past any ID already
// in use.
func NextProductID(now time.Time, products []Product) ProductID {
	taken := make(map[ProductID]struct{}, len(products))
	for _, p := range products {
		taken[p.ID] = struct{}{}
	}
	id := ProductID(now.UnixMilli())
	for {
		if _, ok := taken[id]; !ok {
			return id
		}
		id++
	}
}
