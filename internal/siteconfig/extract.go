package siteconfig

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultCategory = "electronics"
	defaultStore    = "Will's Tech Store"
	defaultTagline  = "Elevate Your Lifestyle With Authentic Tech"

	DefaultContactInfo = "WhatsApp: +256 751 924 844\n" +
		"Email: wills.tech.store.ug@gmail.com\n" +
		"Locations: Kampala & Mbale, Uganda\n" +
		"Business Hours: Mon-Sat 8:00 AM - 8:00 PM, Sun 10:00 AM - 6:00 PM"
)

// Extract rebuilds a document from the storefront's index.html. It is the
// bootstrap path for repositories that predate site-config.json.
func Extract(indexHTML []byte, now time.Time) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(indexHTML))
	if err != nil {
		return nil, fmt.Errorf("parse index html: %w", err)
	}

	d := &Document{
		Hero:       extractHero(root),
		Products:   extractProducts(root, now),
		Content:    extractContent(root),
		Social:     extractSocial(root),
		LastSynced: &now,
	}
	d.Normalize()
	return d, nil
}

func extractProducts(root *html.Node, now time.Time) []Product {
	var products []Product
	for i, card := range findAll(root, byClass("product-card")) {
		name := text(findFirst(card, byTag(atom.H3)))
		if name == "" {
			continue
		}

		p := Product{
			ID:          ProductID(now.UnixMilli() + int64(i)),
			Name:        name,
			Description: text(findFirst(card, byClass("product-description"))),
			Price:       Price(DigitsOnly(text(findFirst(card, byClass("current-price"))))),
			Category:    attr(card, "data-category"),
			Featured:    true,
			Status:      StatusActive,
			Rating:      extractRating(card),
		}
		if p.Category == "" {
			p.Category = defaultCategory
		}
		if img := findFirst(card, byTag(atom.Img)); img != nil {
			p.Image = attr(img, "src")
		}
		if orig := findFirst(card, byClass("original-price")); orig != nil {
			if digits := DigitsOnly(text(orig)); digits != "0" {
				p.OriginalPrice = Price(digits)
			}
		}
		for _, b := range findAll(card, byClass("product-badge")) {
			for _, badge := range Badges {
				if hasClass(b, "badge-"+badge) {
					p.Badges = append(p.Badges, badge)
				}
			}
		}
		added := now
		p.DateAdded = &added
		products = append(products, p)
	}
	return products
}

// extractRating counts solid and half stars. Outline stars ("far fa-star")
// are placeholders and score nothing. No stars at all means five.
func extractRating(card *html.Node) float64 {
	stars := findFirst(card, byClass("stars"))
	if stars == nil {
		return 5
	}
	var rating float64
	var seen bool
	for _, icon := range findAll(stars, byTag(atom.I)) {
		switch {
		case hasClass(icon, "fa-star-half-alt"):
			rating += 0.5
			seen = true
		case hasClass(icon, "fa-star") && !hasClass(icon, "far"):
			rating++
			seen = true
		case hasClass(icon, "fa-star"):
			seen = true
		}
	}
	if !seen {
		return 5
	}
	return rating
}

func extractHero(root *html.Node) Hero {
	hero := findFirst(root, byClass("hero"))
	if hero == nil {
		return Hero{}
	}
	h := Hero{
		Title:       text(findFirst(hero, byTag(atom.H1))),
		Description: text(findFirst(hero, byTag(atom.P))),
	}
	for _, a := range findAll(hero, byClass("btn-primary")) {
		if href := attr(a, "href"); strings.Contains(href, "wa.me") {
			h.WhatsAppLink = href
			break
		}
	}
	return h
}

func extractContent(root *html.Node) Content {
	c := Content{
		StoreName:   text(findFirst(root, byTag(atom.Title))),
		ContactInfo: DefaultContactInfo,
	}
	if c.StoreName == "" {
		c.StoreName = defaultStore
	}
	c.Tagline = defaultTagline
	if slogan := findFirst(root, byClass("header-slogan")); slogan != nil {
		if t := text(findFirst(slogan, byClass("tagline"))); t != "" {
			c.Tagline = t
		}
	}
	for _, m := range findAll(root, byTag(atom.Meta)) {
		if attr(m, "name") == "description" {
			c.Description = attr(m, "content")
			break
		}
	}
	if info := text(findFirst(root, byClass("contact-info"))); info != "" {
		c.ContactInfo = info
	}
	return c
}

func extractSocial(root *html.Node) Social {
	var s Social
	hero := findFirst(root, byClass("hero"))
	if hero == nil {
		return s
	}
	for _, links := range findAll(hero, byClass("social-links")) {
		for _, a := range findAll(links, byTag(atom.A)) {
			ClassifySocialLink(&s, attr(a, "href"))
		}
	}
	return s
}

// ClassifySocialLink stores href in the field matching its host.
func ClassifySocialLink(s *Social, href string) {
	switch {
	case strings.Contains(href, "facebook"):
		s.Facebook = href
	case strings.Contains(href, "instagram"):
		s.Instagram = href
	case strings.Contains(href, "twitter"), strings.Contains(href, "x.com"):
		s.Twitter = href
	case strings.Contains(href, "tiktok"):
		s.TikTok = href
	case strings.Contains(href, "youtube"):
		s.YouTube = href
	}
}

// --- node helpers ---

type matcher func(*html.Node) bool

func byTag(a atom.Atom) matcher {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a }
}

func byClass(class string) matcher {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && hasClass(n, class) }
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findAll returns matching descendants of n in document order.
func findAll(n *html.Node, match matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

func findFirst(n *html.Node, match matcher) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// text is the trimmed textContent of n.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
