package model

import "strings"

// Document is a raw fetched listing page plus an optional pre-rendered
// visible-text version of it.
type Document struct {
	Raw  string `json:"raw"`
	Text string `json:"text,omitempty"`
}

// HasText reports whether a usable pre-rendered text is attached.
func (d Document) HasText() bool {
	return strings.TrimSpace(d.Text) != ""
}

// ListingRef is a listing discovered on a search results page.
type ListingRef struct {
	Page       string `json:"page"`
	ScrapedAt  string `json:"scraped_at"`
	Source     string `json:"source"`
	PropertyID string `json:"property_id"`
	URL        string `json:"property_url"`
}
