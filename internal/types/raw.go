// Package types provides shared types used across multiple packages.
// This package has no dependencies on other juris packages to avoid import cycles.
package types

// RawDocument is the intermediate document produced by the upstream
// HTML converter, one per scraped decision page.
type RawDocument struct {
	Title    string       `json:"title,omitempty"`
	Sections []RawSection `json:"sections"`
}

// RawSection is a legend followed by its ordered paragraphs.
type RawSection struct {
	Legend     string         `json:"legend"`
	Paragraphs []RawParagraph `json:"paragraphs"`
}

// RawParagraph is the smallest extraction unit. HTML and Links are optional.
type RawParagraph struct {
	Text  string    `json:"text"`
	HTML  string    `json:"html,omitempty"`
	Links []RawLink `json:"links,omitempty"`
}

// RawLink is an anchor found inside a paragraph.
type RawLink struct {
	Href string `json:"href"`
	Text string `json:"text"`
}
