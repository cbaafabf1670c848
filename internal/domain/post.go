package domain

import "time"

// MediaType tags a normalized media item.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	// MediaCard is synthesized from a link preview when a status has no native media.
	MediaCard MediaType = "card"
)

// Post is the display-ready unit produced from an accepted status.
type Post struct {
	// ID is the status URI and the key the store deduplicates on.
	ID string `json:"id"`

	// URL is the canonical page of the post, falling back to ID.
	URL string `json:"url"`

	Author *Author `json:"author,omitempty"`

	// Content is sanitized HTML with custom emoji already substituted.
	Content string `json:"content"`

	// Date is the creation time of the fetched document. For boosts this is the
	// time of the boost, so a boost can refresh an already collected post.
	Date time.Time `json:"date"`

	Media []Media `json:"media"`

	// Pinned is never set by the aggregation pipeline itself.
	Pinned bool `json:"pinned,omitempty"`
}

// Author describes who wrote a post.
type Author struct {
	// Name is HTML with custom emoji substituted.
	Name string `json:"name"`
	// Profile is the fully qualified user@domain handle.
	Profile string `json:"profile,omitempty"`
	URL     string `json:"url,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
}

// Media is a normalized attachment or link preview.
type Media struct {
	Type    MediaType `json:"type"`
	URL     string    `json:"url"`
	Preview string    `json:"preview"`
	Alt     string    `json:"alt,omitempty"`
}
