package domain

import "time"

// Visibility values a status can carry. Only VisibilityPublic is ever shown.
const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
	VisibilityDirect   = "direct"
)

// Status is a Mastodon status document as returned by the timeline,
// trends and account endpoints. Only the fields the wall needs are modelled.
type Status struct {
	// ID is the server-local id. Not stable across servers, never used for dedup.
	ID string `json:"id"`

	// URI is the globally unique ActivityPub identifier and the dedup key.
	URI string `json:"uri"`

	// URL is the canonical HTML page of the status, if the origin provides one.
	URL *string `json:"url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Account   Account   `json:"account"`

	// Content is remote, untrusted HTML.
	Content     string `json:"content"`
	SpoilerText string `json:"spoiler_text,omitempty"`
	Visibility  string `json:"visibility"`
	Sensitive   bool   `json:"sensitive"`

	Language    *string `json:"language,omitempty"`
	InReplyToID *string `json:"in_reply_to_id,omitempty"`

	// Reblog is set when this status is a boost of another status.
	Reblog *Status `json:"reblog,omitempty"`

	MediaAttachments []MediaAttachment `json:"media_attachments"`
	Card             *PreviewCard      `json:"card,omitempty"`
	Emojis           []CustomEmoji     `json:"emojis"`
	Tags             []Tag             `json:"tags"`
}

// Unwrap returns the boosted status for boosts and the status itself otherwise.
func (s *Status) Unwrap() *Status {
	if s.Reblog != nil {
		return s.Reblog
	}
	return s
}

// IsBoost reports whether the status re-shares another status.
func (s *Status) IsBoost() bool {
	return s.Reblog != nil
}

// Account is the author record attached to a status, also returned by the
// account lookup endpoint.
type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`

	Avatar       string `json:"avatar"`
	AvatarStatic string `json:"avatar_static"`

	Bot       bool `json:"bot"`
	Suspended bool `json:"suspended,omitempty"`
	Limited   bool `json:"limited,omitempty"`

	Emojis []CustomEmoji `json:"emojis"`
}

// Media attachment types reported by Mastodon.
const (
	AttachmentImage   = "image"
	AttachmentVideo   = "video"
	AttachmentGifv    = "gifv"
	AttachmentAudio   = "audio"
	AttachmentUnknown = "unknown"
)

// MediaAttachment is a single file attached to a status.
type MediaAttachment struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	URL         string  `json:"url"`
	PreviewURL  string  `json:"preview_url"`
	Description *string `json:"description,omitempty"`
}

// PreviewCard is the link preview Mastodon generates for the first link in a status.
type PreviewCard struct {
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       *string `json:"image,omitempty"`
}

// CustomEmoji maps a :shortcode: to an image.
type CustomEmoji struct {
	Shortcode string `json:"shortcode"`
	URL       string `json:"url"`
	StaticURL string `json:"static_url"`
}

// Tag is a hashtag used in a status.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CachedAccount is a resolver cache entry. NotFound entries are definitive
// answers from the remote server and are kept like positive ones.
type CachedAccount struct {
	Account  *Account `json:"account,omitempty"`
	NotFound bool     `json:"not_found"`
}
