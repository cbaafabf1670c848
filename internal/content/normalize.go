package content

import (
	"strings"

	"fediwall/internal/domain"
)

// Normalizer turns accepted statuses into display-ready posts.
type Normalizer struct {
	animated bool
}

// NewNormalizer creates a normalizer for cfg. Only PlayVideos matters here:
// it selects animated over static emoji and avatars.
func NewNormalizer(cfg domain.WallConfig) *Normalizer {
	return &Normalizer{animated: cfg.PlayVideos}
}

// Normalize converts status, fetched from sourceDomain, into a Post. Boosts
// are unwrapped, but the post keeps the boost's creation time.
func (n *Normalizer) Normalize(sourceDomain string, status *domain.Status) domain.Post {
	date := status.CreatedAt
	status = status.Unwrap()

	postURL := status.URI
	if status.URL != nil && *status.URL != "" {
		postURL = *status.URL
	}

	emojis := NewEmojiTable(status.Emojis)
	body := emojis.ReplaceHTML(Sanitize(status.Content), n.animated)

	return domain.Post{
		ID:      status.URI,
		URL:     postURL,
		Author:  n.author(sourceDomain, &status.Account),
		Content: body,
		Date:    date,
		Media:   ExtractMedia(status),
	}
}

func (n *Normalizer) author(sourceDomain string, acc *domain.Account) *domain.Author {
	name := acc.DisplayName
	if strings.TrimSpace(name) == "" {
		name = acc.Username
	}

	avatar := acc.Avatar
	if !n.animated && acc.AvatarStatic != "" {
		avatar = acc.AvatarStatic
	}

	return &domain.Author{
		Name:    NewEmojiTable(acc.Emojis).ReplaceText(name, n.animated),
		Profile: QualifyHandle(acc.Acct, sourceDomain),
		URL:     acc.URL,
		Avatar:  avatar,
	}
}

// QualifyHandle appends @domain to handles of accounts local to domain.
func QualifyHandle(acct, domain string) string {
	acct = strings.TrimPrefix(acct, "@")
	if acct == "" || strings.Contains(acct, "@") || domain == "" {
		return acct
	}
	return acct + "@" + domain
}

// ExtractMedia maps attachments to normalized media. Images pass as images,
// videos and gifv as videos; audio and unknown types are dropped. Without any
// usable attachment a preview card with image and URL becomes a "card" item.
func ExtractMedia(status *domain.Status) []domain.Media {
	media := make([]domain.Media, 0, len(status.MediaAttachments))
	for _, att := range status.MediaAttachments {
		var typ domain.MediaType
		switch att.Type {
		case domain.AttachmentImage:
			typ = domain.MediaImage
		case domain.AttachmentVideo, domain.AttachmentGifv:
			typ = domain.MediaVideo
		default:
			continue
		}
		item := domain.Media{Type: typ, URL: att.URL, Preview: att.PreviewURL}
		if att.Description != nil {
			item.Alt = *att.Description
		}
		media = append(media, item)
	}

	if len(media) == 0 && status.Card != nil && status.Card.URL != "" &&
		status.Card.Image != nil && *status.Card.Image != "" {
		media = append(media, domain.Media{
			Type:    domain.MediaCard,
			URL:     status.Card.URL,
			Preview: *status.Card.Image,
			Alt:     status.Card.Title,
		})
	}
	return media
}
