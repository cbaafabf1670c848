package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fediwall/internal/domain"
)

func strPtr(s string) *string { return &s }

func baseConfig() domain.WallConfig {
	return domain.WallConfig{
		Servers:    []string{"example.social"},
		Limit:      20,
		ShowText:   true,
		ShowMedia:  true,
		PlayVideos: true,
	}
}

func publicStatus(uri string) *domain.Status {
	return &domain.Status{
		ID:         "1",
		URI:        uri,
		URL:        strPtr(uri + "/html"),
		CreatedAt:  time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC),
		Visibility: domain.VisibilityPublic,
		Content:    "<p>Hello fediverse</p>",
		Account: domain.Account{
			ID:          "10",
			Username:    "alice",
			Acct:        "alice",
			DisplayName: "Alice",
			URL:         "https://example.social/@alice",
		},
	}
}

func TestAccepts_RejectsNonPublic(t *testing.T) {
	permissive := baseConfig()
	for _, vis := range []string{domain.VisibilityUnlisted, domain.VisibilityPrivate, domain.VisibilityDirect, ""} {
		s := publicStatus("https://example.social/statuses/1")
		s.Visibility = vis
		s.Language = strPtr("en")
		assert.False(t, Accepts(permissive, s), "visibility %q must be rejected", vis)
	}
	assert.True(t, Accepts(permissive, publicStatus("https://example.social/statuses/1")))
}

func TestAccepts_SuspendedAndLimitedAuthors(t *testing.T) {
	cfg := baseConfig()

	s := publicStatus("https://example.social/statuses/1")
	s.Account.Suspended = true
	assert.False(t, Accepts(cfg, s))

	s = publicStatus("https://example.social/statuses/1")
	s.Account.Limited = true
	assert.False(t, Accepts(cfg, s))
}

func TestAccepts_Boosts(t *testing.T) {
	inner := publicStatus("https://other.social/statuses/9")
	inner.Sensitive = true
	inner.Language = strPtr("de")

	boost := publicStatus("https://example.social/statuses/2")
	boost.Reblog = inner

	cfg := baseConfig()
	assert.True(t, Accepts(cfg, boost))

	cfg.HideBoosts = true
	assert.False(t, Accepts(cfg, boost), "boosts are rejected on the wrapper")
	assert.True(t, Accepts(cfg, inner), "the original itself is not a boost")

	cfg = baseConfig()
	cfg.HideSensitive = true
	assert.False(t, Accepts(cfg, boost), "sensitivity is read from the boosted status")

	cfg = baseConfig()
	cfg.Languages = []string{"en"}
	assert.False(t, Accepts(cfg, boost), "language is read from the boosted status")

	cfg = baseConfig()
	innerPrivate := publicStatus("https://other.social/statuses/10")
	innerPrivate.Visibility = domain.VisibilityPrivate
	publicWrapper := publicStatus("https://example.social/statuses/3")
	publicWrapper.Reblog = innerPrivate
	assert.False(t, Accepts(cfg, publicWrapper), "visibility is read from the boosted status")
}

func TestAccepts_Language(t *testing.T) {
	cfg := baseConfig()
	cfg.Languages = []string{"en", "de"}

	s := publicStatus("https://example.social/statuses/1")
	assert.True(t, Accepts(cfg, s), "missing language defaults to en")

	s.Language = strPtr("DE")
	assert.True(t, Accepts(cfg, s))

	s.Language = strPtr("fr")
	assert.False(t, Accepts(cfg, s))

	cfg.Languages = nil
	assert.True(t, Accepts(cfg, s), "empty allow-list accepts everything")
}

func TestAccepts_SensitiveRepliesBots(t *testing.T) {
	s := publicStatus("https://example.social/statuses/1")
	s.Sensitive = true
	s.InReplyToID = strPtr("77")
	s.Account.Bot = true

	cfg := baseConfig()
	assert.True(t, Accepts(cfg, s))

	cfg.HideSensitive = true
	assert.False(t, Accepts(cfg, s))

	cfg = baseConfig()
	cfg.HideReplies = true
	assert.False(t, Accepts(cfg, s))

	cfg = baseConfig()
	cfg.HideBots = true
	assert.False(t, Accepts(cfg, s))
}

func TestAccepts_BadWords(t *testing.T) {
	cfg := baseConfig()
	cfg.BadWords = []string{"spam", "c++", "спам", "scheiß", "café"}
	f := NewFilter(cfg)

	tests := []struct {
		name   string
		mutate func(s *domain.Status)
		accept bool
	}{
		{"clean", func(s *domain.Status) {}, true},
		{"content", func(s *domain.Status) { s.Content = "<p>Buy SPAM now</p>" }, false},
		{"substring is not a word", func(s *domain.Status) { s.Content = "<p>spammer</p>" }, true},
		{"display name", func(s *domain.Status) { s.Account.DisplayName = "Spam King" }, false},
		{"handle", func(s *domain.Status) { s.Account.Acct = "spam@junk.example" }, false},
		{"content warning", func(s *domain.Status) { s.SpoilerText = "spam inside" }, false},
		{"hashtag", func(s *domain.Status) { s.Tags = []domain.Tag{{Name: "Spam"}} }, false},
		{"other hashtag", func(s *domain.Status) { s.Tags = []domain.Tag{{Name: "cats"}} }, true},
		{"alt text", func(s *domain.Status) {
			s.MediaAttachments = []domain.MediaAttachment{{Type: "image", URL: "u", Description: strPtr("a spam picture")}}
		}, false},
		{"punctuation in a banned word", func(s *domain.Status) { s.Content = "<p>I write c++ daily</p>" }, false},
		{"punctuation is matched literally", func(s *domain.Status) { s.Content = "<p>I write cpp daily</p>" }, true},
		{"cyrillic word", func(s *domain.Status) { s.Content = "<p>Это СПАМ, да</p>" }, false},
		{"cyrillic substring", func(s *domain.Status) { s.Content = "<p>спамер</p>" }, true},
		{"word ending in sharp s", func(s *domain.Status) { s.Content = "<p>So ein Scheiß!</p>" }, false},
		{"word ending in accent", func(s *domain.Status) { s.SpoilerText = "café" }, false},
		{"accented word is not a prefix", func(s *domain.Status) { s.SpoilerText = "cafés" }, true},
		{"separate paragraphs", func(s *domain.Status) { s.Content = "<p>Hello</p><p>spam</p>" }, false},
		{"line break", func(s *domain.Status) { s.Content = "<p>Hello<br>spam</p>" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := publicStatus("https://example.social/statuses/1")
			tt.mutate(s)
			assert.Equal(t, tt.accept, f.Accepts(s))
		})
	}
}

func TestAccepts_BadWordsIgnoreMarkup(t *testing.T) {
	s := publicStatus("https://example.social/statuses/1")
	s.Content = `<p>Hi <span class="h-card"><a href="https://example.social/@bob" class="u-url mention" rel="nofollow noopener">@<span>bob</span></a></span> nice day</p>`

	for _, word := range []string{"mention", "https", "span", "nofollow", "h-card"} {
		cfg := baseConfig()
		cfg.BadWords = []string{word}
		assert.True(t, Accepts(cfg, s), word)
	}

	cfg := baseConfig()
	cfg.BadWords = []string{"nice"}
	assert.False(t, Accepts(cfg, s), "visible text is still checked")
}

func TestAccepts_EmptyBadWordListNeverRejects(t *testing.T) {
	cfg := baseConfig()
	cfg.BadWords = []string{}

	s := publicStatus("https://example.social/statuses/1")
	s.Content = "<p>spam spam spam</p>"
	s.Tags = []domain.Tag{{Name: "spam"}}
	assert.True(t, Accepts(cfg, s))

	cfg.BadWords = []string{"  "}
	assert.True(t, Accepts(cfg, s), "blank entries do not form a pattern")
}

func TestAccepts_Emptiness(t *testing.T) {
	textOnly := publicStatus("https://example.social/statuses/1")

	withCard := publicStatus("https://example.social/statuses/2")
	withCard.Card = &domain.PreviewCard{URL: "https://blog.example/post", Image: strPtr("https://blog.example/img.png")}

	audioOnly := publicStatus("https://example.social/statuses/3")
	audioOnly.MediaAttachments = []domain.MediaAttachment{{Type: domain.AttachmentAudio, URL: "a.mp3"}}

	mediaOnly := publicStatus("https://example.social/statuses/4")
	mediaOnly.Content = "<p> </p>"
	mediaOnly.MediaAttachments = []domain.MediaAttachment{{Type: domain.AttachmentImage, URL: "i.png"}}

	noText := baseConfig()
	noText.ShowText = false
	assert.False(t, Accepts(noText, textOnly))
	assert.True(t, Accepts(noText, withCard), "the card fallback counts as media")
	assert.False(t, Accepts(noText, audioOnly), "audio is not displayable media")
	assert.True(t, Accepts(noText, mediaOnly))

	noMedia := baseConfig()
	noMedia.ShowMedia = false
	assert.True(t, Accepts(noMedia, textOnly))
	assert.False(t, Accepts(noMedia, mediaOnly), "blank content is rejected when media is hidden")

	scriptOnly := publicStatus("https://example.social/statuses/5")
	scriptOnly.Content = `<p><script>alert("x")</script><style>p { color: red }</style></p>`
	assert.False(t, Accepts(noMedia, scriptOnly), "script and style text is not visible content")
}
