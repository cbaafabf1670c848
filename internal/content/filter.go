package content

import (
	"regexp"
	"slices"
	"strings"

	"fediwall/internal/domain"
)

// defaultLanguage is assumed for statuses without a language tag.
const defaultLanguage = "en"

// Filter decides whether a status may be shown on the wall.
type Filter struct {
	cfg      domain.WallConfig
	badWords *regexp.Regexp
	badTags  map[string]struct{}
}

// NewFilter compiles the banned-word pattern of cfg once.
func NewFilter(cfg domain.WallConfig) *Filter {
	f := &Filter{cfg: cfg}

	words := make([]string, 0, len(cfg.BadWords))
	f.badTags = make(map[string]struct{}, len(cfg.BadWords))
	for _, w := range cfg.BadWords {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		words = append(words, regexp.QuoteMeta(w))
		f.badTags[strings.ToLower(strings.TrimPrefix(w, "#"))] = struct{}{}
	}
	if len(words) > 0 {
		// \b only knows ASCII word characters.
		f.badWords = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(words, "|") + `)(?:$|[^\p{L}\p{N}_])`)
	}
	return f
}

// Accepts is a shortcut for NewFilter(cfg).Accepts(status).
func Accepts(cfg domain.WallConfig, status *domain.Status) bool {
	return NewFilter(cfg).Accepts(status)
}

// Accepts reports whether status passes every policy check. The boost check
// looks at the wrapper; all other checks look at the boosted status.
func (f *Filter) Accepts(status *domain.Status) bool {
	if status.IsBoost() && f.cfg.HideBoosts {
		return false
	}
	status = status.Unwrap()

	if status.Visibility != domain.VisibilityPublic {
		return false
	}
	if status.Account.Suspended || status.Account.Limited {
		return false
	}

	if len(f.cfg.Languages) > 0 {
		lang := defaultLanguage
		if status.Language != nil && *status.Language != "" {
			lang = strings.ToLower(*status.Language)
		}
		if !slices.Contains(f.cfg.Languages, lang) {
			return false
		}
	}

	if f.cfg.HideSensitive && status.Sensitive {
		return false
	}
	if f.cfg.HideReplies && status.InReplyToID != nil && *status.InReplyToID != "" {
		return false
	}
	if f.cfg.HideBots && status.Account.Bot {
		return false
	}

	if f.badWords != nil && f.containsBadWord(status) {
		return false
	}

	if !f.cfg.ShowText && len(ExtractMedia(status)) == 0 {
		return false
	}
	if !f.cfg.ShowMedia && PlainText(Sanitize(status.Content)) == "" {
		return false
	}

	return true
}

func (f *Filter) containsBadWord(status *domain.Status) bool {
	fields := []string{
		status.Account.DisplayName,
		status.Account.Acct,
		PlainText(status.Content),
		status.SpoilerText,
	}
	for _, tag := range status.Tags {
		if _, bad := f.badTags[strings.ToLower(tag.Name)]; bad {
			return true
		}
		fields = append(fields, "#"+tag.Name)
	}
	for _, att := range status.MediaAttachments {
		if att.Description != nil {
			fields = append(fields, *att.Description)
		}
	}

	for _, field := range fields {
		if field != "" && f.badWords.MatchString(field) {
			return true
		}
	}
	return false
}
