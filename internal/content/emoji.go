package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"fediwall/internal/domain"
)

// EmojiTable maps shortcode names (without colons) to emoji.
type EmojiTable map[string]domain.CustomEmoji

// NewEmojiTable indexes emoji by shortcode.
func NewEmojiTable(emojis []domain.CustomEmoji) EmojiTable {
	table := make(EmojiTable, len(emojis))
	for _, e := range emojis {
		if e.Shortcode != "" {
			table[e.Shortcode] = e
		}
	}
	return table
}

func (t EmojiTable) src(e domain.CustomEmoji, animated bool) string {
	if animated || e.StaticURL == "" {
		return e.URL
	}
	return e.StaticURL
}

// segment is either literal text or a recognized shortcode.
type segment struct {
	text  string
	emoji *domain.CustomEmoji
}

// splitShortcodes cuts s at every known :name: token. A token must start at
// the beginning of s or after a character that is neither alphanumeric nor a
// colon, and must be followed by the end of s or such a character.
func (t EmojiTable) splitShortcodes(s string) ([]segment, bool) {
	var (
		out     []segment
		start   int
		changed bool
	)
	for i := 0; i < len(s); i++ {
		if s[i] != ':' || (i > 0 && joinsShortcode(s[i-1])) {
			continue
		}
		j := i + 1
		for j < len(s) && isNameChar(s[j]) {
			j++
		}
		if j == i+1 || j >= len(s) || s[j] != ':' {
			continue
		}
		if j+1 < len(s) && joinsShortcode(s[j+1]) {
			continue
		}
		e, ok := t[s[i+1:j]]
		if !ok {
			continue
		}
		if start < i {
			out = append(out, segment{text: s[start:i]})
		}
		out = append(out, segment{text: s[i : j+1], emoji: &e})
		start = j + 1
		i = j
		changed = true
	}
	if start < len(s) {
		out = append(out, segment{text: s[start:]})
	}
	return out, changed
}

func isNameChar(c byte) bool {
	return c == '_' || isAlnum(c)
}

func joinsShortcode(c byte) bool {
	return c == ':' || isAlnum(c)
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (t EmojiTable) imgNode(seg segment, animated bool) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "img",
		DataAtom: atom.Img,
		Attr: []html.Attribute{
			{Key: "class", Val: "emoji"},
			{Key: "src", Val: t.src(*seg.emoji, animated)},
			{Key: "alt", Val: seg.text},
			{Key: "title", Val: seg.text},
		},
	}
}

// ReplaceHTML substitutes shortcodes in the text nodes of an HTML fragment
// with <img class="emoji"> elements. Attribute values and tag names are never
// touched. Unknown shortcodes stay literal.
func (t EmojiTable) ReplaceHTML(fragment string, animated bool) string {
	if len(t) == 0 || !strings.Contains(fragment, ":") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	body := doc.Find("body")

	var textNodes []*html.Node
	body.Find("*").AddBack().Contents().Each(func(_ int, s *goquery.Selection) {
		if n := s.Get(0); n.Type == html.TextNode {
			textNodes = append(textNodes, n)
		}
	})

	replaced := false
	for _, n := range textNodes {
		segments, changed := t.splitShortcodes(n.Data)
		if !changed {
			continue
		}
		replaced = true
		parent := n.Parent
		for _, seg := range segments {
			var repl *html.Node
			if seg.emoji != nil {
				repl = t.imgNode(seg, animated)
			} else {
				repl = &html.Node{Type: html.TextNode, Data: seg.text}
			}
			parent.InsertBefore(repl, n)
		}
		parent.RemoveChild(n)
	}
	if !replaced {
		return fragment
	}

	out, err := body.Html()
	if err != nil {
		return fragment
	}
	return out
}

// ReplaceText escapes plain text and substitutes shortcodes, producing HTML.
func (t EmojiTable) ReplaceText(text string, animated bool) string {
	segments, changed := t.splitShortcodes(text)
	if !changed {
		return html.EscapeString(text)
	}

	var b strings.Builder
	for _, seg := range segments {
		if seg.emoji == nil {
			b.WriteString(html.EscapeString(seg.text))
			continue
		}
		if err := html.Render(&b, t.imgNode(seg, animated)); err != nil {
			b.WriteString(html.EscapeString(seg.text))
		}
	}
	return b.String()
}
