package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// policy is safe for concurrent use once built.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Mastodon marks mentions, hashtags and shortened links with classes.
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize strips everything from remote HTML that is not plain user content:
// scripts, style elements, style attributes and event handlers.
func Sanitize(raw string) string {
	return policy.Sanitize(raw)
}

// PlainText returns the visible text of an HTML fragment. Paragraphs and line
// breaks become newlines so words on either side stay apart.
func PlainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find("br").ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: "\n"})
	doc.Find("p, li, blockquote, pre").AppendNodes(&html.Node{Type: html.TextNode, Data: "\n"})
	return strings.TrimSpace(doc.Text())
}
