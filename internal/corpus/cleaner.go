package corpus

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	commentPattern    = regexp.MustCompile(`(?s)<!--.*?-->`)
	refPattern        = regexp.MustCompile(`(?is)<ref[^>]*?/>|<ref[^>]*>.*?</ref>`)
	templatePattern   = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	tablePattern      = regexp.MustCompile(`(?s)\{\|.*?\|\}`)
	mediaLinkPattern  = regexp.MustCompile(`(?i)\[\[(?:file|image|category):[^\[\]]*(?:\[\[[^\[\]]*\]\][^\[\]]*)*\]\]`)
	pipedLinkPattern  = regexp.MustCompile(`\[\[[^\[\]|]*\|([^\[\]]*)\]\]`)
	plainLinkPattern  = regexp.MustCompile(`\[\[([^\[\]|]*)\]\]`)
	labeledURLPattern = regexp.MustCompile(`\[(?:https?:)?//[^\s\]]+\s+([^\]]*)\]`)
	bareURLPattern    = regexp.MustCompile(`\[(?:https?:)?//[^\s\]]+\]`)
	emphasisPattern   = regexp.MustCompile(`'{2,}`)
	headingPattern    = regexp.MustCompile(`(?m)^=+[ \t]*(.*?)[ \t]*=+[ \t]*$`)
	listPattern       = regexp.MustCompile(`(?m)^[*#:;]+\s*`)
	magicWordPattern  = regexp.MustCompile(`__[A-Z]+__`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n+`)
	spacesPattern     = regexp.MustCompile(`[ \t]+`)
)

// Cleaner strips MediaWiki markup, leaving readable plain text. Redirect
// pages come out as "REDIRECT Target".
type Cleaner struct{}

func NewCleaner() *Cleaner {
	return &Cleaner{}
}

func (c *Cleaner) Clean(wikitext string) string {
	text := commentPattern.ReplaceAllString(wikitext, "")
	text = refPattern.ReplaceAllString(text, "")
	text = removeNested(templatePattern, text)
	text = removeNested(tablePattern, text)
	text = mediaLinkPattern.ReplaceAllString(text, "")
	text = pipedLinkPattern.ReplaceAllString(text, "$1")
	text = plainLinkPattern.ReplaceAllString(text, "$1")
	text = labeledURLPattern.ReplaceAllString(text, "$1")
	text = bareURLPattern.ReplaceAllString(text, "")
	text = emphasisPattern.ReplaceAllString(text, "")
	text = headingPattern.ReplaceAllString(text, "$1")
	text = listPattern.ReplaceAllString(text, "")
	text = magicWordPattern.ReplaceAllString(text, "")
	text = stripHTML(text)
	text = spacesPattern.ReplaceAllString(text, " ")
	text = blankLinesPattern.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// removeNested applies pattern until the text stops changing, peeling nested
// constructs from the inside out.
func removeNested(pattern *regexp.Regexp, text string) string {
	for {
		next := pattern.ReplaceAllString(text, "")
		if next == text {
			return text
		}
		text = next
	}
}

// stripHTML drops the remaining inline HTML tags and decodes entities.
func stripHTML(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	doc.Find("script, style").Remove()
	return strings.ReplaceAll(doc.Text(), "\u00a0", " ")
}
