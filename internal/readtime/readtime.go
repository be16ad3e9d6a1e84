// Package readtime estimates reading time for HTML article bodies.
package readtime

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// blockElements end a word even when no whitespace separates them in the
// markup, as in <li>spinach</li><li>kale</li>.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"td": true, "th": true, "tr": true, "ul": true,
}

// Text returns the visible text of an HTML fragment. Block elements are
// separated by a space. Input that does not parse is treated as plain text.
func Text(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style").Remove()

	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			if name == "#text" {
				b.WriteString(c.Text())
				return
			}
			block := blockElements[name]
			if block {
				b.WriteByte(' ')
			}
			walk(c)
			if block {
				b.WriteByte(' ')
			}
		})
	}
	walk(doc.Selection)
	return strings.Join(strings.Fields(b.String()), " ")
}

// WordCount counts whitespace-separated words in the visible text.
func WordCount(html string) int {
	return len(strings.Fields(Text(html)))
}

// Minutes returns ceil(words / WordsPerMinute), with a minimum of one
// minute for non-empty content.
func Minutes(html string) int {
	words := WordCount(html)
	if words == 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
