package services

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// HTMLToText derives the plain-text email part from rendered HTML.
func HTMLToText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return tidyLines(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(raw)))
	}

	doc.Find("head, style, script, title, mj-head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").PrependHtml("- ")
	doc.Find("li, tr, h1, h2, h3, h4, h5, h6, div, mj-text").AppendHtml("\n")
	doc.Find("p").AppendHtml("\n\n")
	doc.Find("a[href], mj-button[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if href != "" && text != "" && href != text {
			s.SetText(text + " (" + href + ")")
		}
	})

	return tidyLines(doc.Text())
}

// tidyLines trims every line and collapses runs of blank lines.
func tidyLines(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
