package normalize

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxCleanPasses bounds the fixed-point loops over multiply-encoded text.
const maxCleanPasses = 8

var whitespaceExpr = regexp.MustCompile(`[\s\p{Zs}]+`)

// CleanText strips markup, decodes entities (including text encoded more
// than once) and collapses whitespace. The result is a fixed point:
// CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	for range maxCleanPasses {
		next := cleanOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func cleanOnce(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if strings.ContainsAny(s, "<&") {
		s = unescapeAll(s)
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			doc.Find("script, style").Remove()
			doc.Find("br, p, div, li, tr, h1, h2, h3, h4, h5, h6").AfterHtml(" ")
			s = doc.Text()
		}
	}

	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(s, " "))
}

// unescapeAll decodes entities until the text stops changing, so
// "&amp;#39;" and "&amp;lt;b&amp;gt;" reach their final characters before
// markup is stripped.
func unescapeAll(s string) string {
	for range maxCleanPasses {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}
