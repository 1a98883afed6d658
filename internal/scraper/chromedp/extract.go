package chromedp

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for elements that never contribute to the visual structure.
var strippedSelectors = []string{
	"script",
	"style",
	"noscript",
	"iframe",
	"link[rel=stylesheet]",
	`[id*="analytics"]`,
	`[class*="analytics"]`,
	`[id*="tracking"]`,
	`[class*="tracking"]`,
	`[id*="gtm"]`,
	`[class*="gtm"]`,
}

// cleanStructure strips non-structural elements from the rendered DOM and
// caps the result at maxBytes. On parse failure the raw input is truncated
// instead; the extract is reference material, not a correctness input.
func cleanStructure(rawHTML string, maxBytes int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return capBytes(rawHTML, maxBytes)
	}
	for _, sel := range strippedSelectors {
		doc.Find(sel).Remove()
	}
	cleaned, err := doc.Html()
	if err != nil {
		return capBytes(rawHTML, maxBytes)
	}
	return capBytes(cleaned, maxBytes)
}

// capBytes bounds s at maxBytes without splitting a multi-byte rune at the
// boundary.
func capBytes(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	s = s[:maxBytes]
	for len(s) > 0 {
		if r, size := utf8.DecodeLastRuneInString(s); r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
