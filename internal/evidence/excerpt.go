package evidence

import (
	"strings"

	"golang.org/x/net/html"
)

const maxExcerptLen = 300

// ExtractExcerpt pulls the paragraph most relevant to the claim out of an
// HTML page. Relevance is lexical: the paragraph sharing the most terms
// with the claim wins. Returns "" when the page has no usable text.
func ExtractExcerpt(htmlContent, claim string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	paragraphs := collectParagraphs(doc)
	if len(paragraphs) == 0 {
		return ""
	}

	terms := contentTerms(claim)
	best := ""
	bestHits := -1
	for _, p := range paragraphs {
		hits := 0
		lower := strings.ToLower(p)
		for term := range terms {
			if strings.Contains(lower, term) {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			best = p
		}
	}

	return truncateExcerpt(best)
}

// collectParagraphs walks the DOM gathering text from paragraph-level
// elements, skipping script and style subtrees.
func collectParagraphs(doc *html.Node) []string {
	var paragraphs []string
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "nav", "footer":
				return
			case "p", "li", "blockquote":
				if text := strings.TrimSpace(nodeText(n)); len(text) > 40 {
					paragraphs = append(paragraphs, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return paragraphs
}

// nodeText concatenates all text nodes under n
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// truncateExcerpt cuts at a word boundary near the length cap
func truncateExcerpt(text string) string {
	if len(text) <= maxExcerptLen {
		return text
	}
	cut := text[:maxExcerptLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// contentTerms lowercases and filters out short stopword-like tokens
func contentTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) > 3 {
			terms[word] = true
		}
	}
	return terms
}
