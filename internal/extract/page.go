package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"
	"golang.org/x/net/html"
)

// Page is the analysable content of an HTML document
type Page struct {
	Title    string
	Text     string   // Visible body text, script and style removed
	Links    []string // Raw href values starting with "http", de-duplicated, document order
	Language string   // ISO 639-3, empty when undetectable
}

// ParsePage extracts title, visible body text and outbound links from HTML
func ParsePage(htmlContent string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := &Page{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: extractLinks(doc),
	}

	doc.Find("script, style").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	var buf strings.Builder
	for _, n := range body.Nodes {
		writeVisibleText(&buf, n)
	}
	page.Text = strings.TrimSpace(buf.String())

	page.Language = DetectLanguage(page.Title + " " + page.Text)

	return page, nil
}

// extractLinks collects raw http(s) hrefs without resolving relative links
func extractLinks(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") || seen[href] {
			return
		}
		seen[href] = true
		links = append(links, href)
	})

	return links
}

// writeVisibleText appends text nodes, skipping non-rendered elements
func writeVisibleText(buf *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe", "template":
			return
		}
	}

	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			if buf.Len() > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(text)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeVisibleText(buf, c)
	}
}

// DetectLanguage identifies the language of the first hundred words of text
func DetectLanguage(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > 100 {
		words = words[:100]
	}

	info := whatlanggo.Detect(strings.Join(words, " "))
	return info.Lang.Iso6393()
}
