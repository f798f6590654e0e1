package docparse

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// parseHTML converts an HTML source document (a scraped or exported
// regulation/curriculum page) to markdown. baseURL, when known, resolves
// relative links; source documents read from disk have no base URL.
func parseHTML(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read html file: %w", err)
	}

	return htmlToMarkdown(string(raw), "")
}

func htmlToMarkdown(html, baseURL string) (string, error) {
	converter := md.NewConverter(baseURL, true, nil)
	out, err := converter.ConvertString(html)
	if err != nil || strings.TrimSpace(out) == "" {
		return stripHTMLTags(html), nil
	}
	return out, nil
}

// stripHTMLTags is the fallback path when the converter fails or produces
// no content: strip tags outright rather than drop the document.
func stripHTMLTags(htmlStr string) string {
	text := tagPattern.ReplaceAllString(htmlStr, "")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	return strings.TrimSpace(text)
}
