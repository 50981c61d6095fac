package enrichment

import (
	"regexp"
	"strings"
)

// Meta is what the web lookup knows about a product. Empty fields are absent.
type Meta struct {
	ASIN  string `json:"asin,omitempty"`
	Title string `json:"title,omitempty"`
	Price string `json:"price,omitempty"`
}

func (m Meta) IsEmpty() bool {
	return m.ASIN == "" && m.Title == "" && m.Price == ""
}

var (
	asinPattern   = regexp.MustCompile(`\b([A-Z0-9]{10})\b`)
	dpASINPattern = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)
)

// ExtractASIN returns the first ASIN-like token (10 upper-case letters or
// digits on word boundaries), or "".
func ExtractASIN(text string) string {
	if text == "" {
		return ""
	}
	m := asinPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Context renders meta as the prompt prefix fed to the text and agent
// engines. Returns "" when there is nothing to say.
func Context(m Meta) string {
	if m.IsEmpty() {
		return ""
	}
	var parts []string
	if m.ASIN != "" {
		parts = append(parts, "asin: "+m.ASIN)
	}
	if m.Title != "" {
		parts = append(parts, "title: "+m.Title)
	}
	if m.Price != "" {
		parts = append(parts, "price: "+m.Price)
	}
	return "Context from product page: " + strings.Join(parts, "; ") + ". "
}
