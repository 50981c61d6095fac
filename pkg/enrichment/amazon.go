package enrichment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	DefaultAmazonBaseURL = "https://www.amazon.com"
	userAgent            = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/115.0.0.0 Safari/537.36"
)

// AmazonBackend scrapes the public Amazon storefront.
type AmazonBackend struct {
	BaseURL string
	Client  *http.Client
}

var _ Backend = &AmazonBackend{}

func NewAmazonBackend(baseURL string) *AmazonBackend {
	if baseURL == "" {
		baseURL = DefaultAmazonBaseURL
	}
	return &AmazonBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SearchASIN returns the first plausible ASIN on the search results page,
// preferring the data-asin attribute of result cards over /dp/ links.
func (a *AmazonBackend) SearchASIN(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", nil
	}
	doc, err := a.fetch(ctx, a.BaseURL+"/s?"+url.Values{"k": {query}}.Encode())
	if err != nil {
		return "", err
	}

	if card := findFirst(doc, func(n *html.Node) bool {
		if !isElement(n, "div") || !hasClass(n, "s-result-item") {
			return false
		}
		asin, ok := attr(n, "data-asin")
		return ok && len(strings.TrimSpace(asin)) == 10
	}); card != nil {
		asin, _ := attr(card, "data-asin")
		return strings.TrimSpace(asin), nil
	}

	link := findFirst(doc, func(n *html.Node) bool {
		href, ok := attr(n, "href")
		return isElement(n, "a") && hasClass(n, "a-link-normal") && ok && strings.Contains(href, "/dp/")
	})
	if link != nil {
		href, _ := attr(link, "href")
		if m := dpASINPattern.FindStringSubmatch(href); m != nil {
			return m[1], nil
		}
	}
	return "", nil
}

// ProductDetail scrapes title and price off the product page.
func (a *AmazonBackend) ProductDetail(ctx context.Context, asin string) (*Meta, error) {
	doc, err := a.fetch(ctx, fmt.Sprintf("%s/dp/%s", a.BaseURL, asin))
	if err != nil {
		return nil, err
	}

	meta := &Meta{ASIN: asin}
	if title := findFirst(doc, func(n *html.Node) bool { return hasID(n, "productTitle") }); title != nil {
		meta.Title = strings.TrimSpace(textContent(title))
	}
	if price := findFirst(doc, isPriceNode); price != nil {
		meta.Price = strings.TrimSpace(textContent(price))
	}
	return meta, nil
}

func (a *AmazonBackend) fetch(ctx context.Context, target string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amazon request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("amazon error: status %d for %s", resp.StatusCode, target)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// isPriceNode mirrors the selector list
// "#corePrice_feature_div span.a-price span.a-offscreen, #snsBasePrice span.a-offscreen,
// #priceblock_ourprice, #priceblock_dealprice, #priceblock_saleprice".
func isPriceNode(n *html.Node) bool {
	if hasID(n, "priceblock_ourprice") || hasID(n, "priceblock_dealprice") || hasID(n, "priceblock_saleprice") {
		return true
	}
	if !isElement(n, "span") || !hasClass(n, "a-offscreen") {
		return false
	}
	if hasAncestor(n, func(p *html.Node) bool { return hasID(p, "snsBasePrice") }) {
		return true
	}
	return hasAncestor(n, func(p *html.Node) bool {
		return isElement(p, "span") && hasClass(p, "a-price") &&
			hasAncestor(p, func(pp *html.Node) bool { return hasID(pp, "corePrice_feature_div") })
	})
}

// --- html helpers ---

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasAncestor(n *html.Node, match func(*html.Node) bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && match(p) {
			return true
		}
	}
	return false
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasID(n *html.Node, id string) bool {
	v, ok := attr(n, "id")
	return ok && v == id
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
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
	return b.String()
}
