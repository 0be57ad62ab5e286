package navigate

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Link is an outbound http(s) link found on a page
type Link struct {
	URL      string `json:"url"`
	Host     string `json:"host"`
	Text     string `json:"text,omitempty"`
	External bool   `json:"external"`
}

// Document is the parsed content of an HTML page
type Document struct {
	Title       string
	Description string
	Text        string
	Links       []Link
}

// ParseDocument extracts the title, meta description, visible text and
// outbound links from an HTML body. baseURL resolves relative links.
func ParseDocument(body []byte, baseURL string) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	var text strings.Builder
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			case "title":
				if doc.Title == "" {
					doc.Title = strings.Join(strings.Fields(nodeText(n)), " ")
				}
				return
			case "meta":
				if strings.EqualFold(attr(n, "name"), "description") || strings.EqualFold(attr(n, "property"), "og:description") {
					if doc.Description == "" {
						doc.Description = strings.TrimSpace(attr(n, "content"))
					}
				}
			case "a":
				if link, ok := resolveLink(base, attr(n, "href")); ok && !seen[link.URL] {
					seen[link.URL] = true
					link.Text = strings.Join(strings.Fields(nodeText(n)), " ")
					doc.Links = append(doc.Links, link)
				}
			}
		}

		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				text.WriteString(t)
				text.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	doc.Text = strings.TrimSpace(text.String())
	return doc, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// resolveLink resolves href against base, keeping only http(s) targets
func resolveLink(base *url.URL, href string) (Link, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return Link{}, false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return Link{}, false
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return Link{}, false
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return Link{}, false
	}
	resolved.Fragment = ""

	return Link{
		URL:      resolved.String(),
		Host:     resolved.Host,
		External: resolved.Host != base.Host,
	}, true
}
