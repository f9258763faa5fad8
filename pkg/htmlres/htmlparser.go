package htmlres

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser extracts embedded resources from an HTML document. It is a
// pure function of (documentURI, body, userAgent) — no caches, no
// scheduler state (spec.md §4.1). The userAgent parameter exists for
// parity with the collaborator interface named in spec.md §6; real
// parsers occasionally special-case markup by user agent (e.g. AMP
// boilerplate), this one does not.
type HTMLParser interface {
	GetEmbeddedResources(documentURI string, body []byte, userAgent string) []Embedded
}

// DefaultHTMLParser walks the document with golang.org/x/net/html and
// collects <img src>, <script src>, and stylesheet/icon <link href>
// elements as embedded resources.
type DefaultHTMLParser struct{}

var _ HTMLParser = DefaultHTMLParser{}

func (DefaultHTMLParser) GetEmbeddedResources(documentURI string, body []byte, _ string) []Embedded {
	base, err := url.Parse(documentURI)
	if err != nil {
		return nil
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var resources []Embedded
	seen := make(map[string]bool)

	add := func(raw string, kind Kind) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") {
			return
		}
		resolved, err := base.Parse(raw)
		if err != nil {
			return
		}
		uri := resolved.String()
		if seen[uri] {
			return
		}
		seen[uri] = true
		resources = append(resources, Embedded{URI: uri, Kind: kind})
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Img, atom.Source:
				if src := attr(n, "src"); src != "" {
					add(src, KindRegular)
				}
			case atom.Script:
				if src := attr(n, "src"); src != "" {
					add(src, KindRegular)
				}
			case atom.Link:
				rel := strings.ToLower(attr(n, "rel"))
				if href := attr(n, "href"); href != "" {
					switch rel {
					case "stylesheet":
						add(href, KindCSS)
					case "icon", "shortcut icon", "apple-touch-icon":
						add(href, KindRegular)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return resources
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}
