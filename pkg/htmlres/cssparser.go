package htmlres

import (
	"net/url"
	"regexp"
	"strings"
)

// CSSParser extracts embedded resources referenced by a CSS stylesheet's
// url(...) functions and @import rules. Like HTMLParser, it is a pure
// function of (documentURI, text) (spec.md §4.1).
//
// CSS resource references are a narrow, regular-language subset of the
// grammar (a handful of at-rules and the url() function); a full CSS
// tokenizer is not warranted for extracting them, so this default
// implementation is a hand-rolled scanner rather than a wire-up of a
// general-purpose CSS library (see DESIGN.md).
type CSSParser interface {
	ExtractResources(documentURI string, text string) []Embedded
}

// DefaultCSSParser implements CSSParser with two regular expressions,
// one for url(...) and one for bare @import string rules.
type DefaultCSSParser struct{}

var _ CSSParser = DefaultCSSParser{}

var (
	cssURLFuncRe   = regexp.MustCompile(`url\(\s*(['"]?)([^'")]+)(['"]?)\s*\)`)
	cssImportStrRe = regexp.MustCompile(`@import\s+(['"])([^'"]+)(['"])`)
)

func (DefaultCSSParser) ExtractResources(documentURI string, text string) []Embedded {
	base, err := url.Parse(documentURI)
	if err != nil {
		return nil
	}

	var resources []Embedded
	seen := make(map[string]bool)

	add := func(raw string) {
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
		resources = append(resources, Embedded{URI: uri, Kind: KindRegular})
	}

	for _, m := range cssURLFuncRe.FindAllStringSubmatch(text, -1) {
		add(m[2])
	}
	for _, m := range cssImportStrRe.FindAllStringSubmatch(text, -1) {
		add(m[2])
	}

	return resources
}
