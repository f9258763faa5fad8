// Package httpreq models the built, ready-to-submit HTTP request
// descriptors the fetcher hands to its HTTP collaborator, and the
// explicit-resource template contract (spec.md §4.2, §6).
package httpreq

import (
	"fmt"
	"net/url"

	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

// Checks is opaque to the fetcher: whatever response assertions the
// surrounding load-testing DSL attached to a request. The fetcher never
// inspects it, only threads it through to the HTTP collaborator.
type Checks any

// Request is a built, ready-to-submit HTTP request descriptor
// (spec.md §3, HttpRequest). Immutable.
type Request struct {
	URI       string
	Host      string
	Protocol  httpproto.Protocol
	Checks    Checks
	Throttled bool
	// IsCSS marks a request built from a CSS-kind EmbeddedResource, so the
	// HTTP collaborator knows to report its completion with the extra
	// fields cssFetched needs (spec.md §4.4.5). Explicit resources are
	// never CSS.
	IsCSS bool
}

// New builds a Request for uri, deriving Host via net/url. It is the
// common path used both by EmbeddedResource.ToRequest and by explicit
// resource building.
func New(uri string, protocol httpproto.Protocol, checks Checks, throttled bool) (Request, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return Request{}, fmt.Errorf("httpreq: parse uri %q: %w", uri, err)
	}
	if parsed.Host == "" {
		return Request{}, fmt.Errorf("httpreq: uri %q has no host", uri)
	}
	return Request{
		URI:       uri,
		Host:      parsed.Host,
		Protocol:  protocol,
		Checks:    checks,
		Throttled: throttled,
	}, nil
}

// Def is an explicit resource request template declared by the test
// itself, independent of HTML/CSS inference (spec.md §4.2, §6:
// HttpRequestDef.requestName / HttpRequestDef.build).
type Def interface {
	// RequestName resolves this template's request name against session,
	// e.g. to interpolate a Gatling-style ${attribute} reference.
	RequestName(session vusession.Session) (string, error)
	// Build constructs the Request for the resolved name and session.
	Build(name string, session vusession.Session) (Request, error)
}
