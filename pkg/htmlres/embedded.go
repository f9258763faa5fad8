// Package htmlres infers the embedded sub-resources a browser would
// fetch while rendering an HTML document or a CSS stylesheet, and
// converts them into ready HTTP request descriptors (spec.md §4.1, §6).
package htmlres

import (
	"fmt"
	"net/url"

	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
)

// Kind distinguishes a regular embedded resource from a CSS stylesheet.
// A CSS resource's body is itself parsed for further embedded resources
// once fetched (spec.md §4.4.5).
type Kind int

const (
	KindRegular Kind = iota
	KindCSS
)

func (k Kind) String() string {
	if k == KindCSS {
		return "css"
	}
	return "regular"
}

// Embedded is an inferred sub-resource (spec.md §3). Immutable.
type Embedded struct {
	URI  string
	Kind Kind
}

// ToRequest converts an Embedded into a ready httpreq.Request
// (spec.md §6, EmbeddedResource.toRequest). Only malformed URIs can make
// this fail — the parser only ever produces static values, so a failure
// here "shouldn't happen" (spec.md §4.1) and is logged and dropped by the
// caller rather than propagated.
func (e Embedded) ToRequest(protocol httpproto.Protocol, throttled bool) (httpreq.Request, error) {
	if _, err := url.Parse(e.URI); err != nil {
		return httpreq.Request{}, fmt.Errorf("htmlres: %w", err)
	}
	req, err := httpreq.New(e.URI, protocol, nil, throttled)
	if err != nil {
		return httpreq.Request{}, err
	}
	req.IsCSS = e.Kind == KindCSS
	return req, nil
}
