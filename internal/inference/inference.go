// Package inference implements page-resource inference (spec.md §4.1):
// deciding, from a response's status code and validator, whether to
// parse a document, reuse a cached inference, or return nothing. The
// same algorithm drives both primary-HTML inference and CSS-body
// inference discovered mid-page-load (spec.md §4.4.5).
package inference

import (
	"log/slog"

	"github.com/flowbench/resourcefetch/internal/cache"
	"github.com/flowbench/resourcefetch/pkg/htmlres"
	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
)

// Filter optionally restricts inferred resources (spec.md §2's "Filter
// applicator"). A nil Filter admits everything.
type Filter func(htmlres.Embedded) bool

// Status is the slice of an HTTP response the inference algorithm
// consults: its status code and validator, if any (spec.md §6).
type Status struct {
	Code      int
	Validator string
}

// HTML implements spec.md §4.1 for a primary HTML response. For a 200,
// parse is invoked on every call when the response carries no validator,
// and otherwise only on a cache miss or validator change; it is never
// invoked for a 304 or any other status.
func HTML(
	caches *cache.InferredResourcesCache,
	key cache.InferredResourcesCacheKey,
	status Status,
	parse func() []htmlres.Embedded,
	filter Filter,
	protocol httpproto.Protocol,
	throttled bool,
	logger *slog.Logger,
) []httpreq.Request {
	return infer(caches, key, status, parse, nil, filter, protocol, throttled, logger)
}

// CSS implements the same algorithm for a CSS body discovered mid-run
// (spec.md §4.4.5). On a cache miss or validator change it first evicts
// the stale parsed-resource list from cssCache so a concurrent reader
// never observes it, then re-parses via cssCache.GetOrElseUpdate so an
// equal list is shared across page loads.
func CSS(
	caches *cache.InferredResourcesCache,
	cssCache *cache.CSSContentCache,
	key cache.InferredResourcesCacheKey,
	status Status,
	parseCSS func() []htmlres.Embedded,
	filter Filter,
	protocol httpproto.Protocol,
	throttled bool,
	logger *slog.Logger,
) []httpreq.Request {
	evict := func() { cssCache.Remove(key.DocumentURI) }
	parse := func() []htmlres.Embedded {
		return cssCache.GetOrElseUpdate(key.DocumentURI, parseCSS)
	}
	return infer(caches, key, status, parse, evict, filter, protocol, throttled, logger)
}

func infer(
	caches *cache.InferredResourcesCache,
	key cache.InferredResourcesCacheKey,
	status Status,
	parse func() []htmlres.Embedded,
	evictBeforeParse func(),
	filter Filter,
	protocol httpproto.Protocol,
	throttled bool,
	logger *slog.Logger,
) []httpreq.Request {
	switch status.Code {
	case 200:
		if status.Validator != "" {
			if cached, ok := caches.Get(key); ok && cached.Validator == status.Validator {
				return cached.Requests
			}
			if evictBeforeParse != nil {
				evictBeforeParse()
			}
			requests := buildRequests(parse(), filter, protocol, throttled, logger)
			caches.Put(key, cache.InferredPageResources{Validator: status.Validator, Requests: requests})
			return requests
		}
		return buildRequests(parse(), filter, protocol, throttled, logger)
	case 304:
		if cached, ok := caches.Get(key); ok {
			return cached.Requests
		}
		logger.Warn("got a 304 but could not find cache entry", "uri", key.DocumentURI)
		return nil
	default:
		return nil
	}
}

func buildRequests(
	embedded []htmlres.Embedded,
	filter Filter,
	protocol httpproto.Protocol,
	throttled bool,
	logger *slog.Logger,
) []httpreq.Request {
	requests := make([]httpreq.Request, 0, len(embedded))
	for _, e := range embedded {
		if filter != nil && !filter(e) {
			continue
		}
		req, err := e.ToRequest(protocol, throttled)
		if err != nil {
			logger.Error("dropping unbuildable inferred resource", "uri", e.URI, "err", err)
			continue
		}
		requests = append(requests, req)
	}
	return requests
}
