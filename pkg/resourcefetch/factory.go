// Package resourcefetch is the public entry point: given a primary HTML
// response (fetched or served from cache), it infers and schedules the
// concurrent retrieval of its embedded sub-resources (spec.md §1, §4.3).
package resourcefetch

import (
	"log/slog"

	"github.com/flowbench/resourcefetch/internal/cache"
	"github.com/flowbench/resourcefetch/internal/explicitres"
	"github.com/flowbench/resourcefetch/internal/httpcollab"
	"github.com/flowbench/resourcefetch/internal/inference"
	"github.com/flowbench/resourcefetch/internal/scheduler"
	"github.com/flowbench/resourcefetch/internal/txn"
	"github.com/flowbench/resourcefetch/pkg/htmlres"
	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

// Fetcher bundles the collaborators and capacity constants a page load
// needs to infer, build, and schedule sub-resource fetches (spec.md §6).
// Safe for concurrent use across virtual users: the two caches and the
// collaborator are the only shared state, and both are already
// thread-safe.
type Fetcher struct {
	MaxConnectionsPerHost int
	Collaborator          httpcollab.Collaborator

	InferredResourcesCache *cache.InferredResourcesCache
	CSSContentCache        *cache.CSSContentCache

	HTMLParser htmlres.HTMLParser
	CSSParser  htmlres.CSSParser
	Filter     inference.Filter

	Logger *slog.Logger
}

// PrimaryResponse is the slice of a fetched primary HTML response
// inference needs (spec.md §6).
type PrimaryResponse struct {
	StatusCode int
	Validator  string
	Received   bool
	IsHTML     bool
	Body       []byte
}

// ResourceFetcherForFetchedPage implements spec.md §4.3's first factory:
// used when the primary HTML was actually fetched. It returns a thunk
// that constructs and starts a scheduler bound to tx, or nil if no
// sub-resource fetch is needed.
func (f *Fetcher) ResourceFetcherForFetchedPage(
	documentURI string,
	resp PrimaryResponse,
	protocol httpproto.Protocol,
	explicit []httpreq.Def,
	tx txn.Tx,
	session vusession.Session,
) func() {
	var inferred []httpreq.Request
	if protocol.InferHTMLResources && resp.Received && resp.IsHTML {
		key := cache.InferredResourcesCacheKey{Protocol: protocol, DocumentURI: documentURI}
		inferred = inference.HTML(
			f.InferredResourcesCache, key,
			inference.Status{Code: resp.StatusCode, Validator: resp.Validator},
			func() []htmlres.Embedded {
				return f.HTMLParser.GetEmbeddedResources(documentURI, resp.Body, protocol.UserAgent)
			},
			f.Filter, protocol, tx.Request.Throttled, f.Logger,
		)
	}

	return f.merge(inferred, f.buildExplicit(explicit, session), tx)
}

// ResourceFetcherForCachedPage implements spec.md §4.3's second factory:
// used when the primary HTML was served from the cache and no response
// body is available. Inferred list comes solely from
// InferredResourcesCache (empty if absent).
func (f *Fetcher) ResourceFetcherForCachedPage(
	documentURI string,
	protocol httpproto.Protocol,
	explicit []httpreq.Def,
	tx txn.Tx,
	session vusession.Session,
) func() {
	key := cache.InferredResourcesCacheKey{Protocol: protocol, DocumentURI: documentURI}
	var inferred []httpreq.Request
	if cached, ok := f.InferredResourcesCache.Get(key); ok {
		inferred = cached.Requests
	}

	return f.merge(inferred, f.buildExplicit(explicit, session), tx)
}

func (f *Fetcher) buildExplicit(defs []httpreq.Def, session vusession.Session) []httpreq.Request {
	if len(defs) == 0 {
		return nil
	}
	return explicitres.Build(defs, session, f.Collaborator, f.Logger)
}

// merge implements spec.md §4.3's URI-to-descriptor mapping: explicit
// wins on collision since it is inserted last. Returns nil if the
// merged set is empty ("no scheduler needed").
func (f *Fetcher) merge(inferred, explicit []httpreq.Request, tx txn.Tx) func() {
	byURI := make(map[string]httpreq.Request, len(inferred)+len(explicit))
	order := make([]string, 0, len(inferred)+len(explicit))
	for _, r := range inferred {
		if _, seen := byURI[r.URI]; !seen {
			order = append(order, r.URI)
		}
		byURI[r.URI] = r
	}
	for _, r := range explicit {
		if _, seen := byURI[r.URI]; !seen {
			order = append(order, r.URI)
		}
		byURI[r.URI] = r
	}
	if len(order) == 0 {
		return nil
	}

	merged := make([]httpreq.Request, len(order))
	for i, uri := range order {
		merged[i] = byURI[uri]
	}

	cfg := scheduler.Config{
		MaxConnectionsPerHost:  f.MaxConnectionsPerHost,
		Collaborator:           f.Collaborator,
		InferredResourcesCache: f.InferredResourcesCache,
		CSSContentCache:        f.CSSContentCache,
		CSSParser:              f.CSSParser,
		Filter:                 f.Filter,
		Logger:                 f.Logger,
	}
	return func() { scheduler.Start(cfg, tx, merged) }
}
