package resourcefetch

import (
	"log/slog"
	"testing"
	"time"

	"github.com/flowbench/resourcefetch/internal/cache"
	"github.com/flowbench/resourcefetch/internal/httpcollab"
	"github.com/flowbench/resourcefetch/internal/txn"
	"github.com/flowbench/resourcefetch/pkg/htmlres"
	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

type countingHTMLParser struct {
	calls    int
	embedded []htmlres.Embedded
}

func (p *countingHTMLParser) GetEmbeddedResources(string, []byte, string) []htmlres.Embedded {
	p.calls++
	return p.embedded
}

func newFetcher(collaborator httpcollab.Collaborator, parser htmlres.HTMLParser) *Fetcher {
	return &Fetcher{
		MaxConnectionsPerHost:  4,
		Collaborator:           collaborator,
		InferredResourcesCache: cache.NewInferredResourcesCache(10),
		CSSContentCache:        cache.NewCSSContentCache(10),
		HTMLParser:             parser,
		CSSParser:              htmlres.DefaultCSSParser{},
		Logger:                 discardLogger(),
	}
}

func noopTx() txn.Tx {
	protocol := httpproto.Protocol{UserAgent: "ua", InferHTMLResources: true}
	return txn.Tx{
		Session:  vusession.New(),
		Protocol: protocol,
		Request:  httpreq.Request{URI: "http://a/p", Host: "a", Protocol: protocol},
		Primary:  true,
		Next:     func(vusession.Session) {},
	}
}

// S3 — cache validator hit: a second page load with the same primary URI
// and validator does not invoke the parser, and the inferred list is the
// same as the first call's.
func TestS3_CacheValidatorHit(t *testing.T) {
	parser := &countingHTMLParser{embedded: []htmlres.Embedded{{URI: "http://a/img.png"}}}
	f := newFetcher(httpcollab.NewFake(), parser)
	protocol := httpproto.Protocol{UserAgent: "ua", InferHTMLResources: true}
	resp := PrimaryResponse{StatusCode: 200, Validator: `W/"abc"`, Received: true, IsHTML: true}

	thunk1 := f.ResourceFetcherForFetchedPage("http://a/p", resp, protocol, nil, noopTx(), vusession.New())
	thunk2 := f.ResourceFetcherForFetchedPage("http://a/p", resp, protocol, nil, noopTx(), vusession.New())

	if thunk1 == nil || thunk2 == nil {
		t.Fatalf("expected both factory calls to return a scheduler thunk")
	}
	if parser.calls != 1 {
		t.Fatalf("expected parser to run exactly once, ran %d times", parser.calls)
	}

	key := cache.InferredResourcesCacheKey{Protocol: protocol, DocumentURI: "http://a/p"}
	cached, ok := f.InferredResourcesCache.Get(key)
	if !ok || len(cached.Requests) != 1 || cached.Requests[0].URI != "http://a/img.png" {
		t.Fatalf("got %+v, %v", cached, ok)
	}
}

// S4 — 304 without a cache entry: the factory returns nil because the
// inferred list is empty and no explicit resources were declared.
func TestS4_304WithoutCacheEntry(t *testing.T) {
	parser := &countingHTMLParser{}
	f := newFetcher(httpcollab.NewFake(), parser)
	protocol := httpproto.Protocol{UserAgent: "ua", InferHTMLResources: true}
	resp := PrimaryResponse{StatusCode: 304, Received: true, IsHTML: true}

	thunk := f.ResourceFetcherForFetchedPage("http://a/p", resp, protocol, nil, noopTx(), vusession.New())
	if thunk != nil {
		t.Fatalf("expected no scheduler thunk for a 304 without a cache entry")
	}
	if parser.calls != 0 {
		t.Fatalf("304 must not invoke the parser, called %d times", parser.calls)
	}
}

type fixedDef struct {
	uri    string
	checks httpreq.Checks
}

func (d fixedDef) RequestName(vusession.Session) (string, error) { return d.uri, nil }

func (d fixedDef) Build(name string, session vusession.Session) (httpreq.Request, error) {
	req, err := httpreq.New(name, httpproto.Protocol{UserAgent: "ua"}, d.checks, false)
	return req, err
}

// S6 — explicit overrides inferred: when both lists contribute the same
// URI, only the explicit request descriptor survives the merge.
func TestS6_ExplicitOverridesInferred(t *testing.T) {
	parser := &countingHTMLParser{embedded: []htmlres.Embedded{{URI: "http://a/x"}}}
	collaborator := &recordingCollaborator{Fake: httpcollab.NewFake()}
	collaborator.SetResponse("http://a/x", httpcollab.Response{Status: txn.StatusOK})

	f := newFetcher(collaborator, parser)
	protocol := httpproto.Protocol{UserAgent: "ua", InferHTMLResources: true}
	resp := PrimaryResponse{StatusCode: 200, Received: true, IsHTML: true}

	done := make(chan vusession.Session, 1)
	tx := noopTx()
	tx.Next = func(s vusession.Session) { done <- s }

	explicitChecks := "explicit-checks-marker"
	explicit := []httpreq.Def{fixedDef{uri: "http://a/x", checks: explicitChecks}}

	thunk := f.ResourceFetcherForFetchedPage("http://a/p", resp, protocol, explicit, tx, vusession.New())
	if thunk == nil {
		t.Fatalf("expected a scheduler thunk")
	}
	thunk()

	select {
	case s := <-done:
		result, _ := s.LastGroupResult()
		if result.OK != 1 {
			t.Fatalf("LastGroupResult = %+v, want exactly one fetch for the colliding URI", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not terminate")
	}

	if len(collaborator.dispatched) != 1 {
		t.Fatalf("dispatched = %+v, want exactly one dispatch", collaborator.dispatched)
	}
	if collaborator.dispatched[0].Checks != explicitChecks {
		t.Fatalf("dispatched request used checks %+v, want the explicit definition's checks", collaborator.dispatched[0].Checks)
	}
}

type recordingCollaborator struct {
	*httpcollab.Fake
	dispatched []httpreq.Request
}

func (r *recordingCollaborator) StartHttpTransaction(tx txn.Tx) {
	r.dispatched = append(r.dispatched, tx.Request)
	r.Fake.StartHttpTransaction(tx)
}
