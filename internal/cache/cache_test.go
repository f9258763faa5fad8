package cache

import (
	"testing"

	"github.com/flowbench/resourcefetch/pkg/htmlres"
	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
)

func TestCSSContentCache_PutGet(t *testing.T) {
	c := NewCSSContentCache(10)
	if _, ok := c.Get("http://a/s.css"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	want := []htmlres.Embedded{{URI: "http://a/bg.png", Kind: htmlres.KindRegular}}
	c.Put("http://a/s.css", want)

	got, ok := c.Get("http://a/s.css")
	if !ok || len(got) != 1 || got[0] != want[0] {
		t.Fatalf("Get = %+v, %v, want %+v, true", got, ok, want)
	}
}

func TestCSSContentCache_RemoveThenGetOrElseUpdateReparses(t *testing.T) {
	c := NewCSSContentCache(10)
	c.Put("http://a/s.css", []htmlres.Embedded{{URI: "http://a/old.png"}})
	c.Remove("http://a/s.css")

	calls := 0
	got := c.GetOrElseUpdate("http://a/s.css", func() []htmlres.Embedded {
		calls++
		return []htmlres.Embedded{{URI: "http://a/new.png"}}
	})
	if calls != 1 {
		t.Fatalf("expected parse to run once after Remove, ran %d times", calls)
	}
	if len(got) != 1 || got[0].URI != "http://a/new.png" {
		t.Fatalf("got %+v", got)
	}
}

func TestCSSContentCache_GetOrElseUpdateHitsCache(t *testing.T) {
	c := NewCSSContentCache(10)
	c.Put("http://a/s.css", []htmlres.Embedded{{URI: "http://a/x.png"}})

	calls := 0
	c.GetOrElseUpdate("http://a/s.css", func() []htmlres.Embedded {
		calls++
		return nil
	})
	if calls != 0 {
		t.Fatalf("expected parse not to run on a cache hit, ran %d times", calls)
	}
}

func TestInferredResourcesCache_KeyEquality(t *testing.T) {
	c := NewInferredResourcesCache(10)
	protoA := httpproto.Protocol{UserAgent: "a"}
	protoB := httpproto.Protocol{UserAgent: "b"}

	key := InferredResourcesCacheKey{Protocol: protoA, DocumentURI: "http://a/p"}
	value := InferredPageResources{Validator: "v1", Requests: []httpreq.Request{{URI: "http://a/x"}}}
	c.Put(key, value)

	if _, ok := c.Get(InferredResourcesCacheKey{Protocol: protoB, DocumentURI: "http://a/p"}); ok {
		t.Fatalf("expected miss for a different protocol identity")
	}
	got, ok := c.Get(key)
	if !ok || got.Validator != "v1" {
		t.Fatalf("Get = %+v, %v, want validator v1", got, ok)
	}
}
