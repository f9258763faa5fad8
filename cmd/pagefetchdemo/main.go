// Command pagefetchdemo drives one simulated page load against an
// in-memory HTTP collaborator, to exercise the fetcher end to end
// without a real load-testing harness around it.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/flowbench/resourcefetch/internal/cache"
	"github.com/flowbench/resourcefetch/internal/config"
	"github.com/flowbench/resourcefetch/internal/httpcollab"
	"github.com/flowbench/resourcefetch/internal/logging"
	"github.com/flowbench/resourcefetch/internal/txn"
	"github.com/flowbench/resourcefetch/pkg/htmlres"
	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
	"github.com/flowbench/resourcefetch/pkg/resourcefetch"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

const version = "v0.1.0"

func main() {
	if hasFlag(os.Args[1:], "--version", "-v") {
		fmt.Println("pagefetchdemo " + version)
		return
	}
	if hasFlag(os.Args[1:], "--help", "-h") {
		printUsage()
		return
	}

	cfg := config.ParseFetcherConfig()
	logger := logging.New("pagefetchdemo", cfg.LogLevel)

	documentURI := "http://demo.local/index.html"
	body := []byte(`<html><head><link rel="stylesheet" href="/style.css"></head>
<body><img src="/logo.png"><img src="/banner.png"><script src="/app.js"></script></body></html>`)

	collaborator := httpcollab.NewFake()
	collaborator.SetResponse(documentURI, httpcollab.Response{Status: txn.StatusOK})
	collaborator.SetResponse("http://demo.local/logo.png", httpcollab.Response{Status: txn.StatusOK})
	collaborator.SetResponse("http://demo.local/banner.png", httpcollab.Response{Status: txn.StatusOK})
	collaborator.SetResponse("http://demo.local/app.js", httpcollab.Response{Status: txn.StatusOK})
	collaborator.SetResponse("http://demo.local/style.css", httpcollab.Response{
		Status:     txn.StatusOK,
		StatusCode: httpcollab.IntPtr(200),
		Validator:  httpcollab.StringPtr(`W/"style-v1"`),
		Body:       []byte(`.hero { background: url(/hero.jpg); }`),
	})
	collaborator.SetResponse("http://demo.local/hero.jpg", httpcollab.Response{Status: txn.StatusOK})

	fetcher := &resourcefetch.Fetcher{
		MaxConnectionsPerHost:  cfg.MaxConnectionsPerHost,
		Collaborator:           collaborator,
		InferredResourcesCache: cache.NewInferredResourcesCache(cfg.HTMLCacheCapacity),
		CSSContentCache:        cache.NewCSSContentCache(cfg.CSSCacheCapacity),
		HTMLParser:             htmlres.DefaultHTMLParser{},
		CSSParser:              htmlres.DefaultCSSParser{},
		Logger:                 logger,
	}

	protocol := httpproto.Protocol{UserAgent: "pagefetchdemo/" + version, InferHTMLResources: cfg.InferHTMLResources}
	session := vusession.New()

	done := make(chan vusession.Session, 1)
	tx := txn.Tx{
		Session:  session,
		Protocol: protocol,
		Request:  httpreq.Request{URI: documentURI, Host: "demo.local", Protocol: protocol},
		Primary:  true,
		Next:     func(s vusession.Session) { done <- s },
	}

	resp := resourcefetch.PrimaryResponse{StatusCode: 200, Received: true, IsHTML: true, Body: body}
	thunk := fetcher.ResourceFetcherForFetchedPage(documentURI, resp, protocol, nil, tx, session)
	if thunk == nil {
		logger.Info("no sub-resources to fetch")
		return
	}

	start := time.Now()
	thunk()

	select {
	case final := <-done:
		result, _ := final.LastGroupResult()
		logger.Info("page load complete", "ok", result.OK, "ko", result.KO, "elapsed", time.Since(start))
	case <-time.After(5 * time.Second):
		logger.Error("page load timed out")
		os.Exit(1)
	}
}

func hasFlag(args []string, names ...string) bool {
	for _, arg := range args {
		for _, name := range names {
			if arg == name {
				return true
			}
		}
	}
	return false
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: pagefetchdemo [--max-connections-per-host N] [--log-level LEVEL]")
	fmt.Fprintln(os.Stderr, "runs one simulated page load against an in-memory HTTP collaborator")
}
