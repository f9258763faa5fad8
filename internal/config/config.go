package config

import (
	"flag"
	"os"
	"strconv"
)

// FetcherConfig holds the tunables a host application supplies to the
// page-resource fetcher: the per-host admission budget, the two
// process-wide inference cache capacities, and the HTML-inference toggle.
type FetcherConfig struct {
	LogLevel string

	MaxConnectionsPerHost int  // maxConnectionsPerHost, spec.md §6
	CSSCacheCapacity      int  // fetchedCssCacheMaxCapacity, spec.md §6
	HTMLCacheCapacity     int  // fetchedHtmlCacheMaxCapacity, spec.md §6
	InferHTMLResources    bool // whether the protocol requests HTML resource inference at all
}

// ParseFetcherConfig parses fetcher configuration from flags and
// environment variables. Flags take precedence over environment variables.
// Defaults: maxConnectionsPerHost=6, cssCacheCapacity=2000,
// htmlCacheCapacity=2000, inferHTMLResources=true, logLevel="info".
func ParseFetcherConfig() FetcherConfig {
	return parseFetcherConfigWithFlagSet(flag.CommandLine, os.Args[1:])
}

// parseFetcherConfigWithFlagSet is an internal helper for testing with
// isolated flag sets.
func parseFetcherConfigWithFlagSet(fs *flag.FlagSet, args []string) FetcherConfig {
	cfg := FetcherConfig{
		LogLevel:              "info",
		MaxConnectionsPerHost: 6,
		CSSCacheCapacity:      2000,
		HTMLCacheCapacity:     2000,
		InferHTMLResources:    true,
	}

	// Read from environment first
	if logLevel := os.Getenv("RESOURCEFETCH_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if v := os.Getenv("RESOURCEFETCH_MAX_CONNECTIONS_PER_HOST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConnectionsPerHost = n
		}
	}
	if v := os.Getenv("RESOURCEFETCH_CSS_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CSSCacheCapacity = n
		}
	}
	if v := os.Getenv("RESOURCEFETCH_HTML_CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HTMLCacheCapacity = n
		}
	}
	if v := os.Getenv("RESOURCEFETCH_INFER_HTML_RESOURCES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.InferHTMLResources = b
		}
	}

	// Flags override environment
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.IntVar(&cfg.MaxConnectionsPerHost, "max-connections-per-host", cfg.MaxConnectionsPerHost, "max concurrent fetches per origin host")
	fs.IntVar(&cfg.CSSCacheCapacity, "css-cache-capacity", cfg.CSSCacheCapacity, "max entries in the CSS embedded-resource cache")
	fs.IntVar(&cfg.HTMLCacheCapacity, "html-cache-capacity", cfg.HTMLCacheCapacity, "max entries in the inferred-resources cache")
	fs.BoolVar(&cfg.InferHTMLResources, "infer-html-resources", cfg.InferHTMLResources, "parse primary HTML responses for embedded resources")
	fs.Parse(args)

	if cfg.MaxConnectionsPerHost < 1 {
		cfg.MaxConnectionsPerHost = 1
	}
	if cfg.CSSCacheCapacity < 1 {
		cfg.CSSCacheCapacity = 1
	}
	if cfg.HTMLCacheCapacity < 1 {
		cfg.HTMLCacheCapacity = 1
	}

	return cfg
}
