// Package httpproto carries the slice of per-virtual-user HTTP protocol
// configuration the resource fetcher consults. The load-testing module's
// full protocol definition (TLS settings, connection pooling, proxies,
// and so on) lives outside this module's scope; only the fields the
// fetcher actually reads are modeled here.
package httpproto

// Protocol is immutable and shared by every request issued during one
// virtual user's page load, including sub-resource requests derived from
// it (spec.md §3, HttpTx).
type Protocol struct {
	// UserAgent is passed through to the HTML/CSS parsers verbatim.
	UserAgent string

	// InferHTMLResources gates whether a fetched primary HTML page is
	// parsed for embedded sub-resources at all (spec.md §4.3).
	InferHTMLResources bool
}
