// Package vusession models the slice of a load-testing virtual user's
// session that the page-resource fetcher touches: generic attributes,
// per-URI cache expiries, and the aggregated result of the last group of
// asynchronous sub-resource requests.
//
// Session is an immutable value. It is mutated exclusively by applying
// Update functions returned on completion events (spec.md §3); at any
// wall-clock moment only the scheduler holds the current value, so no
// synchronization is needed within this package.
package vusession

import (
	"time"

	"github.com/flowbench/resourcefetch/pkg/httpproto"
)

// GroupResult is the aggregated outcome of one page load's sub-resource
// fetches, logged into the session at scheduler termination.
type GroupResult struct {
	Elapsed time.Duration
	OK      int
	KO      int
}

// Session is a virtual user's session, as far as this module is concerned.
type Session struct {
	attrs       map[string]any
	cacheExpiry map[string]time.Time
	lastGroup   *GroupResult
}

// New returns an empty session.
func New() Session {
	return Session{}
}

// Update mutates a Session, producing the next value. Completion events
// deliver an Update (spec.md's "sessionUpdates") that the scheduler folds
// over its current session as each completion is processed.
type Update func(Session) Session

// Identity is the Update applied by cached-hit replays (spec.md §4.4.3):
// a local cache hit performs no network fetch and leaves the session
// exactly as it was.
func Identity(s Session) Session { return s }

// Attr reads a generic session attribute.
func (s Session) Attr(name string) (any, bool) {
	v, ok := s.attrs[name]
	return v, ok
}

// WithAttr returns a copy of s with name set to value.
func (s Session) WithAttr(name string, value any) Session {
	out := s.clone()
	out.attrs[name] = value
	return out
}

// WithExpire records that uri should be treated as locally cached until
// at. The fetcher never calls this itself; it is how a collaborator
// (e.g. one honoring a resource's Cache-Control/Expires headers) feeds
// the cached/non-cached partition in fetchOrBufferResources.
func (s Session) WithExpire(uri string, at time.Time) Session {
	out := s.clone()
	out.cacheExpiry[uri] = at
	return out
}

// GetExpire looks up a recorded cache expiry for uri. protocol is
// accepted for parity with the collaborator named in spec.md §6
// (CacheHandling.getExpire(protocol, session, uri)); this session's
// expiry table is not protocol-scoped.
func GetExpire(_ httpproto.Protocol, session Session, uri string) (time.Time, bool) {
	t, ok := session.cacheExpiry[uri]
	return t, ok
}

// ClearExpire removes a recorded expiry for uri, e.g. because it has
// already lapsed (spec.md §4.4.1) or a fresh fetch just superseded it.
func ClearExpire(session Session, uri string) Session {
	out := session.clone()
	delete(out.cacheExpiry, uri)
	return out
}

// LogGroupAsyncRequests records the aggregated outcome of one page load's
// sub-resource fetches (spec.md §4.4.4 termination effect).
func (s Session) LogGroupAsyncRequests(elapsed time.Duration, ok, ko int) Session {
	out := s.clone()
	result := GroupResult{Elapsed: elapsed, OK: ok, KO: ko}
	out.lastGroup = &result
	return out
}

// LastGroupResult returns the most recently logged aggregated result, if any.
func (s Session) LastGroupResult() (GroupResult, bool) {
	if s.lastGroup == nil {
		return GroupResult{}, false
	}
	return *s.lastGroup, true
}

func (s Session) clone() Session {
	attrs := make(map[string]any, len(s.attrs)+1)
	for k, v := range s.attrs {
		attrs[k] = v
	}
	expiry := make(map[string]time.Time, len(s.cacheExpiry)+1)
	for k, v := range s.cacheExpiry {
		expiry[k] = v
	}
	return Session{attrs: attrs, cacheExpiry: expiry, lastGroup: s.lastGroup}
}
