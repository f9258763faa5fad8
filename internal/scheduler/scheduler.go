// Package scheduler implements the per-host admission scheduler
// (spec.md §4.4): a single-threaded cooperative actor, one per page
// load, owning dedup, per-host token admission, buffering, session
// threading, and termination.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/flowbench/resourcefetch/internal/cache"
	"github.com/flowbench/resourcefetch/internal/httpcollab"
	"github.com/flowbench/resourcefetch/internal/inference"
	"github.com/flowbench/resourcefetch/internal/txn"
	"github.com/flowbench/resourcefetch/pkg/htmlres"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

// inboxCapacity bounds how many completion events may be queued ahead of
// the actor loop at once. A synchronous HTTP collaborator (the common
// case in tests and the demo harness) can cascade many completions
// within a single dispatch call before the actor loop gets a turn to
// drain them; this needs to comfortably exceed the resource count of any
// one page load.
const inboxCapacity = 4096

// Config bundles the collaborators and capacity constants one scheduler
// needs (spec.md §6).
type Config struct {
	MaxConnectionsPerHost int
	Collaborator          httpcollab.Collaborator

	InferredResourcesCache *cache.InferredResourcesCache
	CSSContentCache        *cache.CSSContentCache

	CSSParser htmlres.CSSParser
	Filter    inference.Filter

	Logger *slog.Logger
}

// Start constructs a scheduler bound to primaryTx, runs its initial
// action (fetchOrBufferResources over initialResources), and drives it
// to completion on its own goroutine. primaryTx.Next is invoked exactly
// once, at termination (spec.md §4.4).
func Start(cfg Config, primaryTx txn.Tx, initialResources []httpreq.Request) {
	s := &scheduler{
		cfg:            cfg,
		primaryTx:      primaryTx,
		session:        primaryTx.Session,
		alreadySeen:    make(map[string]bool, len(initialResources)),
		bufferedByHost: make(map[string][]httpreq.Request),
		tokensByHost:   make(map[string]int),
		tokenHeld:      make(map[string]string),
		inbox:          make(chan txn.Event, inboxCapacity),
		start:          time.Now(),
	}
	go s.run(initialResources)
}

type scheduler struct {
	cfg       Config
	primaryTx txn.Tx

	session        vusession.Session
	alreadySeen    map[string]bool
	bufferedByHost map[string][]httpreq.Request
	tokensByHost   map[string]int
	// tokenHeld maps a dispatched URI to its host for exactly the
	// duration its network fetch is in flight. Cached-hit replays never
	// appear here, realizing §9's "cached replays neither consume nor
	// release tokens" asymmetry.
	tokenHeld map[string]string

	pending int
	okCount int
	koCount int
	start   time.Time
	done    bool

	inbox chan txn.Event
}

func (s *scheduler) run(initial []httpreq.Request) {
	s.fetchOrBufferResources(initial)
	if s.done {
		return
	}
	for event := range s.inbox {
		s.handleEvent(event)
		if s.done {
			return
		}
	}
}

// fetchOrBufferResources implements spec.md §4.4.1.
func (s *scheduler) fetchOrBufferResources(resources []httpreq.Request) {
	if len(resources) == 0 {
		return
	}
	for _, r := range resources {
		s.alreadySeen[r.URI] = true
	}
	s.pending += len(resources)

	now := time.Now()
	var cached []httpreq.Request
	byHost := make(map[string][]httpreq.Request)
	var hostOrder []string
	for _, r := range resources {
		if expiry, ok := vusession.GetExpire(r.Protocol, s.session, r.URI); ok {
			if expiry.After(now) {
				cached = append(cached, r)
				continue
			}
			s.session = vusession.ClearExpire(s.session, r.URI)
		}
		if _, seen := byHost[r.Host]; !seen {
			hostOrder = append(hostOrder, r.Host)
		}
		byHost[r.Host] = append(byHost[r.Host], r)
	}

	for _, r := range cached {
		s.handleCachedResource(r)
		if s.done {
			return
		}
	}

	for _, host := range hostOrder {
		group := byHost[host]
		tokens := s.tokensFor(host)
		n := min(tokens, len(group))
		for _, r := range group[:n] {
			s.fetchResource(r)
		}
		s.tokensByHost[host] = tokens - n
		if n < len(group) {
			s.bufferedByHost[host] = append(s.bufferedByHost[host], group[n:]...)
		}
	}
}

func (s *scheduler) tokensFor(host string) int {
	if v, ok := s.tokensByHost[host]; ok {
		return v
	}
	return s.cfg.MaxConnectionsPerHost
}

// fetchResource implements spec.md §4.4.2.
func (s *scheduler) fetchResource(r httpreq.Request) {
	s.tokenHeld[r.URI] = r.Host
	derived := s.primaryTx.DeriveForResource(s.session, r, func(e txn.Event) { s.inbox <- e })
	s.cfg.Collaborator.StartHttpTransaction(derived)
}

// handleCachedResource implements spec.md §4.4.3. The synthesized event
// is processed directly rather than round-tripped through the channel:
// this call always runs on the actor's own goroutine already (either the
// initial admission or a token release), so there is no ordering
// difference, and it sidesteps inboxCapacity entirely for the cached
// case.
func (s *scheduler) handleCachedResource(r httpreq.Request) {
	event := txn.Event{URI: r.URI, Status: txn.StatusOK, SessionUpdate: vusession.Identity}
	if _, ok := s.cfg.CSSContentCache.Get(r.URI); ok {
		event.CSS = &txn.CSSOutcome{}
	}
	s.handleEvent(event)
}

func (s *scheduler) handleEvent(event txn.Event) {
	s.session = event.SessionUpdate(s.session)
	if event.CSS != nil {
		s.cssFetched(event)
	}
	s.resourceFetched(event)
}

// resourceFetched implements spec.md §4.4.4.
func (s *scheduler) resourceFetched(event txn.Event) {
	s.pending--
	if event.Status == txn.StatusOK {
		s.okCount++
	} else {
		s.koCount++
	}
	if s.pending == 0 {
		s.terminate()
		return
	}
	if host, ok := s.tokenHeld[event.URI]; ok {
		delete(s.tokenHeld, event.URI)
		s.releaseToken(host)
	}
}

// releaseToken implements the release-token protocol of spec.md §4.4.4.
func (s *scheduler) releaseToken(host string) {
	for {
		buffered := s.bufferedByHost[host]
		if len(buffered) == 0 {
			s.tokensByHost[host] = s.tokensFor(host) + 1
			return
		}
		r := buffered[0]
		s.bufferedByHost[host] = buffered[1:]

		expiry, hasExpiry := vusession.GetExpire(r.Protocol, s.session, r.URI)
		switch {
		case hasExpiry && expiry.After(time.Now()):
			s.handleCachedResource(r)
			if s.done {
				return
			}
			continue
		case hasExpiry:
			s.session = vusession.ClearExpire(s.session, r.URI)
			fallthrough
		default:
			s.fetchResource(r)
			return
		}
	}
}

// cssFetched implements spec.md §4.4.5.
func (s *scheduler) cssFetched(event txn.Event) {
	if event.Status != txn.StatusOK {
		return
	}

	status := inference.Status{}
	if event.CSS.StatusCode != nil {
		status.Code = *event.CSS.StatusCode
	}
	if event.CSS.Validator != nil {
		status.Validator = *event.CSS.Validator
	}

	key := cache.InferredResourcesCacheKey{Protocol: s.primaryTx.Protocol, DocumentURI: event.URI}
	requests := inference.CSS(
		s.cfg.InferredResourcesCache, s.cfg.CSSContentCache, key, status,
		func() []htmlres.Embedded { return s.cfg.CSSParser.ExtractResources(event.URI, string(event.CSS.Body)) },
		s.cfg.Filter, s.primaryTx.Protocol, s.primaryTx.Request.Throttled, s.cfg.Logger,
	)

	survivors := make([]httpreq.Request, 0, len(requests))
	for _, r := range requests {
		if !s.alreadySeen[r.URI] {
			survivors = append(survivors, r)
		}
	}
	s.fetchOrBufferResources(survivors)
}

func (s *scheduler) terminate() {
	s.done = true
	elapsed := time.Since(s.start)
	final := s.session.LogGroupAsyncRequests(elapsed, s.okCount, s.koCount)
	s.cfg.Logger.Debug("page load terminated", "ok", s.okCount, "ko", s.koCount, "elapsed", elapsed)
	s.primaryTx.Next(final)
}
