// Package txn models the transaction context threaded between the
// scheduler and the out-of-scope HTTP collaborator (spec.md §3, HttpTx;
// §6).
package txn

import (
	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

// Status is the outcome of one HTTP exchange, as far as the scheduler
// is concerned: everything beyond OK/not-OK (timeouts, 4xx/5xx, TLS
// failures) is collapsed by the collaborator before it reports back.
type Status int

const (
	StatusOK Status = iota
	StatusKO
)

// CSSOutcome carries the extra information a CSS fetch's completion
// needs to drive further inference (spec.md §4.4.5): the status used to
// run the §4.1 algorithm, the validator if the origin sent one, and the
// body to parse. A nil *CSSOutcome on an Event means the completion is
// for a regular (non-CSS) resource.
type CSSOutcome struct {
	StatusCode *int
	Validator  *string
	Body       []byte
}

// Event is the completion notification delivered to a scheduler's inbox:
// spec.md §4.4's RegularResourceFetched and CssResourceFetched collapse
// into one struct, distinguished by whether CSS is nil.
type Event struct {
	URI           string
	Status        Status
	SessionUpdate vusession.Update
	CSS           *CSSOutcome
}

// Tx is the ambient information about the calling virtual user carried
// alongside one HTTP request (spec.md §3, HttpTx). Immutable except by
// deriving a modified copy per sub-resource via DeriveForResource.
type Tx struct {
	Session  vusession.Session
	Protocol httpproto.Protocol
	Request  httpreq.Request
	Primary  bool

	// Next is the primary transaction's continuation into the
	// surrounding scenario. It is invoked exactly once, by the scheduler,
	// at termination (spec.md §4.4.4). Nil on derived sub-resource
	// transactions.
	Next func(vusession.Session)

	// Report is how the HTTP collaborator delivers this transaction's
	// completion back to the scheduler that dispatched it. Set only on
	// transactions derived via DeriveForResource; nil on the primary tx.
	Report func(Event)
}

// DeriveForResource returns a copy of tx for one sub-resource fetch: the
// session becomes the scheduler's current session at dispatch time, the
// request becomes the sub-resource's request, the copy is marked
// not-primary, and its continuation is redirected to report back to the
// dispatching scheduler (spec.md §4.4.2).
func (tx Tx) DeriveForResource(session vusession.Session, request httpreq.Request, report func(Event)) Tx {
	derived := tx
	derived.Session = session
	derived.Request = request
	derived.Primary = false
	derived.Next = nil
	derived.Report = report
	return derived
}
