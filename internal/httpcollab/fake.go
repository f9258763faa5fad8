package httpcollab

import (
	"sync"

	"github.com/flowbench/resourcefetch/internal/txn"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

// Response is a canned outcome for one URI in Fake's table. Whether the
// completion is reported as a CSS outcome is taken from the dispatched
// request's IsCSS flag, not from Response itself.
type Response struct {
	Status     txn.Status
	Body       []byte
	Validator  *string
	StatusCode *int
}

// UnbuildableReport records one call to ReportUnbuildableRequest.
type UnbuildableReport struct {
	Name    string
	Session vusession.Session
	Message string
}

// Fake is an in-memory Collaborator for tests and the demo harness. It
// never touches the network: StartHttpTransaction looks the request's
// URI up in a caller-populated table and reports the outcome back
// through the transaction's Report callback. A URI absent from the
// table reports StatusKO with an identity session update, modeling a
// connection failure.
//
// Delivery runs synchronously on the calling goroutine by default, so a
// test can assert on scheduler ordering deterministically. Call Async to
// switch a Fake to deliver each completion on its own goroutine instead.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	async     bool

	Unbuildable []UnbuildableReport
}

func NewFake() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// Async switches f to asynchronous delivery and returns f for chaining.
func (f *Fake) Async() *Fake {
	f.async = true
	return f
}

// SetResponse registers the outcome to report when uri is requested.
func (f *Fake) SetResponse(uri string, resp Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[uri] = resp
}

func (f *Fake) StartHttpTransaction(tx txn.Tx) {
	f.mu.Lock()
	resp, ok := f.responses[tx.Request.URI]
	async := f.async
	f.mu.Unlock()

	deliver := func() {
		if !ok {
			tx.Report(txn.Event{URI: tx.Request.URI, Status: txn.StatusKO, SessionUpdate: vusession.Identity})
			return
		}
		event := txn.Event{URI: tx.Request.URI, Status: resp.Status, SessionUpdate: vusession.Identity}
		if tx.Request.IsCSS {
			event.CSS = &txn.CSSOutcome{StatusCode: resp.StatusCode, Validator: resp.Validator, Body: resp.Body}
		}
		tx.Report(event)
	}

	if async {
		go deliver()
		return
	}
	deliver()
}

func (f *Fake) ReportUnbuildableRequest(name string, session vusession.Session, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Unbuildable = append(f.Unbuildable, UnbuildableReport{Name: name, Session: session, Message: message})
}

// IntPtr and StringPtr are test-table convenience constructors for the
// optional fields of Response.
func IntPtr(v int) *int          { return &v }
func StringPtr(v string) *string { return &v }
