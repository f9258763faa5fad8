// Package httpcollab defines the HTTP transport boundary the scheduler
// dispatches through (spec.md §6) and an in-memory double for exercising
// it without a real network.
package httpcollab

import (
	"github.com/flowbench/resourcefetch/internal/txn"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

// Collaborator submits requests and reports build failures on behalf of
// the surrounding load-testing pipeline. The real HTTP client/TLS/redirect
// layer stays out of scope; only this boundary is specified.
type Collaborator interface {
	// StartHttpTransaction submits tx.Request. The eventual outcome is
	// delivered by calling tx.Report exactly once.
	StartHttpTransaction(tx txn.Tx)
	// ReportUnbuildableRequest reports that an explicit request template
	// named name could not be built for session, with a human-readable
	// message (spec.md §4.2, §7).
	ReportUnbuildableRequest(name string, session vusession.Session, message string)
}
