// Package explicitres builds requests for resources a test declares
// explicitly, independent of HTML/CSS inference (spec.md §4.2). These
// take precedence over inferred resources on URI collision.
package explicitres

import (
	"log/slog"

	"github.com/flowbench/resourcefetch/internal/httpcollab"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

// Build implements spec.md §4.2. For each template: resolve its request
// name against session (dropping and logging on failure), then build the
// request for that name (reporting through collaborator and dropping on
// failure).
func Build(defs []httpreq.Def, session vusession.Session, collaborator httpcollab.Collaborator, logger *slog.Logger) []httpreq.Request {
	requests := make([]httpreq.Request, 0, len(defs))
	for _, def := range defs {
		name, err := def.RequestName(session)
		if err != nil {
			logger.Error("dropping explicit request with unresolvable name", "err", err)
			continue
		}
		req, err := def.Build(name, session)
		if err != nil {
			collaborator.ReportUnbuildableRequest(name, session, err.Error())
			continue
		}
		requests = append(requests, req)
	}
	return requests
}
