package explicitres

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/flowbench/resourcefetch/internal/httpcollab"
	"github.com/flowbench/resourcefetch/pkg/httpproto"
	"github.com/flowbench/resourcefetch/pkg/httpreq"
	"github.com/flowbench/resourcefetch/pkg/vusession"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

type fakeDef struct {
	name     string
	nameErr  error
	buildErr error
	builtURI string
}

func (d fakeDef) RequestName(vusession.Session) (string, error) {
	if d.nameErr != nil {
		return "", d.nameErr
	}
	return d.name, nil
}

func (d fakeDef) Build(name string, session vusession.Session) (httpreq.Request, error) {
	if d.buildErr != nil {
		return httpreq.Request{}, d.buildErr
	}
	return httpreq.New(d.builtURI, httpproto.Protocol{}, nil, false)
}

func TestBuild_Success(t *testing.T) {
	defs := []httpreq.Def{fakeDef{name: "checkout", builtURI: "http://a/checkout"}}
	collaborator := httpcollab.NewFake()

	got := Build(defs, vusession.New(), collaborator, discardLogger())
	if len(got) != 1 || got[0].URI != "http://a/checkout" {
		t.Fatalf("got %+v", got)
	}
	if len(collaborator.Unbuildable) != 0 {
		t.Fatalf("expected no unbuildable reports, got %+v", collaborator.Unbuildable)
	}
}

func TestBuild_UnresolvableNameDropsAndDoesNotReport(t *testing.T) {
	defs := []httpreq.Def{fakeDef{nameErr: errors.New("missing attribute")}}
	collaborator := httpcollab.NewFake()

	got := Build(defs, vusession.New(), collaborator, discardLogger())
	if len(got) != 0 {
		t.Fatalf("got %+v, want empty", got)
	}
	if len(collaborator.Unbuildable) != 0 {
		t.Fatalf("unresolvable name must not be reported as unbuildable, got %+v", collaborator.Unbuildable)
	}
}

func TestBuild_UnbuildableReportsAndDrops(t *testing.T) {
	defs := []httpreq.Def{fakeDef{name: "checkout", buildErr: errors.New("bad template")}}
	collaborator := httpcollab.NewFake()

	got := Build(defs, vusession.New(), collaborator, discardLogger())
	if len(got) != 0 {
		t.Fatalf("got %+v, want empty", got)
	}
	if len(collaborator.Unbuildable) != 1 || collaborator.Unbuildable[0].Name != "checkout" {
		t.Fatalf("got %+v", collaborator.Unbuildable)
	}
}
