package reconciler

import (
	"context"
	"strings"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/journal"
	"github.com/vintari/cskeeper/telemetry"
	"github.com/vintari/cskeeper/types"
)

// DomainSpec is the desired state of an organizational domain, identified
// by its hierarchical path.
type DomainSpec struct {
	Path          string
	NetworkDomain string
	CleanUp       bool
}

// domainUpdateSchema lists the mutable domain attributes. The path is the
// natural key and never diffed.
var domainUpdateSchema = Schema{
	"networkdomain": CompareExact,
}

// DomainReconciler reconciles one domain.
type DomainReconciler struct {
	core
	spec DomainSpec
	path string // normalized lookup path
}

// NewDomainReconciler validates the path up front; a trailing separator is
// rejected before any remote call.
func NewDomainReconciler(gw gateway.API, log *telemetry.Logger, jrnl *journal.Journal, opts Options, spec DomainSpec) (*DomainReconciler, error) {
	path, err := NormalizeDomainPath(spec.Path)
	if err != nil {
		return nil, err
	}
	return &DomainReconciler{
		core: newCore(gw, log, jrnl, opts),
		spec: spec,
		path: path,
	}, nil
}

// NormalizeDomainPath lower-cases a domain path and anchors it under
// root/, so "/ROOT/Sales", "ROOT/sales" and "sales" all name the same
// domain. A trailing separator is invalid.
func NormalizeDomainPath(path string) (string, error) {
	if path == "" {
		return "", &types.MissingRequiredField{Field: "path"}
	}
	if strings.HasSuffix(path, "/") {
		return "", &types.MissingRequiredField{Field: "path", Reason: "must not end with /"}
	}
	path = strings.ToLower(strings.TrimPrefix(path, "/"))
	if path != "root" && !strings.HasPrefix(path, "root/") {
		path = "root/" + path
	}
	return path, nil
}

// Present ensures the domain exists with the desired attributes.
func (r *DomainReconciler) Present(ctx context.Context) (result types.DomainResult, err error) {
	ctx, done := r.instrument(ctx, "domain", r.spec.Path, "present")
	defer func() { done(result.Changed, err) }()

	existing, err := r.lookup(ctx, r.path)
	if err != nil {
		return result, err
	}

	if existing == nil {
		created, err := r.create(ctx)
		if err != nil {
			return result, err
		}
		return types.NewDomainResult(created, true), nil
	}

	updated, changed, err := r.update(ctx, existing)
	if err != nil {
		return result, err
	}
	return types.NewDomainResult(updated, changed), nil
}

// Absent ensures the domain does not exist. The pre-deletion snapshot is
// reported so the caller sees what was removed.
func (r *DomainReconciler) Absent(ctx context.Context) (result types.DomainResult, err error) {
	ctx, done := r.instrument(ctx, "domain", r.spec.Path, "absent")
	defer func() { done(result.Changed, err) }()

	existing, err := r.lookup(ctx, r.path)
	if err != nil {
		return result, err
	}
	if existing == nil {
		return types.NewDomainResult(nil, false), nil
	}

	r.record(journal.EntryDecided, "domain", existing.ID, map[string]string{"action": "delete", "path": existing.Path})
	if r.opts.DryRun {
		return types.NewDomainResult(existing, true), nil
	}

	params := gateway.NewParams().Set("id", existing.ID)
	if r.spec.CleanUp {
		params.SetBool("cleanup", true)
	}
	resp, err := r.mutate(ctx, "deleteDomain", params)
	if err != nil {
		return result, err
	}
	if r.opts.PollAsync {
		if _, err := r.poller.Await(ctx, resp, "domain"); err != nil {
			return result, err
		}
	}
	r.record(journal.EntryExecuted, "domain", existing.ID, map[string]string{"action": "delete"})

	return types.NewDomainResult(existing, true), nil
}

// lookup finds a domain by normalized path. Returns nil when absent.
func (r *DomainReconciler) lookup(ctx context.Context, path string) (*types.Domain, error) {
	resp, err := r.gw.Request(ctx, "listDomains", gateway.NewParams().SetBool("listall", true))
	if err != nil {
		return nil, err
	}

	for _, item := range resp.List("domain") {
		if strings.ToLower(strings.TrimPrefix(item.Str("path"), "/")) == path {
			var d types.Domain
			if err := gateway.Decode(map[string]any(item), &d); err != nil {
				return nil, err
			}
			r.record(journal.EntryObserved, "domain", d.ID, d)
			return &d, nil
		}
	}
	return nil, nil
}

func (r *DomainReconciler) create(ctx context.Context) (*types.Domain, error) {
	name := domainName(r.path)
	parent, err := r.parent(ctx)
	if err != nil {
		return nil, err
	}

	r.record(journal.EntryDecided, "domain", "", map[string]string{"action": "create", "path": r.spec.Path})
	if r.opts.DryRun {
		return &types.Domain{
			Name:          name,
			Path:          r.spec.Path,
			ParentDomain:  parent.Name,
			NetworkDomain: r.spec.NetworkDomain,
		}, nil
	}

	params := gateway.NewParams().
		Set("name", name).
		Set("parentdomainid", parent.ID).
		Set("networkdomain", r.spec.NetworkDomain)
	resp, err := r.mutate(ctx, "createDomain", params)
	if err != nil {
		return nil, err
	}

	payload := resp.Sub("domain")
	if payload == nil {
		return nil, &gateway.MalformedResponse{Action: "createDomain", Reason: "no domain object"}
	}
	var d types.Domain
	if err := gateway.Decode(map[string]any(payload), &d); err != nil {
		return nil, err
	}
	r.record(journal.EntryExecuted, "domain", d.ID, d)
	return &d, nil
}

func (r *DomainReconciler) update(ctx context.Context, existing *types.Domain) (*types.Domain, bool, error) {
	want := gateway.NewParams().Set("networkdomain", r.spec.NetworkDomain)
	current := gateway.Response{"networkdomain": existing.NetworkDomain}
	if !domainUpdateSchema.Changed(want, current) {
		r.record(journal.EntrySkipped, "domain", existing.ID, map[string]string{"reason": "in sync"})
		return existing, false, nil
	}

	r.record(journal.EntryDecided, "domain", existing.ID, map[string]string{"action": "update"})
	if r.opts.DryRun {
		updated := *existing
		updated.NetworkDomain = r.spec.NetworkDomain
		return &updated, true, nil
	}

	params := gateway.NewParams().
		Set("id", existing.ID).
		Set("networkdomain", r.spec.NetworkDomain)
	resp, err := r.mutate(ctx, "updateDomain", params)
	if err != nil {
		return nil, false, err
	}

	payload := resp.Sub("domain")
	if payload == nil {
		return nil, false, &gateway.MalformedResponse{Action: "updateDomain", Reason: "no domain object"}
	}
	var d types.Domain
	if err := gateway.Decode(map[string]any(payload), &d); err != nil {
		return nil, false, err
	}
	r.record(journal.EntryExecuted, "domain", d.ID, d)
	return &d, true, nil
}

// parent resolves the parent domain of the target path, which must exist.
func (r *DomainReconciler) parent(ctx context.Context) (*types.Domain, error) {
	parentPath := parentDomainPath(r.path)
	if parentPath == "" {
		return nil, &types.NotFound{Kind: "parent domain", Selector: r.spec.Path}
	}
	parent, err := r.lookup(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, &types.NotFound{Kind: "parent domain", Selector: parentPath}
	}
	return parent, nil
}

// domainName is the last segment of the path.
func domainName(path string) string {
	segments := strings.Split(path, "/")
	return segments[len(segments)-1]
}

// parentDomainPath cuts off the last segment, "" for the root itself.
func parentDomainPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}
