package reconciler

import (
	"context"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/journal"
	"github.com/vintari/cskeeper/resolve"
	"github.com/vintari/cskeeper/telemetry"
	"github.com/vintari/cskeeper/types"
)

// ISOSpec is the desired state of a registered ISO image. The natural key
// is the name, or the checksum when one is supplied.
type ISOSpec struct {
	Name                  string
	URL                   string
	Checksum              string
	Bootable              bool
	IsReady               bool
	IsPublic              bool
	IsFeatured            bool
	IsDynamicallyScalable bool
	Filter                string
	Tags                  []types.Tag // nil leaves tags alone
}

// ISO listing filters accepted by the platform.
var isoFilters = map[string]bool{
	"featured":         true,
	"self":             true,
	"selfexecutable":   true,
	"sharedexecutable": true,
	"executable":       true,
	"community":        true,
}

// ISOReconciler reconciles one ISO image.
type ISOReconciler struct {
	core
	spec     ISOSpec
	entities *resolve.Context
	osType   string // selector, resolved lazily
}

// NewISOReconciler creates a reconciler with its own entity resolution
// context; entity lookups are never shared with other resources.
func NewISOReconciler(gw gateway.API, log *telemetry.Logger, jrnl *journal.Journal, opts Options, spec ISOSpec, sel resolve.Selectors) (*ISOReconciler, error) {
	if spec.Name == "" {
		return nil, &types.MissingRequiredField{Field: "name"}
	}
	if spec.Filter == "" {
		spec.Filter = "self"
	}
	if !isoFilters[spec.Filter] {
		return nil, &types.MissingRequiredField{Field: "iso_filter", Reason: "must be one of featured, self, selfexecutable, sharedexecutable, executable, community"}
	}
	return &ISOReconciler{
		core:     newCore(gw, log, jrnl, opts),
		spec:     spec,
		entities: resolve.NewContext(gw, sel),
		osType:   sel.OSType,
	}, nil
}

// Present ensures the ISO is registered. A bootable ISO without an OS type
// is rejected before any remote call.
func (r *ISOReconciler) Present(ctx context.Context) (result types.ISOResult, err error) {
	ctx, done := r.instrument(ctx, "iso", r.spec.Name, "present")
	defer func() { done(result.Changed, err) }()

	if r.spec.Bootable && r.osType == "" {
		return result, &types.MissingRequiredField{Field: "os_type", Reason: "required for a bootable ISO"}
	}

	existing, err := r.lookup(ctx)
	if err != nil {
		return result, err
	}

	if existing == nil {
		created, err := r.register(ctx)
		if err != nil {
			return result, err
		}
		if !r.opts.DryRun {
			tags, _, err := r.ensureTags(ctx, created.ID, "ISO", created.Tags, r.spec.Tags)
			if err != nil {
				return result, err
			}
			created.Tags = tags
		}
		return types.NewISOResult(created, true), nil
	}

	tags, tagsChanged, err := r.ensureTags(ctx, existing.ID, "ISO", existing.Tags, r.spec.Tags)
	if err != nil {
		return result, err
	}
	existing.Tags = tags
	if !tagsChanged {
		r.record(journal.EntrySkipped, "iso", existing.ID, map[string]string{"reason": "in sync"})
	}
	return types.NewISOResult(existing, tagsChanged), nil
}

// Absent ensures the ISO is not registered.
func (r *ISOReconciler) Absent(ctx context.Context) (result types.ISOResult, err error) {
	ctx, done := r.instrument(ctx, "iso", r.spec.Name, "absent")
	defer func() { done(result.Changed, err) }()

	existing, err := r.lookup(ctx)
	if err != nil {
		return result, err
	}
	if existing == nil {
		return types.NewISOResult(nil, false), nil
	}

	r.record(journal.EntryDecided, "iso", existing.ID, map[string]string{"action": "delete", "name": existing.Name})
	if r.opts.DryRun {
		return types.NewISOResult(existing, true), nil
	}

	projectID, err := r.entities.ProjectID(ctx)
	if err != nil {
		return result, err
	}
	zoneID, err := r.entities.ZoneID(ctx)
	if err != nil {
		return result, err
	}

	params := gateway.NewParams().
		Set("id", existing.ID).
		Set("projectid", projectID).
		Set("zoneid", zoneID)
	resp, err := r.mutate(ctx, "deleteIso", params)
	if err != nil {
		return result, err
	}
	if r.opts.PollAsync {
		if _, err := r.poller.Await(ctx, resp, ""); err != nil {
			return result, err
		}
	}
	r.record(journal.EntryExecuted, "iso", existing.ID, map[string]string{"action": "delete"})

	return types.NewISOResult(existing, true), nil
}

// lookup finds the ISO by name, or by checksum when one is supplied; the
// checksum then replaces the name entirely in the listing filters.
func (r *ISOReconciler) lookup(ctx context.Context) (*types.ISO, error) {
	domainID, err := r.entities.DomainID(ctx)
	if err != nil {
		return nil, err
	}
	accountName, err := r.entities.AccountName(ctx)
	if err != nil {
		return nil, err
	}
	projectID, err := r.entities.ProjectID(ctx)
	if err != nil {
		return nil, err
	}
	zoneID, err := r.entities.ZoneID(ctx)
	if err != nil {
		return nil, err
	}

	params := gateway.NewParams().
		SetBool("isready", r.spec.IsReady).
		Set("isofilter", r.spec.Filter).
		Set("domainid", domainID).
		Set("account", accountName).
		Set("projectid", projectID).
		Set("zoneid", zoneID)
	if r.spec.Checksum == "" {
		params.Set("name", r.spec.Name)
	}

	resp, err := r.gw.Request(ctx, "listIsos", params)
	if err != nil {
		return nil, err
	}

	isos := resp.List("iso")
	var match gateway.Response
	if r.spec.Checksum == "" {
		if len(isos) > 0 {
			match = isos[0]
		}
	} else {
		for _, item := range isos {
			if item.Str("checksum") == r.spec.Checksum {
				match = item
				break
			}
		}
	}
	if match == nil {
		return nil, nil
	}

	var iso types.ISO
	if err := gateway.Decode(map[string]any(match), &iso); err != nil {
		return nil, err
	}
	r.record(journal.EntryObserved, "iso", iso.ID, iso)
	return &iso, nil
}

func (r *ISOReconciler) register(ctx context.Context) (*types.ISO, error) {
	if r.spec.URL == "" {
		return nil, &types.MissingRequiredField{Field: "url", Reason: "required to register an ISO"}
	}

	osTypeID, err := r.entities.OSTypeID(ctx)
	if err != nil {
		return nil, err
	}
	domainID, err := r.entities.DomainID(ctx)
	if err != nil {
		return nil, err
	}
	accountName, err := r.entities.AccountName(ctx)
	if err != nil {
		return nil, err
	}
	projectID, err := r.entities.ProjectID(ctx)
	if err != nil {
		return nil, err
	}
	zone, err := r.entities.Zone(ctx)
	if err != nil {
		return nil, err
	}

	r.record(journal.EntryDecided, "iso", "", map[string]string{"action": "register", "name": r.spec.Name})
	if r.opts.DryRun {
		return &types.ISO{
			Name:        r.spec.Name,
			DisplayText: r.spec.Name,
			Zone:        zone.Name,
			Checksum:    r.spec.Checksum,
			Bootable:    r.spec.Bootable,
			OSTypeID:    osTypeID,
		}, nil
	}

	params := gateway.NewParams().
		Set("zoneid", zone.ID).
		Set("domainid", domainID).
		Set("account", accountName).
		Set("projectid", projectID).
		SetBool("bootable", r.spec.Bootable).
		Set("ostypeid", osTypeID).
		Set("name", r.spec.Name).
		Set("displaytext", r.spec.Name).
		Set("checksum", r.spec.Checksum).
		SetBool("isdynamicallyscalable", r.spec.IsDynamicallyScalable).
		SetBool("isfeatured", r.spec.IsFeatured).
		SetBool("ispublic", r.spec.IsPublic).
		Set("url", r.spec.URL)
	resp, err := r.mutate(ctx, "registerIso", params)
	if err != nil {
		return nil, err
	}

	isos := resp.List("iso")
	if len(isos) == 0 {
		return nil, &gateway.MalformedResponse{Action: "registerIso", Reason: "no iso object"}
	}
	var iso types.ISO
	if err := gateway.Decode(map[string]any(isos[0]), &iso); err != nil {
		return nil, err
	}
	r.record(journal.EntryExecuted, "iso", iso.ID, iso)
	return &iso, nil
}
