package reconciler

import (
	"context"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/journal"
	"github.com/vintari/cskeeper/resolve"
	"github.com/vintari/cskeeper/telemetry"
	"github.com/vintari/cskeeper/types"
)

// SecurityGroupSpec is the desired state of a security group, identified
// by name within an optional project.
type SecurityGroupSpec struct {
	Name        string
	Description string
	Tags        []types.Tag // nil leaves tags alone
}

// SecurityGroupReconciler reconciles one security group. Create and delete
// are synchronous on the platform; there is no update path, the
// description is fixed at creation.
type SecurityGroupReconciler struct {
	core
	spec     SecurityGroupSpec
	entities *resolve.Context
}

// NewSecurityGroupReconciler creates a reconciler with its own entity
// resolution context.
func NewSecurityGroupReconciler(gw gateway.API, log *telemetry.Logger, jrnl *journal.Journal, opts Options, spec SecurityGroupSpec, sel resolve.Selectors) (*SecurityGroupReconciler, error) {
	if spec.Name == "" {
		return nil, &types.MissingRequiredField{Field: "name"}
	}
	return &SecurityGroupReconciler{
		core:     newCore(gw, log, jrnl, opts),
		spec:     spec,
		entities: resolve.NewContext(gw, sel),
	}, nil
}

// Present ensures the security group exists.
func (r *SecurityGroupReconciler) Present(ctx context.Context) (result types.SecurityGroupResult, err error) {
	ctx, done := r.instrument(ctx, "securitygroup", r.spec.Name, "present")
	defer func() { done(result.Changed, err) }()

	existing, err := r.lookup(ctx)
	if err != nil {
		return result, err
	}

	if existing == nil {
		created, err := r.create(ctx)
		if err != nil {
			return result, err
		}
		if !r.opts.DryRun {
			if _, _, err := r.ensureTags(ctx, created.ID, "SecurityGroup", created.Tags, r.spec.Tags); err != nil {
				return result, err
			}
		}
		return types.NewSecurityGroupResult(created, true), nil
	}

	_, tagsChanged, err := r.ensureTags(ctx, existing.ID, "SecurityGroup", existing.Tags, r.spec.Tags)
	if err != nil {
		return result, err
	}
	if !tagsChanged {
		r.record(journal.EntrySkipped, "securitygroup", existing.ID, map[string]string{"reason": "in sync"})
	}
	return types.NewSecurityGroupResult(existing, tagsChanged), nil
}

// Absent ensures the security group does not exist.
func (r *SecurityGroupReconciler) Absent(ctx context.Context) (result types.SecurityGroupResult, err error) {
	ctx, done := r.instrument(ctx, "securitygroup", r.spec.Name, "absent")
	defer func() { done(result.Changed, err) }()

	existing, err := r.lookup(ctx)
	if err != nil {
		return result, err
	}
	if existing == nil {
		return types.NewSecurityGroupResult(nil, false), nil
	}

	r.record(journal.EntryDecided, "securitygroup", existing.ID, map[string]string{"action": "delete", "name": existing.Name})
	if r.opts.DryRun {
		return types.NewSecurityGroupResult(existing, true), nil
	}

	projectID, err := r.entities.ProjectID(ctx)
	if err != nil {
		return result, err
	}
	params := gateway.NewParams().
		Set("name", r.spec.Name).
		Set("projectid", projectID)
	if _, err := r.mutate(ctx, "deleteSecurityGroup", params); err != nil {
		return result, err
	}
	r.record(journal.EntryExecuted, "securitygroup", existing.ID, map[string]string{"action": "delete"})

	return types.NewSecurityGroupResult(existing, true), nil
}

func (r *SecurityGroupReconciler) lookup(ctx context.Context) (*types.SecurityGroup, error) {
	projectID, err := r.entities.ProjectID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := r.gw.Request(ctx, "listSecurityGroups", gateway.NewParams().Set("projectid", projectID))
	if err != nil {
		return nil, err
	}

	for _, item := range resp.List("securitygroup") {
		if item.Str("name") == r.spec.Name {
			var sg types.SecurityGroup
			if err := gateway.Decode(map[string]any(item), &sg); err != nil {
				return nil, err
			}
			r.record(journal.EntryObserved, "securitygroup", sg.ID, sg)
			return &sg, nil
		}
	}
	return nil, nil
}

func (r *SecurityGroupReconciler) create(ctx context.Context) (*types.SecurityGroup, error) {
	projectID, err := r.entities.ProjectID(ctx)
	if err != nil {
		return nil, err
	}

	r.record(journal.EntryDecided, "securitygroup", "", map[string]string{"action": "create", "name": r.spec.Name})
	if r.opts.DryRun {
		return &types.SecurityGroup{
			Name:        r.spec.Name,
			Description: r.spec.Description,
		}, nil
	}

	params := gateway.NewParams().
		Set("name", r.spec.Name).
		Set("projectid", projectID).
		Set("description", r.spec.Description)
	resp, err := r.mutate(ctx, "createSecurityGroup", params)
	if err != nil {
		return nil, err
	}

	payload := resp.Sub("securitygroup")
	if payload == nil {
		return nil, &gateway.MalformedResponse{Action: "createSecurityGroup", Reason: "no securitygroup object"}
	}
	var sg types.SecurityGroup
	if err := gateway.Decode(map[string]any(payload), &sg); err != nil {
		return nil, err
	}
	r.record(journal.EntryExecuted, "securitygroup", sg.ID, sg)
	return &sg, nil
}
