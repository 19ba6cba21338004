// Package reconciler brings CloudStack resources into alignment with a
// declared desired state: look up by natural key, diff the mutable
// attributes, issue the minimal create/update/delete, poll async jobs,
// and report a snapshot plus a changed flag.
package reconciler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/jobs"
	"github.com/vintari/cskeeper/journal"
	"github.com/vintari/cskeeper/telemetry"
)

// Options control reconciliation behavior across all resource kinds.
type Options struct {
	// DryRun computes the change set without issuing mutating calls.
	DryRun bool
	// PollAsync waits for async jobs spawned by mutating calls.
	PollAsync bool
	// PollInterval overrides the job poll interval when > 0.
	PollInterval time.Duration
}

// DefaultOptions polls async jobs at the default interval.
func DefaultOptions() Options {
	return Options{PollAsync: true}
}

// core carries the collaborators every per-kind reconciler needs.
type core struct {
	gw      gateway.API
	poller  *jobs.Poller
	log     *telemetry.Logger
	journal *journal.Journal // optional
	opts    Options
}

func newCore(gw gateway.API, log *telemetry.Logger, jrnl *journal.Journal, opts Options) core {
	poller := jobs.NewPoller(gw)
	if opts.PollInterval > 0 {
		poller = poller.WithInterval(opts.PollInterval)
	}
	return core{gw: gw, poller: poller, log: log, journal: jrnl, opts: opts}
}

// record appends a journal entry. Journal failures are logged, not fatal:
// the reconciliation outcome matters more than its audit trail.
func (c *core) record(entryType journal.EntryType, kind, resourceID string, data any) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Append(entryType, kind, resourceID, data); err != nil {
		c.log.Warn().Err(err).Str("kind", kind).Msg("journal append failed")
	}
}

func (c *core) recordError(kind, resourceID string, cause error) {
	if c.journal == nil {
		return
	}
	if err := c.journal.AppendError(journal.EntryFailed, kind, resourceID, nil, cause); err != nil {
		c.log.Warn().Err(err).Str("kind", kind).Msg("journal append failed")
	}
}

// instrument opens a span and returns a finish callback logging and
// measuring the reconciliation outcome.
func (c *core) instrument(ctx context.Context, kind, naturalKey, state string) (context.Context, func(changed bool, err error)) {
	ctx, span := telemetry.Tracer.Start(ctx, "reconcile."+kind)
	span.SetAttributes(
		attribute.String("resource.kind", kind),
		attribute.String("resource.natural_key", naturalKey),
		attribute.String("desired.state", state),
		attribute.Bool("dry_run", c.opts.DryRun),
	)
	c.log.LogReconcileStart(ctx, kind, naturalKey, state, c.opts.DryRun)

	start := time.Now()
	return ctx, func(changed bool, err error) {
		defer span.End()
		elapsed := time.Since(start)
		telemetry.ReconcileDuration.Record(ctx, elapsed.Seconds(), telemetry.WithKind(kind))
		if err != nil {
			c.log.LogReconcileError(ctx, kind, naturalKey, err)
			c.recordError(kind, "", err)
			return
		}
		c.log.LogReconcileResult(ctx, kind, naturalKey, changed, float64(elapsed.Milliseconds()))
	}
}

// mutate issues one mutating API call, counting it. Callers have already
// checked for dry-run.
func (c *core) mutate(ctx context.Context, action string, params gateway.Params) (gateway.Response, error) {
	resp, err := c.gw.Request(ctx, action, params)
	if err != nil {
		return nil, err
	}
	telemetry.ChangesApplied.Add(ctx, 1, telemetry.WithAction(action))
	return resp, nil
}
