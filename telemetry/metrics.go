package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments, following OTEL naming conventions. Initialized from
// the no-op global meter at package load and re-created by InitOTEL.
var (
	APICalls          metric.Int64Counter
	APICallDuration   metric.Float64Histogram
	JobPolls          metric.Int64Counter
	ReconcileDuration metric.Float64Histogram
	ChangesApplied    metric.Int64Counter
)

func init() {
	// The no-op meter never fails to create instruments.
	_ = initInstruments()
}

func initInstruments() error {
	var err error

	APICalls, err = Meter.Int64Counter("cskeeper.api.calls.total",
		metric.WithDescription("Total number of CloudStack API calls"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create api_calls counter: %w", err)
	}

	APICallDuration, err = Meter.Float64Histogram("cskeeper.api.call.duration.seconds",
		metric.WithDescription("Duration of CloudStack API calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create api_call_duration histogram: %w", err)
	}

	JobPolls, err = Meter.Int64Counter("cskeeper.job.polls.total",
		metric.WithDescription("Total number of async job status queries"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create job_polls counter: %w", err)
	}

	ReconcileDuration, err = Meter.Float64Histogram("cskeeper.reconcile.duration.seconds",
		metric.WithDescription("Duration of resource reconciliations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create reconcile_duration histogram: %w", err)
	}

	ChangesApplied, err = Meter.Int64Counter("cskeeper.changes.applied.total",
		metric.WithDescription("Total number of mutating API calls issued"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create changes_applied counter: %w", err)
	}

	return nil
}

// WithAction labels a measurement with the CloudStack API action.
func WithAction(action string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("cloudstack.action", action))
}

// WithKind labels a measurement with the resource kind.
func WithKind(kind string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("resource.kind", kind))
}
