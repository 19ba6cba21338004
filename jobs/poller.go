// Package jobs polls asynchronous CloudStack jobs to completion.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/telemetry"
)

// DefaultInterval is the fixed poll interval. The API gives no completion
// hints, so there is nothing to back off from.
const DefaultInterval = 2 * time.Second

// AsyncJobFailed is a job that reached a terminal state with an error
// payload.
type AsyncJobFailed struct {
	JobID   string
	Message string
}

func (e *AsyncJobFailed) Error() string {
	return fmt.Sprintf("async job %s failed: %s", e.JobID, e.Message)
}

// Timeout is a poll loop cut short by its deadline before the job reached
// a terminal state.
type Timeout struct {
	JobID string
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("timed out waiting for async job %s", e.JobID)
}

// Poller waits for async jobs. Deadlines are carried by the context; a
// context without one polls until the job terminates.
type Poller struct {
	gw       gateway.API
	interval time.Duration
}

// NewPoller creates a poller with the default interval.
func NewPoller(gw gateway.API) *Poller {
	return &Poller{gw: gw, interval: DefaultInterval}
}

// WithInterval overrides the poll interval. Intended for tests.
func (p *Poller) WithInterval(d time.Duration) *Poller {
	p.interval = d
	return p
}

// Await blocks until the job referenced by resp terminates. A response
// without a job id is returned unchanged: synchronous calls need no poll.
// On success the result sub-field named by key is returned when present,
// otherwise the whole job result payload.
func (p *Poller) Await(ctx context.Context, resp gateway.Response, key string) (gateway.Response, error) {
	jobID := resp.Str("jobid")
	if jobID == "" {
		return resp, nil
	}

	ctx, span := telemetry.Tracer.Start(ctx, "jobs.await")
	defer span.End()

	for {
		status, err := p.gw.Request(ctx, "queryAsyncJobResult", gateway.NewParams().Set("jobid", jobID))
		if err != nil {
			return nil, err
		}
		telemetry.JobPolls.Add(ctx, 1)

		if status.Int("jobstatus") != 0 {
			return extractResult(jobID, status, key)
		}

		if err := sleep(ctx, p.interval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, &Timeout{JobID: jobID}
			}
			return nil, fmt.Errorf("waiting for job %s: %w", jobID, err)
		}
	}
}

// extractResult inspects a terminal job status. A terminal job without a
// result payload violates the API contract and must not be retried.
func extractResult(jobID string, status gateway.Response, key string) (gateway.Response, error) {
	result := status.Sub("jobresult")
	if result == nil {
		return nil, &gateway.MalformedResponse{
			Action: "queryAsyncJobResult",
			Reason: fmt.Sprintf("job %s terminal without result", jobID),
		}
	}
	if result.Has("errortext") {
		return nil, &AsyncJobFailed{JobID: jobID, Message: result.Str("errortext")}
	}
	if key != "" {
		if sub := result.Sub(key); sub != nil {
			return sub, nil
		}
	}
	return result, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
