package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintari/cskeeper/gateway"
)

// scriptedAPI returns the queued responses for queryAsyncJobResult in order.
type scriptedAPI struct {
	responses []gateway.Response
	calls     int
}

func (s *scriptedAPI) Request(ctx context.Context, action string, params gateway.Params) (gateway.Response, error) {
	if action != "queryAsyncJobResult" {
		return nil, errors.New("unexpected action " + action)
	}
	if s.calls >= len(s.responses) {
		return nil, errors.New("no scripted response left")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func fastPoller(api gateway.API) *Poller {
	return NewPoller(api).WithInterval(time.Millisecond)
}

func TestAwaitWithoutJobID(t *testing.T) {
	api := &scriptedAPI{}
	sync := gateway.Response{"domain": map[string]any{"id": "d1"}}

	resp, err := fastPoller(api).Await(context.Background(), sync, "domain")
	require.NoError(t, err)

	assert.Equal(t, sync, resp)
	assert.Zero(t, api.calls, "synchronous responses must not be polled")
}

func TestAwaitPendingThenSuccess(t *testing.T) {
	api := &scriptedAPI{responses: []gateway.Response{
		{"jobstatus": float64(0)},
		{"jobstatus": float64(0)},
		{"jobstatus": float64(1), "jobresult": map[string]any{
			"domain": map[string]any{"id": "d1", "path": "ROOT/sales"},
		}},
	}}

	result, err := fastPoller(api).Await(context.Background(), gateway.Response{"jobid": "j1"}, "domain")
	require.NoError(t, err)

	assert.Equal(t, 3, api.calls)
	assert.Equal(t, "d1", result.Str("id"))
}

func TestAwaitKeyFallsBackToWholeResult(t *testing.T) {
	api := &scriptedAPI{responses: []gateway.Response{
		{"jobstatus": float64(1), "jobresult": map[string]any{"success": true}},
	}}

	result, err := fastPoller(api).Await(context.Background(), gateway.Response{"jobid": "j1"}, "iso")
	require.NoError(t, err)
	assert.Equal(t, "true", result.Str("success"))
}

func TestAwaitJobFailure(t *testing.T) {
	api := &scriptedAPI{responses: []gateway.Response{
		{"jobstatus": float64(2), "jobresult": map[string]any{
			"errorcode": float64(530),
			"errortext": "domain has children",
		}},
	}}

	_, err := fastPoller(api).Await(context.Background(), gateway.Response{"jobid": "j1"}, "")
	require.Error(t, err)

	var failed *AsyncJobFailed
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "j1", failed.JobID)
	assert.Equal(t, "domain has children", failed.Message)
}

func TestAwaitTerminalWithoutResult(t *testing.T) {
	api := &scriptedAPI{responses: []gateway.Response{
		{"jobstatus": float64(1)},
	}}

	_, err := fastPoller(api).Await(context.Background(), gateway.Response{"jobid": "j1"}, "")
	require.Error(t, err)

	var malformed *gateway.MalformedResponse
	assert.True(t, errors.As(err, &malformed))
}

func TestAwaitDeadline(t *testing.T) {
	// The job never terminates; the context deadline must cut the loop.
	pending := make([]gateway.Response, 100)
	for i := range pending {
		pending[i] = gateway.Response{"jobstatus": float64(0)}
	}
	api := &scriptedAPI{responses: pending}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := NewPoller(api).WithInterval(5 * time.Millisecond).Await(ctx, gateway.Response{"jobid": "j1"}, "")
	require.Error(t, err)

	var timeout *Timeout
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "j1", timeout.JobID)
}
