package reconciler

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/telemetry"
)

// apiCall records one request the fake gateway received.
type apiCall struct {
	action string
	params gateway.Params
}

// fakeGateway dispatches requests to per-action handlers and records
// every call.
type fakeGateway struct {
	handlers map[string]func(gateway.Params) (gateway.Response, error)
	calls    []apiCall
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{handlers: make(map[string]func(gateway.Params) (gateway.Response, error))}
}

func (f *fakeGateway) on(action string, handler func(gateway.Params) (gateway.Response, error)) *fakeGateway {
	f.handlers[action] = handler
	return f
}

func (f *fakeGateway) respond(action string, resp gateway.Response) *fakeGateway {
	return f.on(action, func(gateway.Params) (gateway.Response, error) {
		return resp, nil
	})
}

func (f *fakeGateway) Request(ctx context.Context, action string, params gateway.Params) (gateway.Response, error) {
	f.calls = append(f.calls, apiCall{action: action, params: params})
	handler, ok := f.handlers[action]
	if !ok {
		return nil, fmt.Errorf("unexpected action %s", action)
	}
	return handler(params)
}

// actions lists the recorded call actions in order.
func (f *fakeGateway) actions() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.action
	}
	return out
}

// lastParams returns the parameters of the most recent call to action.
func (f *fakeGateway) lastParams(t *testing.T, action string) gateway.Params {
	t.Helper()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].action == action {
			return f.calls[i].params
		}
	}
	t.Fatalf("no call to %s recorded", action)
	return nil
}

func listOf(key string, items ...map[string]any) gateway.Response {
	list := make([]any, len(items))
	for i, item := range items {
		list[i] = item
	}
	return gateway.Response{"count": float64(len(items)), key: list}
}

func testLogger() *telemetry.Logger {
	return telemetry.NewLoggerTo("test", io.Discard)
}

// testOptions polls at a tight interval so async tests stay fast.
func testOptions() Options {
	return Options{PollAsync: true, PollInterval: 1}
}
