// Package gateway implements the CloudStack query API client. Every API
// action goes through a single Request call; responses come back as the
// decoded JSON payload with the "<action>response" envelope stripped.
package gateway

import (
	"context"
	"strconv"
)

// API is the capability the resolver, poller and reconcilers depend on.
type API interface {
	Request(ctx context.Context, action string, params Params) (Response, error)
}

// Params holds the query parameters of a single API action. Empty values
// are never sent, matching the "absent means don't care" contract.
type Params map[string]string

// NewParams creates an empty parameter set.
func NewParams() Params {
	return make(Params)
}

// Set adds a string parameter, skipping empty values.
func (p Params) Set(key, value string) Params {
	if value != "" {
		p[key] = value
	}
	return p
}

// SetBool adds a boolean parameter.
func (p Params) SetBool(key string, value bool) Params {
	p[key] = strconv.FormatBool(value)
	return p
}

// SetInt adds an integer parameter.
func (p Params) SetInt(key string, value int) Params {
	p[key] = strconv.Itoa(value)
	return p
}

// Response is a decoded API payload. The CloudStack API is weakly typed;
// typed snapshots are produced at this boundary via Decode.
type Response map[string]any

// Str returns a string field, tolerating the numeric values the API
// occasionally returns for string fields.
func (r Response) Str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Int returns an integer field, tolerating string-encoded numbers.
func (r Response) Int(key string) int {
	switch v := r[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Has reports whether the field is present.
func (r Response) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Sub returns a nested object field, or nil if absent or not an object.
func (r Response) Sub(key string) Response {
	if m, ok := r[key].(map[string]any); ok {
		return Response(m)
	}
	return nil
}

// List returns a list field as responses. CloudStack list replies look
// like {"count": 2, "domain": [{...}, {...}]}.
func (r Response) List(key string) []Response {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Response, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Response(m))
		}
	}
	return out
}
