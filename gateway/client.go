package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 -- the CloudStack API mandates SHA1 signatures
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vintari/cskeeper/telemetry"
)

// Config holds the connection settings for a CloudStack endpoint.
type Config struct {
	Endpoint  string
	APIKey    string
	SecretKey string
	Method    string // "get" or "post"
	Timeout   time.Duration
	VerifySSL bool
}

// Client signs and sends requests against the CloudStack query API.
type Client struct {
	endpoint   string
	apiKey     string
	secretKey  string
	method     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a client. The HTTP client comes from cleanhttp so no global
// transport state is shared with anything else in the process.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("endpoint, api key and secret key are required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", cfg.Endpoint, err)
	}

	method := http.MethodGet
	if strings.EqualFold(cfg.Method, "post") {
		method = http.MethodPost
	}

	httpClient := cleanhttp.DefaultClient()
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}
	if !cfg.VerifySSL {
		transport := cleanhttp.DefaultTransport()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- operator opt-in
		httpClient.Transport = transport
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		method:     method,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Request sends one API action and returns the unwrapped response payload.
// An error payload in the body becomes a RemoteFault; a body that cannot
// be interpreted becomes a MalformedResponse.
func (c *Client) Request(ctx context.Context, action string, params Params) (Response, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "gateway.request")
	span.SetAttributes(attribute.String("cloudstack.action", action))
	defer span.End()

	start := time.Now()
	resp, err := c.doRequest(ctx, action, params)
	elapsed := time.Since(start)

	telemetry.APICalls.Add(ctx, 1, telemetry.WithAction(action))
	telemetry.APICallDuration.Record(ctx, elapsed.Seconds(), telemetry.WithAction(action))

	if err != nil {
		c.logger.Debug().Err(err).Str("action", action).Dur("elapsed", elapsed).Msg("api call failed")
		return nil, err
	}
	c.logger.Debug().Str("action", action).Dur("elapsed", elapsed).Msg("api call")
	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, action string, params Params) (Response, error) {
	query := c.signedQuery(action, params)

	req, err := c.buildHTTPRequest(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", action, err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", action, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", action, err)
	}

	return unwrap(action, body)
}

func (c *Client) buildHTTPRequest(ctx context.Context, query string) (*http.Request, error) {
	if c.method == http.MethodPost {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(query))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query, nil)
}

// signedQuery builds the sorted query string and appends the HMAC-SHA1
// signature the API requires: keys sorted, values escaped with %20 for
// spaces, the whole string lower-cased before signing.
func (c *Client) signedQuery(action string, params Params) string {
	values := make(map[string]string, len(params)+3)
	for k, v := range params {
		values[k] = v
	}
	values["command"] = action
	values["apiKey"] = c.apiKey
	values["response"] = "json"

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+escape(values[k]))
	}
	query := strings.Join(pairs, "&")

	mac := hmac.New(sha1.New, []byte(c.secretKey))
	mac.Write([]byte(strings.ToLower(query)))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return query + "&signature=" + escape(signature)
}

// escape is url.QueryEscape with spaces as %20, which is what the API
// signs against.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// unwrap parses the JSON body and strips the single "<action>response"
// envelope key. CloudStack reports errors both as HTTP error statuses and
// as errortext fields inside otherwise well-formed envelopes; both paths
// end up as a RemoteFault here.
func unwrap(action string, body []byte) (Response, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &MalformedResponse{Action: action, Reason: "body is not a JSON object"}
	}

	var raw json.RawMessage
	for key, value := range envelope {
		if strings.HasSuffix(strings.ToLower(key), "response") {
			raw = value
			break
		}
	}
	if raw == nil {
		return nil, &MalformedResponse{Action: action, Reason: "no response envelope"}
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &MalformedResponse{Action: action, Reason: "envelope payload is not a JSON object"}
	}

	resp := Response(payload)
	if resp.Has("errortext") {
		return nil, &RemoteFault{
			Action:  action,
			Code:    resp.Int("errorcode"),
			Message: resp.Str("errortext"),
		}
	}
	return resp, nil
}
