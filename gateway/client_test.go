package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, endpoint, method string) *Client {
	t.Helper()
	c, err := New(Config{
		Endpoint:  endpoint,
		APIKey:    "api",
		SecretKey: "secret",
		Method:    method,
	}, zerolog.Nop())
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no endpoint", Config{APIKey: "a", SecretKey: "s"}},
		{"no api key", Config{Endpoint: "http://cs", SecretKey: "s"}},
		{"no secret", Config{Endpoint: "http://cs", APIKey: "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestSignedQuery(t *testing.T) {
	c := testClient(t, "http://cs", "get")

	query := c.signedQuery("listDomains", NewParams().Set("name", "hello world"))

	// Keys sorted, spaces as %20, signature over the lower-cased string.
	assert.Equal(t,
		"apiKey=api&command=listDomains&name=hello%20world&response=json"+
			"&signature=0oexN0G7dkSHqtP84rwhYnH4peY%3D",
		query)
}

func TestRequestGet(t *testing.T) {
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"listdomainsresponse":{"count":1,"domain":[{"id":"d1","path":"ROOT"}]}}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, "get")
	resp, err := c.Request(context.Background(), "listDomains", NewParams().Set("listall", "true"))
	require.NoError(t, err)

	assert.Equal(t, []string{"listDomains"}, gotQuery["command"])
	assert.Equal(t, []string{"json"}, gotQuery["response"])
	assert.Equal(t, []string{"true"}, gotQuery["listall"])
	assert.NotEmpty(t, gotQuery["signature"])

	domains := resp.List("domain")
	require.Len(t, domains, 1)
	assert.Equal(t, "d1", domains[0].Str("id"))
}

func TestRequestPost(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"createdomainresponse":{"domain":{"id":"d2"}}}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, "post")
	resp, err := c.Request(context.Background(), "createDomain", NewParams().Set("name", "dev"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Contains(t, string(gotBody), "command=createDomain")
	assert.Equal(t, "d2", resp.Sub("domain").Str("id"))
}

func TestRequestRemoteFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"createdomainresponse":{"errorcode":431,"errortext":"domain exists"}}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL, "get")
	_, err := c.Request(context.Background(), "createDomain", NewParams())
	require.Error(t, err)

	var fault *RemoteFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "createDomain", fault.Action)
	assert.Equal(t, 431, fault.Code)
	assert.Equal(t, "domain exists", fault.Message)
}

func TestRequestMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>gateway timeout</html>"},
		{"no envelope", `{"unexpected":{"id":"x"}}`},
		{"envelope not an object", `{"listdomainsresponse":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := testClient(t, server.URL, "get")
			_, err := c.Request(context.Background(), "listDomains", NewParams())

			var malformed *MalformedResponse
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, "listDomains", malformed.Action)
		})
	}
}

func TestUnwrapEnvelopeCaseInsensitive(t *testing.T) {
	resp, err := unwrap("listCapabilities", []byte(`{"listcapabilitiesResponse":{"capability":{"cloudstackversion":"4.19"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "4.19", resp.Sub("capability").Str("cloudstackversion"))
}
