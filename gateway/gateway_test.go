package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-seller-client/gateway"
	"github.com/jrsteele09/go-seller-client/identity"
	"github.com/jrsteele09/go-seller-client/identity/identityfake"
	"github.com/jrsteele09/go-seller-client/internal/config"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// receivedRequest is what the fake backend saw.
type receivedRequest struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
	Body    []byte
}

type testFixture struct {
	provider *identityfake.FakeProvider
	metrics  *gateway.Metrics
	gateway  *gateway.Gateway
	server   *httptest.Server

	lock     sync.Mutex
	received []receivedRequest
	handler  http.HandlerFunc
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		provider: identityfake.NewFakeProvider(),
		metrics:  gateway.NewMetrics(prometheus.NewRegistry()),
		handler: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":42}`))
		},
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.lock.Lock()
		f.received = append(f.received, receivedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.Query(),
			Headers: r.Header.Clone(),
			Body:    body,
		})
		handler := f.handler
		f.lock.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)

	f.gateway = gateway.New(f.server.URL, config.Gateway{}, f.provider,
		gateway.WithLogger(zerolog.Nop()),
		gateway.WithMetrics(f.metrics),
	)
	return f
}

func (f *testFixture) respond(status int, body string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (f *testFixture) last(t *testing.T) receivedRequest {
	t.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()
	require.NotEmpty(t, f.received)
	return f.received[len(f.received)-1]
}

func TestSignedInRequestCarriesFreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.SignInAs(identity.Principal{ID: "uid-1"})

	_, err := f.gateway.Do(context.Background(), http.MethodGet, "/api/sellers/orders", nil)
	require.NoError(t, err)
	first := f.last(t).Headers.Get("Authorization")
	require.Equal(t, "Bearer "+f.provider.LastToken(), first)

	_, err = f.gateway.Do(context.Background(), http.MethodGet, "/api/sellers/orders", nil)
	require.NoError(t, err)
	second := f.last(t).Headers.Get("Authorization")
	require.Equal(t, "Bearer "+f.provider.LastToken(), second)

	// The gateway asks the provider every time instead of reusing a token.
	require.NotEqual(t, first, second)
	require.Equal(t, 2, f.provider.IssuedCount())
}

func TestNoPrincipalSendsNoAuthorization(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.gateway.Do(context.Background(), http.MethodGet, "/api/categories/all", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":42}`, string(raw))
	require.Empty(t, f.last(t).Headers.Values("Authorization"))
	require.Zero(t, f.provider.IssuedCount())
}

func TestTokenFailureProceedsUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.SignInAs(identity.Principal{ID: "uid-1"})
	f.provider.SetTokenError(errors.New("token endpoint down"))
	f.gateway.SetAuthHeader("stale")

	_, err := f.gateway.Do(context.Background(), http.MethodGet, "/api/users/me", nil)
	require.NoError(t, err)
	require.Empty(t, f.last(t).Headers.Values("Authorization"))
}

func TestNilProviderIsUnauthenticated(t *testing.T) {
	f := setupTestFixture(t)
	g := gateway.New(f.server.URL, config.Gateway{}, nil, gateway.WithLogger(zerolog.Nop()))

	_, err := g.Do(context.Background(), http.MethodGet, "/api/categories/all", nil)
	require.NoError(t, err)
	require.Empty(t, f.last(t).Headers.Values("Authorization"))
}

func TestGetPayloadIsSentAsQuery(t *testing.T) {
	type searchParams struct {
		Query  string `url:"q"`
		Page   int    `url:"page,omitempty"`
		Status string `url:"status,omitempty"`
	}

	tests := []struct {
		name    string
		payload any
		want    url.Values
	}{
		{"map of strings", map[string]string{"status": "pending"}, url.Values{"status": {"pending"}}},
		{"map of any", map[string]any{"page": 2, "skip": nil}, url.Values{"page": {"2"}}},
		{"url values", url.Values{"q": {"rice", "dal"}}, url.Values{"q": {"rice", "dal"}}},
		{"tagged struct", searchParams{Query: "atta", Page: 1}, url.Values{"q": {"atta"}, "page": {"1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)

			_, err := f.gateway.Do(context.Background(), http.MethodGet, "/api/products/master-search", tt.payload)
			require.NoError(t, err)

			got := f.last(t)
			require.Equal(t, tt.want, got.Query)
			require.Empty(t, got.Body)
			require.Empty(t, got.Headers.Get("Content-Type"))
		})
	}
}

func TestGetRejectsUnencodablePayload(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.gateway.Do(context.Background(), http.MethodGet, "/api/products", 42)
	require.ErrorIs(t, err, apperrors.ErrInvalidPayload)
}

func TestJSONBody(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.gateway.Do(context.Background(), http.MethodPatch, "/api/suborders/7/status", map[string]string{"status": "accepted"})
	require.NoError(t, err)

	got := f.last(t)
	require.Equal(t, http.MethodPatch, got.Method)
	require.Equal(t, "/api/suborders/7/status", got.Path)
	require.Equal(t, "application/json", got.Headers.Get("Content-Type"))
	require.JSONEq(t, `{"status":"accepted"}`, string(got.Body))
	require.NotEmpty(t, got.Headers.Get(gateway.RequestIDHeader))
}

func TestMultipartOverridesContentType(t *testing.T) {
	f := setupTestFixture(t)
	f.respond(http.StatusCreated, ``)

	payload := &gateway.Multipart{
		Fields: map[string]string{"name": "Basmati Rice", "price": "120"},
		Files: []gateway.File{{
			FieldName:   "images",
			FileName:    "rice.jpg",
			ContentType: "image/jpeg",
			Content:     strings.NewReader("jpeg-bytes"),
		}},
	}
	raw, err := f.gateway.Do(context.Background(), http.MethodPost, "/api/products", payload)
	require.NoError(t, err)
	require.Nil(t, raw)

	got := f.last(t)
	contentType := got.Headers.Get("Content-Type")
	require.True(t, strings.HasPrefix(contentType, "multipart/form-data; boundary="), contentType)

	// Re-parse what the backend received.
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(got.Body)))
	req.Header.Set("Content-Type", contentType)
	require.NoError(t, req.ParseMultipartForm(1<<20))
	require.Equal(t, []string{"Basmati Rice"}, req.MultipartForm.Value["name"])
	require.Equal(t, []string{"120"}, req.MultipartForm.Value["price"])

	require.Len(t, req.MultipartForm.File["images"], 1)
	fh := req.MultipartForm.File["images"][0]
	require.Equal(t, "rice.jpg", fh.Filename)
	require.Equal(t, "image/jpeg", fh.Header.Get("Content-Type"))
	file, err := fh.Open()
	require.NoError(t, err)
	defer file.Close()
	b, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "jpeg-bytes", string(b))
}

func TestUnsupportedMethod(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.gateway.Do(context.Background(), http.MethodOptions, "/api/products", nil)
	require.ErrorIs(t, err, apperrors.ErrUnsupportedMethod)
	f.lock.Lock()
	defer f.lock.Unlock()
	require.Empty(t, f.received)
}

func TestRequestDecodesBody(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.SignInAs(identity.Principal{ID: "uid-1"})

	type result struct {
		Data int `json:"data"`
	}
	got, err := gateway.Request[result](context.Background(), f.gateway, http.MethodGet, "/resource", nil)
	require.NoError(t, err)
	require.Equal(t, 42, got.Data)

	f.respond(http.StatusOK, `not json`)
	_, err = gateway.Request[result](context.Background(), f.gateway, http.MethodGet, "/resource", nil)
	require.Error(t, err)
	_, classified := gateway.AsClassified(err)
	require.False(t, classified)

	f.respond(http.StatusNoContent, ``)
	got, err = gateway.Request[result](context.Background(), f.gateway, http.MethodDelete, "/resource", nil)
	require.NoError(t, err)
	require.Zero(t, got.Data)
}

func TestSetAuthHeader(t *testing.T) {
	f := setupTestFixture(t)

	require.Empty(t, f.gateway.AuthHeader())
	f.gateway.SetAuthHeader("abc")
	require.Equal(t, "Bearer abc", f.gateway.AuthHeader())
	f.gateway.SetAuthHeader("")
	require.Empty(t, f.gateway.AuthHeader())
}

func TestMetricsRecordOutcomes(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.gateway.Do(context.Background(), http.MethodGet, "/resource", nil)
	require.NoError(t, err)
	f.respond(http.StatusUnprocessableEntity, `{"message":"invalid price"}`)
	_, err = f.gateway.Do(context.Background(), http.MethodPost, "/resource", map[string]int{"price": -1})
	require.Error(t, err)

	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Requests.WithLabelValues(http.MethodGet, "ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Requests.WithLabelValues(http.MethodPost, string(gateway.KindServerRejected))))
}

func decodeData(t *testing.T, raw json.RawMessage) int {
	t.Helper()
	var body struct {
		Data int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Data
}

func TestScenarioSignedInGet(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.SignInAs(identity.Principal{ID: "uid-1"})

	raw, err := f.gateway.Do(context.Background(), http.MethodGet, "/resource", nil)
	require.NoError(t, err)
	require.Equal(t, 42, decodeData(t, raw))
	f.lock.Lock()
	defer f.lock.Unlock()
	require.Len(t, f.received, 1)
}
