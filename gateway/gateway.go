// Package gateway is the single path from feature code to the seller backend.
// It attaches the bearer token of the signed-in principal to every request,
// classifies failures once and ends the session when the backend answers 401.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-seller-client/identity"
	"github.com/jrsteele09/go-seller-client/internal/config"
	apperrors "github.com/jrsteele09/go-seller-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-ID"
)

var supportedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Doer is implemented by anything that can run a gateway request.
type Doer interface {
	Do(ctx context.Context, method, path string, payload any) (json.RawMessage, error)
}

var _ Doer = (*Gateway)(nil)

type Gateway struct {
	baseURL    string
	maxBody    int64
	httpClient *http.Client
	provider   identity.Provider
	metrics    *Metrics
	log        zerolog.Logger

	headerLock     sync.RWMutex
	defaultHeaders http.Header

	teardownLock sync.Mutex
}

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) { g.httpClient = client }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) { g.log = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// New creates a gateway for baseURL. provider may be nil for a client that
// only calls public endpoints.
func New(baseURL string, cfg config.GatewayConfig, provider identity.Provider, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:        strings.TrimRight(baseURL, "/"),
		maxBody:        cfg.GetMaxResponseBytes(),
		httpClient:     &http.Client{Timeout: cfg.GetRequestTimeout()},
		provider:       provider,
		log:            log.Logger,
		defaultHeaders: http.Header{},
	}
	g.defaultHeaders.Set("Content-Type", cfg.GetDefaultContentType())
	g.defaultHeaders.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetAuthHeader sets the default Authorization header. An empty token removes it.
// It is the only way to change the header.
func (g *Gateway) SetAuthHeader(token string) {
	g.headerLock.Lock()
	defer g.headerLock.Unlock()
	if token == "" {
		g.defaultHeaders.Del(AuthorizationHeader)
		return
	}
	g.defaultHeaders.Set(AuthorizationHeader, "Bearer "+token)
}

// AuthHeader returns the default Authorization header value, or "".
func (g *Gateway) AuthHeader() string {
	g.headerLock.RLock()
	defer g.headerLock.RUnlock()
	return g.defaultHeaders.Get(AuthorizationHeader)
}

// Do sends one request and returns the response body unchanged on 2xx.
// GET payloads are sent as query parameters, all others as a JSON body or,
// for *Multipart, as multipart/form-data. Do never retries. Every error for a
// dispatched request is a *ClassifiedError.
func (g *Gateway) Do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	req, err := g.newRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	principalID := g.authorize(ctx, req)

	logger := g.log.With().
		Str("method", method).
		Str("path", path).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Logger()

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.observe(method, string(KindNetworkUnreachable), time.Since(start))
		logger.Warn().Err(err).Msg("No response from backend")
		return nil, networkError(method, path, err)
	}
	defer resp.Body.Close()

	body, err := g.readBody(resp.Body)
	switch {
	case err == nil:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The status alone classifies these, so a 401 still ends the session.
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("Response body unusable")
		body = nil
	case apperrors.Is(err, ErrResponseTooLarge):
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("Response body unusable")
		cerr := classifyResponse(method, path, resp.StatusCode, nil)
		cerr.Kind = KindServerRejected
		cerr.Err = err
		g.metrics.observe(method, string(cerr.Kind), time.Since(start))
		return nil, cerr
	default:
		logger.Warn().Err(err).Int("status", resp.StatusCode).Msg("Response body lost")
		g.metrics.observe(method, string(KindNetworkUnreachable), time.Since(start))
		return nil, networkError(method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		g.metrics.observe(method, outcomeOK, time.Since(start))
		if len(body) == 0 {
			return nil, nil
		}
		return body, nil
	}

	cerr := classifyResponse(method, path, resp.StatusCode, body)
	g.metrics.observe(method, string(cerr.Kind), time.Since(start))

	switch cerr.Kind {
	case KindUnauthorized:
		logger.Warn().Msg("Session expired, logging out")
		g.teardown(ctx, principalID)
	case KindForbidden:
		logger.Warn().Str("message", cerr.Message).Msg("Forbidden: check user permissions or approval")
	default:
		logger.Debug().Int("status", cerr.Status).Str("message", cerr.Message).Msg("Request rejected")
	}
	return nil, cerr
}

// readBody reads at most maxBody bytes and fails with ErrResponseTooLarge
// instead of returning a cut-off body.
func (g *Gateway) readBody(r io.Reader) ([]byte, error) {
	if g.maxBody <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, g.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > g.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, g.maxBody)
	}
	return body, nil
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	if _, ok := supportedMethods[method]; !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedMethod, method)
	}

	target := g.baseURL + "/" + strings.TrimLeft(path, "/")
	var (
		body        io.Reader
		contentType string
	)
	if method == http.MethodGet {
		values, err := encodeQuery(payload)
		if err != nil {
			return nil, err
		}
		if len(values) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + values.Encode()
		}
	} else {
		var err error
		if body, contentType, err = encodeBody(payload); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	g.headerLock.RLock()
	for k, v := range g.defaultHeaders {
		req.Header[k] = append([]string(nil), v...)
	}
	g.headerLock.RUnlock()

	switch {
	case contentType != "":
		req.Header.Set("Content-Type", contentType)
	case body == nil:
		req.Header.Del("Content-Type")
	}
	req.Header.Set(RequestIDHeader, uuid.New().String())
	return req, nil
}

// authorize sets the bearer token of the signed-in principal on req and
// returns that principal's ID. Requests without a principal, or whose token
// could not be obtained, go out without an Authorization header.
func (g *Gateway) authorize(ctx context.Context, req *http.Request) string {
	p := g.currentPrincipal()
	if p == nil {
		req.Header.Del(AuthorizationHeader)
		return ""
	}

	token, err := g.provider.IssueToken(ctx, p)
	if err != nil || token == "" {
		g.log.Error().Err(err).Str("principal", p.ID).Msg("Token fetching error")
		req.Header.Del(AuthorizationHeader)
		return p.ID
	}
	req.Header.Set(AuthorizationHeader, "Bearer "+token)
	return p.ID
}

func (g *Gateway) currentPrincipal() *identity.Principal {
	if g.provider == nil {
		return nil
	}
	return g.provider.CurrentPrincipal()
}

// teardown ends the session a 401 was issued for. Overlapping 401s are
// serialized; only the first finds a principal to sign out. A 401 for a
// principal that has since been replaced leaves the new session alone.
func (g *Gateway) teardown(ctx context.Context, principalID string) {
	g.teardownLock.Lock()
	defer g.teardownLock.Unlock()

	current := g.currentPrincipal()
	if current != nil && current.ID != principalID {
		g.log.Info().Str("principal", current.ID).Msg("Ignoring 401 from a previous session")
		return
	}

	g.SetAuthHeader("")
	if current == nil {
		return
	}

	if err := g.provider.SignOut(context.WithoutCancel(ctx)); err != nil {
		g.log.Err(err).Str("principal", current.ID).Msg("Sign out after 401 failed")
		return
	}
	g.metrics.teardown()
	g.log.Info().Str("principal", current.ID).Msg("Session torn down")
}

// Request runs a request through d and decodes the response body into T.
// An empty body leaves T at its zero value.
func Request[T any](ctx context.Context, d Doer, method, path string, payload any) (T, error) {
	var out T
	raw, err := d.Do(ctx, method, path, payload)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return out, nil
}
