package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/logger"
)

// Ensure Transport implements the interface.
var _ driven.IndexTransport = (*Transport)(nil)

// TokenScope is the OAuth scope for the search service.
const TokenScope = "https://search.azure.com/.default"

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 32 << 20

var log = logger.For("searchindex")

// HTTPClient is the subset of *http.Client the transport needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for the transport.
type Config struct {
	// Endpoint is the https base URL of the search service (required).
	Endpoint string

	// APIKey is sent in the api-key header.
	APIKey string

	// TokenSource issues bearer tokens. It takes precedence over APIKey.
	TokenSource oauth2.TokenSource

	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond and Burst throttle outgoing requests.
	RequestsPerSecond float64
	Burst             int

	// HTTPClient overrides the default client.
	HTTPClient HTTPClient

	// UserAgent is sent with every request.
	UserAgent string
}

// Transport sends requests to the search service over HTTPS.
type Transport struct {
	client      HTTPClient
	endpoint    *url.URL
	apiKey      string
	tokenSource oauth2.TokenSource
	timeout     time.Duration
	limiter     *RateLimiter
	userAgent   string
}

// NewTransport validates cfg and creates a transport.
func NewTransport(cfg Config) (*Transport, error) {
	endpoint, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"))
	if err != nil || endpoint.Host == "" {
		return nil, &domain.ConfigError{Key: "search.endpoint", Reason: "not a valid URL"}
	}
	if endpoint.Scheme != "https" {
		return nil, &domain.ConfigError{Key: "search.endpoint", Reason: "must use https"}
	}
	if cfg.APIKey == "" && cfg.TokenSource == nil {
		return nil, &domain.ConfigError{Key: "search.api_key", Reason: "an API key or client credentials are required"}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultSearchTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = domain.DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = domain.DefaultRequestBurst
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "docspace"
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Transport{
		client:      client,
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		tokenSource: cfg.TokenSource,
		timeout:     cfg.Timeout,
		limiter:     NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		userAgent:   cfg.UserAgent,
	}, nil
}

// ClientCredentials returns a cached token source for an Entra ID
// application registration.
func ClientCredentials(tenantID, clientID, clientSecret string) oauth2.TokenSource {
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(tenantID)),
		Scopes:       []string{TokenScope},
	}
	return cc.TokenSource(context.Background())
}

// Do sends one request. Non-2xx replies are returned, not treated as errors.
func (t *Transport) Do(ctx context.Context, req driven.IndexRequest) (*driven.IndexResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	httpReq, err := t.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("x-ms-client-request-id", requestID)

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	log.Debug("%s %s api-version=%s -> %d in %s (request %s)",
		req.Method, req.Path, req.APIVersion, resp.StatusCode,
		time.Since(start).Round(time.Millisecond), requestID)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		delay := t.limiter.RecordThrottle(resp.Header)
		log.Warn("throttled with status %d, pausing requests for %s", resp.StatusCode, delay)
	}

	return &driven.IndexResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

func (t *Transport) newRequest(ctx context.Context, req driven.IndexRequest) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := *t.endpoint
	// OData keys like indexes('docs') are sent unescaped.
	u.Path = t.endpoint.Path + req.Path
	u.RawPath = t.endpoint.EscapedPath() + req.Path
	query := url.Values{}
	for k, v := range req.Query {
		query[k] = append([]string(nil), v...)
	}
	if req.APIVersion != "" {
		query.Set("api-version", req.APIVersion)
	}
	u.RawQuery = query.Encode()

	var body io.Reader = http.NoBody
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.userAgent)

	if t.tokenSource != nil {
		token, err := t.tokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("acquire token: %w", err)
		}
		token.SetAuthHeader(httpReq)
	} else {
		httpReq.Header.Set("api-key", t.apiKey)
	}
	return httpReq, nil
}

// Close releases idle connections.
func (t *Transport) Close() error {
	if c, ok := t.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}
