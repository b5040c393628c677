// API service for making raw HTTP requests to the remote record-store
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/desertthunder/frontdesk/internal/shared"
)

const defaultBaseURL = "http://127.0.0.1:8000"

// APIService performs raw HTTP requests against the record-store.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIService creates a new API service instance for the record-store at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// NewAPIServiceFromConfig builds a traced, rate-limited service from cfg.
func NewAPIServiceFromConfig(cfg shared.APIConfig) *APIService {
	client := &http.Client{
		Timeout:   cfg.Timeout.Duration,
		Transport: shared.TracedTransport(nil),
	}
	return NewAPIService(cfg.BaseURL, client).SetRateLimit(cfg.RateLimit)
}

// SetRateLimit caps outgoing requests at rps per second. Zero or less removes the cap.
func (a *APIService) SetRateLimit(rps float64) *APIService {
	if rps <= 0 {
		a.limiter = nil
		return a
	}
	a.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	return a
}

// BaseURL returns the record-store root without a trailing slash.
func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Do sends a request to path with optional query and JSON body and returns the raw response.
//
// Non-2xx statuses are not errors at this layer.
func (a *APIService) Do(ctx context.Context, method, path string, query url.Values, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	p, q := splitQuery(path)
	return a.Do(ctx, http.MethodGet, p, q, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	if data == nil {
		data = []byte{}
	}
	return a.Do(ctx, http.MethodPost, path, nil, data)
}

// Delete performs a DELETE request to the specified path and returns the raw response.
func (a *APIService) Delete(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodDelete, path, nil, nil)
}

// splitQuery separates an inline query string so it can be re-encoded.
func splitQuery(path string) (string, url.Values) {
	p, rawQuery, ok := strings.Cut(path, "?")
	if !ok {
		return path, nil
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return path, nil
	}
	return p, q
}
