package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"recipe-api/domain"
)

const (
	// DefaultBaseURL is the public API host.
	DefaultBaseURL = "https://api.spoonacular.com"

	defaultTimeout = 15 * time.Second
	maxRetries     = 2
	retryDelay     = 200 * time.Millisecond
)

var (
	// ErrQuotaExceeded is returned when the upstream rejects the request
	// because the daily point quota is spent (HTTP 402).
	ErrQuotaExceeded = quotaError{}
	// ErrNotFound is returned for unknown recipe ids.
	ErrNotFound = notFoundError{}
)

type quotaError struct{}

func (quotaError) Error() string  { return "spoonacular quota exceeded" }
func (quotaError) QuotaExceeded() {}

type notFoundError struct{}

func (notFoundError) Error() string { return "recipe not found" }
func (notFoundError) NotFound()     {}

// QuotaRecorder receives the point usage reported on upstream responses.
type QuotaRecorder interface {
	RecordQuota(ctx context.Context, pointsUsed float64)
}

// Client is a typed wrapper over the recipe API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	quota   QuotaRecorder
}

// New creates a Client. baseURL falls back to DefaultBaseURL when empty.
// quota may be nil.
func New(baseURL, apiKey string, quota QuotaRecorder) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		quota:   quota,
	}
}

// Search runs a complex recipe search with the provided filters.
func (c *Client) Search(ctx context.Context, p domain.SearchParams) (domain.SearchResult, error) {
	q := url.Values{}
	if p.Query != "" {
		q.Set("query", p.Query)
	}
	if p.Cuisine != "" {
		q.Set("cuisine", p.Cuisine)
	}
	if p.Diet != "" {
		q.Set("diet", p.Diet)
	}
	if p.Intolerances != "" {
		q.Set("intolerances", p.Intolerances)
	}
	if p.MaxReadyTime > 0 {
		q.Set("maxReadyTime", strconv.Itoa(p.MaxReadyTime))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Number > 0 {
		q.Set("number", strconv.Itoa(p.Number))
	}

	var wire searchResponse
	if err := c.getJSON(ctx, "/recipes/complexSearch", q, &wire); err != nil {
		return domain.SearchResult{}, err
	}
	out := domain.SearchResult{
		Results:      make([]domain.RecipeSummary, 0, len(wire.Results)),
		Offset:       wire.Offset,
		Number:       wire.Number,
		TotalResults: wire.TotalResults,
	}
	for _, r := range wire.Results {
		out.Results = append(out.Results, r.summary())
	}
	return out, nil
}

// Information fetches the full detail for a single recipe.
func (c *Client) Information(ctx context.Context, id int, includeNutrition bool) (domain.Recipe, error) {
	q := url.Values{}
	if includeNutrition {
		q.Set("includeNutrition", "true")
	}
	var wire informationResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/recipes/%d/information", id), q, &wire); err != nil {
		return domain.Recipe{}, err
	}
	return wire.recipe(), nil
}

// Random fetches random recipes, optionally constrained to tags.
func (c *Client) Random(ctx context.Context, number int, tags []string) ([]domain.Recipe, error) {
	q := url.Values{}
	if number > 0 {
		q.Set("number", strconv.Itoa(number))
	}
	if len(tags) > 0 {
		q.Set("tags", strings.Join(tags, ","))
	}
	var wire randomResponse
	if err := c.getJSON(ctx, "/recipes/random", q, &wire); err != nil {
		return nil, err
	}
	recipes := make([]domain.Recipe, 0, len(wire.Recipes))
	for _, r := range wire.Recipes {
		recipes = append(recipes, r.recipe())
	}
	return recipes, nil
}

// Similar lists recipes similar to the given one.
func (c *Client) Similar(ctx context.Context, id, number int) ([]domain.RecipeSummary, error) {
	q := url.Values{}
	if number > 0 {
		q.Set("number", strconv.Itoa(number))
	}
	var wire []similarEntry
	if err := c.getJSON(ctx, fmt.Sprintf("/recipes/%d/similar", id), q, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.RecipeSummary, 0, len(wire))
	for _, e := range wire {
		out = append(out, domain.RecipeSummary{
			ID:             e.ID,
			Title:          e.Title,
			ReadyInMinutes: e.ReadyInMinutes,
			Servings:       e.Servings,
		})
	}
	return out, nil
}

// WinePairing fetches the suggested wines for a food term.
func (c *Client) WinePairing(ctx context.Context, food string) (domain.WinePairing, error) {
	q := url.Values{}
	q.Set("food", food)
	var wire winePairingResponse
	if err := c.getJSON(ctx, "/food/wine/pairing", q, &wire); err != nil {
		return domain.WinePairing{}, err
	}
	return domain.WinePairing{PairedWines: wire.PairedWines, PairingText: wire.PairingText}, nil
}

// getJSON issues a GET and decodes the response. Transport errors and 5xx
// responses are retried a fixed number of times; 4xx responses are not.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	q.Set("apiKey", c.apiKey)
	target := c.baseURL + path + "?" + q.Encode()
	endpoint := metricEndpoint(path)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			observeRequest(endpoint, "transport_error")
			lastErr = err
			continue
		}

		retry, err := c.handleResponse(ctx, resp, endpoint, v)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return lastErr
}

func (c *Client) handleResponse(ctx context.Context, resp *http.Response, endpoint string, v any) (retry bool, err error) {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	observeRequest(endpoint, strconv.Itoa(resp.StatusCode))
	c.recordQuota(ctx, resp.Header)

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return false, fmt.Errorf("decode %s: %w", endpoint, err)
		}
		return false, nil
	case resp.StatusCode == http.StatusPaymentRequired:
		return false, ErrQuotaExceeded
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("upstream %s: status %d", endpoint, resp.StatusCode)
	default:
		return false, fmt.Errorf("upstream %s: status %d", endpoint, resp.StatusCode)
	}
}

func (c *Client) recordQuota(ctx context.Context, h http.Header) {
	if c.quota == nil {
		return
	}
	raw := h.Get("X-API-Quota-Request")
	if raw == "" {
		return
	}
	points, err := strconv.ParseFloat(raw, 64)
	if err != nil || points <= 0 {
		return
	}
	c.quota.RecordQuota(ctx, points)
}

// metricEndpoint collapses recipe ids so metric cardinality stays bounded.
func metricEndpoint(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, p := range parts {
		if _, err := strconv.Atoi(p); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
