package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wayfindAI/wayfind-mvp/pkg/fn"
	"github.com/wayfindAI/wayfind-mvp/pkg/resilience"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the directions provider endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/directions"

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route is the subset of a provider route the frontend renders.
type Route struct {
	Summary          string `json:"summary,omitempty"`
	DistanceText     string `json:"distance_text"`
	DistanceValue    int    `json:"distance_value"`
	DurationText     string `json:"duration_text"`
	DurationValue    int    `json:"duration_value"`
	StartAddress     string `json:"start_address"`
	EndAddress       string `json:"end_address"`
	StartLocation    LatLng `json:"start_location"`
	EndLocation      LatLng `json:"end_location"`
	OverviewPolyline string `json:"overview_polyline"`
}

// directionsResponse is the provider's directions JSON.
type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Summary          string `json:"summary"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"distance"`
			Duration struct {
				Text  string `json:"text"`
				Value int    `json:"value"`
			} `json:"duration"`
			StartAddress  string `json:"start_address"`
			EndAddress    string `json:"end_address"`
			StartLocation LatLng `json:"start_location"`
			EndLocation   LatLng `json:"end_location"`
		} `json:"legs"`
	} `json:"routes"`
}

// ClientOpts configures the directions client.
type ClientOpts struct {
	// BaseURL overrides the provider endpoint, for tests.
	BaseURL string
	// DefaultOrigin is used when a query names no origin, and as the
	// canonical form of its known aliases.
	DefaultOrigin string
	// Language for provider-rendered texts.
	Language string
}

// Client fetches outdoor routes from the directions provider. Calls go
// through a rate limiter and a circuit breaker so a flapping provider
// cannot stall or flood the API.
type Client struct {
	baseURL       string
	apiKey        string
	defaultOrigin string
	language      string
	limiter       *rate.Limiter
	breaker       *resilience.Breaker
	httpClient    *http.Client
}

// NewClient creates a directions client with the given API key.
func NewClient(apiKey string, opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = "zh-CN"
	}
	return &Client{
		baseURL:       opts.BaseURL,
		apiKey:        apiKey,
		defaultOrigin: opts.DefaultOrigin,
		language:      opts.Language,
		limiter:       rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		breaker:       resilience.NewBreaker(resilience.DefaultBreakerOpts),
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether the client is configured with an API key.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// canonicalizeOrigin folds known aliases of the default origin and falls
// back to it when the query named no origin.
func (c *Client) canonicalizeOrigin(origin string) string {
	o := strings.TrimSpace(origin)
	if o == "" {
		return c.defaultOrigin
	}
	lo := strings.ToLower(o)
	if lo == "ntu" || strings.Contains(o, "南洋理工") || strings.Contains(lo, "nanyang technological university") {
		return c.defaultOrigin
	}
	return o
}

// Directions fetches a route for the parsed query. A nil route with a
// nil error means the provider found no route, or no API key is set.
func (c *Client) Directions(ctx context.Context, q ParsedQuery) (*Route, error) {
	if !c.Enabled() || q.Destination == "" {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result := resilience.CallResult(c.breaker, ctx, func(ctx context.Context) fn.Result[*Route] {
		return c.fetch(ctx, c.canonicalizeOrigin(q.Origin), q.Destination, q.Mode)
	})
	return result.Unwrap()
}

func (c *Client) fetch(ctx context.Context, origin, destination, mode string) fn.Result[*Route] {
	params := url.Values{
		"origin":       {origin},
		"destination":  {destination},
		"mode":         {mode},
		"alternatives": {"false"},
		"language":     {c.language},
		"key":          {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/json?"+params.Encode(), nil)
	if err != nil {
		return fn.Err[*Route](err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fn.Err[*Route](fmt.Errorf("directions: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fn.Err[*Route](fmt.Errorf("directions: status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fn.Err[*Route](err)
	}

	var dr directionsResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return fn.Err[*Route](fmt.Errorf("directions: decode: %w", err))
	}

	if dr.Status != "OK" || len(dr.Routes) == 0 || len(dr.Routes[0].Legs) == 0 {
		// ZERO_RESULTS and friends are "no route", not a provider fault.
		return fn.Ok[*Route](nil)
	}

	route := dr.Routes[0]
	leg := route.Legs[0]
	return fn.Ok(&Route{
		Summary:          route.Summary,
		DistanceText:     leg.Distance.Text,
		DistanceValue:    leg.Distance.Value,
		DurationText:     leg.Duration.Text,
		DurationValue:    leg.Duration.Value,
		StartAddress:     leg.StartAddress,
		EndAddress:       leg.EndAddress,
		StartLocation:    leg.StartLocation,
		EndLocation:      leg.EndLocation,
		OverviewPolyline: route.OverviewPolyline.Points,
	})
}
