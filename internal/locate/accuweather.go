package locate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://dataservice.accuweather.com"
	userAgent      = "Wayfarer/1.0"
)

// AccuWeatherResolver implements Resolver using the AccuWeather city search
// API. The first search result's key wins, matching the provider's own
// relevance ranking.
type AccuWeatherResolver struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// AccuWeatherOpts holds parameters for creating an AccuWeatherResolver.
type AccuWeatherOpts struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// NewAccuWeatherResolver creates a city search resolver.
func NewAccuWeatherResolver(opts AccuWeatherOpts) (*AccuWeatherResolver, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("locate: api key is required")
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AccuWeatherResolver{
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// citySearchResult is one entry of the AccuWeather city search response.
type citySearchResult struct {
	Key           string `json:"Key"`
	LocalizedName string `json:"LocalizedName"`
}

// Resolve looks up a city name and returns its location key. A city the
// provider does not know yields ErrNotFound.
func (r *AccuWeatherResolver) Resolve(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", ErrNotFound
	}

	params := url.Values{}
	params.Add("apikey", r.apiKey)
	params.Add("q", city)

	reqURL := fmt.Sprintf("%s/locations/v1/cities/search?%s", r.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("locate: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("locate: search %q: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("locate: search API returned status %d", resp.StatusCode)
	}

	var results []citySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("locate: decode search response: %w", err)
	}

	if len(results) == 0 || results[0].Key == "" {
		return "", ErrNotFound
	}
	return results[0].Key, nil
}
